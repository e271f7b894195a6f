package valueobject

import (
	"fmt"

	"github.com/hogarya/hogarya-backend/internal/pkg/apperror"
)

// Money хранит сумму в минимальных единицах валюты (центы, сентесимо).
// Внутри ядра суммы никогда не представляются числами с плавающей точкой.
type Money struct {
	Amount   int64
	Currency string
}

func NewMoney(amount int64, currency string) (Money, error) {
	if amount < 0 {
		return Money{}, apperror.New(apperror.ErrCodeValidation, "сумма не может быть отрицательной")
	}
	if currency == "" {
		currency = "UYU"
	}
	return Money{Amount: amount, Currency: currency}, nil
}

// MustMoney используется для констант в тестах и сидах.
func MustMoney(amount int64, currency string) Money {
	m, err := NewMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, apperror.New(apperror.ErrCodeValidation,
			fmt.Sprintf("нельзя сложить %s и %s", m.Currency, other.Currency))
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

func (m Money) Sub(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, apperror.New(apperror.ErrCodeValidation,
			fmt.Sprintf("нельзя вычесть %s из %s", other.Currency, m.Currency))
	}
	if other.Amount > m.Amount {
		return Money{}, apperror.New(apperror.ErrCodeValidation, "результат вычитания отрицательный")
	}
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}, nil
}

func (m Money) IsZero() bool {
	return m.Amount == 0
}

// SplitFee делит сумму на комиссию платформы и нетто по ставке в базисных
// пунктах (10000 bps = 100%). Комиссия округляется вниз, поэтому
// fee + net == amount всегда выполняется точно.
func (m Money) SplitFee(feeBps int64) (fee Money, net Money, err error) {
	if feeBps < 0 || feeBps > 10000 {
		return Money{}, Money{}, apperror.New(apperror.ErrCodeValidation,
			fmt.Sprintf("ставка комиссии %d bps вне диапазона [0, 10000]", feeBps))
	}
	feeAmount := m.Amount * feeBps / 10000
	fee = Money{Amount: feeAmount, Currency: m.Currency}
	net = Money{Amount: m.Amount - feeAmount, Currency: m.Currency}
	return fee, net, nil
}

// Major возвращает сумму в основных единицах валюты. Используется только
// на презентационной границе, внутри ядра суммы остаются целыми.
func (m Money) Major() float64 {
	return float64(m.Amount) / 100
}

func (m Money) String() string {
	return fmt.Sprintf("%s %d.%02d", m.Currency, m.Amount/100, m.Amount%100)
}
