package statemachine

// PayoutStatus — статус пакета выплаты исполнителю.
type PayoutStatus string

const (
	PayoutStatusCreated PayoutStatus = "created"
	PayoutStatusSent    PayoutStatus = "sent"
	PayoutStatusSettled PayoutStatus = "settled"
	PayoutStatusFailed  PayoutStatus = "failed"
)

func (s PayoutStatus) IsValid() bool {
	switch s {
	case PayoutStatusCreated, PayoutStatusSent, PayoutStatusSettled, PayoutStatusFailed:
		return true
	}
	return false
}

func (s PayoutStatus) IsTerminal() bool {
	return s == PayoutStatusSettled
}

func (s PayoutStatus) CanTransitionTo(to PayoutStatus, role Role) bool {
	return CanTransition(EntityPayout, string(s), string(to), role)
}

// failed -> sent: повторная отправка той же строки выплаты. Новая выплата
// при ретрае никогда не создаётся.
var payoutTransitions = table{
	string(PayoutStatusCreated): {
		string(PayoutStatusSent):   {RoleAdmin, RoleSystem},
		string(PayoutStatusFailed): {RoleSystem},
	},
	string(PayoutStatusSent): {
		// admin — ручное подтверждение зачисления через API.
		string(PayoutStatusSettled): {RoleAdmin, RoleSystem},
		string(PayoutStatusFailed):  {RoleSystem},
	},
	string(PayoutStatusFailed): {
		string(PayoutStatusSent): {RoleAdmin, RoleSystem},
	},
	string(PayoutStatusSettled): {},
}
