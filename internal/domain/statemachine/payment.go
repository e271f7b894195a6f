package statemachine

// PaymentStatus — статус платежа у провайдера.
type PaymentStatus string

const (
	PaymentStatusCreated        PaymentStatus = "created"
	PaymentStatusRequiresAction PaymentStatus = "requires_action"
	PaymentStatusAuthorized     PaymentStatus = "authorized"
	PaymentStatusCaptured       PaymentStatus = "captured"
	PaymentStatusFailed         PaymentStatus = "failed"
	PaymentStatusRefunded       PaymentStatus = "refunded"
	PaymentStatusCancelled      PaymentStatus = "cancelled"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusCreated, PaymentStatusRequiresAction, PaymentStatusAuthorized,
		PaymentStatusCaptured, PaymentStatusFailed, PaymentStatusRefunded, PaymentStatusCancelled:
		return true
	}
	return false
}

func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusFailed || s == PaymentStatusRefunded || s == PaymentStatusCancelled
}

func (s PaymentStatus) CanTransitionTo(to PaymentStatus, role Role) bool {
	return CanTransition(EntityPayment, string(s), string(to), role)
}

// Провайдер может схлопывать промежуточные состояния, а webhook'и приходят
// не по порядку, поэтому цепочка допускает прыжки вперёд. Движения назад
// нет: устаревшее событие authorized после captured — IllegalTransition.
var paymentTransitions = table{
	string(PaymentStatusCreated): {
		string(PaymentStatusRequiresAction): {RoleSystem},
		string(PaymentStatusAuthorized):     {RoleSystem},
		string(PaymentStatusCaptured):       {RoleSystem},
		string(PaymentStatusFailed):         {RoleSystem},
	},
	string(PaymentStatusRequiresAction): {
		string(PaymentStatusAuthorized): {RoleSystem},
		string(PaymentStatusCaptured):   {RoleSystem},
		string(PaymentStatusFailed):     {RoleSystem},
	},
	string(PaymentStatusAuthorized): {
		string(PaymentStatusCaptured):  {RoleSystem},
		string(PaymentStatusFailed):    {RoleSystem},
		string(PaymentStatusRefunded):  {RoleAdmin, RoleSystem},
		string(PaymentStatusCancelled): {RoleAdmin, RoleSystem},
	},
	string(PaymentStatusCaptured): {
		string(PaymentStatusRefunded):  {RoleAdmin, RoleSystem},
		string(PaymentStatusCancelled): {RoleAdmin, RoleSystem},
	},
	string(PaymentStatusFailed):    {},
	string(PaymentStatusRefunded):  {},
	string(PaymentStatusCancelled): {},
}
