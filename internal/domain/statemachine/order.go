package statemachine

// OrderStatus — статус заказа.
type OrderStatus string

const (
	OrderStatusDraft                  OrderStatus = "draft"
	OrderStatusPendingProConfirmation OrderStatus = "pending_pro_confirmation"
	OrderStatusAccepted               OrderStatus = "accepted"
	OrderStatusConfirmed              OrderStatus = "confirmed"
	OrderStatusInProgress             OrderStatus = "in_progress"
	OrderStatusAwaitingClientApproval OrderStatus = "awaiting_client_approval"
	OrderStatusCompleted              OrderStatus = "completed"
	OrderStatusDisputed               OrderStatus = "disputed"
	OrderStatusPaid                   OrderStatus = "paid"
	OrderStatusCanceled               OrderStatus = "canceled"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusDraft, OrderStatusPendingProConfirmation, OrderStatusAccepted,
		OrderStatusConfirmed, OrderStatusInProgress, OrderStatusAwaitingClientApproval,
		OrderStatusCompleted, OrderStatusDisputed, OrderStatusPaid, OrderStatusCanceled:
		return true
	}
	return false
}

// IsTerminal: из paid и canceled выхода нет.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPaid || s == OrderStatusCanceled
}

func (s OrderStatus) CanTransitionTo(to OrderStatus, role Role) bool {
	return CanTransition(EntityOrder, string(s), string(to), role)
}

// Основная цепочка движется только вперёд; отмена доступна из любого
// нетерминального статуса, спор — из awaiting_client_approval и completed.
var orderTransitions = table{
	string(OrderStatusDraft): {
		string(OrderStatusPendingProConfirmation): {RoleClient},
		string(OrderStatusCanceled):               {RoleClient, RoleAdmin},
	},
	string(OrderStatusPendingProConfirmation): {
		string(OrderStatusAccepted): {RolePro},
		// system — авто-отмена неподтверждённых заказов планировщиком.
		string(OrderStatusCanceled): {RoleClient, RolePro, RoleAdmin, RoleSystem},
	},
	string(OrderStatusAccepted): {
		// system — подтверждение через захват предоплаты по webhook.
		string(OrderStatusConfirmed): {RoleClient, RoleSystem},
		string(OrderStatusCanceled):  {RoleClient, RolePro, RoleAdmin},
	},
	string(OrderStatusConfirmed): {
		string(OrderStatusInProgress): {RolePro},
		string(OrderStatusCanceled):   {RoleClient, RoleAdmin},
	},
	string(OrderStatusInProgress): {
		string(OrderStatusAwaitingClientApproval): {RolePro},
		string(OrderStatusCanceled):               {RoleAdmin},
	},
	string(OrderStatusAwaitingClientApproval): {
		string(OrderStatusCompleted): {RoleClient, RoleAdmin},
		string(OrderStatusDisputed):  {RoleClient, RolePro, RoleAdmin},
		string(OrderStatusCanceled):  {RoleAdmin},
	},
	string(OrderStatusCompleted): {
		string(OrderStatusPaid):     {RoleAdmin, RoleSystem},
		string(OrderStatusDisputed): {RoleClient, RolePro, RoleAdmin},
		string(OrderStatusCanceled): {RoleAdmin},
	},
	string(OrderStatusDisputed): {
		string(OrderStatusCompleted): {RoleAdmin},
		string(OrderStatusCanceled):  {RoleAdmin},
	},
	string(OrderStatusPaid):     {},
	string(OrderStatusCanceled): {},
}
