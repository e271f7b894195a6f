package statemachine

// BookingStatus — статус бронирования (упрощённая параллельная цепочка
// со сценарием прибытия исполнителя).
type BookingStatus string

const (
	BookingStatusPendingPayment BookingStatus = "pending_payment"
	BookingStatusPending        BookingStatus = "pending"
	BookingStatusAccepted       BookingStatus = "accepted"
	BookingStatusOnMyWay        BookingStatus = "on_my_way"
	BookingStatusArrived        BookingStatus = "arrived"
	BookingStatusCompleted      BookingStatus = "completed"
	BookingStatusRejected       BookingStatus = "rejected"
	BookingStatusCancelled      BookingStatus = "cancelled"
)

func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPendingPayment, BookingStatusPending, BookingStatusAccepted,
		BookingStatusOnMyWay, BookingStatusArrived, BookingStatusCompleted,
		BookingStatusRejected, BookingStatusCancelled:
		return true
	}
	return false
}

func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusRejected || s == BookingStatusCancelled
}

func (s BookingStatus) CanTransitionTo(to BookingStatus, role Role) bool {
	return CanTransition(EntityBooking, string(s), string(to), role)
}

var bookingTransitions = table{
	string(BookingStatusPendingPayment): {
		string(BookingStatusPending):   {RoleSystem},
		string(BookingStatusRejected):  {RolePro, RoleAdmin},
		string(BookingStatusCancelled): {RoleClient, RoleAdmin, RoleSystem},
	},
	string(BookingStatusPending): {
		string(BookingStatusAccepted):  {RolePro},
		string(BookingStatusRejected):  {RolePro, RoleAdmin},
		string(BookingStatusCancelled): {RoleClient, RoleAdmin, RoleSystem},
	},
	string(BookingStatusAccepted): {
		string(BookingStatusOnMyWay):   {RolePro},
		string(BookingStatusRejected):  {RolePro, RoleAdmin},
		string(BookingStatusCancelled): {RoleClient, RoleAdmin},
	},
	string(BookingStatusOnMyWay): {
		string(BookingStatusArrived):   {RolePro},
		string(BookingStatusRejected):  {RoleAdmin},
		string(BookingStatusCancelled): {RoleClient, RoleAdmin},
	},
	string(BookingStatusArrived): {
		string(BookingStatusCompleted): {RolePro, RoleAdmin},
		string(BookingStatusRejected):  {RoleAdmin},
		string(BookingStatusCancelled): {RoleAdmin},
	},
	string(BookingStatusCompleted): {},
	string(BookingStatusRejected):  {},
	string(BookingStatusCancelled): {},
}
