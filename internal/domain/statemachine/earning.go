package statemachine

// EarningStatus — статус начисления исполнителю.
type EarningStatus string

const (
	EarningStatusPending EarningStatus = "pending"
	EarningStatusPayable EarningStatus = "payable"
	// EarningStatusReserved — начисление захвачено создаваемой выплатой и
	// не может попасть во второй пакет.
	EarningStatusReserved EarningStatus = "reserved"
	EarningStatusPaid     EarningStatus = "paid"
	EarningStatusReversed EarningStatus = "reversed"
)

func (s EarningStatus) IsValid() bool {
	switch s {
	case EarningStatusPending, EarningStatusPayable, EarningStatusReserved,
		EarningStatusPaid, EarningStatusReversed:
		return true
	}
	return false
}

func (s EarningStatus) IsTerminal() bool {
	return s == EarningStatusReversed
}

func (s EarningStatus) CanTransitionTo(to EarningStatus, role Role) bool {
	return CanTransition(EntityEarning, string(s), string(to), role)
}

var earningTransitions = table{
	string(EarningStatusPending): {
		// Планировщик размораживает начисление по истечении availableAt.
		string(EarningStatusPayable):  {RoleSystem},
		string(EarningStatusReversed): {RoleAdmin, RoleSystem},
	},
	string(EarningStatusPayable): {
		string(EarningStatusReserved): {RoleAdmin, RoleSystem},
		string(EarningStatusReversed): {RoleAdmin, RoleSystem},
	},
	string(EarningStatusReserved): {
		// Возврат в payable при отказе провайдера отправить выплату.
		string(EarningStatusPayable): {RoleSystem},
		string(EarningStatusPaid):    {RoleSystem},
	},
	string(EarningStatusPaid): {
		string(EarningStatusReversed): {RoleAdmin, RoleSystem},
	},
	string(EarningStatusReversed): {},
}
