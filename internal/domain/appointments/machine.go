package appointments

import (
	"pet-admin-sync/internal/domain/entity"
	"pet-admin-sync/internal/statemachine"
)

var staff = []entity.Role{entity.RoleAdmin, entity.RoleProfessional}

// Machine es la tabla de transiciones de citas.
// notAvailable es terminal: no hay regla que la reabra.
var Machine = statemachine.MustNew(
	[]Status{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNotAvailable},
	statemachine.Rule[Status, Action]{
		Action: ActionConfirm, From: []Status{StatusPending}, To: StatusConfirmed,
		Op: entity.OpStatus, Roles: staff,
	},
	statemachine.Rule[Status, Action]{
		Action: ActionMarkNotAvailable, From: []Status{StatusPending}, To: StatusNotAvailable,
		Op: entity.OpStatus, Roles: staff,
	},
	statemachine.Rule[Status, Action]{
		Action: ActionCancel, From: []Status{StatusPending, StatusConfirmed}, To: StatusCancelled,
		Op: entity.OpStatus, Roles: staff,
	},
	statemachine.Rule[Status, Action]{
		Action: ActionComplete, From: []Status{StatusConfirmed}, To: StatusCompleted,
		Op: entity.OpStatus, Roles: staff,
	},
	statemachine.Rule[Status, Action]{
		Action: ActionOverride, From: []Status{StatusCancelled},
		Op: entity.OpStatus, Roles: []entity.Role{entity.RoleAdmin}, Override: true,
	},
	statemachine.Rule[Status, Action]{
		Action: ActionArchive, From: []Status{StatusCompleted, StatusCancelled, StatusNotAvailable},
		Op: entity.OpArchive, Roles: staff,
	},
	statemachine.Rule[Status, Action]{
		Action: ActionUnarchive, From: []Status{StatusCompleted, StatusCancelled, StatusNotAvailable},
		Op: entity.OpUnarchive, Roles: staff,
	},
)

// CanTransition es el validador puro expuesto a la capa de presentación.
func CanTransition(a Appointment, action Action, role entity.Role) bool {
	r, ok := Machine.Rule(action)
	if !ok || !statemachine.FlagAllows(a.Meta, r.Op) {
		return false
	}
	return Machine.CanTransition(a.Status, action, role)
}
