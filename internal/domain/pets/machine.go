package pets

import (
	"pet-admin-sync/internal/domain/entity"
	"pet-admin-sync/internal/statemachine"
)

var admins = []entity.Role{entity.RoleAdmin}

var archivable = []Status{StatusAccepted, StatusAdoptionPending, StatusAdopted, StatusSold}

var Machine = statemachine.MustNew(
	[]Status{StatusPending, StatusAccepted, StatusAdoptionPending, StatusAdopted, StatusSold},
	statemachine.Rule[Status, Action]{
		Action: ActionAccept, From: []Status{StatusPending}, To: StatusAccepted,
		Op: entity.OpStatus, Roles: admins,
	},
	statemachine.Rule[Status, Action]{
		Action: ActionReject, From: []Status{StatusPending},
		Op: entity.OpDelete, Roles: admins,
	},
	statemachine.Rule[Status, Action]{
		Action: ActionMarkAdoptionPending, From: []Status{StatusAccepted}, To: StatusAdoptionPending,
		Op: entity.OpStatus, Roles: admins,
	},
	statemachine.Rule[Status, Action]{
		Action: ActionMarkAdopted, From: []Status{StatusAdoptionPending}, To: StatusAdopted,
		Op: entity.OpStatus, Roles: admins,
	},
	statemachine.Rule[Status, Action]{
		Action: ActionMarkSold, From: []Status{StatusAccepted}, To: StatusSold,
		Op: entity.OpStatus, Roles: admins,
	},
	statemachine.Rule[Status, Action]{
		Action: ActionArchive, From: archivable,
		Op: entity.OpArchive, Roles: admins,
	},
	statemachine.Rule[Status, Action]{
		Action: ActionUnarchive, From: archivable,
		Op: entity.OpUnarchive, Roles: admins,
	},
)

// CanTransition: venta solo para publicaciones de venta, adopción solo para adopciones.
func CanTransition(p Pet, action Action, role entity.Role) bool {
	r, ok := Machine.Rule(action)
	if !ok || !statemachine.FlagAllows(p.Meta, r.Op) {
		return false
	}
	return Machine.CanTransition(p.Status, action, role) && listingGate(p, action)
}

func listingGate(p Pet, action Action) bool {
	switch action {
	case ActionMarkSold:
		return p.Listing == ListingSale
	case ActionMarkAdoptionPending, ActionMarkAdopted:
		return p.Listing != ListingSale
	default:
		return true
	}
}
