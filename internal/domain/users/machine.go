package users

import (
	"pet-admin-sync/internal/domain/entity"
	"pet-admin-sync/internal/statemachine"
)

var admins = []entity.Role{entity.RoleAdmin}

// Machine: archived es a la vez status y flag (archive los setea juntos).
var Machine = statemachine.MustNew(
	[]Status{StatusPendingApproval, StatusActive, StatusInactive, StatusArchived},
	statemachine.Rule[Status, Action]{
		Action: ActionApprove, From: []Status{StatusPendingApproval}, To: StatusActive,
		Op: entity.OpStatus, Roles: admins,
	},
	statemachine.Rule[Status, Action]{
		Action: ActionDeactivate, From: []Status{StatusActive}, To: StatusInactive,
		Op: entity.OpStatus, Roles: admins,
	},
	statemachine.Rule[Status, Action]{
		Action: ActionReactivate, From: []Status{StatusInactive}, To: StatusActive,
		Op: entity.OpStatus, Roles: admins,
	},
	statemachine.Rule[Status, Action]{
		Action: ActionArchive, From: []Status{StatusPendingApproval, StatusActive, StatusInactive}, To: StatusArchived,
		Op: entity.OpArchive, Roles: admins,
	},
)

func CanTransition(u User, action Action, role entity.Role) bool {
	r, ok := Machine.Rule(action)
	if !ok || !statemachine.FlagAllows(u.Meta, r.Op) {
		return false
	}
	return Machine.CanTransition(u.Status, action, role)
}
