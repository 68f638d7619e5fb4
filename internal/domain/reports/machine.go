package reports

import (
	"pet-admin-sync/internal/domain/entity"
	"pet-admin-sync/internal/statemachine"
)

var admins = []entity.Role{entity.RoleAdmin}

var Machine = statemachine.MustNew(
	[]Status{StatusPending, StatusMatched, StatusReunited},
	statemachine.Rule[Status, Action]{
		Action: ActionApprove, From: []Status{StatusPending},
		Op: entity.OpApprove, Roles: admins,
	},
	statemachine.Rule[Status, Action]{
		Action: ActionMatch, From: []Status{StatusPending}, To: StatusMatched,
		Op: entity.OpMatch, Roles: admins,
	},
	statemachine.Rule[Status, Action]{
		Action: ActionReunite, From: []Status{StatusMatched}, To: StatusReunited,
		Op: entity.OpStatus, Roles: admins,
	},
	statemachine.Rule[Status, Action]{
		Action: ActionUnmatch, From: []Status{StatusMatched}, To: StatusPending,
		Op: entity.OpStatus, Roles: admins,
	},
	statemachine.Rule[Status, Action]{
		Action: ActionReject, From: []Status{StatusPending},
		Op: entity.OpDelete, Roles: admins,
	},
	statemachine.Rule[Status, Action]{
		Action: ActionArchive, From: []Status{StatusReunited},
		Op: entity.OpArchive, Roles: admins,
	},
	statemachine.Rule[Status, Action]{
		Action: ActionUnarchive, From: []Status{StatusReunited},
		Op: entity.OpUnarchive, Roles: admins,
	},
)

// CanTransition incluye los gates de aprobación: match exige aprobado,
// approve y reject exigen no aprobado.
func CanTransition(r Report, action Action, role entity.Role) bool {
	rule, ok := Machine.Rule(action)
	if !ok || !statemachine.FlagAllows(r.Meta, rule.Op) {
		return false
	}
	if !Machine.CanTransition(r.Status, action, role) {
		return false
	}
	return approvalGate(r, action)
}

func approvalGate(r Report, action Action) bool {
	switch action {
	case ActionMatch:
		return r.Approved
	case ActionApprove, ActionReject:
		return !r.Approved
	default:
		return true
	}
}
