package statemachine

import (
	"errors"
	"fmt"

	"pet-admin-sync/internal/domain/entity"
)

// Step valida un Command contra la tabla y el flag archived, y devuelve la regla
// aplicada junto al status destino.
func (m *Machine[S, A]) Step(meta entity.Meta, status S, cmd entity.Command, role entity.Role) (Rule[S, A], S, error) {
	a := A(cmd.Action)
	r, ok := m.rules[a]
	if !ok {
		return Rule[S, A]{}, status, fmt.Errorf("%w: %q", entity.ErrUnknownAction, cmd.Action)
	}
	if !FlagAllows(meta, r.Op) {
		return r, status, &entity.StaleEligibilityError{ID: meta.ID, Action: cmd.Action, Status: string(status)}
	}
	to, err := m.Target(status, a, role, S(cmd.Target))
	if err != nil {
		var stale *entity.StaleEligibilityError
		if errors.As(err, &stale) {
			stale.ID = meta.ID
		}
		return r, status, err
	}
	return r, to, nil
}

// FlagAllows: archive solo sobre no archivados, unarchive solo sobre archivados,
// y ninguna otra acción sobre archivados.
func FlagAllows(meta entity.Meta, op entity.Op) bool {
	switch op {
	case entity.OpArchive:
		return !meta.Archived
	case entity.OpUnarchive:
		return meta.Archived
	default:
		return !meta.Archived
	}
}

// ApplyOp aplica el efecto de la op sobre los campos comunes.
func ApplyOp(meta entity.Meta, op entity.Op) entity.Meta {
	switch op {
	case entity.OpArchive:
		meta.Archived = true
	case entity.OpUnarchive:
		meta.Archived = false
	}
	return meta
}

// EventFor es el evento push que el backend emite tras aplicar op.
func EventFor(op entity.Op) entity.EventType {
	switch op {
	case entity.OpArchive:
		return entity.EventArchived
	case entity.OpUnarchive:
		return entity.EventUnarchived
	case entity.OpDelete:
		return entity.EventDeleted
	case entity.OpMatch:
		return entity.EventMatched
	case entity.OpApprove:
		return entity.EventUpdated
	default:
		return entity.EventStatusChanged
	}
}

// Request arma el request remoto de una regla.
func Request[S ~string, A ~string](r Rule[S, A], to S, cmd entity.Command) entity.Request {
	req := entity.Request{
		Op:     r.Op,
		Reason: cmd.Reason,
		Notes:  cmd.Notes,
	}
	if r.Op == entity.OpStatus {
		req.Status = string(to)
	}
	if r.Op == entity.OpMatch {
		req.MatchID = cmd.MatchID
	}
	return req
}
