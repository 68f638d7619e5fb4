package entity

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Plan es el resultado de validar un Command contra el estado actual.
type Plan[T any] struct {
	Next T
	// Keep=false significa que la acción elimina la entidad (delete/reject).
	Keep    bool
	Request Request
	Event   EventType
}

// Domain agrupa el comportamiento específico de cada tipo de entidad.
// Lo consumen tanto el engine (cliente) como el backend.
type Domain[T Entity[T]] interface {
	Kind() Kind

	// Declared indica si el status pertenece al enum del dominio.
	Declared(status string) bool

	// Eligible es el predicado de elegibilidad (consultivo en UI, autoritativo en bulk).
	Eligible(cur T, cmd Command, role Role) bool

	// Plan valida cmd y calcula el estado local siguiente + el request remoto.
	Plan(cur T, cmd Command, role Role) (Plan[T], error)

	// Resolve traduce un request recibido por el backend al Command equivalente.
	Resolve(cur T, req Request, role Role) (Command, error)

	// Reduce aplica un evento push sobre el estado local.
	Reduce(cur T, exists bool, ev Event) (T, Change, error)

	// Supersedes indica si un estado local ya refleja la transición a incoming o una posterior.
	Supersedes(local, incoming string) bool
}

// MergeDelta aplica ev.Delta sobre una copia de cur: solo se pisan los campos presentes.
// Para "created" sobre una entidad inexistente parte del valor cero.
func MergeDelta[T Entity[T]](cur T, exists bool, ev Event) (T, Change, error) {
	switch ev.Type {
	case EventDeleted:
		if !exists {
			return cur, ChangeNone, nil
		}
		return cur, ChangeRemove, nil
	case EventCreated:
		// ok, puede no existir
	default:
		if !exists {
			// Delta sobre algo que no tenemos: se recupera en la próxima reconciliación.
			return cur, ChangeNone, nil
		}
	}

	next := cur
	if !exists {
		var zero T
		next = zero
	}
	if len(ev.Delta) > 0 && string(ev.Delta) != "null" {
		if err := json.Unmarshal(ev.Delta, &next); err != nil {
			return cur, ChangeNone, fmt.Errorf("decode %s delta: %w", ev.Type, err)
		}
	}

	m := next.Base()
	// El id nunca cambia: manda el sobre.
	m.ID = strings.TrimSpace(ev.EntityID)
	if strings.TrimSpace(m.OwnerRef) == "" {
		m.OwnerRef = strings.TrimSpace(ev.ActorRef)
	}
	switch ev.Type {
	case EventArchived:
		m.Archived = true
	case EventUnarchived:
		m.Archived = false
	}
	if ev.Revision > m.Revision {
		m.Revision = ev.Revision
	}
	if m.UpdatedAt.IsZero() || ev.At.After(m.UpdatedAt) {
		m.UpdatedAt = ev.At
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = m.UpdatedAt
	}
	return next.WithMeta(m), ChangeUpsert, nil
}
