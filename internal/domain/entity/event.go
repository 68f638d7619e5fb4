package entity

import (
	"encoding/json"
	"time"
)

// EventType es el tipo de notificación push.
type EventType string

const (
	EventCreated       EventType = "created"
	EventStatusChanged EventType = "statusChanged"
	EventMatched       EventType = "matched"
	EventUnmatched     EventType = "unmatched"
	EventArchived      EventType = "archived"
	EventUnarchived    EventType = "unarchived"
	EventDeleted       EventType = "deleted"
	EventUpdated       EventType = "updated"
)

// Known indica si el engine sabe interpretar el tipo. Los desconocidos se ignoran.
func (t EventType) Known() bool {
	switch t {
	case EventCreated, EventStatusChanged, EventMatched, EventUnmatched,
		EventArchived, EventUnarchived, EventDeleted, EventUpdated:
		return true
	default:
		return false
	}
}

// Event es el sobre que viaja por el canal push.
// ActorRef es el actor relacionado a la entidad (no quien ejecutó la mutación).
type Event struct {
	ID       string          `json:"id,omitempty"`
	Kind     Kind            `json:"kind"`
	Type     EventType       `json:"type"`
	EntityID string          `json:"entityId"`
	ActorRef string          `json:"actorRef"`
	Revision int64           `json:"revision,omitempty"`
	At       time.Time       `json:"at"`
	Delta    json.RawMessage `json:"delta,omitempty"`
}

// Change es el efecto que un reducer de dominio le pide al store.
type Change int

const (
	ChangeNone Change = iota
	ChangeUpsert
	ChangeRemove
)
