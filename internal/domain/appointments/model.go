package appointments

import "pet-admin-sync/internal/domain/entity"

// Status de una cita.
type Status string

const (
	StatusPending      Status = "pending"
	StatusConfirmed    Status = "confirmed"
	StatusCompleted    Status = "completed"
	StatusCancelled    Status = "cancelled"
	StatusNotAvailable Status = "notAvailable"
)

type Action string

const (
	ActionConfirm          Action = "confirm"
	ActionMarkNotAvailable Action = "markNotAvailable"
	ActionCancel           Action = "cancel"
	ActionComplete         Action = "complete"
	ActionOverride         Action = "override"
	ActionArchive          Action = "archive"
	ActionUnarchive        Action = "unarchive"
)

// Appointment es una reserva de servicio. OwnerRef es el profesional asignado.
type Appointment struct {
	entity.Meta

	Status Status `json:"status"`

	PetID     string `json:"petId"`
	PetName   string `json:"petName"`
	ClientRef string `json:"clientRef"`
	Service   string `json:"service"`

	Date string `json:"date"` // YYYY-MM-DD
	Time string `json:"time"` // HH:MM (24h)

	Reason string `json:"reason,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

func (a Appointment) Base() entity.Meta { return a.Meta }

func (a Appointment) WithMeta(m entity.Meta) Appointment {
	a.Meta = m
	return a
}

func (a Appointment) StatusName() string { return string(a.Status) }
