package users

import "pet-admin-sync/internal/domain/entity"

// Status de una cuenta de usuario/profesional.
type Status string

const (
	StatusPendingApproval Status = "pending-approval"
	StatusActive          Status = "active"
	StatusInactive        Status = "inactive"
	StatusArchived        Status = "archived"
)

type Action string

const (
	ActionApprove    Action = "approve"
	ActionDeactivate Action = "deactivate"
	ActionReactivate Action = "reactivate"
	ActionArchive    Action = "archive"
)

// User. Para profesionales OwnerRef es su propio id; para el resto, el admin que lo gestiona.
type User struct {
	entity.Meta

	Status Status      `json:"status"`
	Role   entity.Role `json:"role"`

	Name       string `json:"name"`
	Email      string `json:"email"`
	Profession string `json:"profession,omitempty"`
}

func (u User) Base() entity.Meta { return u.Meta }

func (u User) WithMeta(m entity.Meta) User {
	u.Meta = m
	return u
}

func (u User) StatusName() string { return string(u.Status) }
