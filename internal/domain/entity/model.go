package entity

import (
	"strings"
	"time"
)

// Kind identifica el dominio de una entidad (y el recurso REST asociado).
type Kind string

const (
	KindAppointments Kind = "appointments"
	KindReports      Kind = "reports"
	KindPets         Kind = "pets"
	KindUsers        Kind = "users"
)

// Kinds devuelve los dominios soportados en orden fijo.
func Kinds() []Kind {
	return []Kind{KindAppointments, KindReports, KindPets, KindUsers}
}

func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, true
		}
	}
	return "", false
}

// Role del actor que invoca una acción.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleProfessional Role = "professional"
	RoleOwner        Role = "owner"
)

func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleProfessional:
		return RoleProfessional, true
	case RoleOwner:
		return RoleOwner, true
	default:
		return "", false
	}
}

// Scope es el alcance de autorización del viewer actual.
// Admin ve todo; el resto solo lo que referencia a su propio actorRef.
type Scope struct {
	ActorRef string
	Role     Role
}

// Covers indica si un actorRef cae dentro del scope.
func (s Scope) Covers(actorRef string) bool {
	if s.Role == RoleAdmin {
		return true
	}
	ref := strings.TrimSpace(actorRef)
	return ref != "" && ref == strings.TrimSpace(s.ActorRef)
}

// Meta son los campos comunes a todas las entidades.
// Se embebe en cada tipo de dominio.
type Meta struct {
	ID        string    `json:"id"`
	OwnerRef  string    `json:"ownerRef"`
	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Revision la asigna el backend en cada mutación aceptada (0 = desconocida).
	Revision int64 `json:"revision,omitempty"`
}

// Entity es el contrato que cumplen los tipos valor de cada dominio.
// Los tipos deben ser structs sin punteros ni slices: copiar el valor es el snapshot.
type Entity[T any] interface {
	Base() Meta
	WithMeta(m Meta) T
	StatusName() string
}
