package backend

import (
	"github.com/go-chi/chi/v5"

	"pet-admin-sync/internal/domain/appointments"
	"pet-admin-sync/internal/domain/pets"
	"pet-admin-sync/internal/domain/reports"
	"pet-admin-sync/internal/domain/users"
)

// Services agrupa los cuatro dominios sobre un mismo repositorio y publisher.
type Services struct {
	Appointments *Service[appointments.Appointment]
	Reports      *Service[reports.Report]
	Pets         *Service[pets.Pet]
	Users        *Service[users.User]
}

func NewServices(repo Repository, pub Publisher) *Services {
	return &Services{
		Appointments: NewService[appointments.Appointment](repo, appointments.Domain{}, string(appointments.StatusPending), pub),
		Reports:      NewService[reports.Report](repo, reports.Domain{}, string(reports.StatusPending), pub),
		Pets:         NewService[pets.Pet](repo, pets.Domain{}, string(pets.StatusPending), pub),
		Users:        NewService[users.User](repo, users.Domain{}, string(users.StatusPendingApproval), pub),
	}
}

// Register monta las rutas REST de los cuatro dominios.
func (s *Services) Register(r chi.Router) {
	RegisterRoutes(r, s.Appointments)
	RegisterRoutes(r, s.Reports)
	RegisterRoutes(r, s.Pets)
	RegisterRoutes(r, s.Users)
}
