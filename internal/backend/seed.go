package backend

import (
	"context"
	"errors"
	"fmt"

	"pet-admin-sync/internal/domain/appointments"
	"pet-admin-sync/internal/domain/entity"
	"pet-admin-sync/internal/domain/pets"
	"pet-admin-sync/internal/domain/reports"
	"pet-admin-sync/internal/domain/users"
)

var seedScope = entity.Scope{ActorRef: "admin-1", Role: entity.RoleAdmin}

// SeedDemo carga datos de ejemplo (SEED_DEMO=true). Ids fijos: correrlo dos veces no duplica.
func (s *Services) SeedDemo(ctx context.Context) error {
	for _, u := range []users.User{
		{Meta: entity.Meta{ID: "pro-1", OwnerRef: "pro-1"}, Status: users.StatusActive, Role: entity.RoleProfessional, Name: "Dra. Paula Ríos", Email: "paula@example.com", Profession: "veterinaria"},
		{Meta: entity.Meta{ID: "pro-2", OwnerRef: "pro-2"}, Status: users.StatusPendingApproval, Role: entity.RoleProfessional, Name: "Martín Gómez", Email: "martin@example.com", Profession: "peluquero"},
		{Meta: entity.Meta{ID: "owner-1", OwnerRef: "admin-1"}, Status: users.StatusActive, Role: entity.RoleOwner, Name: "Lucía Pérez", Email: "lucia@example.com"},
	} {
		if err := seedOne(ctx, s.Users, u); err != nil {
			return err
		}
	}

	for _, a := range []appointments.Appointment{
		{Meta: entity.Meta{ID: "appt-1", OwnerRef: "pro-1"}, Status: appointments.StatusPending, PetName: "Milo", ClientRef: "owner-1", Service: "vacunación", Date: "2026-11-02", Time: "09:30"},
		{Meta: entity.Meta{ID: "appt-2", OwnerRef: "pro-1"}, Status: appointments.StatusPending, PetName: "Luna", ClientRef: "owner-1", Service: "control", Date: "2026-11-02", Time: "08:00"},
		{Meta: entity.Meta{ID: "appt-3", OwnerRef: "pro-2"}, Status: appointments.StatusConfirmed, PetName: "Toby", ClientRef: "owner-1", Service: "baño", Date: "2026-11-03", Time: "15:00"},
	} {
		if err := seedOne(ctx, s.Appointments, a); err != nil {
			return err
		}
	}

	for _, r := range []reports.Report{
		{Meta: entity.Meta{ID: "rep-1", OwnerRef: "owner-1"}, Status: reports.StatusPending, Type: reports.TypeLost, PetName: "Nala", Species: "cat", Location: "Palermo", Description: "collar rojo"},
		{Meta: entity.Meta{ID: "rep-2", OwnerRef: "owner-1"}, Status: reports.StatusPending, Type: reports.TypeFound, Species: "cat", Location: "Palermo", Description: "gata con collar rojo", Approved: true},
	} {
		if err := seedOne(ctx, s.Reports, r); err != nil {
			return err
		}
	}

	for _, p := range []pets.Pet{
		{Meta: entity.Meta{ID: "pet-1", OwnerRef: "owner-1"}, Status: pets.StatusPending, Listing: pets.ListingAdoption, Name: "Rocky", Species: pets.SpeciesDog, Breed: "mestizo", Sex: pets.SexMale},
		{Meta: entity.Meta{ID: "pet-2", OwnerRef: "owner-1"}, Status: pets.StatusAccepted, Listing: pets.ListingSale, Name: "Michi", Species: pets.SpeciesCat, Breed: "siamés", Sex: pets.SexFemale, Fee: 150},
	} {
		if err := seedOne(ctx, s.Pets, p); err != nil {
			return err
		}
	}
	return nil
}

func seedOne[T entity.Entity[T]](ctx context.Context, svc *Service[T], it T) error {
	if _, err := svc.Create(ctx, seedScope, it); err != nil && !errors.Is(err, ErrConflict) {
		return fmt.Errorf("seed %s %s: %w", svc.Kind(), it.Base().ID, err)
	}
	return nil
}
