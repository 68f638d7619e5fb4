package store_test

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"pet-admin-sync/internal/domain/appointments"
	"pet-admin-sync/internal/domain/entity"
	"pet-admin-sync/internal/sync/store"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func appt(id, owner string, st appointments.Status) appointments.Appointment {
	return appointments.Appointment{
		Meta:    entity.Meta{ID: id, OwnerRef: owner, CreatedAt: t0, UpdatedAt: t0, Revision: 1},
		Status:  st,
		PetName: "Milo",
		Date:    "2026-03-02",
		Time:    "10:00",
	}
}

func newStore(t *testing.T, scope entity.Scope) *store.Store[appointments.Appointment] {
	t.Helper()
	clock := t0
	return store.New[appointments.Appointment](appointments.Domain{}, scope, store.Options{
		Now: func() time.Time { clock = clock.Add(time.Minute); return clock },
	})
}

func statusEvent(id, actor string, st appointments.Status, rev int64) entity.Event {
	return entity.Event{
		Kind:     entity.KindAppointments,
		Type:     entity.EventStatusChanged,
		EntityID: id,
		ActorRef: actor,
		Revision: rev,
		At:       t0.Add(time.Hour),
		Delta:    json.RawMessage(`{"status":"` + string(st) + `"}`),
	}
}

func planned(cmd entity.Command, role entity.Role) store.Mutator[appointments.Appointment] {
	return func(cur appointments.Appointment, exists bool) (appointments.Appointment, bool, error) {
		if !exists {
			return cur, false, &entity.NotFoundError{Kind: entity.KindAppointments, ID: cur.ID}
		}
		p, err := appointments.Domain{}.Plan(cur, cmd, role)
		if err != nil {
			return cur, false, err
		}
		return p.Next, p.Keep, nil
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func TestApplyRemoteEvent_IdempotentByRevision(t *testing.T) {
	s := newStore(t, entity.Scope{Role: entity.RoleAdmin})
	if err := s.ReplaceAll([]appointments.Appointment{appt("a1", "pro-1", appointments.StatusPending)}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	ev := statusEvent("a1", "pro-1", appointments.StatusConfirmed, 2)
	out, err := s.ApplyRemoteEvent(ev)
	if err != nil || out != store.OutcomeApplied {
		t.Fatalf("first apply: out=%s err=%v", out, err)
	}
	once := mustJSON(t, s.Snapshot())

	out, err = s.ApplyRemoteEvent(ev)
	if err != nil || out != store.OutcomeSuperseded {
		t.Fatalf("second apply: out=%s err=%v", out, err)
	}
	if twice := mustJSON(t, s.Snapshot()); twice != once {
		t.Fatalf("state changed on redelivery:\n%s\n%s", once, twice)
	}
}

func TestApplyRemoteEvent_WithoutRevision(t *testing.T) {
	s := newStore(t, entity.Scope{Role: entity.RoleAdmin})
	a := appt("a1", "pro-1", appointments.StatusConfirmed)
	a.Revision = 0
	if err := s.ReplaceAll([]appointments.Appointment{a}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	// ya confirmada: el mismo cambio es un duplicado
	if out, _ := s.ApplyRemoteEvent(statusEvent("a1", "pro-1", appointments.StatusConfirmed, 0)); out != store.OutcomeDuplicate {
		t.Fatalf("expected duplicate, got %s", out)
	}

	// pending es anterior a confirmed: llega tarde
	if out, _ := s.ApplyRemoteEvent(statusEvent("a1", "pro-1", appointments.StatusPending, 0)); out != store.OutcomeSuperseded {
		t.Fatalf("expected superseded, got %s", out)
	}

	if out, _ := s.ApplyRemoteEvent(statusEvent("a1", "pro-1", appointments.StatusCompleted, 0)); out != store.OutcomeApplied {
		t.Fatalf("expected applied, got %s", out)
	}
	got, _ := s.Get("a1")
	if got.Status != appointments.StatusCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
}

func TestApplyRemoteEvent_ForeignActorIsNoop(t *testing.T) {
	s := newStore(t, entity.Scope{ActorRef: "pro-1", Role: entity.RoleProfessional})
	if err := s.ReplaceAll([]appointments.Appointment{appt("a1", "pro-1", appointments.StatusPending)}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	before := mustJSON(t, s.Snapshot())

	created := entity.Event{
		Kind: entity.KindAppointments, Type: entity.EventCreated, EntityID: "a2", ActorRef: "pro-2", Revision: 1, At: t0,
		Delta: json.RawMessage(`{"status":"pending","petName":"Luna"}`),
	}
	if out, _ := s.ApplyRemoteEvent(created); out != store.OutcomeFiltered {
		t.Fatalf("expected filtered, got %s", out)
	}
	if out, _ := s.ApplyRemoteEvent(statusEvent("a1", "pro-2", appointments.StatusConfirmed, 5)); out != store.OutcomeFiltered {
		t.Fatalf("expected filtered, got %s", out)
	}
	if after := mustJSON(t, s.Snapshot()); after != before {
		t.Fatalf("foreign events changed the store")
	}
}

func TestApplyRemoteEvent_CreateDeleteUnknown(t *testing.T) {
	s := newStore(t, entity.Scope{Role: entity.RoleAdmin})

	created := entity.Event{
		Kind: entity.KindAppointments, Type: entity.EventCreated, EntityID: "a9", ActorRef: "pro-3", Revision: 1, At: t0,
		Delta: json.RawMessage(`{"status":"pending","petName":"Luna","date":"2026-04-01","time":"08:30"}`),
	}
	if out, err := s.ApplyRemoteEvent(created); out != store.OutcomeApplied || err != nil {
		t.Fatalf("create: out=%s err=%v", out, err)
	}
	got, ok := s.Get("a9")
	if !ok || got.OwnerRef != "pro-3" || got.PetName != "Luna" {
		t.Fatalf("unexpected created entity: %+v", got)
	}

	if out, _ := s.ApplyRemoteEvent(entity.Event{Kind: entity.KindAppointments, Type: "teleported", EntityID: "a9"}); out != store.OutcomeIgnored {
		t.Fatalf("expected ignored for unknown type, got %s", out)
	}

	del := entity.Event{Kind: entity.KindAppointments, Type: entity.EventDeleted, EntityID: "a9", ActorRef: "pro-3", Revision: 2, At: t0}
	if out, _ := s.ApplyRemoteEvent(del); out != store.OutcomeApplied {
		t.Fatalf("expected applied delete, got %s", out)
	}
	if _, ok := s.Get("a9"); ok {
		t.Fatalf("expected a9 removed")
	}
	if out, _ := s.ApplyRemoteEvent(del); out != store.OutcomeIgnored {
		t.Fatalf("expected ignored on second delete, got %s", out)
	}
}

func TestApplyRemoteEvent_RejectsUndeclaredStatus(t *testing.T) {
	s := newStore(t, entity.Scope{Role: entity.RoleAdmin})
	if err := s.ReplaceAll([]appointments.Appointment{appt("a1", "pro-1", appointments.StatusPending)}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	out, err := s.ApplyRemoteEvent(statusEvent("a1", "pro-1", "teleported", 2))
	if out != store.OutcomeRejected || !errors.Is(err, entity.ErrUndeclaredStatus) {
		t.Fatalf("expected rejected undeclared, got out=%s err=%v", out, err)
	}
	got, _ := s.Get("a1")
	if got.Status != appointments.StatusPending {
		t.Fatalf("status must stay declared, got %s", got.Status)
	}
}

func TestApplyRemoteEvent_UpdatedAtMonotonic(t *testing.T) {
	s := newStore(t, entity.Scope{Role: entity.RoleAdmin})
	a := appt("a1", "pro-1", appointments.StatusPending)
	a.UpdatedAt = t0.Add(48 * time.Hour)
	if err := s.ReplaceAll([]appointments.Appointment{a}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if out, _ := s.ApplyRemoteEvent(statusEvent("a1", "pro-1", appointments.StatusConfirmed, 2)); out != store.OutcomeApplied {
		t.Fatalf("expected applied, got %s", out)
	}
	got, _ := s.Get("a1")
	if got.UpdatedAt.Before(a.UpdatedAt) {
		t.Fatalf("updatedAt went backwards: %s < %s", got.UpdatedAt, a.UpdatedAt)
	}
}

func TestReplaceAll_DuplicateIDsKeepsPreviousCache(t *testing.T) {
	s := newStore(t, entity.Scope{Role: entity.RoleAdmin})
	if err := s.ReplaceAll([]appointments.Appointment{appt("a1", "pro-1", appointments.StatusPending)}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	err := s.ReplaceAll([]appointments.Appointment{
		appt("a2", "pro-1", appointments.StatusPending),
		appt("a2", "pro-1", appointments.StatusConfirmed),
	})
	var die *entity.DataIntegrityError
	if !errors.As(err, &die) {
		t.Fatalf("expected DataIntegrityError, got %v", err)
	}
	if !reflect.DeepEqual(die.Duplicates, []string{"a2"}) {
		t.Fatalf("unexpected duplicates: %v", die.Duplicates)
	}
	if s.Len() != 1 {
		t.Fatalf("expected previous cache kept, len=%d", s.Len())
	}
	if _, ok := s.Get("a1"); !ok {
		t.Fatalf("expected a1 still cached")
	}
}

func TestReplaceAll_BlankIDIsReported(t *testing.T) {
	s := newStore(t, entity.Scope{Role: entity.RoleAdmin})
	err := s.ReplaceAll([]appointments.Appointment{
		appt("a1", "pro-1", appointments.StatusPending),
		appt(" ", "pro-1", appointments.StatusPending),
	})
	var die *entity.DataIntegrityError
	if !errors.As(err, &die) {
		t.Fatalf("expected DataIntegrityError, got %v", err)
	}
	if die.BlankIDs != 1 || len(die.Duplicates) != 0 {
		t.Fatalf("unexpected error detail: %+v", die)
	}
	if !strings.Contains(err.Error(), "1 entities without id") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty store")
	}
}

func TestReplaceAll_RejectsUndeclaredStatus(t *testing.T) {
	s := newStore(t, entity.Scope{Role: entity.RoleAdmin})
	err := s.ReplaceAll([]appointments.Appointment{appt("a1", "pro-1", "archivedish")})
	if !errors.Is(err, entity.ErrUndeclaredStatus) {
		t.Fatalf("expected ErrUndeclaredStatus, got %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty store")
	}
}

func TestOptimistic_RollbackRestoresExactState(t *testing.T) {
	s := newStore(t, entity.Scope{Role: entity.RoleAdmin})
	if err := s.ReplaceAll([]appointments.Appointment{appt("a1", "pro-1", appointments.StatusPending)}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	before := mustJSON(t, s.Snapshot())

	tok, err := s.BeginOptimistic("a1", planned(entity.Command{Action: "confirm", Notes: "ok"}, entity.RoleAdmin))
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	got, _ := s.Get("a1")
	if got.Status != appointments.StatusConfirmed {
		t.Fatalf("expected optimistic confirmed, got %s", got.Status)
	}
	if !got.UpdatedAt.After(t0) {
		t.Fatalf("expected updatedAt stamped")
	}
	if s.Pending() != 1 {
		t.Fatalf("expected 1 pending, got %d", s.Pending())
	}

	if err := s.Rollback(tok); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if after := mustJSON(t, s.Snapshot()); after != before {
		t.Fatalf("rollback not byte-equal:\n%s\n%s", before, after)
	}
	if s.Pending() != 0 {
		t.Fatalf("expected no pending")
	}
	if err := s.Rollback(tok); !errors.Is(err, entity.ErrUnknownToken) {
		t.Fatalf("expected ErrUnknownToken on reuse, got %v", err)
	}
}

func TestOptimistic_RollbackOfDelete(t *testing.T) {
	s := newStore(t, entity.Scope{Role: entity.RoleAdmin})
	orig := appt("a1", "pro-1", appointments.StatusPending)
	if err := s.ReplaceAll([]appointments.Appointment{orig}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	tok, err := s.BeginOptimistic("a1", func(cur appointments.Appointment, exists bool) (appointments.Appointment, bool, error) {
		return cur, false, nil
	})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, ok := s.Get("a1"); ok {
		t.Fatalf("expected optimistic removal")
	}
	if err := s.Rollback(tok); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	got, ok := s.Get("a1")
	if !ok || !reflect.DeepEqual(got, orig) {
		t.Fatalf("expected restored entity, got %+v", got)
	}
}

func TestOptimistic_StackedRollbacks(t *testing.T) {
	s := newStore(t, entity.Scope{Role: entity.RoleAdmin})
	orig := appt("a1", "pro-1", appointments.StatusPending)
	if err := s.ReplaceAll([]appointments.Appointment{orig}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	first, err := s.BeginOptimistic("a1", planned(entity.Command{Action: "confirm"}, entity.RoleAdmin))
	if err != nil {
		t.Fatalf("begin first: %v", err)
	}
	second, err := s.BeginOptimistic("a1", planned(entity.Command{Action: "complete"}, entity.RoleAdmin))
	if err != nil {
		t.Fatalf("begin second: %v", err)
	}

	// el más viejo se revierte primero: el visible no cambia
	if err := s.Rollback(first); err != nil {
		t.Fatalf("rollback first: %v", err)
	}
	if got, _ := s.Get("a1"); got.Status != appointments.StatusCompleted {
		t.Fatalf("expected completed still visible, got %s", got.Status)
	}
	if err := s.Rollback(second); err != nil {
		t.Fatalf("rollback second: %v", err)
	}
	if got, _ := s.Get("a1"); !reflect.DeepEqual(got, orig) {
		t.Fatalf("expected original restored, got %+v", got)
	}
}

func TestOptimistic_RollbackKeepsEventAcceptedMidFlight(t *testing.T) {
	s := newStore(t, entity.Scope{Role: entity.RoleAdmin})
	if err := s.ReplaceAll([]appointments.Appointment{appt("a1", "pro-1", appointments.StatusPending)}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	first, err := s.BeginOptimistic("a1", planned(entity.Command{Action: "confirm"}, entity.RoleAdmin))
	if err != nil {
		t.Fatalf("begin first: %v", err)
	}
	second, err := s.BeginOptimistic("a1", planned(entity.Command{Action: "complete"}, entity.RoleAdmin))
	if err != nil {
		t.Fatalf("begin second: %v", err)
	}

	ev := entity.Event{
		Kind:     entity.KindAppointments,
		Type:     entity.EventUpdated,
		EntityID: "a1",
		ActorRef: "pro-1",
		Revision: 2,
		At:       t0.Add(time.Hour),
		Delta:    json.RawMessage(`{"notes":"nota remota"}`),
	}
	if out, err := s.ApplyRemoteEvent(ev); err != nil || out != store.OutcomeApplied {
		t.Fatalf("event: out=%s err=%v", out, err)
	}

	if err := s.Rollback(second); err != nil {
		t.Fatalf("rollback second: %v", err)
	}
	got, _ := s.Get("a1")
	if got.Status != appointments.StatusConfirmed || got.Notes != "nota remota" || got.Revision != 2 {
		t.Fatalf("after second rollback: status=%s notes=%q rev=%d", got.Status, got.Notes, got.Revision)
	}
	if got.UpdatedAt.Before(ev.At) {
		t.Fatalf("updatedAt went backwards: %s", got.UpdatedAt)
	}

	if err := s.Rollback(first); err != nil {
		t.Fatalf("rollback first: %v", err)
	}
	got, _ = s.Get("a1")
	if got.Status != appointments.StatusPending || got.Notes != "nota remota" || got.Revision != 2 {
		t.Fatalf("after first rollback: status=%s notes=%q rev=%d", got.Status, got.Notes, got.Revision)
	}
}

func TestOptimistic_CommitKeepsState(t *testing.T) {
	s := newStore(t, entity.Scope{Role: entity.RoleAdmin})
	if err := s.ReplaceAll([]appointments.Appointment{appt("a1", "pro-1", appointments.StatusPending)}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	tok, err := s.BeginOptimistic("a1", planned(entity.Command{Action: "cancel", Reason: "sick"}, entity.RoleProfessional))
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := s.Commit(tok); err != nil {
		t.Fatalf("commit: %v", err)
	}
	got, _ := s.Get("a1")
	if got.Status != appointments.StatusCancelled || got.Reason != "sick" {
		t.Fatalf("unexpected committed state: %+v", got)
	}
	if err := s.Commit(tok); !errors.Is(err, entity.ErrUnknownToken) {
		t.Fatalf("expected ErrUnknownToken, got %v", err)
	}
}

func TestOptimistic_MutatorErrorLeavesStoreUntouched(t *testing.T) {
	s := newStore(t, entity.Scope{Role: entity.RoleAdmin})
	if err := s.ReplaceAll([]appointments.Appointment{appt("a1", "pro-1", appointments.StatusPending)}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	_, err := s.BeginOptimistic("a1", planned(entity.Command{Action: "complete"}, entity.RoleAdmin))
	if !errors.Is(err, entity.ErrIneligible) {
		t.Fatalf("expected ErrIneligible, got %v", err)
	}
	if s.Pending() != 0 {
		t.Fatalf("expected no pending")
	}

	_, err = s.BeginOptimistic("a1", func(cur appointments.Appointment, _ bool) (appointments.Appointment, bool, error) {
		cur.Status = "limbo"
		return cur, true, nil
	})
	if !errors.Is(err, entity.ErrUndeclaredStatus) {
		t.Fatalf("expected ErrUndeclaredStatus, got %v", err)
	}
	if got, _ := s.Get("a1"); got.Status != appointments.StatusPending {
		t.Fatalf("expected pending, got %s", got.Status)
	}
}

func TestReplaceAll_DropsSnapshotsOfVanishedEntities(t *testing.T) {
	s := newStore(t, entity.Scope{Role: entity.RoleAdmin})
	if err := s.ReplaceAll([]appointments.Appointment{
		appt("a1", "pro-1", appointments.StatusPending),
		appt("a2", "pro-1", appointments.StatusPending),
	}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	gone, _ := s.BeginOptimistic("a1", planned(entity.Command{Action: "confirm"}, entity.RoleAdmin))
	kept, _ := s.BeginOptimistic("a2", planned(entity.Command{Action: "confirm"}, entity.RoleAdmin))

	fresh := appt("a2", "pro-1", appointments.StatusConfirmed)
	fresh.Revision = 2
	if err := s.ReplaceAll([]appointments.Appointment{fresh}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	if got, _ := s.Get("a2"); got.Status != appointments.StatusConfirmed {
		t.Fatalf("expected optimistic state still visible, got %s", got.Status)
	}

	if err := s.Rollback(gone); !errors.Is(err, entity.ErrUnknownToken) {
		t.Fatalf("expected dropped token, got %v", err)
	}
	if err := s.Rollback(kept); err != nil {
		t.Fatalf("rollback kept: %v", err)
	}
	if got, _ := s.Get("a2"); got.Revision != 2 || got.Status != appointments.StatusConfirmed {
		t.Fatalf("expected rollback to fetched state, got %+v", got)
	}
}

func TestReplaceAll_KeepsNewerRevisionFromEvent(t *testing.T) {
	s := newStore(t, entity.Scope{Role: entity.RoleAdmin})
	stale := appt("a1", "pro-1", appointments.StatusPending)
	if err := s.ReplaceAll([]appointments.Appointment{stale}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if out, _ := s.ApplyRemoteEvent(statusEvent("a1", "pro-1", appointments.StatusConfirmed, 2)); out != store.OutcomeApplied {
		t.Fatalf("expected applied, got %s", out)
	}

	// un fetch servido antes del evento no lo revierte
	if err := s.ReplaceAll([]appointments.Appointment{stale}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if got, _ := s.Get("a1"); got.Status != appointments.StatusConfirmed || got.Revision != 2 {
		t.Fatalf("expected confirmed rev 2 kept, got %s rev %d", got.Status, got.Revision)
	}
}

func TestWatch_NotifiesUntilCancelled(t *testing.T) {
	s := newStore(t, entity.Scope{Role: entity.RoleAdmin})
	calls := 0
	cancel := s.Watch(func() { calls++ })

	if err := s.ReplaceAll([]appointments.Appointment{appt("a1", "pro-1", appointments.StatusPending)}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	cancel()
	cancel()
	if _, err := s.ApplyRemoteEvent(statusEvent("a1", "pro-1", appointments.StatusConfirmed, 2)); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected no calls after cancel, got %d", calls)
	}
}
