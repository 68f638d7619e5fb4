package bulk_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"pet-admin-sync/internal/domain/appointments"
	"pet-admin-sync/internal/domain/entity"
	"pet-admin-sync/internal/domain/reports"
	"pet-admin-sync/internal/platform/metrics"
	"pet-admin-sync/internal/sync/bulk"
	"pet-admin-sync/internal/sync/store"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeSender struct {
	mu    sync.Mutex
	fail  map[string]error
	calls []string
}

func (f *fakeSender) Send(_ context.Context, id string, _ entity.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, id)
	return f.fail[id]
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type countingReconciler struct{ n int }

func (r *countingReconciler) Reconcile(context.Context) error {
	r.n++
	return nil
}

func appt(id string, st appointments.Status) appointments.Appointment {
	return appointments.Appointment{
		Meta:   entity.Meta{ID: id, OwnerRef: "pro-1", CreatedAt: t0, UpdatedAt: t0, Revision: 1},
		Status: st,
		Date:   "2026-03-02",
		Time:   "10:00",
	}
}

func apptStore(t *testing.T, items ...appointments.Appointment) *store.Store[appointments.Appointment] {
	t.Helper()
	s := store.New[appointments.Appointment](appointments.Domain{}, entity.Scope{Role: entity.RoleAdmin}, store.Options{})
	if err := s.ReplaceAll(items); err != nil {
		t.Fatalf("replace: %v", err)
	}
	return s
}

func TestExecute_PartialFailure(t *testing.T) {
	s := apptStore(t,
		appt("a1", appointments.StatusPending),
		appt("a2", appointments.StatusPending),
		appt("a3", appointments.StatusPending),
		appt("a4", appointments.StatusPending),
		appt("a5", appointments.StatusCompleted),
		appt("a6", appointments.StatusCancelled),
	)
	sender := &fakeSender{fail: map[string]error{"a3": &entity.NetworkError{Op: "status", Err: errors.New("reset")}}}
	rec := &countingReconciler{}
	m := metrics.New(nil)
	c := bulk.New(s, sender, bulk.Options{Concurrency: 2, Reconciler: rec, Metrics: m})

	ids := []string{"a1", "a2", "a3", "a4", "a5", "a6", "missing"}
	res, err := c.Execute(context.Background(), ids, entity.Command{Action: "confirm"}, entity.RoleAdmin, bulk.AlwaysConfirm)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	// N=7, K=4, J=1
	if sender.count() != 4 {
		t.Fatalf("expected 4 attempts, got %d", sender.count())
	}
	if res.Succeeded != 3 || res.Failed != 1 || res.Skipped != 3 {
		t.Fatalf("unexpected counts: %+v", res)
	}
	if res.Outcome != bulk.OutcomePartial {
		t.Fatalf("expected partial, got %s", res.Outcome)
	}
	if rec.n != 1 {
		t.Fatalf("expected one reconciliation, got %d", rec.n)
	}

	for id, want := range map[string]appointments.Status{
		"a1": appointments.StatusConfirmed,
		"a2": appointments.StatusConfirmed,
		"a3": appointments.StatusPending,
		"a4": appointments.StatusConfirmed,
		"a5": appointments.StatusCompleted,
		"a6": appointments.StatusCancelled,
	} {
		got, _ := s.Get(id)
		if got.Status != want {
			t.Fatalf("%s: expected %s, got %s", id, want, got.Status)
		}
	}
	if s.Pending() != 0 {
		t.Fatalf("expected all tokens resolved, got %d", s.Pending())
	}

	if res.Items[2].ID != "a3" || !entity.Retryable(res.Items[2].Err) {
		t.Fatalf("expected a3 failure to be reported, got %+v", res.Items[2])
	}
	if got := testutil.ToFloat64(m.BulkItems.WithLabelValues("appointments", "confirm", "skipped")); got != 3 {
		t.Fatalf("expected 3 skipped in metrics, got %v", got)
	}
}

func TestExecute_ReportUnmatchSkipsIneligible(t *testing.T) {
	s := store.New[reports.Report](reports.Domain{}, entity.Scope{Role: entity.RoleAdmin}, store.Options{})
	pendingReport := reports.Report{Meta: entity.Meta{ID: "r1", UpdatedAt: t0}, Status: reports.StatusPending, Approved: true}
	matched := reports.Report{Meta: entity.Meta{ID: "r2", UpdatedAt: t0}, Status: reports.StatusMatched, Approved: true, MatchedEntityID: "r9"}
	if err := s.ReplaceAll([]reports.Report{pendingReport, matched}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	sender := &fakeSender{}
	c := bulk.New(s, sender, bulk.Options{})
	res, err := c.Execute(context.Background(), []string{"r1", "r2"}, entity.Command{Action: "unmatch"}, entity.RoleAdmin, bulk.AlwaysConfirm)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.Succeeded != 1 || res.Skipped != 1 || res.Failed != 0 {
		t.Fatalf("unexpected counts: %+v", res)
	}
	var stale *entity.StaleEligibilityError
	if !errors.As(res.Items[0].Err, &stale) {
		t.Fatalf("expected stale eligibility for r1, got %v", res.Items[0].Err)
	}

	got, _ := s.Get("r2")
	if got.Status != reports.StatusPending || got.MatchedEntityID != "" {
		t.Fatalf("expected r2 unmatched, got %+v", got)
	}
	if got, _ := s.Get("r1"); got.Status != reports.StatusPending || got.UpdatedAt != t0 {
		t.Fatalf("r1 must be untouched, got %+v", got)
	}
}

func TestApply_ValidationErrorRollsBack(t *testing.T) {
	s := apptStore(t, appt("a1", appointments.StatusPending))
	sender := &fakeSender{fail: map[string]error{"a1": &entity.ValidationError{Message: "Invalid status update"}}}
	c := bulk.New(s, sender, bulk.Options{})

	err := c.Apply(context.Background(), "a1", entity.Command{Action: "confirm"}, entity.RoleAdmin)
	if err == nil || err.Error() != "Invalid status update" {
		t.Fatalf("expected verbatim server message, got %v", err)
	}
	got, _ := s.Get("a1")
	if got.Status != appointments.StatusPending || got.UpdatedAt != t0 {
		t.Fatalf("expected rollback to pending, got %+v", got)
	}
}

func TestExecute_NoopWhenNothingEligible(t *testing.T) {
	s := apptStore(t, appt("a1", appointments.StatusCompleted))
	sender := &fakeSender{}
	gateCalled := false
	gate := bulk.ConfirmFunc(func(context.Context, bulk.Prompt) (bool, error) {
		gateCalled = true
		return true, nil
	})
	c := bulk.New(s, sender, bulk.Options{})

	res, err := c.Execute(context.Background(), []string{"a1"}, entity.Command{Action: "confirm"}, entity.RoleAdmin, gate)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.Outcome != bulk.OutcomeNoop || res.Skipped != 1 {
		t.Fatalf("expected noop with 1 skipped, got %+v", res)
	}
	if gateCalled || sender.count() != 0 {
		t.Fatalf("noop must not confirm nor dispatch")
	}
}

func TestExecute_DeclinedConfirmation(t *testing.T) {
	s := apptStore(t, appt("a1", appointments.StatusPending), appt("a2", appointments.StatusPending))
	sender := &fakeSender{}
	var prompt bulk.Prompt
	gate := bulk.ConfirmFunc(func(_ context.Context, p bulk.Prompt) (bool, error) {
		prompt = p
		return false, nil
	})
	c := bulk.New(s, sender, bulk.Options{})

	res, err := c.Execute(context.Background(), []string{"a1", "a2"}, entity.Command{Action: "cancel"}, entity.RoleProfessional, gate)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.Outcome != bulk.OutcomeDeclined || sender.count() != 0 {
		t.Fatalf("expected declined without dispatch, got %+v", res)
	}
	if len(prompt.Eligible) != 2 || prompt.Kind != entity.KindAppointments {
		t.Fatalf("unexpected prompt: %+v", prompt)
	}
	if got, _ := s.Get("a1"); got.Status != appointments.StatusPending {
		t.Fatalf("declined must not mutate, got %s", got.Status)
	}
}

func TestExecute_RevalidatesAtDispatch(t *testing.T) {
	s := apptStore(t, appt("a1", appointments.StatusPending), appt("a2", appointments.StatusPending))
	sender := &fakeSender{}

	// Entre la selección y el despacho llega un push que completa a1.
	gate := bulk.ConfirmFunc(func(context.Context, bulk.Prompt) (bool, error) {
		_, err := s.ApplyRemoteEvent(entity.Event{
			Kind: entity.KindAppointments, Type: entity.EventStatusChanged, EntityID: "a1", ActorRef: "pro-1",
			Revision: 2, At: t0.Add(time.Hour), Delta: json.RawMessage(`{"status":"cancelled"}`),
		})
		return err == nil, err
	})
	c := bulk.New(s, sender, bulk.Options{})

	res, err := c.Execute(context.Background(), []string{"a1", "a2"}, entity.Command{Action: "confirm"}, entity.RoleAdmin, gate)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.Succeeded != 1 || res.Skipped != 1 || sender.count() != 1 {
		t.Fatalf("expected a1 skipped at dispatch, got %+v", res)
	}
	if !errors.Is(res.Items[0].Err, entity.ErrIneligible) {
		t.Fatalf("expected ErrIneligible for a1, got %v", res.Items[0].Err)
	}
	if got, _ := s.Get("a1"); got.Status != appointments.StatusCancelled {
		t.Fatalf("remote state must win, got %s", got.Status)
	}
}

func TestExecute_AllFailed(t *testing.T) {
	s := apptStore(t, appt("a1", appointments.StatusConfirmed))
	sender := &fakeSender{fail: map[string]error{"a1": &entity.AuthorizationError{StatusCode: 403}}}
	c := bulk.New(s, sender, bulk.Options{})

	res, err := c.Execute(context.Background(), []string{"a1"}, entity.Command{Action: "complete"}, entity.RoleAdmin, bulk.AlwaysConfirm)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.Outcome != bulk.OutcomeFailed || res.Failed != 1 {
		t.Fatalf("expected failed outcome, got %+v", res)
	}
	if got, _ := s.Get("a1"); got.Status != appointments.StatusConfirmed {
		t.Fatalf("expected rollback, got %s", got.Status)
	}
}
