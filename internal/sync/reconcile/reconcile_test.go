package reconcile_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"pet-admin-sync/internal/domain/entity"
	"pet-admin-sync/internal/platform/metrics"
	"pet-admin-sync/internal/sync/reconcile"
)

type target struct {
	kind  entity.Kind
	err   error
	calls atomic.Int32
}

func (t *target) Kind() entity.Kind { return t.kind }

func (t *target) Refresh(context.Context) error {
	t.calls.Add(1)
	return t.err
}

func TestReconcile_ContinuesPastFailures(t *testing.T) {
	boom := errors.New("boom")
	a := &target{kind: entity.KindAppointments, err: boom}
	p := &target{kind: entity.KindPets}
	m := metrics.New(nil)

	err := reconcile.New(nil, m, a, p).Reconcile(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
	if a.calls.Load() != 1 || p.calls.Load() != 1 {
		t.Fatalf("expected every target refreshed")
	}
	if got := testutil.ToFloat64(m.Reconciles.WithLabelValues("pets", "ok")); got != 1 {
		t.Fatalf("expected pets ok=1, got %v", got)
	}
	if got := testutil.ToFloat64(m.Reconciles.WithLabelValues("appointments", "error")); got != 1 {
		t.Fatalf("expected appointments error=1, got %v", got)
	}
}

func TestRun_Periodic(t *testing.T) {
	u := &target{kind: entity.KindUsers}
	r := reconcile.New(nil, nil, u)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := r.Run(ctx, 20*time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}
	if u.calls.Load() < 2 {
		t.Fatalf("expected several passes, got %d", u.calls.Load())
	}
}
