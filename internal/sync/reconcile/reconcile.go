// Package reconcile es el pase explícito de refetch autoritativo: después de cada
// acción, al reconectar el canal push y, si se configura, de forma periódica.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pet-admin-sync/internal/domain/entity"
	"pet-admin-sync/internal/platform/logger"
	"pet-admin-sync/internal/platform/metrics"
)

// Target es algo que sabe refrescarse desde el servidor (un Engine por dominio).
type Target interface {
	Kind() entity.Kind
	Refresh(ctx context.Context) error
}

type Reconciler struct {
	targets []Target
	log     logger.Logger
	metrics *metrics.Recorder
}

func New(log logger.Logger, m *metrics.Recorder, targets ...Target) *Reconciler {
	if log == nil {
		log = logger.Nop()
	}
	return &Reconciler{
		targets: targets,
		log:     log.With(map[string]any{"component": "reconcile"}),
		metrics: m,
	}
}

// Reconcile refresca todos los targets. Un fallo en uno no impide el resto;
// los errores se devuelven combinados.
func (r *Reconciler) Reconcile(ctx context.Context) error {
	var errs []error
	for _, t := range r.targets {
		kind := string(t.Kind())
		if err := t.Refresh(ctx); err != nil {
			r.metrics.Reconcile(kind, "error")
			r.log.Warn("reconciliation failed", map[string]any{"kind": kind, "error": err.Error()})
			errs = append(errs, fmt.Errorf("reconcile %s: %w", kind, err))
			continue
		}
		r.metrics.Reconcile(kind, "ok")
	}
	return errors.Join(errs...)
}

// Run reconcilia cada every hasta que ctx se cancela. every <= 0 no hace nada.
func (r *Reconciler) Run(ctx context.Context, every time.Duration) error {
	if every <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	tick := time.NewTicker(every)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			_ = r.Reconcile(ctx)
		}
	}
}
