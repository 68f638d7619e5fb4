// Package engine arma, por dominio, store + gateway + bulk + view, y agrupa los
// cuatro dominios en una Session con un único canal push.
package engine

import (
	"context"
	"time"

	"pet-admin-sync/internal/domain/entity"
	"pet-admin-sync/internal/platform/httpclient"
	"pet-admin-sync/internal/platform/logger"
	"pet-admin-sync/internal/platform/metrics"
	"pet-admin-sync/internal/sync/bulk"
	"pet-admin-sync/internal/sync/channel"
	"pet-admin-sync/internal/sync/gateway"
	"pet-admin-sync/internal/sync/reconcile"
	"pet-admin-sync/internal/sync/store"
	"pet-admin-sync/internal/sync/view"
)

// Row es la proyección mínima para renderizar cualquier dominio.
type Row struct {
	ID        string
	Status    string
	Archived  bool
	OwnerRef  string
	UpdatedAt time.Time
	Summary   string
}

// RowPage es una página de Rows con los totales de view.Page.
type RowPage struct {
	Rows     []Row
	Total    int
	Page     int
	Pages    int
	PageSize int
}

// Handle es la vista no genérica de un Engine, para la capa de presentación.
type Handle interface {
	Kind() entity.Kind
	Actions() []string
	Refresh(ctx context.Context) error
	Rows(q view.Query) RowPage
	Eligible(id string, cmd entity.Command) bool
	Act(ctx context.Context, id string, cmd entity.Command) error
	BulkAct(ctx context.Context, ids []string, cmd entity.Command, gate bulk.Confirmer) (bulk.Result, error)
	Watch(fn func()) (cancel func())

	attach(ch *channel.Channel) *channel.Subscription
}

type Options[T entity.Entity[T]] struct {
	Schema   view.Schema[T]
	Actions  []string
	Describe func(T) string

	BulkConcurrency int
	Logger          logger.Logger
	Metrics         *metrics.Recorder
	Now             func() time.Time
}

// Engine es el motor de sincronización de un dominio.
type Engine[T entity.Entity[T]] struct {
	Store   *store.Store[T]
	Gateway *gateway.Gateway[T]
	Bulk    *bulk.Coordinator[T]

	scope    entity.Scope
	schema   view.Schema[T]
	actions  []string
	describe func(T) string
	log      logger.Logger
}

func New[T entity.Entity[T]](d entity.Domain[T], client *httpclient.Client, scope entity.Scope, opts Options[T]) *Engine[T] {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	e := &Engine[T]{
		Store: store.New(d, scope, store.Options{
			Logger:  log,
			Metrics: opts.Metrics,
			Now:     opts.Now,
		}),
		Gateway:  gateway.New[T](client, d.Kind()),
		scope:    scope,
		schema:   opts.Schema,
		actions:  opts.Actions,
		describe: opts.Describe,
		log:      log.With(map[string]any{"component": "engine", "kind": string(d.Kind())}),
	}
	e.Bulk = bulk.New(e.Store, e.Gateway, bulk.Options{
		Concurrency: opts.BulkConcurrency,
		Reconciler:  reconcile.New(log, opts.Metrics, e),
		Logger:      log,
		Metrics:     opts.Metrics,
	})
	return e
}

func (e *Engine[T]) Kind() entity.Kind { return e.Store.Kind() }

func (e *Engine[T]) Actions() []string { return append([]string(nil), e.actions...) }

// Refresh trae la colección completa y reemplaza el cache.
func (e *Engine[T]) Refresh(ctx context.Context) error {
	items, err := e.Gateway.FetchAll(ctx)
	if err != nil {
		return err
	}
	if err := e.Store.ReplaceAll(items); err != nil {
		return err
	}
	e.log.Debug("refreshed", map[string]any{"count": len(items)})
	return nil
}

// View calcula la página tipada sobre el snapshot actual.
func (e *Engine[T]) View(q view.Query) view.Page[T] {
	return view.Compute(e.Store.Snapshot(), e.schema, q)
}

func (e *Engine[T]) Rows(q view.Query) RowPage {
	p := e.View(q)
	out := RowPage{Total: p.Total, Page: p.Page, Pages: p.Pages, PageSize: p.PageSize}
	out.Rows = make([]Row, 0, len(p.Items))
	for _, it := range p.Items {
		m := it.Base()
		r := Row{
			ID:        m.ID,
			Status:    it.StatusName(),
			Archived:  m.Archived,
			OwnerRef:  m.OwnerRef,
			UpdatedAt: m.UpdatedAt,
		}
		if e.describe != nil {
			r.Summary = e.describe(it)
		}
		out.Rows = append(out.Rows, r)
	}
	return out
}

// Eligible es la consulta consultiva para la UI con el rol de la sesión.
func (e *Engine[T]) Eligible(id string, cmd entity.Command) bool {
	return e.Store.Eligible(id, cmd, e.scope.Role)
}

// Act ejecuta una acción individual (optimista, con rollback si el servidor la rechaza).
func (e *Engine[T]) Act(ctx context.Context, id string, cmd entity.Command) error {
	return e.Bulk.Apply(ctx, id, cmd, e.scope.Role)
}

func (e *Engine[T]) BulkAct(ctx context.Context, ids []string, cmd entity.Command, gate bulk.Confirmer) (bulk.Result, error) {
	return e.Bulk.Execute(ctx, ids, cmd, e.scope.Role, gate)
}

func (e *Engine[T]) Watch(fn func()) (cancel func()) { return e.Store.Watch(fn) }

func (e *Engine[T]) attach(ch *channel.Channel) *channel.Subscription {
	return ch.Subscribe(e.Kind(), func(ev entity.Event) {
		_, _ = e.Store.ApplyRemoteEvent(ev)
	})
}
