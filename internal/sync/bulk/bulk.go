// Package bulk coordina acciones sobre una selección de entidades: filtro de
// elegibilidad, confirmación, mutación optimista, despacho concurrente y reconciliación.
package bulk

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"pet-admin-sync/internal/domain/entity"
	"pet-admin-sync/internal/platform/logger"
	"pet-admin-sync/internal/platform/metrics"
	"pet-admin-sync/internal/sync/store"
)

const DefaultConcurrency = 8

type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomePartial   Outcome = "partial"
	OutcomeFailed    Outcome = "failed"
	OutcomeNoop      Outcome = "noop"
	OutcomeDeclined  Outcome = "declined"
)

type ItemStatus string

const (
	ItemSucceeded ItemStatus = "succeeded"
	ItemFailed    ItemStatus = "failed"
	ItemSkipped   ItemStatus = "skipped"
)

type ItemResult struct {
	ID     string
	Status ItemStatus
	Err    error
}

// Result es el agregado que se reporta al operador. Nunca se omiten conteos.
type Result struct {
	Action    string
	Outcome   Outcome
	Selected  int
	Succeeded int
	Failed    int
	Skipped   int
	Items     []ItemResult

	// ReconcileErr es el error del refetch posterior, si lo hubo. No cambia Outcome.
	ReconcileErr error
}

// Prompt es lo que se le muestra al operador antes de despachar.
type Prompt struct {
	Kind     entity.Kind
	Action   string
	Eligible []string
	Skipped  []string
}

// Confirmer es el gate de confirmación en dos pasos.
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) (bool, error)
}

type ConfirmFunc func(ctx context.Context, p Prompt) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, p Prompt) (bool, error) { return f(ctx, p) }

// AlwaysConfirm es el gate para flujos no interactivos (--yes).
var AlwaysConfirm = ConfirmFunc(func(context.Context, Prompt) (bool, error) { return true, nil })

// Sender es el lado remoto (Gateway).
type Sender interface {
	Send(ctx context.Context, id string, req entity.Request) error
}

// Reconciler hace el refetch autoritativo tras resolver todos los ítems.
type Reconciler interface {
	Reconcile(ctx context.Context) error
}

type Options struct {
	Concurrency int
	Reconciler  Reconciler
	Logger      logger.Logger
	Metrics     *metrics.Recorder
}

type Coordinator[T entity.Entity[T]] struct {
	store  *store.Store[T]
	sender Sender

	concurrency int
	reconciler  Reconciler
	log         logger.Logger
	metrics     *metrics.Recorder
}

func New[T entity.Entity[T]](s *store.Store[T], sender Sender, opts Options) *Coordinator[T] {
	n := opts.Concurrency
	if n <= 0 {
		n = DefaultConcurrency
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Coordinator[T]{
		store:       s,
		sender:      sender,
		concurrency: n,
		reconciler:  opts.Reconciler,
		log:         log.With(map[string]any{"component": "bulk", "kind": string(s.Kind())}),
		metrics:     opts.Metrics,
	}
}

type pending struct {
	id  string
	tok store.Token
	req entity.Request
}

// Execute corre una acción sobre la selección ids.
// Los ítems se resuelven de forma independiente: nunca aborta en el primer fallo.
func (c *Coordinator[T]) Execute(ctx context.Context, ids []string, cmd entity.Command, role entity.Role, gate Confirmer) (Result, error) {
	ids = normalize(ids)
	res := Result{Action: cmd.Action, Selected: len(ids)}
	items := make(map[string]ItemResult, len(ids))

	var eligible, skipped []string
	for _, id := range ids {
		if c.store.Eligible(id, cmd, role) {
			eligible = append(eligible, id)
			continue
		}
		skipped = append(skipped, id)
		items[id] = ItemResult{ID: id, Status: ItemSkipped, Err: c.ineligible(id, cmd)}
	}

	if len(eligible) == 0 {
		res.Outcome = OutcomeNoop
		c.finish(&res, ids, items)
		return res, nil
	}

	if gate == nil {
		return res, fmt.Errorf("bulk %s: %w", cmd.Action, entity.ErrNotConfirmed)
	}
	ok, err := gate.Confirm(ctx, Prompt{Kind: c.store.Kind(), Action: cmd.Action, Eligible: eligible, Skipped: skipped})
	if err != nil {
		return res, fmt.Errorf("bulk %s: confirm: %w", cmd.Action, err)
	}
	if !ok {
		res.Outcome = OutcomeDeclined
		for _, id := range eligible {
			items[id] = ItemResult{ID: id, Status: ItemSkipped, Err: entity.ErrNotConfirmed}
		}
		c.finish(&res, ids, items)
		return res, nil
	}

	// Optimista sobre todos antes de despachar. La elegibilidad se revalida bajo el lock del store.
	batch := make([]pending, 0, len(eligible))
	for _, id := range eligible {
		tok, req, err := c.begin(id, cmd, role)
		if err != nil {
			items[id] = ItemResult{ID: id, Status: ItemSkipped, Err: err}
			continue
		}
		batch = append(batch, pending{id: id, tok: tok, req: req})
	}

	outcomes := make([]ItemResult, len(batch))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, p := range batch {
		i, p := i, p
		g.Go(func() error {
			outcomes[i] = c.dispatch(gctx, p)
			// nil siempre: un fallo no cancela a los demás
			return nil
		})
	}
	_ = g.Wait()
	for _, o := range outcomes {
		items[o.ID] = o
	}

	if c.reconciler != nil {
		if err := c.reconciler.Reconcile(ctx); err != nil {
			res.ReconcileErr = err
			c.log.Warn("post-bulk reconciliation failed", map[string]any{"error": err.Error()})
		}
	}

	c.finish(&res, ids, items)
	switch {
	case res.Succeeded > 0 && res.Failed == 0:
		res.Outcome = OutcomeCompleted
	case res.Succeeded > 0:
		res.Outcome = OutcomePartial
	case res.Failed > 0:
		res.Outcome = OutcomeFailed
	default:
		res.Outcome = OutcomeNoop
	}

	c.log.Info("bulk action finished", map[string]any{
		"action":    cmd.Action,
		"outcome":   string(res.Outcome),
		"selected":  res.Selected,
		"succeeded": res.Succeeded,
		"failed":    res.Failed,
		"skipped":   res.Skipped,
	})
	return res, nil
}

// Apply es el camino de una sola entidad: mismo protocolo sin gate ni refetch.
// El error devuelto es el del servidor (o de elegibilidad) tal cual; el store ya quedó revertido.
func (c *Coordinator[T]) Apply(ctx context.Context, id string, cmd entity.Command, role entity.Role) error {
	tok, req, err := c.begin(strings.TrimSpace(id), cmd, role)
	if err != nil {
		return err
	}
	r := c.dispatch(ctx, pending{id: strings.TrimSpace(id), tok: tok, req: req})
	return r.Err
}

func (c *Coordinator[T]) begin(id string, cmd entity.Command, role entity.Role) (store.Token, entity.Request, error) {
	var req entity.Request
	d := c.store.Domain()
	tok, err := c.store.BeginOptimistic(id, func(cur T, exists bool) (T, bool, error) {
		if !exists {
			return cur, false, &entity.NotFoundError{Kind: d.Kind(), ID: id}
		}
		plan, err := d.Plan(cur, cmd, role)
		if err != nil {
			return cur, false, err
		}
		req = plan.Request
		return plan.Next, plan.Keep, nil
	})
	return tok, req, err
}

func (c *Coordinator[T]) dispatch(ctx context.Context, p pending) ItemResult {
	if err := c.sender.Send(ctx, p.id, p.req); err != nil {
		if rbErr := c.store.Rollback(p.tok); rbErr != nil && !errors.Is(rbErr, entity.ErrUnknownToken) {
			c.log.Error("rollback failed", map[string]any{"id": p.id, "error": rbErr.Error()})
		}
		return ItemResult{ID: p.id, Status: ItemFailed, Err: err}
	}
	// El token puede haberse descartado por un refetch concurrente: el estado ya es el remoto.
	if err := c.store.Commit(p.tok); err != nil && !errors.Is(err, entity.ErrUnknownToken) {
		return ItemResult{ID: p.id, Status: ItemFailed, Err: err}
	}
	return ItemResult{ID: p.id, Status: ItemSucceeded}
}

func (c *Coordinator[T]) ineligible(id string, cmd entity.Command) error {
	cur, ok := c.store.Get(id)
	if !ok {
		return &entity.NotFoundError{Kind: c.store.Kind(), ID: id}
	}
	return &entity.StaleEligibilityError{ID: id, Action: cmd.Action, Status: cur.StatusName()}
}

// finish ordena los ítems según la selección y calcula los conteos.
func (c *Coordinator[T]) finish(res *Result, ids []string, items map[string]ItemResult) {
	res.Items = make([]ItemResult, 0, len(ids))
	kind := string(c.store.Kind())
	for _, id := range ids {
		it := items[id]
		res.Items = append(res.Items, it)
		switch it.Status {
		case ItemSucceeded:
			res.Succeeded++
		case ItemFailed:
			res.Failed++
		default:
			res.Skipped++
		}
		c.metrics.BulkItem(kind, res.Action, string(it.Status))
	}
}

// normalize recorta, descarta vacíos y deduplica preservando el orden.
func normalize(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
