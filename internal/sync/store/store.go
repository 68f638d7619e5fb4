// Package store es el cache local autoritativo de un dominio: todas las mutaciones
// (fetch completo, eventos push, cambios optimistas) pasan por acá.
package store

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pet-admin-sync/internal/domain/entity"
	"pet-admin-sync/internal/platform/logger"
	"pet-admin-sync/internal/platform/metrics"
)

// Outcome describe qué hizo el store con un evento push.
type Outcome string

const (
	OutcomeApplied    Outcome = "applied"
	OutcomeDuplicate  Outcome = "duplicate"
	OutcomeSuperseded Outcome = "superseded"
	OutcomeFiltered   Outcome = "filtered"
	OutcomeIgnored    Outcome = "ignored"
	OutcomeRejected   Outcome = "rejected"
)

// Token identifica una mutación optimista en vuelo.
type Token string

// Mutator produce el nuevo estado local. keep=false elimina la entidad.
// Corre con el lock del store tomado: no debe llamar de vuelta al store.
type Mutator[T any] func(current T, exists bool) (next T, keep bool, err error)

type snapshot[T any] struct {
	id      string
	prev    T
	existed bool
}

type Options struct {
	Logger  logger.Logger
	Metrics *metrics.Recorder
	Now     func() time.Time
}

// Store es el cache de un dominio. Una instancia por dominio y por sesión.
// El mutex serializa las operaciones: ninguna mutación se intercala a mitad de otra.
type Store[T entity.Entity[T]] struct {
	mu     sync.Mutex
	domain entity.Domain[T]
	scope  entity.Scope

	items map[string]T
	snaps map[Token]*snapshot[T]
	// chain: tokens pendientes por entidad, del más viejo al más nuevo.
	chain map[string][]Token

	watchers  map[int]func()
	nextWatch int

	now     func() time.Time
	log     logger.Logger
	metrics *metrics.Recorder
}

func New[T entity.Entity[T]](d entity.Domain[T], scope entity.Scope, opts Options) *Store[T] {
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Store[T]{
		domain:   d,
		scope:    scope,
		items:    make(map[string]T),
		snaps:    make(map[Token]*snapshot[T]),
		chain:    make(map[string][]Token),
		watchers: make(map[int]func()),
		now:      now,
		log:      log.With(map[string]any{"component": "store", "kind": string(d.Kind())}),
		metrics:  opts.Metrics,
	}
}

func (s *Store[T]) Kind() entity.Kind        { return s.domain.Kind() }
func (s *Store[T]) Scope() entity.Scope      { return s.scope }
func (s *Store[T]) Domain() entity.Domain[T] { return s.domain }

// ReplaceAll reemplaza la colección tras un fetch completo.
// IDs duplicados o status no declarados rechazan el reemplazo y el cache previo queda intacto.
func (s *Store[T]) ReplaceAll(items []T) error {
	seen := make(map[string]struct{}, len(items))
	var dups []string
	blank := 0
	for _, it := range items {
		id := strings.TrimSpace(it.Base().ID)
		if id == "" {
			blank++
			continue
		}
		if _, ok := seen[id]; ok {
			if !slices.Contains(dups, id) {
				dups = append(dups, id)
			}
			continue
		}
		seen[id] = struct{}{}
	}
	if len(dups) > 0 || blank > 0 {
		slices.Sort(dups)
		err := &entity.DataIntegrityError{Kind: s.domain.Kind(), Duplicates: dups, BlankIDs: blank}
		s.log.Error("refusing replace: bad ids in fetch", map[string]any{"duplicates": dups, "blank_ids": blank})
		return err
	}
	for _, it := range items {
		if !s.domain.Declared(it.StatusName()) {
			s.log.Error("refusing replace: undeclared status", map[string]any{"id": it.Base().ID, "status": it.StatusName()})
			return fmt.Errorf("%s %s: %w: %q", s.domain.Kind(), it.Base().ID, entity.ErrUndeclaredStatus, it.StatusName())
		}
	}

	s.mu.Lock()
	next := make(map[string]T, len(items))
	newer := make(map[string]bool)
	for _, it := range items {
		m := it.Base()
		// Un evento con revisión posterior al fetch ya está aplicado (también en los
		// snapshots): no se pisa.
		if prev, ok := s.items[m.ID]; ok && m.Revision > 0 && prev.Base().Revision > m.Revision {
			next[m.ID] = prev
			newer[m.ID] = true
			continue
		}
		if prev, ok := s.items[m.ID]; ok && prev.Base().UpdatedAt.After(m.UpdatedAt) {
			m.UpdatedAt = prev.Base().UpdatedAt
			it = it.WithMeta(m)
		}
		next[m.ID] = it
	}

	dropped := 0
	for id, tokens := range s.chain {
		fresh, ok := next[id]
		if !ok {
			for _, tok := range tokens {
				delete(s.snaps, tok)
				dropped++
			}
			delete(s.chain, id)
			continue
		}
		if newer[id] {
			continue
		}
		// El estado remoto pasa a ser la base de cualquier rollback pendiente y el
		// visible sigue siendo el optimista hasta que la mutación se resuelva.
		for _, tok := range tokens {
			s.snaps[tok].prev = fresh
			s.snaps[tok].existed = true
		}
		if cur, ok := s.items[id]; ok {
			next[id] = s.monotonic(fresh, cur)
		} else {
			delete(next, id)
		}
	}
	s.items = next
	s.mu.Unlock()

	if dropped > 0 {
		s.log.Debug("dropped stale snapshots", map[string]any{"count": dropped})
	}
	s.notify()
	return nil
}

// ApplyRemoteEvent fusiona un evento push respetando scope e idempotencia.
// El orden de guardas: tipo conocido, scope, revisión, semántica de transición.
func (s *Store[T]) ApplyRemoteEvent(ev entity.Event) (Outcome, error) {
	out, err := s.applyRemoteEvent(ev)
	s.metrics.Event(string(s.domain.Kind()), string(out))
	if out == OutcomeApplied {
		s.notify()
	}
	return out, err
}

func (s *Store[T]) applyRemoteEvent(ev entity.Event) (Outcome, error) {
	if !ev.Type.Known() || (ev.Kind != "" && ev.Kind != s.domain.Kind()) {
		s.log.Debug("ignoring event", map[string]any{"type": string(ev.Type), "event_kind": string(ev.Kind)})
		return OutcomeIgnored, nil
	}
	id := strings.TrimSpace(ev.EntityID)
	if id == "" {
		return OutcomeIgnored, nil
	}
	if !s.scope.Covers(ev.ActorRef) {
		s.log.Debug("event outside scope", map[string]any{"id": id, "actor_ref": ev.ActorRef})
		return OutcomeFiltered, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, exists := s.items[id]
	if exists && !s.scope.Covers(cur.Base().OwnerRef) {
		return OutcomeFiltered, nil
	}
	if exists && ev.Revision > 0 && cur.Base().Revision >= ev.Revision {
		return OutcomeSuperseded, nil
	}

	next, change, err := s.domain.Reduce(cur, exists, ev)
	if err != nil {
		s.log.Warn("rejecting event", map[string]any{"id": id, "type": string(ev.Type), "error": err.Error()})
		return OutcomeRejected, err
	}

	switch change {
	case entity.ChangeNone:
		return OutcomeIgnored, nil
	case entity.ChangeRemove:
		delete(s.items, id)
		s.dropChainLocked(id)
		return OutcomeApplied, nil
	}

	if !s.domain.Declared(next.StatusName()) {
		return OutcomeRejected, fmt.Errorf("%s %s: %w: %q", s.domain.Kind(), id, entity.ErrUndeclaredStatus, next.StatusName())
	}
	if !s.scope.Covers(next.Base().OwnerRef) {
		return OutcomeFiltered, nil
	}

	if exists {
		// Sin revisión, la semántica de transición decide si el evento llega tarde.
		if ev.Revision == 0 && next.StatusName() != cur.StatusName() && s.domain.Supersedes(cur.StatusName(), next.StatusName()) {
			return OutcomeSuperseded, nil
		}
		next = s.monotonic(cur, next)
		if sameContent(cur, next) {
			// Solo metadatos: se adopta la revisión sin notificar cambio visible.
			s.items[id] = next
			return OutcomeDuplicate, nil
		}
	}

	s.items[id] = next
	s.rebaseLocked(id, ev)
	return OutcomeApplied, nil
}

// rebaseLocked aplica el evento también sobre la base de cada rollback pendiente, así
// ningún rollback posterior borra un cambio remoto ya aceptado.
func (s *Store[T]) rebaseLocked(id string, ev entity.Event) {
	for _, tok := range s.chain[id] {
		snap := s.snaps[tok]
		if !snap.existed {
			continue
		}
		next, change, err := s.domain.Reduce(snap.prev, true, ev)
		if err != nil || change != entity.ChangeUpsert {
			continue
		}
		snap.prev = s.monotonic(snap.prev, next)
	}
}

// BeginOptimistic captura el estado actual (o su ausencia) y aplica fn de inmediato.
func (s *Store[T]) BeginOptimistic(id string, fn Mutator[T]) (Token, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", &entity.NotFoundError{Kind: s.domain.Kind(), ID: id}
	}

	s.mu.Lock()
	cur, exists := s.items[id]
	next, keep, err := fn(cur, exists)
	if err != nil {
		s.mu.Unlock()
		return "", err
	}
	if !keep && !exists {
		s.mu.Unlock()
		return "", &entity.NotFoundError{Kind: s.domain.Kind(), ID: id}
	}
	if keep {
		if !s.domain.Declared(next.StatusName()) {
			s.mu.Unlock()
			return "", fmt.Errorf("%s %s: %w: %q", s.domain.Kind(), id, entity.ErrUndeclaredStatus, next.StatusName())
		}
		m := next.Base()
		m.ID = id
		at := s.now()
		if exists && cur.Base().UpdatedAt.After(at) {
			at = cur.Base().UpdatedAt
		}
		m.UpdatedAt = at
		if m.CreatedAt.IsZero() {
			m.CreatedAt = at
		}
		next = next.WithMeta(m)
	}

	tok := Token(uuid.NewString())
	s.snaps[tok] = &snapshot[T]{id: id, prev: cur, existed: exists}
	s.chain[id] = append(s.chain[id], tok)
	if keep {
		s.items[id] = next
	} else {
		delete(s.items, id)
	}
	s.mu.Unlock()

	s.metrics.Mutation(string(s.domain.Kind()), "begun")
	s.notify()
	return tok, nil
}

// Commit descarta el snapshot: el estado optimista queda como final hasta el próximo refresh.
func (s *Store[T]) Commit(tok Token) error {
	s.mu.Lock()
	snap, ok := s.snaps[tok]
	if !ok {
		s.mu.Unlock()
		return entity.ErrUnknownToken
	}
	s.removeTokenLocked(snap.id, tok)
	s.mu.Unlock()

	s.metrics.Mutation(string(s.domain.Kind()), "committed")
	return nil
}

// Rollback restaura el estado previo a la mutación (o elimina la entidad si no existía).
// Si hay mutaciones más nuevas en vuelo sobre la misma entidad, el estado visible se
// conserva y la base del siguiente snapshot pasa a ser la de este.
func (s *Store[T]) Rollback(tok Token) error {
	s.mu.Lock()
	snap, ok := s.snaps[tok]
	if !ok {
		s.mu.Unlock()
		return entity.ErrUnknownToken
	}

	tokens := s.chain[snap.id]
	idx := slices.Index(tokens, tok)
	restored := false
	if idx == len(tokens)-1 {
		if snap.existed {
			s.items[snap.id] = snap.prev
		} else {
			delete(s.items, snap.id)
		}
		restored = true
	} else if idx >= 0 {
		following := s.snaps[tokens[idx+1]]
		following.prev = snap.prev
		following.existed = snap.existed
	}
	s.removeTokenLocked(snap.id, tok)
	s.mu.Unlock()

	s.metrics.Mutation(string(s.domain.Kind()), "rolled_back")
	s.log.Warn("optimistic mutation rolled back", map[string]any{"id": snap.id})
	if restored {
		s.notify()
	}
	return nil
}

func (s *Store[T]) removeTokenLocked(id string, tok Token) {
	delete(s.snaps, tok)
	tokens := slices.DeleteFunc(s.chain[id], func(t Token) bool { return t == tok })
	if len(tokens) == 0 {
		delete(s.chain, id)
		return
	}
	s.chain[id] = tokens
}

func (s *Store[T]) dropChainLocked(id string) {
	for _, tok := range s.chain[id] {
		delete(s.snaps, tok)
	}
	delete(s.chain, id)
}

func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[strings.TrimSpace(id)]
	return it, ok
}

// Snapshot devuelve una copia de la colección ordenada por id.
func (s *Store[T]) Snapshot() []T {
	s.mu.Lock()
	out := make([]T, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it)
	}
	s.mu.Unlock()

	slices.SortFunc(out, func(a, b T) int { return cmp.Compare(a.Base().ID, b.Base().ID) })
	return out
}

func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Pending es la cantidad de mutaciones optimistas sin resolver.
func (s *Store[T]) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snaps)
}

// Eligible es la consulta consultiva para habilitar/deshabilitar acciones en la UI.
func (s *Store[T]) Eligible(id string, cmd entity.Command, role entity.Role) bool {
	cur, ok := s.Get(id)
	return ok && s.domain.Eligible(cur, cmd, role)
}

// Watch registra fn para cada cambio visible del store. La función devuelta
// lo da de baja; después de que retorna fn no vuelve a ser llamada por cambios nuevos.
func (s *Store[T]) Watch(fn func()) (cancel func()) {
	s.mu.Lock()
	id := s.nextWatch
	s.nextWatch++
	s.watchers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.watchers, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store[T]) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// monotonic garantiza updatedAt no decreciente y revisión máxima.
func (s *Store[T]) monotonic(cur, next T) T {
	cm, nm := cur.Base(), next.Base()
	if cm.UpdatedAt.After(nm.UpdatedAt) {
		nm.UpdatedAt = cm.UpdatedAt
	}
	if cm.Revision > nm.Revision {
		nm.Revision = cm.Revision
	}
	if nm.CreatedAt.IsZero() {
		nm.CreatedAt = cm.CreatedAt
	}
	return next.WithMeta(nm)
}

// sameContent compara ignorando updatedAt y revision.
func sameContent[T entity.Entity[T]](a, b T) bool {
	am, bm := a.Base(), b.Base()
	bm.UpdatedAt = am.UpdatedAt
	bm.Revision = am.Revision
	return reflect.DeepEqual(a, b.WithMeta(bm))
}
