// Package backend es el servidor autoritativo contra el que sincroniza el engine:
// servicio genérico por dominio, handlers REST y emisión de eventos push.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pet-admin-sync/internal/domain/entity"
)

var ErrForbidden = errors.New("forbidden")

// Publisher recibe cada evento emitido tras una mutación aceptada (adapters/push).
type Publisher interface {
	Publish(ev entity.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(entity.Event) {}

type Service[T entity.Entity[T]] struct {
	repo    Repository
	domain  entity.Domain[T]
	initial string
	pub     Publisher

	// mu serializa read-modify-write por servicio; las revisiones no pueden saltar.
	mu sync.Mutex

	now   func() time.Time
	newID func() string
}

// NewService. initial es el status con el que nace una entidad creada sin status.
func NewService[T entity.Entity[T]](repo Repository, d entity.Domain[T], initial string, pub Publisher) *Service[T] {
	if pub == nil {
		pub = nopPublisher{}
	}
	return &Service[T]{
		repo:    repo,
		domain:  d,
		initial: initial,
		pub:     pub,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

func (s *Service[T]) Kind() entity.Kind { return s.domain.Kind() }

// List devuelve lo que el scope puede ver.
func (s *Service[T]) List(ctx context.Context, scope entity.Scope) ([]T, error) {
	recs, err := s.repo.List(ctx, s.domain.Kind())
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		if !scope.Covers(rec.OwnerRef) {
			continue
		}
		it, err := fromRecord[T](rec)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, nil
}

func (s *Service[T]) Get(ctx context.Context, scope entity.Scope, id string) (T, error) {
	var zero T
	rec, err := s.repo.Get(ctx, s.domain.Kind(), strings.TrimSpace(id))
	if err != nil {
		return zero, err
	}
	if !scope.Covers(rec.OwnerRef) {
		return zero, ErrForbidden
	}
	return fromRecord[T](rec)
}

// Create da de alta una entidad y emite "created".
// Para roles no admin el ownerRef se fuerza al actor.
func (s *Service[T]) Create(ctx context.Context, scope entity.Scope, in T) (T, error) {
	var zero T
	m := in.Base()
	m.ID = strings.TrimSpace(m.ID)
	if m.ID == "" {
		m.ID = s.newID()
	}
	if scope.Role != entity.RoleAdmin || strings.TrimSpace(m.OwnerRef) == "" {
		m.OwnerRef = scope.ActorRef
	}
	now := s.now()
	m.Archived = false
	m.Revision = 1
	m.CreatedAt = now
	m.UpdatedAt = now
	it := in.WithMeta(m)

	if it.StatusName() == "" {
		var err error
		if it, err = withStatus(it, s.initial); err != nil {
			return zero, err
		}
	}
	if !s.domain.Declared(it.StatusName()) {
		return zero, &entity.ValidationError{Message: fmt.Sprintf("invalid status %q", it.StatusName())}
	}

	rec, err := toRecord(s.domain.Kind(), it)
	if err != nil {
		return zero, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.Create(ctx, rec); err != nil {
		return zero, err
	}
	s.pub.Publish(s.event(entity.EventCreated, it, rec.Doc))
	return it, nil
}

// Apply resuelve el request contra la tabla de transiciones, persiste y emite el evento.
// Devuelve keep=false si la acción eliminó la entidad.
func (s *Service[T]) Apply(ctx context.Context, scope entity.Scope, id string, req entity.Request) (T, bool, error) {
	var zero T
	id = strings.TrimSpace(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.repo.Get(ctx, s.domain.Kind(), id)
	if err != nil {
		return zero, false, err
	}
	if !scope.Covers(rec.OwnerRef) {
		return zero, false, ErrForbidden
	}
	cur, err := fromRecord[T](rec)
	if err != nil {
		return zero, false, err
	}

	cmd, err := s.domain.Resolve(cur, req, scope.Role)
	if err != nil {
		return zero, false, err
	}
	plan, err := s.domain.Plan(cur, cmd, scope.Role)
	if err != nil {
		return zero, false, err
	}

	cm := cur.Base()
	if !plan.Keep {
		if err := s.repo.Delete(ctx, s.domain.Kind(), id); err != nil {
			return zero, false, err
		}
		gone := cur.WithMeta(withRevision(cm, cm.Revision+1, s.now()))
		s.pub.Publish(s.event(entity.EventDeleted, gone, nil))
		return gone, false, nil
	}

	next := plan.Next.WithMeta(withRevision(plan.Next.Base(), cm.Revision+1, s.now()))
	out, err := toRecord(s.domain.Kind(), next)
	if err != nil {
		return zero, false, err
	}
	if err := s.repo.Update(ctx, out); err != nil {
		return zero, false, err
	}
	s.pub.Publish(s.event(plan.Event, next, out.Doc))
	return next, true, nil
}

func withRevision(m entity.Meta, rev int64, now time.Time) entity.Meta {
	m.Revision = rev
	if now.After(m.UpdatedAt) {
		m.UpdatedAt = now
	}
	return m
}

func (s *Service[T]) event(typ entity.EventType, it T, doc json.RawMessage) entity.Event {
	m := it.Base()
	return entity.Event{
		ID:       s.newID(),
		Kind:     s.domain.Kind(),
		Type:     typ,
		EntityID: m.ID,
		ActorRef: m.OwnerRef,
		Revision: m.Revision,
		At:       m.UpdatedAt,
		Delta:    doc,
	}
}

// withStatus setea el status vía JSON para no exigir un setter en cada tipo.
func withStatus[T entity.Entity[T]](it T, status string) (T, error) {
	patch, err := json.Marshal(map[string]string{"status": status})
	if err != nil {
		return it, err
	}
	if err := json.Unmarshal(patch, &it); err != nil {
		return it, err
	}
	return it, nil
}
