package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pet-admin-sync/internal/backend"
	"pet-admin-sync/internal/domain/entity"
)

type key struct {
	kind entity.Kind
	id   string
}

type entitiesRepo struct {
	mu   sync.RWMutex
	byID map[key]backend.Record
}

func NewEntitiesRepo() backend.Repository {
	return &entitiesRepo{
		byID: make(map[key]backend.Record),
	}
}

func (r *entitiesRepo) List(ctx context.Context, kind entity.Kind) ([]backend.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]backend.Record, 0)
	for k, rec := range r.byID {
		if k.kind == kind {
			out = append(out, clone(rec))
		}
	}

	// Orden estable por created_at asc, id asc
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *entitiesRepo) Get(ctx context.Context, kind entity.Kind, id string) (backend.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byID[key{kind, id}]
	if !ok {
		return backend.Record{}, backend.ErrNotFound
	}
	return clone(rec), nil
}

func (r *entitiesRepo) Create(ctx context.Context, rec backend.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(rec.ID) == "" {
		return errors.New("entity id required")
	}
	k := key{rec.Kind, rec.ID}
	if _, exists := r.byID[k]; exists {
		return backend.ErrConflict
	}
	r.byID[k] = clone(rec)
	return nil
}

func (r *entitiesRepo) Update(ctx context.Context, rec backend.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{rec.Kind, rec.ID}
	if _, exists := r.byID[k]; !exists {
		return backend.ErrNotFound
	}
	r.byID[k] = clone(rec)
	return nil
}

func (r *entitiesRepo) Delete(ctx context.Context, kind entity.Kind, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{kind, id}
	if _, exists := r.byID[k]; !exists {
		return backend.ErrNotFound
	}
	delete(r.byID, k)
	return nil
}

// clone copia el documento: el caller no debe poder mutar lo guardado.
func clone(rec backend.Record) backend.Record {
	rec.Doc = append([]byte(nil), rec.Doc...)
	return rec
}
