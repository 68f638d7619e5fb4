package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pet-admin-sync/internal/domain/entity"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// Record es la fila persistida: columnas indexables + el documento JSON completo.
type Record struct {
	Kind      entity.Kind
	ID        string
	OwnerRef  string
	Status    string
	Archived  bool
	Revision  int64
	Doc       json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository lo implementan adapters/storage/{memory,sqlite,postgres}.
type Repository interface {
	List(ctx context.Context, kind entity.Kind) ([]Record, error)
	Get(ctx context.Context, kind entity.Kind, id string) (Record, error)
	Create(ctx context.Context, rec Record) error
	Update(ctx context.Context, rec Record) error
	Delete(ctx context.Context, kind entity.Kind, id string) error
}

func toRecord[T entity.Entity[T]](kind entity.Kind, it T) (Record, error) {
	doc, err := json.Marshal(it)
	if err != nil {
		return Record{}, fmt.Errorf("encode %s: %w", kind, err)
	}
	m := it.Base()
	return Record{
		Kind:      kind,
		ID:        m.ID,
		OwnerRef:  m.OwnerRef,
		Status:    it.StatusName(),
		Archived:  m.Archived,
		Revision:  m.Revision,
		Doc:       doc,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

// fromRecord decodifica el documento; las columnas mandan sobre los campos comunes.
func fromRecord[T entity.Entity[T]](rec Record) (T, error) {
	var it T
	if err := json.Unmarshal(rec.Doc, &it); err != nil {
		return it, fmt.Errorf("decode %s %s: %w", rec.Kind, rec.ID, err)
	}
	m := it.Base()
	m.ID = rec.ID
	m.OwnerRef = rec.OwnerRef
	m.Archived = rec.Archived
	m.Revision = rec.Revision
	m.CreatedAt = rec.CreatedAt
	m.UpdatedAt = rec.UpdatedAt
	return it.WithMeta(m), nil
}
