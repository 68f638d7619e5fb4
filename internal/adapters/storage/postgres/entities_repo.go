package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"pet-admin-sync/internal/backend"
	"pet-admin-sync/internal/domain/entity"
)

const schema = `
CREATE TABLE IF NOT EXISTS entities (
	kind       TEXT        NOT NULL,
	id         TEXT        NOT NULL,
	owner_ref  TEXT        NOT NULL DEFAULT '',
	status     TEXT        NOT NULL,
	archived   BOOLEAN     NOT NULL DEFAULT FALSE,
	revision   BIGINT      NOT NULL DEFAULT 0,
	doc        JSONB       NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (kind, id)
);
CREATE INDEX IF NOT EXISTS entities_kind_owner_idx ON entities (kind, owner_ref);
`

type EntitiesRepo struct {
	db *sql.DB
}

func NewEntitiesRepo(db *sql.DB) *EntitiesRepo {
	return &EntitiesRepo{db: db}
}

// Migrate crea la tabla si no existe.
func (r *EntitiesRepo) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

func (r *EntitiesRepo) List(ctx context.Context, kind entity.Kind) ([]backend.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT kind, id, owner_ref, status, archived, revision, doc, created_at, updated_at
		FROM entities
		WHERE kind = $1
		ORDER BY created_at ASC, id ASC
	`, string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]backend.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *EntitiesRepo) Get(ctx context.Context, kind entity.Kind, id string) (backend.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return backend.Record{}, backend.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT kind, id, owner_ref, status, archived, revision, doc, created_at, updated_at
		FROM entities
		WHERE kind = $1 AND id = $2
	`, string(kind), id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return backend.Record{}, backend.ErrNotFound
	}
	return rec, err
}

func (r *EntitiesRepo) Create(ctx context.Context, rec backend.Record) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO entities (
			kind, id, owner_ref, status, archived, revision, doc, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (kind, id) DO NOTHING
	`,
		string(rec.Kind),
		rec.ID,
		rec.OwnerRef,
		rec.Status,
		rec.Archived,
		rec.Revision,
		[]byte(rec.Doc),
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return backend.ErrConflict
	}
	return nil
}

func (r *EntitiesRepo) Update(ctx context.Context, rec backend.Record) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE entities
		SET
			owner_ref = $3,
			status = $4,
			archived = $5,
			revision = $6,
			doc = $7,
			updated_at = $8
		WHERE kind = $1 AND id = $2
	`,
		string(rec.Kind),
		rec.ID,
		rec.OwnerRef,
		rec.Status,
		rec.Archived,
		rec.Revision,
		[]byte(rec.Doc),
		rec.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return backend.ErrNotFound
	}
	return nil
}

func (r *EntitiesRepo) Delete(ctx context.Context, kind entity.Kind, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entities WHERE kind = $1 AND id = $2`, string(kind), id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return backend.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (backend.Record, error) {
	var (
		rec  backend.Record
		kind string
		doc  []byte
	)
	if err := s.Scan(
		&kind,
		&rec.ID,
		&rec.OwnerRef,
		&rec.Status,
		&rec.Archived,
		&rec.Revision,
		&doc,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return backend.Record{}, err
	}
	rec.Kind = entity.Kind(kind)
	rec.Doc = doc
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return rec, nil
}
