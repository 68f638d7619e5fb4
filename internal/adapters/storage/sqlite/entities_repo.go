// Package sqlite es el repositorio de backend sobre un archivo local (SQLITE_PATH).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"pet-admin-sync/internal/backend"
	"pet-admin-sync/internal/domain/entity"
)

// Open abre (o crea) la base y aplica pragmas + migración.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	// modernc.org/sqlite registra el driver como "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Un solo writer; además ":memory:" es por conexión.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS entities (
			kind TEXT NOT NULL,
			id TEXT NOT NULL,
			owner_ref TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			archived INTEGER NOT NULL DEFAULT 0,
			revision INTEGER NOT NULL DEFAULT 0,
			doc_json TEXT NOT NULL,
			created_at_unixns INTEGER NOT NULL,
			updated_at_unixns INTEGER NOT NULL,
			PRIMARY KEY(kind, id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_entities_owner ON entities(kind, owner_ref);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

type EntitiesRepo struct {
	db *sql.DB
}

func NewEntitiesRepo(db *sql.DB) *EntitiesRepo {
	return &EntitiesRepo{db: db}
}

func (r *EntitiesRepo) List(ctx context.Context, kind entity.Kind) ([]backend.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT kind, id, owner_ref, status, archived, revision, doc_json, created_at_unixns, updated_at_unixns
		FROM entities
		WHERE kind = ?
		ORDER BY created_at_unixns ASC, id ASC
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
		SELECT kind, id, owner_ref, status, archived, revision, doc_json, created_at_unixns, updated_at_unixns
		FROM entities
		WHERE kind = ? AND id = ?
	`, string(kind), id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return backend.Record{}, backend.ErrNotFound
	}
	return rec, err
}

func (r *EntitiesRepo) Create(ctx context.Context, rec backend.Record) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO entities (
			kind, id, owner_ref, status, archived, revision, doc_json, created_at_unixns, updated_at_unixns
		) VALUES (?,?,?,?,?,?,?,?,?)
	`,
		string(rec.Kind),
		rec.ID,
		rec.OwnerRef,
		rec.Status,
		boolInt(rec.Archived),
		rec.Revision,
		string(rec.Doc),
		rec.CreatedAt.UnixNano(),
		rec.UpdatedAt.UnixNano(),
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
		SET owner_ref = ?, status = ?, archived = ?, revision = ?, doc_json = ?, updated_at_unixns = ?
		WHERE kind = ? AND id = ?
	`,
		rec.OwnerRef,
		rec.Status,
		boolInt(rec.Archived),
		rec.Revision,
		string(rec.Doc),
		rec.UpdatedAt.UnixNano(),
		string(rec.Kind),
		rec.ID,
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
	res, err := r.db.ExecContext(ctx, `DELETE FROM entities WHERE kind = ? AND id = ?`, string(kind), id)
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
		rec              backend.Record
		kind, doc        string
		archived         int64
		created, updated int64
	)
	if err := s.Scan(&kind, &rec.ID, &rec.OwnerRef, &rec.Status, &archived, &rec.Revision, &doc, &created, &updated); err != nil {
		return backend.Record{}, err
	}
	rec.Kind = entity.Kind(kind)
	rec.Archived = archived != 0
	rec.Doc = []byte(doc)
	rec.CreatedAt = time.Unix(0, created).UTC()
	rec.UpdatedAt = time.Unix(0, updated).UTC()
	return rec, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
