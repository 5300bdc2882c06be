// Package pg is the Postgres store. Each collection is a two-column table
// (id text primary key, doc jsonb); partial updates are jsonb merges so the
// document model matches the in-memory store exactly. Array unions and the
// reassessment counter are computed inside the UPDATE, which makes them
// atomic without explicit transactions.
package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"faithresponders.org/internal/fault"
)

// Store wraps the connection pool and hands out per-collection views.
type Store struct {
	db *sql.DB
}

// Open connects to Postgres via the pgx stdlib driver.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing pool (used by sqlmock tests).
func NewWithDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// Collection accessors.

func (s *Store) Users() *UserStore             { return &UserStore{db: s.db} }
func (s *Store) Groups() *GroupStore           { return &GroupStore{db: s.db} }
func (s *Store) Centers() *CenterStore         { return &CenterStore{db: s.db} }
func (s *Store) Assessments() *AssessmentStore { return &AssessmentStore{db: s.db} }
func (s *Store) Workgroups() *WorkgroupStore   { return &WorkgroupStore{db: s.db} }
func (s *Store) Escalations() *EscalationStore { return &EscalationStore{db: s.db} }
func (s *Store) Messages() *MessageStore       { return &MessageStore{db: s.db} }
func (s *Store) Releases() *ReleaseStore       { return &ReleaseStore{db: s.db} }

// --- helpers ---

func notFound(entity, id string) error {
	return fmt.Errorf("%w: %s %s", fault.ErrNotFound, entity, id)
}

func mustJSON(v any) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}

func nowText() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func insertDoc(ctx context.Context, db *sql.DB, query string, id string, doc any) error {
	_, err := db.ExecContext(ctx, query, id, mustJSON(doc))
	return err
}

func findDoc[T any](ctx context.Context, db *sql.DB, query, entity, id string) (*T, error) {
	var raw []byte
	err := db.QueryRowContext(ctx, query, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(entity, id)
	}
	if err != nil {
		return nil, err
	}
	out := new(T)
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

func listDocs[T any](ctx context.Context, db *sql.DB, query string, args ...any) ([]*T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*T, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		v := new(T)
		if err := json.Unmarshal(raw, v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// execExpect runs an update that must touch exactly the row with the given
// id; zero rows means the document does not exist.
func execExpect(ctx context.Context, db *sql.DB, entity, id, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(entity, id)
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}
