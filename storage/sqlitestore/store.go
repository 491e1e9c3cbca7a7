// Package sqlitestore keeps the session record in a SQLite key/value table
// through Bun.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// SessionEntryModel is the Bun model for one session key.
type SessionEntryModel struct {
	bun.BaseModel `bun:"table:session_entries"`

	Key       string    `bun:"name,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// Storage implements authclient.Storage on a Bun database
type Storage struct {
	db  *bun.DB
	now func() time.Time
}

// New wraps an open Bun database. Call Migrate before first use.
func New(db *bun.DB) *Storage {
	return &Storage{db: db, now: time.Now}
}

// Open opens dsn with the sqlite shim driver and creates the table
func Open(ctx context.Context, dsn string) (*Storage, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", dsn, err)
	}
	sqldb.SetMaxOpenConns(1)

	s := New(bun.NewDB(sqldb, sqlitedialect.New()))
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the session table if missing
func (s *Storage) Migrate(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*SessionEntryModel)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create session table: %w", err)
	}
	return nil
}

// DB exposes the underlying database
func (s *Storage) DB() *bun.DB {
	return s.db
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) Get(ctx context.Context, key string) (string, bool, error) {
	var model SessionEntryModel
	err := s.db.NewSelect().
		Model(&model).
		Where("name = ?", key).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("select session entry: %w", err)
	}
	return model.Value, true, nil
}

func (s *Storage) Set(ctx context.Context, key, value string) error {
	model := &SessionEntryModel{
		Key:       key,
		Value:     value,
		UpdatedAt: s.now(),
	}

	_, err := s.db.NewInsert().
		Model(model).
		On("CONFLICT (name) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert session entry: %w", err)
	}
	return nil
}

func (s *Storage) Remove(ctx context.Context, key string) error {
	_, err := s.db.NewDelete().
		Model((*SessionEntryModel)(nil)).
		Where("name = ?", key).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete session entry: %w", err)
	}
	return nil
}
