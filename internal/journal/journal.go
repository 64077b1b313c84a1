// Package journal provides a durable, append-only log of dispatched
// actions, and replay of that log into a fresh store.
//
// The journal attaches to a store as an action tap: every dispatched
// action is serialized (kind + JSON payload) and appended in dispatch
// order. Replay folds the log back through Dispatch in seq order; since
// reducers are pure and ordering is the logical seq, replay
// reconstructs the identical final state.
//
// The journal is supporting infrastructure, not part of core
// correctness: a store without a journal behaves identically.
package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tomhutton/strata/internal/codec"
	"github.com/tomhutton/strata/internal/state"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added kind index
const currentSchemaVersion = 1

// Journal is a SQLite-backed action log.
// Uses WAL mode for concurrent read access during writes.
type Journal struct {
	db    *sql.DB
	codec *codec.Codec
	log   *slog.Logger
}

// Option configures a Journal at open time.
type Option func(*Journal)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(j *Journal) {
		j.log = log
	}
}

// Open creates or opens a journal database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - A single connection (one writer avoids SQLITE_BUSY errors)
//
// This function is idempotent - safe to call multiple times.
func Open(path string, c *codec.Codec, opts ...Option) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect journal: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	j := &Journal{db: db, codec: c, log: slog.Default()}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Append writes one action to the log. Appends are ordered by the
// journal's own seq column, which mirrors dispatch order because the
// tap runs inside the serialized dispatch.
func (j *Journal) Append(ctx context.Context, act state.Action) error {
	payload, err := j.codec.Encode(act)
	if err != nil {
		return fmt.Errorf("append action: %w", err)
	}
	_, err = j.db.ExecContext(ctx,
		`INSERT INTO actions (kind, payload) VALUES (?, ?)`,
		string(act.Kind()), string(payload),
	)
	if err != nil {
		return fmt.Errorf("append action %q: %w", act.Kind(), err)
	}
	return nil
}

// Attach registers the journal as an action tap on the store.
//
// Tap failures are logged and skipped, never surfaced into Dispatch:
// a journaling hiccup must not turn a valid transition into a fault.
// Actions whose kind is not registered on the codec are skipped too -
// they could not be replayed, so recording them would be misleading.
func (j *Journal) Attach(s *state.Store) {
	s.Tap(func(act state.Action) {
		if !j.codec.Knows(act.Kind()) {
			j.log.Warn("journal skipping unregistered action kind", "kind", act.Kind())
			return
		}
		if err := j.Append(context.Background(), act); err != nil {
			j.log.Error("journal append failed", "kind", act.Kind(), "error", err)
		}
	})
}

// Len returns the number of journaled actions.
func (j *Journal) Len(ctx context.Context) (int64, error) {
	var n int64
	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM actions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("journal length: %w", err)
	}
	return n, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// Idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return runMigrations(db)
}

// runMigrations applies incremental schema migrations based on
// user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		// v1 adds the kind index; CREATE INDEX IF NOT EXISTS makes this
		// a no-op for databases created from the current schema.sql.
		if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_actions_kind ON actions(kind)`); err != nil {
			return fmt.Errorf("migrate to v1: %w", err)
		}
		version = 1
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}
