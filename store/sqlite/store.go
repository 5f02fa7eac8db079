// Package sqlite provides an object store on SQLite via Grove ORM
// (modernc.org/sqlite, no cgo). The pool is held to one connection, so
// commits are serialized by the database handle.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/driver"
	"github.com/xraph/grove/drivers/sqlitedriver"
	_ "github.com/xraph/grove/drivers/sqlitedriver/sqlitemigrate" // registers the sqlite migration executor
	"github.com/xraph/grove/migrate"

	"github.com/xraph/edition"
	"github.com/xraph/edition/object"
	editionstore "github.com/xraph/edition/store"
	"github.com/xraph/edition/types"
)

// compile-time interface check
var _ editionstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// Open opens the database at dsn, for example "file:edition.db". A busy
// timeout is added when dsn sets no pragma.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if !strings.Contains(dsn, "_pragma=") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=busy_timeout(5000)"
	}

	sdb := sqlitedriver.New()
	if err := sdb.Open(ctx, dsn, driver.WithPoolSize(1)); err != nil {
		return nil, fmt.Errorf("edition/sqlite: open: %w", err)
	}
	db, err := grove.Open(sdb)
	if err != nil {
		_ = sdb.Close()
		return nil, fmt.Errorf("edition/sqlite: open: %w", err)
	}
	return New(db), nil
}

// New creates a new SQLite store backed by Grove ORM. The driver should
// be opened with a pool size of one.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("edition/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("edition/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Commit ====================

func (s *Store) Submit(ctx context.Context, ws *object.WriteSet) (object.CommitID, error) {
	if err := ws.Validate(); err != nil {
		return "", err
	}
	commit, err := ws.ID()
	if err != nil {
		return "", err
	}

	tx, err := s.sdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("edition/sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := apply(ctx, tx, ws, commit, now()); err != nil {
		if edition.IsConflict(err) {
			return "", err
		}
		return "", fmt.Errorf("edition/sqlite: submit: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("edition/sqlite: commit: %w", err)
	}
	return commit, nil
}

func apply(ctx context.Context, tx *sqlitedriver.SqliteTx, ws *object.WriteSet, commit object.CommitID, at time.Time) error {
	res, err := tx.NewInsert(&commitModel{
		CommitID:  string(commit),
		Inputs:    len(ws.Inputs),
		Outputs:   len(ws.Outputs),
		CreatedAt: at,
	}).OnConflict("(commit_id) DO NOTHING").Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("%w: commit %s already recorded", edition.ErrConflict, commit)
	}

	for _, r := range ws.References {
		var m objectModel
		err := tx.NewSelect(&m).
			Where("commit_id = ? AND idx = ?", string(r.Commit), int64(r.Index)).
			Scan(ctx)
		if isNoRows(err) {
			return fmt.Errorf("%w: reference %s spent or unknown", edition.ErrConflict, r)
		}
		if err != nil {
			return err
		}
	}

	// Unit rows go with their object through ON DELETE CASCADE.
	for _, r := range ws.Inputs {
		res, err := tx.NewDelete((*objectModel)(nil)).
			Where("commit_id = ? AND idx = ?", string(r.Commit), int64(r.Index)).
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return fmt.Errorf("%w: input %s spent or unknown", edition.ErrConflict, r)
		}
	}

	var units []objectUnitModel
	for _, o := range ws.Materialize(commit, at) {
		m, u, err := toObjectModel(o)
		if err != nil {
			return err
		}
		if _, err := tx.NewInsert(m).Exec(ctx); err != nil {
			return err
		}
		units = append(units, u...)
	}
	if len(units) > 0 {
		if _, err := tx.NewInsert(&units).Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// ==================== Queries ====================

func (s *Store) Get(ctx context.Context, ref object.Ref) (*object.Object, error) {
	var m objectModel
	err := s.sdb.NewSelect(&m).
		Where("commit_id = ? AND idx = ?", string(ref.Commit), int64(ref.Index)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%w: %s", edition.ErrObjectNotFound, ref)
		}
		return nil, fmt.Errorf("edition/sqlite: get: %w", err)
	}
	return fromObjectModel(&m)
}

func (s *Store) QueryByCapability(ctx context.Context, unit types.Unit) ([]*object.Object, error) {
	var models []objectModel
	err := s.sdb.NewRaw(`
		SELECT o.seq, o.commit_id, o.idx, o.address, o.assets, o.datum, o.created_at
		FROM edition_objects o
		JOIN edition_object_units u ON u.commit_id = o.commit_id AND u.idx = o.idx
		WHERE u.unit = ? AND u.quantity > 0
		ORDER BY o.seq ASC`, string(unit)).Scan(ctx, &models)
	if err != nil {
		return nil, fmt.Errorf("edition/sqlite: query by capability: %w", err)
	}
	return fromObjectModels(models)
}

func (s *Store) QueryByAddress(ctx context.Context, addr types.Address) ([]*object.Object, error) {
	var models []objectModel
	err := s.sdb.NewSelect(&models).
		Where("address = ?", string(addr)).
		OrderExpr("seq ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("edition/sqlite: query by address: %w", err)
	}
	return fromObjectModels(models)
}

// ==================== Helpers ====================

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func now() time.Time {
	return time.Now().UTC()
}
