// Package postgres provides an object store on PostgreSQL via Grove ORM.
//
// Inputs are deleted and references locked FOR SHARE inside one
// transaction, so two commits racing for the same object cannot both
// succeed. Serialization and deadlock failures surface as conflicts.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	_ "github.com/xraph/grove/drivers/pgdriver/pgmigrate" // registers the pg migration executor
	"github.com/xraph/grove/migrate"

	"github.com/xraph/edition"
	"github.com/xraph/edition/object"
	editionstore "github.com/xraph/edition/store"
	"github.com/xraph/edition/types"
)

// compile-time interface check
var _ editionstore.Store = (*Store)(nil)

// Postgres error codes treated as lost races.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeUniqueViolation      = "23505"
)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// Open connects a pool to dsn.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pg := pgdriver.New()
	if err := pg.Open(ctx, dsn); err != nil {
		return nil, fmt.Errorf("edition/postgres: connect: %w", err)
	}
	db, err := grove.Open(pg)
	if err != nil {
		_ = pg.Close()
		return nil, fmt.Errorf("edition/postgres: connect: %w", err)
	}
	return New(db), nil
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("edition/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("edition/postgres: migration failed: %w", err)
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

	tx, err := s.pg.BeginTxQuery(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("edition/postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := apply(ctx, tx, ws, commit, now()); err != nil {
		return "", submitError(err)
	}
	if err := tx.Commit(); err != nil {
		return "", submitError(err)
	}
	return commit, nil
}

func apply(ctx context.Context, tx *pgdriver.PgTx, ws *object.WriteSet, commit object.CommitID, at time.Time) error {
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
			Where("commit_id = $1 AND idx = $2", string(r.Commit), int64(r.Index)).
			ForShare().
			Scan(ctx)
		if isNoRows(err) {
			return fmt.Errorf("%w: reference %s spent or unknown", edition.ErrConflict, r)
		}
		if err != nil {
			return err
		}
	}

	for _, r := range ws.Inputs {
		res, err := tx.NewDelete((*objectModel)(nil)).
			Where("commit_id = $1 AND idx = $2", string(r.Commit), int64(r.Index)).
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

func submitError(err error) error {
	if edition.IsConflict(err) {
		return err
	}
	if isLostRace(err) {
		return fmt.Errorf("%w: %v", edition.ErrConflict, err)
	}
	return fmt.Errorf("edition/postgres: submit: %w", err)
}

// ==================== Queries ====================

func (s *Store) Get(ctx context.Context, ref object.Ref) (*object.Object, error) {
	var m objectModel
	err := s.pg.NewSelect(&m).
		Where("commit_id = $1 AND idx = $2", string(ref.Commit), int64(ref.Index)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%w: %s", edition.ErrObjectNotFound, ref)
		}
		return nil, fmt.Errorf("edition/postgres: get: %w", err)
	}
	return fromObjectModel(&m)
}

func (s *Store) QueryByCapability(ctx context.Context, unit types.Unit) ([]*object.Object, error) {
	var models []objectModel
	err := s.pg.NewRaw(`
		SELECT o.seq, o.commit_id, o.idx, o.address, o.assets, o.datum, o.created_at
		FROM edition_objects o
		JOIN edition_object_units u ON u.commit_id = o.commit_id AND u.idx = o.idx
		WHERE u.unit = $1 AND u.quantity > 0
		ORDER BY o.seq ASC`, string(unit)).Scan(ctx, &models)
	if err != nil {
		return nil, fmt.Errorf("edition/postgres: query by capability: %w", err)
	}
	return fromObjectModels(models)
}

func (s *Store) QueryByAddress(ctx context.Context, addr types.Address) ([]*object.Object, error) {
	var models []objectModel
	err := s.pg.NewSelect(&models).
		Where("address = $1", string(addr)).
		OrderExpr("seq ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("edition/postgres: query by address: %w", err)
	}
	return fromObjectModels(models)
}

// ==================== Helpers ====================

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func isLostRace(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case codeSerializationFailure, codeDeadlockDetected, codeUniqueViolation:
		return true
	}
	return false
}

func now() time.Time {
	return time.Now().UTC()
}
