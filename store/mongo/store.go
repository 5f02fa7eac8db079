// Package mongo provides an object store on MongoDB via Grove ORM.
//
// Commits run in a multi-document transaction, so the server must be a
// replica set or sharded cluster. Inputs are deleted by key and a zero
// delete count is a conflict. References are only checked to exist in the
// transaction snapshot: a commit that consumes a referenced object and
// lands first does not fail a commit that referenced it.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"
	_ "github.com/xraph/grove/drivers/mongodriver/mongomigrate" // registers the mongo migration executor
	"github.com/xraph/grove/migrate"

	"github.com/xraph/edition"
	"github.com/xraph/edition/object"
	editionstore "github.com/xraph/edition/store"
	"github.com/xraph/edition/types"
)

// compile-time interface check
var _ editionstore.Store = (*Store)(nil)

const labelTransient = "TransientTransactionError"

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// Open connects to uri and uses database name.
func Open(ctx context.Context, uri, name string) (*Store, error) {
	mdb := mongodriver.New()
	if err := mdb.Open(ctx, uri, mongodriver.WithDatabase(name)); err != nil {
		return nil, fmt.Errorf("edition/mongo: connect: %w", err)
	}
	db, err := grove.Open(mdb)
	if err != nil {
		_ = mdb.Close()
		return nil, fmt.Errorf("edition/mongo: connect: %w", err)
	}
	return New(db), nil
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Database returns the underlying mongo database.
func (s *Store) Database() *mongo.Database { return s.mdb.Database() }

// Migrate creates indexes for all edition collections using the grove
// orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.mdb)
	if err != nil {
		return fmt.Errorf("edition/mongo: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("edition/mongo: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close disconnects the client.
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

	gtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("edition/mongo: begin: %w", err)
	}
	tx, ok := gtx.Raw().(*mongodriver.MongoTx)
	if !ok {
		_ = gtx.Rollback()
		return "", fmt.Errorf("edition/mongo: unexpected transaction %T", gtx.Raw())
	}

	if err := apply(ctx, tx, ws, commit, now()); err != nil {
		_ = tx.Rollback()
		return "", submitError(err)
	}
	if err := tx.Commit(); err != nil {
		return "", submitError(err)
	}
	return commit, nil
}

func apply(ctx context.Context, tx *mongodriver.MongoTx, ws *object.WriteSet, commit object.CommitID, at time.Time) error {
	_, err := tx.NewInsert(&commitModel{
		ID:        string(commit),
		Inputs:    len(ws.Inputs),
		Outputs:   len(ws.Outputs),
		CreatedAt: at,
	}).Exec(ctx)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: commit %s already recorded", edition.ErrConflict, commit)
	}
	if err != nil {
		return err
	}

	for _, r := range ws.References {
		n, err := tx.NewFind((*objectModel)(nil)).
			Filter(bson.M{"_id": objectKey(r)}).
			Count(ctx)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: reference %s spent or unknown", edition.ErrConflict, r)
		}
	}

	for _, r := range ws.Inputs {
		res, err := tx.NewDelete((*objectModel)(nil)).
			Filter(bson.M{"_id": objectKey(r)}).
			Exec(ctx)
		if err != nil {
			return err
		}
		if res.DeletedCount() == 0 {
			return fmt.Errorf("%w: input %s spent or unknown", edition.ErrConflict, r)
		}
	}

	created := ws.Materialize(commit, at)
	if len(created) == 0 {
		return nil
	}
	models := make([]objectModel, 0, len(created))
	for _, o := range created {
		m, err := toObjectModel(o)
		if err != nil {
			return err
		}
		models = append(models, *m)
	}
	_, err = tx.NewInsert(&models).Exec(ctx)
	return err
}

func submitError(err error) error {
	if edition.IsConflict(err) {
		return err
	}
	if mongo.IsDuplicateKeyError(err) || hasLabel(err, labelTransient) {
		return fmt.Errorf("%w: %v", edition.ErrConflict, err)
	}
	return fmt.Errorf("edition/mongo: submit: %w", err)
}

// ==================== Queries ====================

func (s *Store) Get(ctx context.Context, ref object.Ref) (*object.Object, error) {
	var m objectModel
	err := s.mdb.NewFind(&m).Filter(bson.M{"_id": objectKey(ref)}).Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("%w: %s", edition.ErrObjectNotFound, ref)
		}
		return nil, fmt.Errorf("edition/mongo: get: %w", err)
	}
	return fromObjectModel(&m)
}

func (s *Store) QueryByCapability(ctx context.Context, unit types.Unit) ([]*object.Object, error) {
	return s.find(ctx, bson.M{"units": string(unit)})
}

func (s *Store) QueryByAddress(ctx context.Context, addr types.Address) ([]*object.Object, error) {
	return s.find(ctx, bson.M{"address": string(addr)})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]*object.Object, error) {
	var models []objectModel
	err := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "seq", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("edition/mongo: find: %w", err)
	}

	result := make([]*object.Object, 0, len(models))
	for i := range models {
		o, err := fromObjectModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	return result, nil
}

// ==================== Helpers ====================

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

func hasLabel(err error, label string) bool {
	var se mongo.ServerError
	if errors.As(err, &se) {
		return se.HasErrorLabel(label)
	}
	return false
}

// BSON dates carry millisecond precision.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
