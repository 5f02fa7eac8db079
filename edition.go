package edition

import (
	"context"
	crand "crypto/rand"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xraph/edition/instance"
	"github.com/xraph/edition/lane"
	"github.com/xraph/edition/object"
	"github.com/xraph/edition/plugin"
	"github.com/xraph/edition/store"
	"github.com/xraph/edition/types"
)

// DefaultReclaimBatchSize is the number of lanes one ReclaimLanes call
// consumes.
const DefaultReclaimBatchSize = 15

// Engine runs one edition instance on behalf of one actor.
//
// The engine keeps no mutable state across operations apart from the
// instance it is bound to. Every operation reads the objects it needs,
// builds one write set and submits it; concurrent engines, in this process
// or others, are serialized by the store's single-consumption rule.
type Engine struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger

	actor            types.Address
	laneCount        int
	reclaimBatchSize int
	seed             func() [32]byte
	now              func() time.Time

	attachIdentity string
	bindMu         sync.Mutex
	bound          atomic.Pointer[binding]
}

// binding is a resolved instance and the allocator sized for it.
type binding struct {
	inst  instance.Instance
	alloc *lane.Allocator
}

func (b *binding) identity() string { return b.inst.Identity.String() }

// New creates an engine over s. The engine is unbound until Deploy or
// Attach, or until Start when WithInstance was given.
func New(s store.Store, opts ...Option) (*Engine, error) {
	e := &Engine{
		store:            s,
		plugins:          plugin.NewRegistry(),
		logger:           slog.Default(),
		laneCount:        lane.DefaultCount,
		reclaimBatchSize: DefaultReclaimBatchSize,
		seed:             randomSeed,
		now:              time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	if s == nil {
		return nil, ValidationError{Field: "store", Message: "required"}
	}
	if e.laneCount < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLaneCount, e.laneCount)
	}
	if e.reclaimBatchSize < 1 {
		return nil, ValidationError{Field: "reclaim_batch_size", Message: "must be at least 1"}
	}
	if e.actor == "" {
		return nil, ErrInvalidActor
	}

	if e.attachIdentity != "" {
		if err := e.bind(e.attachIdentity); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.plugins.WithTimeout(d)
	}
}

// WithActor sets the address the engine spends from and delivers
// capability tokens to.
func WithActor(addr types.Address) Option {
	return func(e *Engine) {
		e.actor = addr
	}
}

// WithLaneCount sets the number of lanes. Every engine of one instance
// must use the same count.
func WithLaneCount(n int) Option {
	return func(e *Engine) {
		e.laneCount = n
	}
}

// WithReclaimBatchSize sets how many lanes one ReclaimLanes call consumes.
func WithReclaimBatchSize(n int) Option {
	return func(e *Engine) {
		e.reclaimBatchSize = n
	}
}

// WithInstance binds the engine to a running instance.
func WithInstance(identity string) Option {
	return func(e *Engine) {
		e.attachIdentity = identity
	}
}

// WithSeedSource sets the seed for the input sampler. Each operation draws
// one seed.
func WithSeedSource(seed func() [32]byte) Option {
	return func(e *Engine) {
		if seed != nil {
			e.seed = seed
		}
	}
}

// Start migrates the store and initializes plugins.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Migrate(ctx); err != nil {
		return err
	}

	e.plugins.EmitInit(ctx, e)

	attrs := []any{"actor", e.actor, "lanes", e.laneCount}
	if b := e.bound.Load(); b != nil {
		attrs = append(attrs, "instance", b.identity())
	}
	e.logger.Info("edition engine started", attrs...)

	return nil
}

// Stop shuts down plugins and closes the store.
func (e *Engine) Stop() error {
	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	e.logger.Info("edition engine stopped")
	return e.store.Close()
}

// Store returns the underlying store.
func (e *Engine) Store() store.Store { return e.store }

// Actor returns the engine's actor address.
func (e *Engine) Actor() types.Address { return e.actor }

// LaneCount returns the configured number of lanes.
func (e *Engine) LaneCount() int { return e.laneCount }

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Instance returns the bound instance.
func (e *Engine) Instance() (instance.Instance, bool) {
	b := e.bound.Load()
	if b == nil {
		return instance.Instance{}, false
	}
	return b.inst, true
}

// Identity returns the bound instance identity, or "".
func (e *Engine) Identity() string {
	b := e.bound.Load()
	if b == nil {
		return ""
	}
	return b.identity()
}

// Attach binds the engine to a running instance. Attaching twice to the
// same identity is a no-op.
func (e *Engine) Attach(ctx context.Context, identity string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.bind(identity); err != nil {
		return err
	}

	e.logger.Info("instance attached", "instance", identity)
	return nil
}

func (e *Engine) bind(identity string) error {
	id, err := instance.Parse(identity)
	if err != nil {
		return err
	}
	alloc, err := lane.NewAllocator(e.laneCount, id.PerLane)
	if err != nil {
		return err
	}
	b := &binding{inst: instance.Derive(id), alloc: alloc}

	e.bindMu.Lock()
	defer e.bindMu.Unlock()

	if cur := e.bound.Load(); cur != nil {
		if cur.identity() == b.identity() {
			return nil
		}
		return fmt.Errorf("%w: engine bound to %s", ErrAlreadyDeployed, cur.identity())
	}
	e.bound.Store(b)
	return nil
}

func (e *Engine) requireBinding() (*binding, error) {
	b := e.bound.Load()
	if b == nil {
		return nil, ErrInstanceNotBound
	}
	return b, nil
}

// submit commits ws and logs the outcome.
func (e *Engine) submit(ctx context.Context, action string, ws *object.WriteSet) (object.CommitID, error) {
	start := e.now()
	commit, err := e.store.Submit(ctx, ws)
	if err != nil {
		if IsConflict(err) {
			e.logger.Warn(action+" conflict",
				"inputs", len(ws.Inputs),
				"error", err,
			)
		}
		return "", fmt.Errorf("%s: %w", action, err)
	}

	e.logger.Debug("write set committed",
		"action", action,
		"commit", commit,
		"inputs", len(ws.Inputs),
		"outputs", len(ws.Outputs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return commit, nil
}

// sampler returns a ChaCha8 stream seeded from the seed source.
func (e *Engine) sampler() *rand.Rand {
	return rand.New(rand.NewChaCha8(e.seed()))
}

func randomSeed() [32]byte {
	var s [32]byte
	_, _ = crand.Read(s[:]) //nolint:errcheck // crypto/rand.Read never fails
	return s
}
