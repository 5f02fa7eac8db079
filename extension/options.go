package extension

import (
	"time"

	"github.com/xraph/edition"
	"github.com/xraph/edition/plugin"
	"github.com/xraph/edition/retry"
	"github.com/xraph/edition/store"
)

// Option configures the Edition Forge extension.
type Option func(*Extension)

// WithStore sets the store for the engine. It takes precedence over the
// configured driver.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithEngineOption passes an edition.Option through to the underlying engine.
func WithEngineOption(opt edition.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers an edition plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, edition.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithActor sets the engine's actor address.
func WithActor(addr string) Option {
	return func(e *Extension) { e.config.Actor = addr }
}

// WithInstance attaches the engine to a deployed instance.
func WithInstance(identity string) Option {
	return func(e *Extension) { e.config.Instance = identity }
}

// WithLaneCount sets the number of lanes per instance.
func WithLaneCount(n int) Option {
	return func(e *Extension) { e.config.LaneCount = n }
}

// WithReclaimBatchSize caps the lanes consumed per ReclaimLanes call.
func WithReclaimBatchSize(n int) Option {
	return func(e *Extension) { e.config.ReclaimBatchSize = n }
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.PluginTimeout = d }
}

// WithStoreDriver selects the store backend built on Register.
func WithStoreDriver(driver, dsn, database string) Option {
	return func(e *Extension) {
		e.config.Store = StoreConfig{Driver: driver, DSN: dsn, Database: database}
	}
}

// WithRetryPolicy sets the policy used by Extension.Mint.
func WithRetryPolicy(p retry.Policy) Option {
	return func(e *Extension) { e.config.Retry = p }
}
