// Package extension provides the Forge extension adapter for Edition.
//
// It implements the forge.Extension interface to integrate the edition
// engine into a Forge application with DI registration and lifecycle
// management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.edition" or "edition" keys.
package extension

import (
	"context"
	"errors"
	"time"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/edition"
	"github.com/xraph/edition/retry"
	"github.com/xraph/edition/store"
	"github.com/xraph/edition/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "edition"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Lane-sharded limited-edition minting engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the edition engine as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *edition.Engine
	store      store.Store
	engineOpts []edition.Option
}

// New creates a new Edition Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying engine.
// This is nil until Register is called.
func (e *Extension) Engine() *edition.Engine { return e.engine }

// Config returns the resolved configuration.
func (e *Extension) Config() Config { return e.config }

// Register implements [forge.Extension]. It loads configuration,
// opens the store, builds the engine and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if e.store == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s, err := OpenStore(ctx, e.config.Store)
		if err != nil {
			return err
		}
		e.store = s
	}

	eng, err := edition.New(e.store, e.buildEngineOpts()...)
	if err != nil {
		return err
	}
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*edition.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("edition: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("edition: store not initialized")
	}
	return e.store.Ping(ctx)
}

// Mint mints under the configured retry policy. Each retry is logged.
func (e *Extension) Mint(ctx context.Context, unit edition.Unit, payloads ...edition.Payload) (*edition.Minted, error) {
	if e.engine == nil {
		return nil, errors.New("edition: extension not initialized")
	}
	return retry.Do(ctx, e.config.Retry, func(ctx context.Context, _ int) (*edition.Minted, error) {
		return e.engine.Mint(ctx, unit, payloads...)
	}, func(attempt int, err error, wait time.Duration) {
		e.Logger().Debug("edition: mint retry",
			forge.F("attempt", attempt),
			forge.F("error", err.Error()),
			forge.F("wait", wait),
		)
	})
}

// buildEngineOpts constructs edition.Option values from the resolved config.
func (e *Extension) buildEngineOpts() []edition.Option {
	opts := make([]edition.Option, 0, len(e.engineOpts)+5)

	opts = append(opts,
		edition.WithActor(types.Address(e.config.Actor)),
		edition.WithLaneCount(e.config.LaneCount),
		edition.WithReclaimBatchSize(e.config.ReclaimBatchSize),
		edition.WithPluginTimeout(e.config.PluginTimeout),
	)
	if e.config.Instance != "" {
		opts = append(opts, edition.WithInstance(e.config.Instance))
	}

	// Pass-through options apply last and win.
	opts = append(opts, e.engineOpts...)

	return opts
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("edition: configuration is required but not found in config files; " +
				"ensure 'extensions.edition' or 'edition' key exists in your config")
		}
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	if err := e.config.Validate(); err != nil {
		return err
	}

	e.Logger().Debug("edition: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("actor", e.config.Actor),
		forge.F("instance", e.config.Instance),
		forge.F("lane_count", e.config.LaneCount),
		forge.F("reclaim_batch_size", e.config.ReclaimBatchSize),
		forge.F("store_driver", e.config.Store.Driver),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()

	for _, key := range []string{"extensions.edition", "edition"} {
		if !cm.IsSet(key) {
			continue
		}
		var cfg Config
		if err := cm.Bind(key, &cfg); err == nil {
			e.Logger().Debug("edition: loaded config from file",
				forge.F("key", key),
			)
			return cfg, true
		}
		e.Logger().Warn("edition: failed to bind config",
			forge.F("key", key),
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	if yamlConfig.Actor == "" {
		yamlConfig.Actor = programmaticConfig.Actor
	}
	if yamlConfig.Instance == "" {
		yamlConfig.Instance = programmaticConfig.Instance
	}
	if yamlConfig.Store.Driver == "" {
		yamlConfig.Store = programmaticConfig.Store
	}

	if yamlConfig.LaneCount == 0 {
		yamlConfig.LaneCount = programmaticConfig.LaneCount
	}
	if yamlConfig.ReclaimBatchSize == 0 {
		yamlConfig.ReclaimBatchSize = programmaticConfig.ReclaimBatchSize
	}
	if yamlConfig.PluginTimeout == 0 {
		yamlConfig.PluginTimeout = programmaticConfig.PluginTimeout
	}
	if yamlConfig.Retry == (retry.Policy{}) {
		yamlConfig.Retry = programmaticConfig.Retry
	}

	return mergeWithDefaults(yamlConfig)
}
