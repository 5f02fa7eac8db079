package extension

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/xraph/edition"
	"github.com/xraph/edition/lane"
	"github.com/xraph/edition/retry"
	"github.com/xraph/edition/store"
	"github.com/xraph/edition/store/memory"
	"github.com/xraph/edition/store/mongo"
	"github.com/xraph/edition/store/postgres"
	"github.com/xraph/edition/store/sqlite"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Config holds the Edition extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.edition" or "edition" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Actor is the address the engine spends from and receives
	// capabilities at.
	Actor string `json:"actor" mapstructure:"actor" yaml:"actor" validate:"required"`

	// Instance is the identity of a deployed instance to attach to. Leave
	// empty when the engine will deploy.
	Instance string `json:"instance" mapstructure:"instance" yaml:"instance"`

	// LaneCount is the number of lanes per instance (default: 100).
	LaneCount int `json:"lane_count" mapstructure:"lane_count" yaml:"lane_count" validate:"gte=1"`

	// ReclaimBatchSize caps the lanes one ReclaimLanes call consumes
	// (default: 15).
	ReclaimBatchSize int `json:"reclaim_batch_size" mapstructure:"reclaim_batch_size" yaml:"reclaim_batch_size" validate:"gte=1"`

	// PluginTimeout bounds each plugin hook call (default: 5s).
	PluginTimeout time.Duration `json:"plugin_timeout" mapstructure:"plugin_timeout" yaml:"plugin_timeout" validate:"gte=0"`

	// Store selects and configures the backend.
	Store StoreConfig `json:"store" mapstructure:"store" yaml:"store"`

	// Retry bounds the mint retry loop run by Extension.Mint.
	Retry retry.Policy `json:"retry" mapstructure:"retry" yaml:"retry"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// StoreConfig selects a store backend.
type StoreConfig struct {
	Driver   string `json:"driver" mapstructure:"driver" yaml:"driver" validate:"oneof=memory sqlite postgres mongo"`
	DSN      string `json:"dsn" mapstructure:"dsn" yaml:"dsn" validate:"required_unless=Driver memory"`
	Database string `json:"database" mapstructure:"database" yaml:"database" validate:"required_if=Driver mongo"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LaneCount:        lane.DefaultCount,
		ReclaimBatchSize: edition.DefaultReclaimBatchSize,
		PluginTimeout:    5 * time.Second,
		Store:            StoreConfig{Driver: DriverMemory},
		Retry:            retry.DefaultPolicy(),
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration and reports every failing field.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	var merr edition.MultiError
	for _, fe := range verrs {
		merr.Add(edition.ValidationError{
			Field:   fe.Namespace(),
			Message: fmt.Sprintf("failed %q constraint", fe.Tag()),
		})
	}
	return merr
}

// LoadConfigFile reads a YAML file, fills unset fields with defaults and
// validates the result. The document may hold the fields at the top level
// or under an "edition" key.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("edition: read config: %w", err)
	}

	var doc struct {
		Edition *Config `yaml:"edition"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Config{}, fmt.Errorf("edition: parse config: %w", err)
	}

	var cfg Config
	if doc.Edition != nil {
		cfg = *doc.Edition
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("edition: parse config: %w", err)
	}

	cfg = mergeWithDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.LaneCount == 0 {
		cfg.LaneCount = defaults.LaneCount
	}
	if cfg.ReclaimBatchSize == 0 {
		cfg.ReclaimBatchSize = defaults.ReclaimBatchSize
	}
	if cfg.PluginTimeout == 0 {
		cfg.PluginTimeout = defaults.PluginTimeout
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = defaults.Store.Driver
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = defaults.Retry.MaxAttempts
	}
	if cfg.Retry.InitialInterval == 0 {
		cfg.Retry.InitialInterval = defaults.Retry.InitialInterval
	}
	if cfg.Retry.MaxInterval == 0 {
		cfg.Retry.MaxInterval = defaults.Retry.MaxInterval
	}
	return cfg
}

// OpenStore builds the backend named by the config. The store is not
// migrated.
func OpenStore(ctx context.Context, sc StoreConfig) (store.Store, error) {
	switch sc.Driver {
	case "", DriverMemory:
		return memory.New(), nil
	case DriverSQLite:
		return sqlite.Open(ctx, sc.DSN)
	case DriverPostgres:
		return postgres.Open(ctx, sc.DSN)
	case DriverMongo:
		return mongo.Open(ctx, sc.DSN, sc.Database)
	default:
		return nil, edition.ValidationError{Field: "store.driver", Message: fmt.Sprintf("unknown driver %q", sc.Driver)}
	}
}
