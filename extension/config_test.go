package extension_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xraph/edition"
	"github.com/xraph/edition/extension"
	"github.com/xraph/edition/store/memory"
	"github.com/xraph/edition/store/sqlite"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "edition.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadConfigFileDefaults(t *testing.T) {
	path := writeFile(t, "actor: addr_artist\n")

	cfg, err := extension.LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg.Actor != "addr_artist" {
		t.Errorf("actor = %q", cfg.Actor)
	}
	if cfg.LaneCount != 100 {
		t.Errorf("lane count = %d, want 100", cfg.LaneCount)
	}
	if cfg.ReclaimBatchSize != edition.DefaultReclaimBatchSize {
		t.Errorf("reclaim batch = %d", cfg.ReclaimBatchSize)
	}
	if cfg.Store.Driver != extension.DriverMemory {
		t.Errorf("driver = %q", cfg.Store.Driver)
	}
	if cfg.Retry.MaxAttempts == 0 {
		t.Error("retry policy not defaulted")
	}
}

func TestLoadConfigFileNested(t *testing.T) {
	path := writeFile(t, `
edition:
  actor: addr_ops
  instance: abc-0-6e616d65-10
  lane_count: 8
  plugin_timeout: 250ms
  store:
    driver: sqlite
    dsn: file:edition.db
  retry:
    max_attempts: 3
    initial_interval: 5ms
`)

	cfg, err := extension.LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg.Actor != "addr_ops" || cfg.Instance != "abc-0-6e616d65-10" {
		t.Errorf("unexpected identity fields: %+v", cfg)
	}
	if cfg.LaneCount != 8 {
		t.Errorf("lane count = %d", cfg.LaneCount)
	}
	if cfg.PluginTimeout != 250*time.Millisecond {
		t.Errorf("plugin timeout = %v", cfg.PluginTimeout)
	}
	if cfg.Store.Driver != extension.DriverSQLite || cfg.Store.DSN != "file:edition.db" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Retry.MaxAttempts != 3 || cfg.Retry.InitialInterval != 5*time.Millisecond {
		t.Errorf("retry = %+v", cfg.Retry)
	}
	if cfg.Retry.MaxInterval != time.Second {
		t.Errorf("max interval not defaulted: %v", cfg.Retry.MaxInterval)
	}
}

func TestLoadConfigFileInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing actor", "lane_count: 4\n"},
		{"negative lanes", "actor: a\nlane_count: -1\n"},
		{"unknown driver", "actor: a\nstore:\n  driver: redis\n"},
		{"sqlite without dsn", "actor: a\nstore:\n  driver: sqlite\n"},
		{"mongo without database", "actor: a\nstore:\n  driver: mongo\n  dsn: mongodb://localhost\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extension.LoadConfigFile(writeFile(t, tt.body))
			if !errors.Is(err, edition.ErrInvalidConfiguration) {
				t.Fatalf("expected invalid configuration, got %v", err)
			}
		})
	}
}

func TestLoadConfigFileMissing(t *testing.T) {
	if _, err := extension.LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	s, err := extension.OpenStore(ctx, extension.StoreConfig{Driver: extension.DriverMemory})
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := s.(*memory.Store); !ok {
		t.Errorf("memory driver built %T", s)
	}

	dsn := "file:" + filepath.Join(t.TempDir(), "edition.db")
	s, err = extension.OpenStore(ctx, extension.StoreConfig{Driver: extension.DriverSQLite, DSN: dsn})
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*sqlite.Store); !ok {
		t.Errorf("sqlite driver built %T", s)
	}
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if _, err := extension.OpenStore(ctx, extension.StoreConfig{Driver: "redis"}); !errors.Is(err, edition.ErrInvalidConfiguration) {
		t.Errorf("unknown driver: %v", err)
	}
}
