package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the edition store (SQLite).
var Migrations = migrate.NewGroup("edition")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_edition_commits",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS edition_commits (
    commit_id  TEXT PRIMARY KEY,
    inputs     INTEGER NOT NULL DEFAULT 0,
    outputs    INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS edition_commits`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_edition_objects",
			Version: "20250101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS edition_objects (
    seq        INTEGER PRIMARY KEY AUTOINCREMENT,
    commit_id  TEXT NOT NULL,
    idx        INTEGER NOT NULL,
    address    TEXT NOT NULL,
    assets     BLOB NOT NULL,
    datum      BLOB,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (commit_id, idx)
);

CREATE INDEX IF NOT EXISTS idx_edition_objects_address ON edition_objects (address, seq);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS edition_objects`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_edition_object_units",
			Version: "20250101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS edition_object_units (
    commit_id TEXT NOT NULL,
    idx       INTEGER NOT NULL,
    unit      TEXT NOT NULL,
    quantity  INTEGER NOT NULL,
    PRIMARY KEY (commit_id, idx, unit),
    FOREIGN KEY (commit_id, idx) REFERENCES edition_objects (commit_id, idx) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_edition_object_units_unit ON edition_object_units (unit);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS edition_object_units`)
				return err
			},
		},
	)
}
