package mongo

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/xraph/grove/drivers/mongodriver/mongomigrate"
	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the edition store (MongoDB).
var Migrations = migrate.NewGroup("edition")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_edition_indexes",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				mexec, ok := exec.(*mongomigrate.Executor)
				if !ok {
					return fmt.Errorf("edition/mongo: unexpected migration executor %T", exec)
				}
				g, gctx := errgroup.WithContext(ctx)
				for col, models := range migrationIndexes() {
					g.Go(func() error {
						if _, err := mexec.DB().Collection(col).Indexes().CreateMany(gctx, models); err != nil {
							return fmt.Errorf("edition/mongo: migrate %s indexes: %w", col, err)
						}
						return nil
					})
				}
				return g.Wait()
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				mexec, ok := exec.(*mongomigrate.Executor)
				if !ok {
					return fmt.Errorf("edition/mongo: unexpected migration executor %T", exec)
				}
				for col := range migrationIndexes() {
					if err := mexec.DB().Collection(col).Indexes().DropAll(ctx); err != nil {
						return fmt.Errorf("edition/mongo: drop %s indexes: %w", col, err)
					}
				}
				return nil
			},
		},
	)
}
