package autorag

import (
	"context"
	"io/fs"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// RunMigrations applies the embedded SQL migrations. Safe to run at every
// startup, already applied migrations are skipped.
func RunMigrations(ctx context.Context, db *bun.DB, logger Logger) error {
	if logger == nil {
		logger = defLogger{}
	}

	sub, err := fs.Sub(migrationsFS, "data/sql/migrations")
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to open embedded migrations")
	}

	migrations := migrate.NewMigrations()
	if err := migrations.Discover(sub); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to discover migrations")
	}

	migrator := migrate.NewMigrator(db, migrations)

	if err := migrator.Init(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to initialize migration tables")
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to apply migrations")
	}

	if group.IsZero() {
		logger.Debug("migrations: nothing to run")
		return nil
	}

	logger.Info("migrations applied", "group", group.String())

	return nil
}
