package goaldb

import (
	"context"
	"testing"

	"github.com/uptrace/bun/migrate"

	"github.com/goalstake/goalstake/pkg/pgutil"
)

func TestMigrations_UpCreatesTables(t *testing.T) {
	ctx := context.Background()
	db, cleanup := pgutil.SetupTestDB(t)
	t.Cleanup(cleanup)

	migrator := migrate.NewMigrator(db, Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("failed to init migrator: %v", err)
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		t.Fatalf("failed to migrate up: %v", err)
	}
	if group.IsZero() {
		t.Fatal("expected migrations to run on a fresh database")
	}

	pgutil.AssertTableExists(t, db, "nonces")
	pgutil.AssertTableExists(t, db, "goals")
	pgutil.AssertRowCount(t, db, "nonces", 0)
	pgutil.AssertRowCount(t, db, "goals", 0)
}

func TestMigrations_RollbackDropsLastGroup(t *testing.T) {
	ctx := context.Background()
	db, cleanup := pgutil.SetupTestDB(t)
	t.Cleanup(cleanup)

	migrator := migrate.NewMigrator(db, Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("failed to init migrator: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate up: %v", err)
	}

	group, err := migrator.Rollback(ctx)
	if err != nil {
		t.Fatalf("failed to roll back: %v", err)
	}
	if group.IsZero() {
		t.Fatal("expected a migration group to roll back")
	}

	// Rerunning brings the schema back.
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("failed to re-migrate after rollback: %v", err)
	}
	pgutil.AssertTableExists(t, db, "nonces")
	pgutil.AssertTableExists(t, db, "goals")
}
