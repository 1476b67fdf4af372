// Package goaldb holds all the migrations for the goalstake database
package goaldb

import (
	"github.com/uptrace/bun/migrate"
)

// Migrations is the collection all numbered migration files register into.
var Migrations = migrate.NewMigrations()
