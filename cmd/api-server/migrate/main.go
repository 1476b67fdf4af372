package main

import (
	"flag"
	"log"

	"github.com/uptrace/bun/migrate"

	"github.com/goalstake/goalstake/pkg/config"
	"github.com/goalstake/goalstake/pkg/migrations/goaldb"
	"github.com/goalstake/goalstake/pkg/pgutil"
	mghelper "github.com/goalstake/goalstake/pkg/pgutil/migrations"
)

func main() {
	cfgPath := flag.String("config", "config.example.yaml", "Path to configuration file")
	flag.Usage = mghelper.Usage
	flag.Parse()

	cfg, err := config.LoadAPIServer(*cfgPath)
	if err != nil {
		log.Fatalf("error reading configuration file: %s", err.Error())
	}

	db, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		log.Fatalf("error connecting to database: %s", err.Error())
	}
	defer db.Close()

	log.Printf("Running migrations for goal database (%s)...\n", cfg.Database.Database)

	migrator := migrate.NewMigrator(db, goaldb.Migrations)

	err = mghelper.RunMigrations(migrator, flag.Args()...)
	if err != nil {
		mghelper.Exitf(err.Error())
	}
}
