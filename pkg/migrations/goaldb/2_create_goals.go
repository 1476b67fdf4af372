package goaldb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	"github.com/goalstake/goalstake/pkg/goalstore"
	mghelper "github.com/goalstake/goalstake/pkg/pgutil/migrations"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating goals table...")
		// gen_random_uuid() for the primary key
		if _, err := db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS pgcrypto`); err != nil {
			return err
		}
		if err := mghelper.CreateSchema(ctx, db, &goalstore.GoalDao{}); err != nil {
			return err
		}
		if err := mghelper.CreateModelUniqueIndexes(ctx, db, &goalstore.GoalDao{}, "contract_goal_id"); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &goalstore.GoalDao{},
			"creator_address", "referee_address", "failure_recipient_address")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping goals table...")
		return mghelper.DropTables(ctx, db, &goalstore.GoalDao{})
	})
}
