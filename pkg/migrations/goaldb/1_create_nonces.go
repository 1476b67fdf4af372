package goaldb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	"github.com/goalstake/goalstake/pkg/noncestore"
	mghelper "github.com/goalstake/goalstake/pkg/pgutil/migrations"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating nonces table...")
		if err := mghelper.CreateSchema(ctx, db, &noncestore.NonceDao{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &noncestore.NonceDao{}, "address", "expires_at")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping nonces table...")
		return mghelper.DropTables(ctx, db, &noncestore.NonceDao{})
	})
}
