package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
)

//go:embed 0003_create_procedures.sql
var createProceduresSQL string

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, createProceduresSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `
				DROP FUNCTION IF EXISTS update_user_ranks();
				DROP FUNCTION IF EXISTS search_forum_posts(TEXT);`)
			return err
		},
	)
}
