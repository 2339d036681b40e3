package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"library-backend/internal/logger"

	"github.com/jmoiron/sqlx"
)

//go:embed schema.sql
var schema string

// Migrate applies the schema. Every statement is idempotent, so it is safe
// to run on each deploy.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	logger.DatabaseCall(ctx, "migrate", "schema.sql")
	_, err := db.ExecContext(ctx, schema)
	logger.DatabaseResult(ctx, "migrate", 0, err)
	if err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
