package database

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

//go:embed schema_postgres.sql
var postgresSchema string

func Migrate(ctx context.Context, db *DB) error {
	schema := sqliteSchema
	if db.Dialect == Postgres {
		schema = postgresSchema
	}
	// multi-statement exec goes straight to the driver, no rebinding
	if _, err := db.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply %s schema: %w", db.Dialect, err)
	}
	return nil
}
