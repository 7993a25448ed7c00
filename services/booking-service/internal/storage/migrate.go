package storage

import (
	"context"
	_ "embed"

	"github.com/md-rashed-zaman/carefinder/libs/db"
)

//go:embed schema.sql
var schema string

// Migrate applies the schema. Every statement is idempotent.
func Migrate(ctx context.Context, pool *db.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
