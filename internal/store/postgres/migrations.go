package postgres

import (
	"context"
	"embed"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/stripesync/pkg/pg"
)

//go:embed migrations/*.sql
var Migrations embed.FS

// Migrate applies the embedded profile schema migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg pg.Config, log *slog.Logger) error {
	return pg.Migrate(ctx, pool, Migrations, "migrations", cfg, log)
}
