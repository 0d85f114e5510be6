// Package pg connects to PostgreSQL with pgx, applies goose migrations from an
// embedded filesystem, and classifies driver errors (not found, unique violation).
//
//	pool, err := pg.Connect(ctx, cfg)
//	err = pg.Migrate(ctx, pool, postgres.Migrations, "migrations", cfg, log)
package pg
