// Package postgres is the real ports.Repository implementation: hand-written pgx/v5 queries
// plus a golang-migrate migration set, grounded on the teacher's
// internal/infrastructure/repository/postgres/{cart,order} layout (pgxpool.Pool + embedded
// migrations). The teacher generates its query layer with sqlc; that codegen step cannot run
// here, so every query in this package is written directly against pgx rather than sqlc's
// generated Queries type (documented in DESIGN.md).
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/shared"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/platform/logger"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Store implements ports.Repository against PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
	log  logger.Logger
}

// New opens the connection pool and applies any pending migration.
func New(ctx context.Context, dsn string, log logger.Logger) (*Store, error) {
	if err := runMigrations(dsn); err != nil {
		return nil, shared.WrapDbBroken("run migrations", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, shared.WrapDbBroken("open connection pool", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, shared.WrapDbBroken("ping database", err)
	}
	return &Store{pool: pool, log: log.Named("repository.postgres")}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func runMigrations(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("build migration driver: %w", err)
	}
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("build migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("build migrator: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
