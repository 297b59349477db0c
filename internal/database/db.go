package database

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// DB is the global connection pool. It stays nil when Postgres is not
// configured; callers must check Connected before issuing queries.
var DB *pgxpool.Pool

// ConnectDB opens the pool from PG_HOST, PG_PORT, POSTGRES_USER,
// POSTGRES_PASSWORD and PG_DATABASE. Returns an error instead of exiting so
// the service can run without persistence.
func ConnectDB() error {
	if os.Getenv("PG_HOST") == "" {
		return fmt.Errorf("PG_HOST not set")
	}
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		os.Getenv("PG_HOST"),
		os.Getenv("PG_PORT"),
		os.Getenv("PG_DATABASE"),
	)

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return fmt.Errorf("unable to parse pgx config: %w", err)
	}

	DB, err = pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return fmt.Errorf("unable to create pgx pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := DB.Ping(ctx); err != nil {
		DB = nil
		return fmt.Errorf("db ping error: %w", err)
	}

	logrus.Infof("connected to database at %s:%s", os.Getenv("PG_HOST"), os.Getenv("PG_PORT"))
	return nil
}

// Connected reports whether a pool is available.
func Connected() bool {
	return DB != nil
}
