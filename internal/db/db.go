package db

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/juju/clock"
	"github.com/juju/retry"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

var (
	DB *sqlx.DB
)

// opens a PostgreSQL connection and assigns it to DB.
func Init(databaseURL string) error {
	const maxRetries = 10
	const retryInterval = 2 * time.Second

	var (
		conn    *sqlx.DB
		lastErr error
	)
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			conn, lastErr = sqlx.Connect("postgres", databaseURL)
			return lastErr
		},
		NotifyFunc: func(err error, attempt int) {
			log.Error().Err(err).
				Int("attempt", attempt).
				Msgf("failed to connect to database, retrying in %s", retryInterval)
		},
		Attempts: maxRetries,
		Delay:    retryInterval,
		Clock:    clock.WallClock,
	})
	if err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return fmt.Errorf("could not connect to database after %d attempts: %w", maxRetries, lastErr)
	}

	DB = conn
	log.Info().Msg("connected to database")
	return nil
}

// finds all “*.up.sql” files in migrationsPath (sorted by name) and executes
// the ones not yet recorded in schema_migrations. “*.down.sql” files are ignored.
func RunMigrations(migrationsPath string) error {
	files, err := filepath.Glob(filepath.Join(migrationsPath, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("failed to glob migrations: %w", err)
	}
	if len(files) == 0 {
		log.Warn().Str("path", migrationsPath).Msg("no migrations found")
		return nil
	}
	sort.Strings(files)

	if _, err := DB.Exec(`
	CREATE TABLE IF NOT EXISTS schema_migrations (
		name       TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for _, file := range files {
		name := filepath.Base(file)

		var applied bool
		if err := DB.Get(&applied, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = $1);`, name); err != nil {
			return fmt.Errorf("check migration %q: %w", name, err)
		}
		if applied {
			continue
		}

		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("could not read migration %q: %w", file, err)
		}
		if len(sqlBytes) == 0 {
			continue
		}

		tx, err := DB.Beginx()
		if err != nil {
			return fmt.Errorf("begin migration %q: %w", name, err)
		}
		if _, err := tx.Exec(string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("error executing migration %q: %w", file, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (name) VALUES ($1);`, name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %q: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %q: %w", name, err)
		}
		log.Info().Str("migration", name).Msg("applied migration")
	}
	return nil
}
