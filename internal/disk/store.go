package disk

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Store is a PostgreSQL-backed source of disk definitions. It lets admins
// add and edit disks at runtime; the Registry picks changes up via Reload.
type Store struct {
	db *sql.DB
}

// NewStore opens a connection to the disk definition database.
func NewStore(databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// EnsureSchema creates the disks table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS disks (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			driver TEXT NOT NULL,
			config JSONB NOT NULL DEFAULT '{}',
			is_default BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("create disks table: %w", err)
	}
	return nil
}

// List returns all disk definitions ordered by name.
func (s *Store) List(ctx context.Context) ([]Definition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, driver, config, is_default FROM disks ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list disks: %w", err)
	}
	defer rows.Close()

	var defs []Definition
	for rows.Next() {
		var def Definition
		if err := rows.Scan(&def.ID, &def.Name, &def.DriverType, &def.Config, &def.IsDefault); err != nil {
			return nil, fmt.Errorf("scan disk row: %w", err)
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

// Upsert inserts or updates a disk definition by name.
func (s *Store) Upsert(ctx context.Context, def Definition) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO disks (name, driver, config, is_default)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE
		SET driver = EXCLUDED.driver, config = EXCLUDED.config, is_default = EXCLUDED.is_default`,
		def.Name, def.DriverType, def.Config, def.IsDefault)
	if err != nil {
		return fmt.Errorf("upsert disk %s: %w", def.Name, err)
	}
	return nil
}

// Delete removes a disk definition by name.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM disks WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete disk %s: %w", name, err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
