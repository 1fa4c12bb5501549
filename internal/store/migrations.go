package store

import "fmt"

// migrations are applied in order; each entry runs at most once, tracked in
// schema_migrations.
var migrations = []string{
	`CREATE TABLE users (
		id        TEXT PRIMARY KEY,
		name      TEXT NOT NULL DEFAULT '',
		tenant_id TEXT NOT NULL DEFAULT '',
		object_id TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE authorized (
		object_id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL DEFAULT '',
		admin     INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX idx_users_name ON users(name)`,
}

// migrate runs all pending migrations.
func (s *SQLiteStore) migrate() error {
	if _, err := s.sql.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`); err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	var current int
	if err := s.sql.QueryRow(
		`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`,
	).Scan(&current); err != nil {
		return fmt.Errorf("reading migration version: %w", err)
	}

	for i := current; i < len(migrations); i++ {
		version := i + 1
		if _, err := s.sql.Exec(migrations[i]); err != nil {
			return fmt.Errorf("migration %d: %w", version, err)
		}
		if _, err := s.sql.Exec(
			`INSERT INTO schema_migrations (version) VALUES (?)`, version,
		); err != nil {
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		s.log.Debug().Int("version", version).Msg("migration applied")
	}
	return nil
}
