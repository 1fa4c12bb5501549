package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver

	"github.com/soyeahso/botbridge/internal/domain"
	"github.com/soyeahso/botbridge/internal/logging"
)

// SQLiteStore is a Store persisted to a SQLite database.
type SQLiteStore struct {
	sql *sql.DB
	log *logging.Logger
}

// Open opens (or creates) a SQLite-backed store at the given path and runs
// migrations. Use ":memory:" for an in-memory database (useful for tests).
func Open(path string, log *logging.Logger) (*SQLiteStore, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}

	// WAL mode for better concurrent read performance
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	s := &SQLiteStore{sql: sqlDB, log: log.Sub("store")}

	if err := s.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	s.log.Info().Str("path", path).Msg("store opened")
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.log.Info().Msg("closing store")
	return s.sql.Close()
}

func (s *SQLiteStore) UpsertUser(u domain.User) error {
	_, err := s.sql.Exec(
		`INSERT INTO users (id, name, tenant_id, object_id)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   tenant_id = excluded.tenant_id,
		   object_id = excluded.object_id`,
		u.ID, u.Name, u.TenantID, u.ObjectID,
	)
	return err
}

func (s *SQLiteStore) User(id string) (domain.User, bool, error) {
	return s.scanUser(s.sql.QueryRow(
		`SELECT id, name, tenant_id, object_id FROM users WHERE id = ?`, id,
	))
}

func (s *SQLiteStore) UserByName(name string) (domain.User, bool, error) {
	return s.scanUser(s.sql.QueryRow(
		`SELECT id, name, tenant_id, object_id FROM users WHERE name = ? LIMIT 1`, name,
	))
}

func (s *SQLiteStore) scanUser(row *sql.Row) (domain.User, bool, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Name, &u.TenantID, &u.ObjectID)
	if err == sql.ErrNoRows {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, err
	}
	return u, true, nil
}

func (s *SQLiteStore) Users() ([]domain.User, error) {
	rows, err := s.sql.Query(`SELECT id, name, tenant_id, object_id FROM users`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Name, &u.TenantID, &u.ObjectID); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *SQLiteStore) Authorize(rec AuthRecord) error {
	_, err := s.sql.Exec(
		`INSERT INTO authorized (object_id, tenant_id, admin)
		 VALUES (?, ?, ?)
		 ON CONFLICT(object_id) DO UPDATE SET
		   tenant_id = excluded.tenant_id,
		   admin = excluded.admin`,
		rec.ObjectID, rec.TenantID, rec.Admin,
	)
	return err
}

func (s *SQLiteStore) SeedAuthorized(recs []AuthRecord) error {
	for _, rec := range recs {
		_, err := s.sql.Exec(
			`INSERT INTO authorized (object_id, tenant_id, admin)
			 VALUES (?, ?, ?)
			 ON CONFLICT(object_id) DO NOTHING`,
			rec.ObjectID, rec.TenantID, rec.Admin,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) IsAuthorized(objectID string) (bool, error) {
	var one int
	err := s.sql.QueryRow(
		`SELECT 1 FROM authorized WHERE object_id = ?`, objectID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLiteStore) Admins() ([]AuthRecord, error) {
	rows, err := s.sql.Query(
		`SELECT object_id, tenant_id, admin FROM authorized WHERE admin = 1 ORDER BY object_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var admins []AuthRecord
	for rows.Next() {
		var rec AuthRecord
		if err := rows.Scan(&rec.ObjectID, &rec.TenantID, &rec.Admin); err != nil {
			return nil, err
		}
		admins = append(admins, rec)
	}
	return admins, rows.Err()
}
