package orchestrator

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// statStore persists per-model access stats so eviction ordering survives a
// restart. It is strictly best-effort: every caller tolerates failure.
type statStore struct {
	db *sql.DB
}

func openStatStore(path string) (*statStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open stat store: %w", err)
	}
	s := &statStore{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *statStore) initSchema() error {
	if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS model_stats (
		model_id           TEXT PRIMARY KEY,
		access_count       INTEGER NOT NULL,
		last_accessed_unix INTEGER NOT NULL
	);`)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *statStore) get(modelID string) (accessCount uint64, lastAccessedUnix int64, ok bool) {
	row := s.db.QueryRow(
		`SELECT access_count, last_accessed_unix FROM model_stats WHERE model_id = ?`, modelID)
	if err := row.Scan(&accessCount, &lastAccessedUnix); err != nil {
		return 0, 0, false
	}
	return accessCount, lastAccessedUnix, true
}

func (s *statStore) put(modelID string, accessCount uint64, lastAccessedUnix int64) error {
	_, err := s.db.Exec(
		`INSERT INTO model_stats (model_id, access_count, last_accessed_unix) VALUES (?, ?, ?)
		 ON CONFLICT(model_id) DO UPDATE SET access_count = excluded.access_count,
		                                     last_accessed_unix = excluded.last_accessed_unix`,
		modelID, accessCount, lastAccessedUnix)
	return err
}

func (s *statStore) close() error { return s.db.Close() }
