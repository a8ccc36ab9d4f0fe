// Package history persists session and command metadata to SQLite. Response
// text is never stored, only the command line, its detected shape, timing and
// outcome class.
package history

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"oltd/internal/log"
)

// Store records session and command history. A nil *Store is valid and drops
// every record, so callers need no history-enabled checks.
type Store struct {
	db *sql.DB
}

// Command is one recorded exchange. Durations travel as integer
// milliseconds, the unit the command endpoints and the table column use.
type Command struct {
	SessionID  string    `json:"session_id"`
	Command    string    `json:"command"`
	Shape      string    `json:"shape"`
	DurationMS int64     `json:"duration_ms"`
	ErrorCode  string    `json:"error_code,omitempty"`
	ExecutedAt time.Time `json:"executed_at"`
}

type migration struct {
	id          int
	description string
	sql         string
}

var migrations = []migration{
	{
		id:          1,
		description: "session and command tables",
		sql: `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	host TEXT NOT NULL,
	port INTEGER NOT NULL,
	transport TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	closed_at DATETIME
);
CREATE TABLE IF NOT EXISTS commands (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL REFERENCES sessions(id),
	command TEXT NOT NULL,
	shape TEXT NOT NULL,
	duration_ms INTEGER NOT NULL,
	error_code TEXT,
	executed_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_commands_session ON commands(session_id, executed_at)`,
	},
}

// Open opens the history database at path, creating it and applying any
// pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("history: schema_version table: %w", err)
	}

	var current int
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&current); err != nil {
		return fmt.Errorf("history: current schema version: %w", err)
	}

	for _, m := range migrations {
		if m.id <= current {
			continue
		}
		if err := s.apply(m); err != nil {
			return fmt.Errorf("history: migration %d (%s): %w", m.id, m.description, err)
		}
		log.Debug("applied history migration", "id", m.id, "description", m.description)
	}
	return nil
}

func (s *Store) apply(m migration) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range strings.Split(m.sql, ";") {
		if stmt = strings.TrimSpace(stmt); stmt == "" {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, m.id); err != nil {
		return err
	}
	return tx.Commit()
}

// RecordSession inserts a new session row.
func (s *Store) RecordSession(id, host string, port int, transport string) error {
	if s == nil {
		return nil
	}
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, host, port, transport, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, host, port, transport, time.Now().UTC())
	return err
}

// CloseSession stamps the session's close time. Safe to call more than once;
// only the first call writes.
func (s *Store) CloseSession(id string) error {
	if s == nil {
		return nil
	}
	_, err := s.db.Exec(
		`UPDATE sessions SET closed_at = ? WHERE id = ? AND closed_at IS NULL`,
		time.Now().UTC(), id)
	return err
}

// RecordCommand inserts one exchange. errorCode is empty for successes.
func (s *Store) RecordCommand(sessionID, command, shape string, duration time.Duration, errorCode string) error {
	if s == nil {
		return nil
	}
	var code any
	if errorCode != "" {
		code = errorCode
	}
	_, err := s.db.Exec(
		`INSERT INTO commands (session_id, command, shape, duration_ms, error_code, executed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, command, shape, duration.Milliseconds(), code, time.Now().UTC())
	return err
}

// RecentCommands lists the newest commands of a session, newest first.
func (s *Store) RecentCommands(sessionID string, limit int) ([]Command, error) {
	if s == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT session_id, command, shape, duration_ms, COALESCE(error_code, ''), executed_at
		 FROM commands WHERE session_id = ? ORDER BY executed_at DESC, id DESC LIMIT ?`,
		sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Command
	for rows.Next() {
		var c Command
		if err := rows.Scan(&c.SessionID, &c.Command, &c.Shape, &c.DurationMS, &c.ErrorCode, &c.ExecutedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}
