// Package store persists chat sessions and their transcripts in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/parleylabs/parley/internal/config"
	"github.com/parleylabs/parley/internal/domain"

	_ "modernc.org/sqlite"
)

// Store wraps a SQLite database for session and message persistence.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database in the parley data directory.
func Open() (*Store, error) {
	dir, err := config.DataDir()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}
	dsn := filepath.Join(dir, "parley.db")

	db, err := sql.Open("sqlite", dsn+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewFromDB creates a Store from an existing *sql.DB and runs migrations.
// This is useful for testing with an in-memory database.
func NewFromDB(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			project_path TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL DEFAULT 'New Session',
			model TEXT NOT NULL DEFAULT '',
			message_count INTEGER DEFAULT 0,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);
		CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			sequence INTEGER NOT NULL,
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		);
	`); err != nil {
		return err
	}

	_, err := s.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_sessions_project ON sessions(project_path);
		CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at DESC);
		CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, sequence);
	`)
	return err
}

// ---------------------------------------------------------------------------
// Session CRUD
// ---------------------------------------------------------------------------

// CreateSession inserts a new session with the given project path and model.
func (s *Store) CreateSession(projectPath, model string) (*domain.Session, error) {
	sess := &domain.Session{
		ID:          domain.NewUUID(),
		ProjectPath: projectPath,
		Title:       domain.DefaultSessionTitle,
		Model:       model,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, project_path, title, model, created_at, updated_at)
		 VALUES (?, ?, ?, ?, datetime(?), datetime(?))`,
		sess.ID, sess.ProjectPath, sess.Title, sess.Model,
		sess.CreatedAt.UTC().Format(time.RFC3339),
		sess.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// GetSession retrieves a session by its full ID.
func (s *Store) GetSession(id string) (*domain.Session, error) {
	row := s.db.QueryRow(
		`SELECT id, project_path, title, model, message_count, created_at, updated_at
		 FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

// LatestSession returns the most recently updated session for a project path.
func (s *Store) LatestSession(projectPath string) (*domain.Session, error) {
	row := s.db.QueryRow(
		`SELECT id, project_path, title, model, message_count, created_at, updated_at
		 FROM sessions WHERE project_path = ? ORDER BY updated_at DESC LIMIT 1`, projectPath)
	return scanSession(row)
}

// FindSessionByPrefix matches a session by ID prefix.
func (s *Store) FindSessionByPrefix(prefix string) (*domain.Session, error) {
	row := s.db.QueryRow(
		`SELECT id, project_path, title, model, message_count, created_at, updated_at
		 FROM sessions WHERE id LIKE ? || '%' ORDER BY updated_at DESC LIMIT 1`, prefix)
	return scanSession(row)
}

// ListSessions returns the most recent sessions for a project path, up to limit.
func (s *Store) ListSessions(projectPath string, limit int) ([]domain.Session, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(
		`SELECT id, project_path, title, model, message_count, created_at, updated_at
		 FROM sessions WHERE project_path = ? ORDER BY updated_at DESC LIMIT ?`,
		projectPath, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var sess domain.Session
		var createdStr, updatedStr string
		if err := rows.Scan(&sess.ID, &sess.ProjectPath, &sess.Title, &sess.Model,
			&sess.MessageCount, &createdStr, &updatedStr); err != nil {
			return nil, err
		}
		sess.CreatedAt = parseDBTime(createdStr)
		sess.UpdatedAt = parseDBTime(updatedStr)
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// DeleteSession removes a session and its messages (via ON DELETE CASCADE).
func (s *Store) DeleteSession(id string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	return err
}

// UpdateSessionTitle sets the title of a session.
func (s *Store) UpdateSessionTitle(id, title string) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET title = ?, updated_at = datetime('now') WHERE id = ?`,
		title, id)
	return err
}

// UpdateSessionModel sets the model for a session.
func (s *Store) UpdateSessionModel(id, model string) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET model = ?, updated_at = datetime('now') WHERE id = ?`,
		model, id)
	return err
}

// TouchSession updates the session's updated_at timestamp.
func (s *Store) TouchSession(id string) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET updated_at = datetime('now') WHERE id = ?`, id)
	return err
}

// SessionTitle returns the title for a session, or "Unknown" if missing.
func (s *Store) SessionTitle(id string) string {
	var title string
	err := s.db.QueryRow(`SELECT title FROM sessions WHERE id = ?`, id).Scan(&title)
	if err != nil {
		return "Unknown"
	}
	return title
}

// ---------------------------------------------------------------------------
// Message CRUD
// ---------------------------------------------------------------------------

// AppendMessage stores a message for a session and bumps its message count.
func (s *Store) AppendMessage(sessionID, role, content string) error {
	var seq int
	row := s.db.QueryRow(
		`SELECT COALESCE(MAX(sequence), 0) FROM messages WHERE session_id = ?`, sessionID)
	if err := row.Scan(&seq); err != nil {
		return err
	}
	seq++

	_, err := s.db.Exec(
		`INSERT INTO messages (id, session_id, role, content, sequence)
		 VALUES (?, ?, ?, ?, ?)`,
		domain.NewUUID(), sessionID, role, content, seq)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`UPDATE sessions SET message_count = ?, updated_at = datetime('now') WHERE id = ?`,
		seq, sessionID)
	return err
}

// GetMessages loads a session's transcript in sequence order.
func (s *Store) GetMessages(sessionID string) ([]domain.TranscriptMessage, error) {
	rows, err := s.db.Query(
		`SELECT role, content FROM messages WHERE session_id = ? ORDER BY sequence`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []domain.TranscriptMessage
	for rows.Next() {
		var m domain.TranscriptMessage
		if err := rows.Scan(&m.Role, &m.Content); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// parseDBTime handles both SQLite's datetime() format and RFC3339.
func parseDBTime(s string) time.Time {
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

func scanSession(row *sql.Row) (*domain.Session, error) {
	var sess domain.Session
	var createdStr, updatedStr string
	err := row.Scan(&sess.ID, &sess.ProjectPath, &sess.Title, &sess.Model,
		&sess.MessageCount, &createdStr, &updatedStr)
	if err != nil {
		return nil, err
	}
	sess.CreatedAt = parseDBTime(createdStr)
	sess.UpdatedAt = parseDBTime(updatedStr)
	return &sess, nil
}
