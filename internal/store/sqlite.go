package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore SQLite storage implementation
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite storage
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}

	// Initialize tables
	if err := store.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database tables: %w", err)
	}

	return store, nil
}

// initTables initializes database tables
func (s *SQLiteStore) initTables() error {
	queries := []string{
		// Sessions table
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		// Conversation messages
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			tool_calls TEXT,
			tool_call_id TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (session_id) REFERENCES sessions(id)
		)`,
		// Tool call audit log
		`CREATE TABLE IF NOT EXISTS tool_calls (
			id TEXT PRIMARY KEY,
			tool TEXT NOT NULL,
			args TEXT,
			ok INTEGER NOT NULL,
			error TEXT,
			duration_ms INTEGER NOT NULL,
			origin TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		// Homebox response cache
		`CREATE TABLE IF NOT EXISTS cache (
			key TEXT PRIMARY KEY,
			payload BLOB NOT NULL,
			expires_at DATETIME NOT NULL
		)`,
		// Create indexes
		`CREATE INDEX IF NOT EXISTS idx_messages_session_id ON messages(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_tool_calls_created_at ON tool_calls(created_at)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute SQL: %s, error: %w", query, err)
		}
	}

	return nil
}

// CreateSession creates a new session
func (s *SQLiteStore) CreateSession() (string, error) {
	id := uuid.New().String()
	now := time.Now()

	_, err := s.db.Exec(
		"INSERT INTO sessions (id, created_at, updated_at) VALUES (?, ?, ?)",
		id, now, now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	return id, nil
}

// GetSession gets a session by ID
func (s *SQLiteStore) GetSession(id string) (*Session, error) {
	var session Session
	err := s.db.QueryRow(
		"SELECT id, created_at, updated_at FROM sessions WHERE id = ?",
		id,
	).Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return &session, nil
}

// GetLatestSession gets the latest session
func (s *SQLiteStore) GetLatestSession() (*Session, error) {
	var session Session
	err := s.db.QueryRow(
		"SELECT id, created_at, updated_at FROM sessions ORDER BY updated_at DESC LIMIT 1",
	).Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest session: %w", err)
	}

	return &session, nil
}

// UpdateSessionTime updates the session timestamp
func (s *SQLiteStore) UpdateSessionTime(id string) error {
	_, err := s.db.Exec(
		"UPDATE sessions SET updated_at = ? WHERE id = ?",
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update session time: %w", err)
	}
	return nil
}

// SaveMessage saves a message
func (s *SQLiteStore) SaveMessage(sessionID string, msg *Message) error {
	result, err := s.db.Exec(
		"INSERT INTO messages (session_id, role, content, tool_calls, tool_call_id, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		sessionID, msg.Role, msg.Content, msg.ToolCalls, msg.ToolCallID, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}

	// Get inserted ID
	id, err := result.LastInsertId()
	if err == nil {
		msg.ID = id
	}

	// Update session time
	_ = s.UpdateSessionTime(sessionID)

	return nil
}

// GetMessages gets messages for a session in chronological order
func (s *SQLiteStore) GetMessages(sessionID string, limit int) ([]*Message, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, role, content, tool_calls, tool_call_id, created_at
		 FROM messages
		 WHERE session_id = ?
		 ORDER BY created_at DESC
		 LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		var msg Message
		var toolCalls, toolCallID sql.NullString
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &toolCalls, &toolCallID, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if toolCalls.Valid {
			msg.ToolCalls = toolCalls.String
		}
		if toolCallID.Valid {
			msg.ToolCallID = toolCallID.String
		}
		messages = append(messages, &msg)
	}

	// Reverse order so messages are in chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// ClearSession clears all messages in a session
func (s *SQLiteStore) ClearSession(sessionID string) error {
	_, err := s.db.Exec("DELETE FROM messages WHERE session_id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("failed to clear session messages: %w", err)
	}
	return nil
}

// RecordToolCall appends one invocation to the audit log
func (s *SQLiteStore) RecordToolCall(rec *ToolCallRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := s.db.Exec(
		"INSERT INTO tool_calls (id, tool, args, ok, error, duration_ms, origin, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		rec.ID, rec.Tool, rec.Args, rec.OK, rec.Error, rec.DurationMS, rec.Origin, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record tool call: %w", err)
	}
	return nil
}

// RecentToolCalls returns the newest audit entries, newest first
func (s *SQLiteStore) RecentToolCalls(limit int) ([]*ToolCallRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, tool, args, ok, error, duration_ms, origin, created_at
		 FROM tool_calls
		 ORDER BY created_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get tool calls: %w", err)
	}
	defer rows.Close()

	var records []*ToolCallRecord
	for rows.Next() {
		var rec ToolCallRecord
		var args, errMsg, origin sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Tool, &args, &rec.OK, &errMsg, &rec.DurationMS, &origin, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tool call: %w", err)
		}
		rec.Args = args.String
		rec.Error = errMsg.String
		rec.Origin = origin.String
		records = append(records, &rec)
	}

	return records, nil
}

// CacheGet returns a cached payload when present and not expired
func (s *SQLiteStore) CacheGet(key string) ([]byte, bool, error) {
	var payload []byte
	var expiresAt time.Time
	err := s.db.QueryRow(
		"SELECT payload, expires_at FROM cache WHERE key = ?",
		key,
	).Scan(&payload, &expiresAt)

	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache: %w", err)
	}

	if time.Now().After(expiresAt) {
		// Expired entries are pruned lazily
		_, _ = s.db.Exec("DELETE FROM cache WHERE key = ?", key)
		return nil, false, nil
	}

	return payload, true, nil
}

// CacheSet stores a payload until expiresAt
func (s *SQLiteStore) CacheSet(key string, payload []byte, expiresAt time.Time) error {
	_, err := s.db.Exec(
		"INSERT INTO cache (key, payload, expires_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, expires_at = excluded.expires_at",
		key, payload, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}

// ClearCache removes all cache entries
func (s *SQLiteStore) ClearCache() error {
	_, err := s.db.Exec("DELETE FROM cache")
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
