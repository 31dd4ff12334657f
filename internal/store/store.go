package store

import (
	"time"
)

// Store local storage interface
type Store interface {
	// Session management
	CreateSession() (string, error)
	GetSession(id string) (*Session, error)
	GetLatestSession() (*Session, error)
	UpdateSessionTime(id string) error
	ClearSession(sessionID string) error

	// Conversation messages
	SaveMessage(sessionID string, msg *Message) error
	GetMessages(sessionID string, limit int) ([]*Message, error)

	// Tool call audit log
	RecordToolCall(rec *ToolCallRecord) error
	RecentToolCalls(limit int) ([]*ToolCallRecord, error)

	// Response cache
	CacheGet(key string) ([]byte, bool, error)
	CacheSet(key string, payload []byte, expiresAt time.Time) error
	ClearCache() error

	// Close connection
	Close() error
}

// Session session structure
type Session struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message conversation message structure
type Message struct {
	ID         int64
	SessionID  string
	Role       string // "user" | "assistant" | "system" | "tool"
	Content    string
	ToolCalls  string // JSON-encoded tool calls, empty when none
	ToolCallID string
	CreatedAt  time.Time
}

// ToolCallRecord is one audited tool invocation.
type ToolCallRecord struct {
	ID         string
	Tool       string
	Args       string // JSON-encoded arguments
	OK         bool
	Error      string
	DurationMS int64
	Origin     string // "repl" | "server"
	CreatedAt  time.Time
}
