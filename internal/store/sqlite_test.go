package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "boxmate-store-test")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	s, err := NewSQLiteStore(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessions(t *testing.T) {
	s := newTestStore(t)

	id, err := s.CreateSession()
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if id == "" {
		t.Fatal("Session ID should not be empty")
	}

	session, err := s.GetSession(id)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if session == nil || session.ID != id {
		t.Errorf("GetSession returned wrong session: %+v", session)
	}

	// Unknown session returns nil without error
	missing, err := s.GetSession("not-a-session")
	if err != nil {
		t.Fatalf("GetSession for unknown id failed: %v", err)
	}
	if missing != nil {
		t.Error("Unknown session should return nil")
	}

	latest, err := s.GetLatestSession()
	if err != nil {
		t.Fatalf("GetLatestSession failed: %v", err)
	}
	if latest == nil || latest.ID != id {
		t.Error("GetLatestSession should return the created session")
	}
}

func TestMessages(t *testing.T) {
	s := newTestStore(t)

	sessionID, err := s.CreateSession()
	if err != nil {
		t.Fatal(err)
	}

	msgs := []*Message{
		{SessionID: sessionID, Role: "user", Content: "where is my drill?"},
		{SessionID: sessionID, Role: "assistant", Content: "", ToolCalls: `[{"id":"call_1"}]`},
		{SessionID: sessionID, Role: "tool", Content: "Found 1 item", ToolCallID: "call_1"},
	}
	for _, msg := range msgs {
		if err := s.SaveMessage(sessionID, msg); err != nil {
			t.Fatalf("SaveMessage failed: %v", err)
		}
		if msg.ID == 0 {
			t.Error("SaveMessage should set the message ID")
		}
	}

	got, err := s.GetMessages(sessionID, 10)
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(got))
	}
	// Chronological order
	if got[0].Role != "user" || got[2].Role != "tool" {
		t.Error("Messages should be returned in chronological order")
	}
	if got[1].ToolCalls != `[{"id":"call_1"}]` {
		t.Errorf("Tool calls not preserved: %q", got[1].ToolCalls)
	}
	if got[2].ToolCallID != "call_1" {
		t.Errorf("Tool call ID not preserved: %q", got[2].ToolCallID)
	}

	if err := s.ClearSession(sessionID); err != nil {
		t.Fatalf("ClearSession failed: %v", err)
	}
	got, err = s.GetMessages(sessionID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("Expected no messages after clear, got %d", len(got))
	}
}

func TestToolCallAudit(t *testing.T) {
	s := newTestStore(t)

	rec := &ToolCallRecord{
		Tool:       "search_items",
		Args:       `{"query":"drill"}`,
		OK:         true,
		DurationMS: 42,
		Origin:     "repl",
	}
	if err := s.RecordToolCall(rec); err != nil {
		t.Fatalf("RecordToolCall failed: %v", err)
	}
	if rec.ID == "" {
		t.Error("RecordToolCall should assign an ID")
	}

	failed := &ToolCallRecord{
		Tool:   "create_item",
		OK:     false,
		Error:  "homebox API error (status 500)",
		Origin: "server",
	}
	if err := s.RecordToolCall(failed); err != nil {
		t.Fatal(err)
	}

	records, err := s.RecentToolCalls(10)
	if err != nil {
		t.Fatalf("RecentToolCalls failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	byTool := map[string]*ToolCallRecord{}
	for _, r := range records {
		byTool[r.Tool] = r
	}
	if byTool["search_items"] == nil || !byTool["search_items"].OK {
		t.Error("search_items record should be ok")
	}
	if byTool["create_item"] == nil || byTool["create_item"].OK {
		t.Error("create_item record should be failed")
	}
	if byTool["create_item"].Error == "" {
		t.Error("Failed record should keep the error message")
	}
}

func TestCache(t *testing.T) {
	s := newTestStore(t)

	// Miss on unknown key
	_, ok, err := s.CacheGet("missing")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("Unknown key should be a miss")
	}

	if err := s.CacheSet("key-1", []byte(`{"total":1}`), time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("CacheSet failed: %v", err)
	}
	payload, ok, err := s.CacheGet("key-1")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || string(payload) != `{"total":1}` {
		t.Errorf("Cache hit mismatch: ok=%v payload=%s", ok, payload)
	}

	// Overwrite
	if err := s.CacheSet("key-1", []byte(`{"total":2}`), time.Now().Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	payload, ok, _ = s.CacheGet("key-1")
	if !ok || string(payload) != `{"total":2}` {
		t.Error("CacheSet should overwrite an existing entry")
	}

	// Expired entries are misses
	if err := s.CacheSet("key-2", []byte("stale"), time.Now().Add(-time.Second)); err != nil {
		t.Fatal(err)
	}
	_, ok, err = s.CacheGet("key-2")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("Expired entry should be a miss")
	}

	if err := s.ClearCache(); err != nil {
		t.Fatalf("ClearCache failed: %v", err)
	}
	_, ok, _ = s.CacheGet("key-1")
	if ok {
		t.Error("ClearCache should drop all entries")
	}
}

func TestResponseCache(t *testing.T) {
	s := newTestStore(t)

	cache := NewResponseCache(s, time.Minute)
	if cache == nil {
		t.Fatal("NewResponseCache should return a cache for a positive TTL")
	}

	if _, ok := cache.Get("k"); ok {
		t.Error("Fresh cache should miss")
	}

	cache.Set("k", []byte("v"))
	payload, ok := cache.Get("k")
	if !ok || string(payload) != "v" {
		t.Errorf("Cache roundtrip failed: ok=%v payload=%s", ok, payload)
	}

	cache.Invalidate()
	if _, ok := cache.Get("k"); ok {
		t.Error("Invalidate should drop entries")
	}
}

func TestNewResponseCache_Disabled(t *testing.T) {
	s := newTestStore(t)

	if NewResponseCache(s, 0) != nil {
		t.Error("Zero TTL should disable the cache")
	}
	if NewResponseCache(nil, time.Minute) != nil {
		t.Error("Nil store should disable the cache")
	}
}
