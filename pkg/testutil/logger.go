package testutil

import (
	"context"
	"sync"

	"github.com/nimburion/i18nloader/pkg/observability/logger"
)

// MockLogger captures log entries for assertions. It is safe for concurrent use.
type MockLogger struct {
	mu   sync.Mutex
	logs []LogEntry
}

// LogEntry represents a single log entry captured by MockLogger.
type LogEntry struct {
	Level  string
	Msg    string
	Fields map[string]interface{}
}

// Debug records a debug-level entry.
func (m *MockLogger) Debug(msg string, args ...any) { m.record("debug", msg, args) }

// Info records an info-level entry.
func (m *MockLogger) Info(msg string, args ...any) { m.record("info", msg, args) }

// Warn records a warn-level entry.
func (m *MockLogger) Warn(msg string, args ...any) { m.record("warn", msg, args) }

// Error records an error-level entry.
func (m *MockLogger) Error(msg string, args ...any) { m.record("error", msg, args) }

// With returns the same logger.
func (m *MockLogger) With(args ...any) logger.Logger { return m }

// WithContext returns the same logger.
func (m *MockLogger) WithContext(ctx context.Context) logger.Logger { return m }

// Entries returns a copy of everything logged so far.
func (m *MockLogger) Entries() []LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]LogEntry(nil), m.logs...)
}

// Count returns how many entries were logged at level with message msg.
func (m *MockLogger) Count(level, msg string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, entry := range m.logs {
		if entry.Level == level && entry.Msg == msg {
			n++
		}
	}
	return n
}

// CountLevel returns how many entries were logged at level.
func (m *MockLogger) CountLevel(level string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, entry := range m.logs {
		if entry.Level == level {
			n++
		}
	}
	return n
}

// Reset discards captured entries.
func (m *MockLogger) Reset() {
	m.mu.Lock()
	m.logs = nil
	m.mu.Unlock()
}

func (m *MockLogger) record(level, msg string, args []any) {
	fields := make(map[string]interface{})
	for i := 0; i < len(args)-1; i += 2 {
		if key, ok := args[i].(string); ok {
			fields[key] = args[i+1]
		}
	}
	m.mu.Lock()
	m.logs = append(m.logs, LogEntry{Level: level, Msg: msg, Fields: fields})
	m.mu.Unlock()
}
