// pattern: Imperative Shell

package logging

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NopLogger returns a logger that discards all output.
func NopLogger() *ScopedLogger {
	return &ScopedLogger{}
}

// TestLogManager is a LoggerProvider for tests. Entries go to a channel
// instead of a file so assertions can inspect them.
type TestLogManager struct {
	channelSink *ChannelSink
	scopes      *scopeCache
}

// NewTestLogManager creates a test provider buffering up to bufferSize entries.
func NewTestLogManager(bufferSize int) *TestLogManager {
	channelSink := NewChannelSink(bufferSize)

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(jsonEncoderConfig()),
		zapcore.AddSync(channelSink),
		zapcore.DebugLevel,
	)

	return &TestLogManager{
		channelSink: channelSink,
		scopes:      newScopeCache(zap.New(core), zapcore.DebugLevel),
	}
}

// For returns a scoped logger, matching Manager.For.
func (m *TestLogManager) For(scope string) *ScopedLogger {
	return m.scopes.get(scope)
}

// Channel returns the channel receiving log entries.
func (m *TestLogManager) Channel() <-chan LogEntry {
	return m.channelSink.Entries()
}

// Drain returns every entry currently buffered, waiting at most wait for the
// first one.
func (m *TestLogManager) Drain(wait time.Duration) []LogEntry {
	var entries []LogEntry
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case e, ok := <-m.channelSink.Entries():
		if !ok {
			return nil
		}
		entries = append(entries, e)
	case <-timer.C:
		return nil
	}

	for {
		select {
		case e, ok := <-m.channelSink.Entries():
			if !ok {
				return entries
			}
			entries = append(entries, e)
		default:
			return entries
		}
	}
}

// Close closes the test log manager.
func (m *TestLogManager) Close() error {
	return m.channelSink.Close()
}
