// pattern: Imperative Shell

package logging

import (
	"errors"
	"sync"
)

var errSinkClosed = errors.New("write to closed channel sink")

// ChannelSink is a zapcore.WriteSyncer that decodes every record into a
// LogEntry and queues it for tests to inspect. A full queue drops its oldest
// entry instead of blocking the logger.
type ChannelSink struct {
	mu      sync.Mutex
	entries chan LogEntry
	closed  bool
}

// NewChannelSink creates a sink queueing up to bufferSize entries.
func NewChannelSink(bufferSize int) *ChannelSink {
	return &ChannelSink{entries: make(chan LogEntry, bufferSize)}
}

// Write decodes p and queues the entry. Records that do not decode are
// swallowed so logging never fails.
func (s *ChannelSink) Write(p []byte) (int, error) {
	entry, err := ParseEntry(p)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errSinkClosed
	}
	if err == nil {
		s.enqueue(entry)
	}
	return len(p), nil
}

// enqueue must be called with mu held.
func (s *ChannelSink) enqueue(entry LogEntry) {
	for {
		select {
		case s.entries <- entry:
			return
		default:
		}
		select {
		case <-s.entries:
		default:
			// Zero-capacity queue
			return
		}
	}
}

// Sync implements zapcore.WriteSyncer.
func (s *ChannelSink) Sync() error {
	return nil
}

// Close closes the entries channel. Later writes fail; closing twice is
// harmless.
func (s *ChannelSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.entries)
	}
	return nil
}

// Entries returns the queue of decoded entries.
func (s *ChannelSink) Entries() <-chan LogEntry {
	return s.entries
}
