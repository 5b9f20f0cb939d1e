// pattern: Functional Core

package logging

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

// DefaultScope is reported for records written without a logger name.
const DefaultScope = "workbench"

// LogEntry is one decoded log record.
type LogEntry struct {
	Timestamp time.Time
	Level     string // DEBUG, INFO, WARN, ERROR
	Scope     string // Dotted scope, e.g. "workspace.myapp"
	Message   string
	Fields    map[string]any
}

// MatchesScope reports whether the entry's scope starts with prefix.
// An empty prefix matches everything.
func (e LogEntry) MatchesScope(prefix string) bool {
	if prefix == "" {
		return true
	}
	return strings.HasPrefix(e.Scope, prefix)
}

// ParseLevel normalizes a level name to upper case. Unknown levels map to INFO.
func ParseLevel(level string) string {
	switch strings.ToLower(level) {
	case "debug":
		return "DEBUG"
	case "info":
		return "INFO"
	case "warn", "warning":
		return "WARN"
	case "error":
		return "ERROR"
	default:
		return "INFO"
	}
}

// Keys written by the zap JSON encoder; everything else is a field.
var (
	reservedKeys = []string{"msg", "level", "logger", "ts"}
	droppedKeys  = []string{"caller", "stacktrace"}
)

// ParseEntry decodes one JSON record written by the zap encoder, such as a
// line of the log file.
func ParseEntry(line []byte) (LogEntry, error) {
	var raw map[string]any
	if err := json.Unmarshal(line, &raw); err != nil {
		return LogEntry{}, err
	}

	msg, _ := raw["msg"].(string)
	level, _ := raw["level"].(string)
	scope, _ := raw["logger"].(string)
	if scope == "" {
		scope = DefaultScope
	}

	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     ParseLevel(level),
		Scope:     scope,
		Message:   msg,
		Fields:    make(map[string]any, len(raw)),
	}
	if ts, ok := raw["ts"].(float64); ok {
		entry.Timestamp = epochTime(ts)
	}

	for _, k := range reservedKeys {
		delete(raw, k)
	}
	for _, k := range droppedKeys {
		delete(raw, k)
	}
	for k, v := range raw {
		entry.Fields[k] = v
	}
	return entry, nil
}

// epochTime converts fractional Unix seconds, keeping nanoseconds.
func epochTime(ts float64) time.Time {
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(frac*1e9))
}
