// pattern: Imperative Shell
package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"workbench/internal/logging"
)

var levelRank = map[string]int{"DEBUG": 0, "INFO": 1, "WARN": 2, "ERROR": 3}

// LogTailConfig configures the log reader.
type LogTailConfig struct {
	Path     string
	Scope    string // Scope prefix; empty shows every scope
	MinLevel string // DEBUG, INFO, WARN or ERROR
	Follow   bool
	Interval time.Duration
	Writer   io.Writer
}

func parseLogsFlags(env *Env, args []string) (LogTailConfig, error) {
	fs := flag.NewFlagSet("logs", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	scope := fs.StringP("scope", "s", "", "only show scopes starting with this prefix")
	level := fs.StringP("level", "l", "debug", "minimum level")
	follow := fs.BoolP("follow", "f", false, "keep printing new entries")
	if err := fs.Parse(args); err != nil {
		return LogTailConfig{}, err
	}
	if fs.NArg() > 0 {
		return LogTailConfig{}, errors.New("unexpected arguments")
	}
	return LogTailConfig{
		Path:     env.LogFile,
		Scope:    *scope,
		MinLevel: logging.ParseLevel(*level),
		Follow:   *follow,
		Interval: 500 * time.Millisecond,
		Writer:   env.Stdout,
	}, nil
}

// TailLog prints matching entries from the JSON log file. With Follow set
// it keeps polling for appended entries until ctx is cancelled; a file that
// shrinks is assumed rotated and read again from the start.
func TailLog(ctx context.Context, cfg LogTailConfig) error {
	if cfg.Path == "" {
		return errors.New("no log file configured")
	}

	offset, err := printLogFrom(cfg, 0)
	if err != nil {
		if !cfg.Follow || !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	if !cfg.Follow {
		return nil
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			info, err := os.Stat(cfg.Path)
			if err != nil {
				continue
			}
			if info.Size() < offset {
				offset = 0
			}
			if info.Size() == offset {
				continue
			}
			if offset, err = printLogFrom(cfg, offset); err != nil {
				return err
			}
		}
	}
}

// printLogFrom prints complete lines starting at offset and returns the
// offset just past the last complete line.
func printLogFrom(cfg LogTailConfig, offset int64) (int64, error) {
	f, err := os.Open(cfg.Path)
	if err != nil {
		return offset, err
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return offset, err
	}

	r := bufio.NewReader(f)
	for {
		line, err := r.ReadBytes('\n')
		if err != nil {
			// A partial last line is picked up on the next poll.
			if errors.Is(err, io.EOF) {
				return offset, nil
			}
			return offset, err
		}
		offset += int64(len(line))

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		entry, err := logging.ParseEntry(line)
		if err != nil {
			continue
		}
		if !entry.MatchesScope(cfg.Scope) || levelRank[entry.Level] < levelRank[cfg.MinLevel] {
			continue
		}
		fmt.Fprintln(cfg.Writer, FormatEntry(entry))
	}
}

// FormatEntry renders an entry as a single human-readable line.
func FormatEntry(e logging.LogEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-5s %s: %s", e.Timestamp.Format("2006-01-02 15:04:05"), e.Level, e.Scope, e.Message)
	for _, k := range slices.Sorted(maps.Keys(e.Fields)) {
		fmt.Fprintf(&b, " %s=%v", k, e.Fields[k])
	}
	return b.String()
}
