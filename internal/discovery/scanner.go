// pattern: Imperative Shell

// Package discovery finds project directories that are not registered yet.
package discovery

import (
	"os"
	"path/filepath"
	"strings"

	"workbench/internal/logging"
	"workbench/internal/workspace"
)

// Candidate is a project directory found during scanning.
type Candidate struct {
	Name         string                // Directory name, used as the suggested workspace name
	Path         string                // Absolute path with symlinks resolved
	BuildSystem  workspace.BuildSystem // Detected build system; None for plain repositories
	IsRepository bool                  // Whether the directory has a .git entry
}

// Scanner discovers projects in configured scan paths.
type Scanner struct {
	logger *logging.ScopedLogger
}

// NewScanner creates a new project scanner. A nil logger discards output.
func NewScanner(logger *logging.ScopedLogger) *Scanner {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Scanner{logger: logger}
}

// ScanAll scans all provided paths for project directories.
// Each path is read one level deep; a child directory qualifies when it has
// a recognizable build system or is a git repository. Hidden directories
// are ignored and directories reachable through several paths are reported
// once.
func (s *Scanner) ScanAll(paths []string) []Candidate {
	var candidates []Candidate
	seen := make(map[string]bool)

	for _, scanPath := range paths {
		entries, err := os.ReadDir(scanPath)
		if err != nil {
			s.logger.Debug("skipping scan path", "path", scanPath, "error", err)
			continue
		}

		for _, entry := range entries {
			if strings.HasPrefix(entry.Name(), ".") || !isDirEntry(scanPath, entry) {
				continue
			}
			projectPath := filepath.Join(scanPath, entry.Name())

			// Resolve symlinks to get canonical path
			resolved, err := filepath.EvalSymlinks(projectPath)
			if err != nil {
				resolved = projectPath
			}
			if abs, err := filepath.Abs(resolved); err == nil {
				resolved = abs
			}
			if seen[resolved] {
				continue
			}
			seen[resolved] = true

			candidate, ok := inspect(entry.Name(), resolved)
			if !ok {
				continue
			}
			candidates = append(candidates, candidate)
		}
	}

	s.logger.Info("scan complete", "paths", len(paths), "found", len(candidates))
	return candidates
}

func inspect(name, path string) (Candidate, bool) {
	c := Candidate{
		Name:         name,
		Path:         path,
		BuildSystem:  workspace.New(path).DetectBuildSystem(),
		IsRepository: hasGitDir(path),
	}
	if c.BuildSystem == workspace.None && !c.IsRepository {
		return Candidate{}, false
	}
	return c, true
}

// isDirEntry reports whether entry is a directory, following symlinks.
func isDirEntry(parent string, entry os.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(parent, entry.Name()))
	return err == nil && info.IsDir()
}

// hasGitDir checks for a .git directory or worktree file at the root.
func hasGitDir(projectPath string) bool {
	_, err := os.Stat(filepath.Join(projectPath, ".git"))
	return err == nil
}
