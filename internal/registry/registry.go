// pattern: Imperative Shell

// Package registry keeps the named set of workspaces and persists it as a
// flat "name:path" file.
package registry

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"workbench/internal/logging"
	"workbench/internal/workspace"
)

// ErrNotFound is returned by Lookup for an unknown workspace name.
var ErrNotFound = errors.New("workspace not found")

// Registry maps workspace names to workspaces.
type Registry struct {
	path   string
	lock   *fileLock
	logger *logging.ScopedLogger
	opts   []workspace.Option

	mu         sync.RWMutex
	workspaces map[string]*workspace.Workspace
}

// Open loads the registry stored at path. A missing file yields an empty
// registry. opts are applied to every workspace the registry creates.
func Open(path string, logger *logging.ScopedLogger, opts ...workspace.Option) (*Registry, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating registry directory: %w", err)
	}

	r := &Registry{
		path:       path,
		lock:       newFileLock(path),
		logger:     logger,
		opts:       opts,
		workspaces: make(map[string]*workspace.Workspace),
	}
	if err := r.Load(); err != nil {
		return nil, err
	}
	return r, nil
}

// Path returns the registry file location.
func (r *Registry) Path() string {
	return r.path
}

// Add registers path under name, replacing any workspace already using that
// name, and saves the registry.
func (r *Registry) Add(name, path string) error {
	if err := validateEntry(name, path); err != nil {
		return err
	}

	r.mu.Lock()
	r.workspaces[name] = workspace.New(path, r.opts...)
	r.mu.Unlock()

	r.logger.Info("workspace added", "name", name, "path", path)
	return r.Save()
}

// Remove unregisters name and saves the registry. Unknown names are ignored.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	_, ok := r.workspaces[name]
	delete(r.workspaces, name)
	r.mu.Unlock()

	if ok {
		r.logger.Info("workspace removed", "name", name)
	}
	return r.Save()
}

// Get returns the workspace registered under name.
func (r *Registry) Get(name string) (*workspace.Workspace, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ws, ok := r.workspaces[name]
	return ws, ok
}

// Lookup is Get with an error for unknown names.
func (r *Registry) Lookup(name string) (*workspace.Workspace, error) {
	ws, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return ws, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.workspaces))
	for name := range r.workspaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns one "name: path" line per workspace, sorted by name.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lines := make([]string, 0, len(r.workspaces))
	for _, name := range sortedNames(r.workspaces) {
		lines = append(lines, name+": "+r.workspaces[name].Path())
	}
	return lines
}

// Len returns the number of registered workspaces.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.workspaces)
}

// Load replaces the in-memory set with the contents of the registry file.
// Each "name:path" line becomes a new workspace; the first colon separates
// name from path. Lines without a colon are skipped.
func (r *Registry) Load() error {
	var loaded map[string]*workspace.Workspace
	err := r.lock.shared(func() error {
		var err error
		loaded, err = r.read()
		return err
	})
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.workspaces = loaded
	r.mu.Unlock()

	r.logger.Debug("registry loaded", "path", r.path, "workspaces", len(loaded))
	return nil
}

// Save rewrites the registry file with one "name:path" line per workspace.
func (r *Registry) Save() error {
	r.mu.RLock()
	var b strings.Builder
	for _, name := range sortedNames(r.workspaces) {
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(r.workspaces[name].Path())
		b.WriteByte('\n')
	}
	count := len(r.workspaces)
	r.mu.RUnlock()

	err := r.lock.exclusive(func() error {
		return writeFileAtomic(r.path, []byte(b.String()))
	})
	if err != nil {
		r.logger.Error("failed to save registry", "path", r.path, "error", err)
		return fmt.Errorf("saving registry: %w", err)
	}

	r.logger.Debug("registry saved", "path", r.path, "workspaces", count)
	return nil
}

func (r *Registry) read() (map[string]*workspace.Workspace, error) {
	loaded := make(map[string]*workspace.Workspace)

	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return loaded, nil
		}
		return nil, fmt.Errorf("reading registry: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		name, path, ok := strings.Cut(line, ":")
		if !ok {
			if line != "" {
				r.logger.Warn("skipping malformed registry line", "line", lineNo)
			}
			continue
		}
		loaded[name] = workspace.New(path, r.opts...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading registry: %w", err)
	}
	return loaded, nil
}

func validateEntry(name, path string) error {
	switch {
	case name == "":
		return fmt.Errorf("workspace name is empty")
	case strings.ContainsAny(name, ":\r\n"):
		return fmt.Errorf("workspace name %q must not contain ':' or line breaks", name)
	case path == "":
		return fmt.Errorf("workspace path is empty")
	case strings.ContainsAny(path, "\r\n"):
		return fmt.Errorf("workspace path must not contain line breaks")
	}
	return nil
}

func sortedNames(m map[string]*workspace.Workspace) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// writeFileAtomic replaces path so readers never see a partial file.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
