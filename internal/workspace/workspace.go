// pattern: Imperative Shell

// Package workspace inspects a project directory: which build system it
// uses, where its build output lands, how to build and run it, and which
// files in it are runnable programs.
package workspace

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"workbench/internal/logging"
	"workbench/internal/process"
)

// Runner runs a shell command line in dir and returns its stdout.
// *process.Runner satisfies it.
type Runner interface {
	Output(ctx context.Context, dir, cmdline string) (string, error)
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithRunner replaces the runner used for shell dispatches.
func WithRunner(r Runner) Option {
	return func(w *Workspace) {
		w.runner = r
	}
}

// WithLogger sets the logger used for command dispatches.
func WithLogger(l *logging.ScopedLogger) Option {
	return func(w *Workspace) {
		w.logger = l
	}
}

// Workspace is one project directory.
type Workspace struct {
	root     string
	buildDir string // root/build; used by ConfigureBuild, Build and Clean

	detectOnce  sync.Once
	buildSystem BuildSystem

	runner Runner
	logger *logging.ScopedLogger
}

// New creates a Workspace rooted at path. Nothing is read from disk until a
// query needs it.
func New(path string, opts ...Option) *Workspace {
	w := &Workspace{
		root:     path,
		buildDir: filepath.Join(path, defaultBuildDir),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logging.NopLogger()
	}
	if w.runner == nil {
		w.runner = process.NewRunner(w.logger)
	}
	return w
}

// Path returns the root path the workspace was created with.
func (w *Workspace) Path() string {
	return w.root
}

// Name returns the base name of the root directory.
func (w *Workspace) Name() string {
	return filepath.Base(filepath.Clean(w.root))
}

// Exists reports whether the root path exists.
func (w *Workspace) Exists() bool {
	_, err := os.Stat(w.root)
	return err == nil
}

// DefaultBuildDir returns root/build, the directory the build primitives
// operate in. Use BuildDirectory to locate existing build output.
func (w *Workspace) DefaultBuildDir() string {
	return w.buildDir
}

// DetectBuildSystem returns the build system indicated by marker files at
// the root. The result of the first call is kept for the lifetime of w.
func (w *Workspace) DetectBuildSystem() BuildSystem {
	w.detectOnce.Do(func() {
		w.buildSystem = detect(w.root)
	})
	return w.buildSystem
}

// BuildSystemName returns the display name of the detected build system.
func (w *Workspace) BuildSystemName() string {
	return w.DetectBuildSystem().String()
}

// BuildScripts returns the known build script names present at the root,
// in fixed candidate order.
func (w *Workspace) BuildScripts() []string {
	var scripts []string
	for _, name := range buildScriptNames {
		if exists(filepath.Join(w.root, name)) {
			scripts = append(scripts, name)
		}
	}
	return scripts
}

// BuildDirectory returns the first existing build output directory among
// the conventional names, or root/build when none exists.
func (w *Workspace) BuildDirectory() string {
	for _, name := range buildDirNames {
		dir := filepath.Join(w.root, name)
		if isDir(dir) {
			return dir
		}
	}
	return w.buildDir
}

// PreferredBuildCommand returns the command line that builds the workspace
// with its detected build system.
func (w *Workspace) PreferredBuildCommand() string {
	switch w.DetectBuildSystem() {
	case CMake:
		return "cmake --build ."
	case Ninja:
		return "ninja"
	case Script:
		scripts := w.BuildScripts()
		if len(scripts) == 0 {
			return "make"
		}
		return scriptCommand(scripts[0])
	default:
		return "make"
	}
}

func scriptCommand(script string) string {
	switch {
	case strings.HasSuffix(script, ".sh"):
		return "bash " + script
	case strings.HasSuffix(script, ".py"):
		return "python " + script
	default:
		return "./" + script
	}
}

func detect(root string) BuildSystem {
	for _, rule := range detectionRules {
		for _, marker := range rule.markers {
			if exists(filepath.Join(root, marker)) {
				return rule.kind
			}
		}
	}
	return None
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
