// pattern: Imperative Shell

package cli

import (
	"fmt"
	"io"
	"os"

	"workbench/internal/config"
	"workbench/internal/gitops"
	"workbench/internal/logging"
	"workbench/internal/process"
	"workbench/internal/registry"
	"workbench/internal/report"
	"workbench/internal/workspace"
)

// Env carries everything commands share: loaded configuration, loggers,
// the output renderer and stdio.
type Env struct {
	Config    config.Config
	ConfigDir string
	LogFile   string
	Logs      logging.LoggerProvider
	Render    *report.Renderer
	Runner    *process.Runner

	// LookPath resolves editors; nil means exec.LookPath.
	LookPath config.LookPathFunc

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewEnv creates an Env writing to the process's stdio.
func NewEnv(cfg config.Config, configDir, logFile string, logs logging.LoggerProvider, plain bool) *Env {
	return &Env{
		Config:    cfg,
		ConfigDir: configDir,
		LogFile:   logFile,
		Logs:      logs,
		Render:    report.NewRenderer(cfg.Theme, plain),
		Runner:    process.NewRunner(logs.For("process")),
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
	}
}

// OpenRegistry opens the configured registry file. Workspaces it hands out
// share the Env's runner.
func (e *Env) OpenRegistry() (*registry.Registry, error) {
	return registry.Open(
		e.Config.RegistryPath(e.ConfigDir),
		e.Logs.For("registry"),
		workspace.WithRunner(e.Runner),
		workspace.WithLogger(e.Logs.For("workspace")),
	)
}

// workspace looks up a registered workspace by name.
func (e *Env) workspace(name string) (*workspace.Workspace, error) {
	reg, err := e.OpenRegistry()
	if err != nil {
		return nil, err
	}
	return reg.Lookup(name)
}

func (e *Env) author() gitops.Author {
	return gitops.Author{Name: e.Config.Git.AuthorName, Email: e.Config.Git.AuthorEmail}
}

func (e *Env) editor() (string, error) {
	if e.LookPath != nil {
		return e.Config.DetectedEditorWith(e.LookPath)
	}
	return e.Config.DetectedEditor()
}

func (e *Env) println(s string) {
	fmt.Fprintln(e.Stdout, s)
}
