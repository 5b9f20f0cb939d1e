// pattern: Imperative Shell

package workspace

import (
	"context"
	"fmt"
	"os"

	"workbench/internal/gitops"
)

// RunCommand runs cmdline through the shell in the workspace root and
// returns its stdout once it exits.
func (w *Workspace) RunCommand(ctx context.Context, cmdline string) (string, error) {
	return w.runner.Output(ctx, w.root, cmdline)
}

// GitInit creates a git repository at the root. An existing repository is
// reported as gitops.ErrAlreadyRepository.
func (w *Workspace) GitInit() error {
	w.logger.Info("initializing repository", "path", w.root)
	return gitops.Init(w.root)
}

// GitAdd stages every change in the working tree.
func (w *Workspace) GitAdd() error {
	return gitops.AddAll(w.root)
}

// GitCommit commits the staged changes and returns the new commit hash.
func (w *Workspace) GitCommit(message string, author gitops.Author) (string, error) {
	hash, err := gitops.Commit(w.root, message, author)
	if err != nil {
		return "", err
	}
	w.logger.Info("committed", "path", w.root, "commit", hash)
	return hash, nil
}

// ConfigureBuild creates root/build and runs "cmake .." in it.
func (w *Workspace) ConfigureBuild(ctx context.Context) (string, error) {
	if err := os.MkdirAll(w.buildDir, 0755); err != nil {
		return "", fmt.Errorf("creating build directory: %w", err)
	}
	out, err := w.runner.Output(ctx, w.buildDir, "cmake ..")
	if err != nil {
		return out, fmt.Errorf("cmake configure: %w", err)
	}
	return out, nil
}

// Build runs "make" in root/build, configuring first when the directory
// does not exist yet.
func (w *Workspace) Build(ctx context.Context) (string, error) {
	var output string
	if !exists(w.buildDir) {
		out, err := w.ConfigureBuild(ctx)
		if err != nil {
			return out, err
		}
		output = out
	}
	out, err := w.runner.Output(ctx, w.buildDir, "make")
	output += out
	if err != nil {
		return output, fmt.Errorf("make: %w", err)
	}
	return output, nil
}

// Clean removes root/build and everything in it.
func (w *Workspace) Clean() error {
	if err := os.RemoveAll(w.buildDir); err != nil {
		return fmt.Errorf("removing build directory: %w", err)
	}
	w.logger.Info("cleaned build directory", "dir", w.buildDir)
	return nil
}
