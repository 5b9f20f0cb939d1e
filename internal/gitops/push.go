// pattern: Imperative Shell

package gitops

import (
	"context"
	"fmt"
	"strings"

	"workbench/internal/process"
)

// ShellRunner runs a command line through the shell and returns stdout.
// *process.Runner satisfies it.
type ShellRunner interface {
	Output(ctx context.Context, dir, cmdline string) (string, error)
}

// Push pushes branch and all tags to remote using the git binary, so the
// user's credential helpers and SSH agent apply.
func Push(ctx context.Context, runner ShellRunner, dir, remote, branch string) (string, error) {
	if remote == "" {
		remote = "origin"
	}
	if branch == "" {
		var err error
		if branch, err = CurrentBranch(dir); err != nil {
			return "", fmt.Errorf("git push: %w", err)
		}
	}

	cmdline := fmt.Sprintf("git push %s %s --tags 2>&1", process.Quote(remote), process.Quote(branch))
	out, err := runner.Output(ctx, dir, cmdline)
	if err != nil {
		return out, fmt.Errorf("git push: %s: %w", strings.TrimSpace(out), err)
	}
	return out, nil
}
