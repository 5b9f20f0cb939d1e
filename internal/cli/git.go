// pattern: Imperative Shell
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	flag "github.com/spf13/pflag"

	"workbench/internal/gitops"
)

// RegisterGitCommands registers the git command group commands.
func RegisterGitCommands(group *Group, env *Env) {
	group.AddCommand(&Command{
		Name:    "init",
		Summary: "Create a repository in the workspace",
		Usage:   "Usage: workbench git init <name>",
		Run: func(args []string) error {
			if len(args) != 1 {
				return usageError("Usage: workbench git init <name>")
			}
			return runGitInitCommand(env, args[0])
		},
	})

	group.AddCommand(&Command{
		Name:    "add",
		Summary: "Stage every change in the workspace",
		Usage:   "Usage: workbench git add <name>",
		Run: func(args []string) error {
			if len(args) != 1 {
				return usageError("Usage: workbench git add <name>")
			}
			ws, err := env.workspace(args[0])
			if err != nil {
				return err
			}
			if err := ws.GitAdd(); err != nil {
				return err
			}
			env.println(env.Render.Success("Staged all changes in " + args[0]))
			return nil
		},
	})

	const commitUsage = "Usage: workbench git commit <name> -m <message> [--all]"
	group.AddCommand(&Command{
		Name:    "commit",
		Summary: "Commit staged changes",
		Usage:   commitUsage,
		Run: func(args []string) error {
			if len(args) < 1 {
				return usageError(commitUsage)
			}
			fs := flag.NewFlagSet("git commit", flag.ContinueOnError)
			fs.SetOutput(env.Stderr)
			message := fs.StringP("message", "m", "", "commit message")
			all := fs.BoolP("all", "a", false, "stage every change first")
			if err := fs.Parse(args[1:]); err != nil || *message == "" {
				return usageError(commitUsage)
			}
			return runGitCommitCommand(env, args[0], *message, *all)
		},
	})

	group.AddCommand(&Command{
		Name:    "status",
		Summary: "Show branch, remote, latest tag and changes",
		Usage:   "Usage: workbench git status <name>",
		Run: func(args []string) error {
			if len(args) != 1 {
				return usageError("Usage: workbench git status <name>")
			}
			ws, err := env.workspace(args[0])
			if err != nil {
				return err
			}
			info, err := gitops.Status(ws.Path())
			if err != nil {
				return err
			}
			env.println(env.Render.Git(info))
			return nil
		},
	})

	const bumpUsage = "Usage: workbench git bump <name> major|minor|patch [--dry-run]"
	group.AddCommand(&Command{
		Name:    "bump",
		Summary: "Tag the next semantic version",
		Usage:   bumpUsage,
		Run: func(args []string) error {
			if len(args) < 2 {
				return usageError(bumpUsage)
			}
			part, err := gitops.ParsePart(args[1])
			if err != nil {
				return usageError(bumpUsage)
			}
			fs := flag.NewFlagSet("git bump", flag.ContinueOnError)
			fs.SetOutput(env.Stderr)
			dryRun := fs.BoolP("dry-run", "n", false, "print the next version without tagging")
			if err := fs.Parse(args[2:]); err != nil {
				return usageError(bumpUsage)
			}
			return runGitBumpCommand(env, args[0], part, *dryRun)
		},
	})

	const pushUsage = "Usage: workbench git push <name> [--remote name] [--branch name]"
	group.AddCommand(&Command{
		Name:    "push",
		Summary: "Push the current branch and tags",
		Usage:   pushUsage,
		Run: func(args []string) error {
			if len(args) < 1 {
				return usageError(pushUsage)
			}
			fs := flag.NewFlagSet("git push", flag.ContinueOnError)
			fs.SetOutput(env.Stderr)
			remote := fs.String("remote", env.Config.Git.Remote, "remote to push to")
			branch := fs.StringP("branch", "b", "", "branch to push (default: current)")
			if err := fs.Parse(args[1:]); err != nil {
				return usageError(pushUsage)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runGitPushCommand(ctx, env, args[0], *remote, *branch)
		},
	})
}

func runGitInitCommand(env *Env, name string) error {
	ws, err := env.workspace(name)
	if err != nil {
		return err
	}
	if err := ws.GitInit(); err != nil {
		if errors.Is(err, gitops.ErrAlreadyRepository) {
			env.println(env.Render.Success(name + " is already a git repository"))
			return nil
		}
		return err
	}
	env.println(env.Render.Success("Initialized git repository in " + ws.Path()))
	return nil
}

func runGitCommitCommand(env *Env, name, message string, all bool) error {
	ws, err := env.workspace(name)
	if err != nil {
		return err
	}
	if all {
		if err := ws.GitAdd(); err != nil {
			return err
		}
	}
	hash, err := ws.GitCommit(message, env.author())
	if err != nil {
		return err
	}
	env.println(env.Render.Success(fmt.Sprintf("Committed %s", shortHash(hash))))
	return nil
}

func runGitBumpCommand(env *Env, name string, part gitops.Part, dryRun bool) error {
	ws, err := env.workspace(name)
	if err != nil {
		return err
	}
	current, err := gitops.CurrentVersion(ws.Path())
	if err != nil {
		return err
	}
	next := gitops.Bump(current, part)

	if dryRun {
		fmt.Fprintf(env.Stdout, "v%s -> v%s\n", current, next)
		return nil
	}
	if err := gitops.TagVersion(ws.Path(), next, env.author()); err != nil {
		return err
	}
	env.Logs.For("git").Info("version tagged", "workspace", name, "from", current, "to", next)
	env.println(env.Render.Success(fmt.Sprintf("Tagged v%s (was v%s)", next, current)))
	return nil
}

func runGitPushCommand(ctx context.Context, env *Env, name, remote, branch string) error {
	ws, err := env.workspace(name)
	if err != nil {
		return err
	}
	out, err := gitops.Push(ctx, env.Runner, ws.Path(), remote, branch)
	if err != nil {
		return err
	}
	if out = strings.TrimSpace(out); out != "" {
		env.println(out)
	}
	env.println(env.Render.Success("Pushed " + name))
	return nil
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
