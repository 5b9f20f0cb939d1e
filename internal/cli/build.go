// pattern: Imperative Shell
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"workbench/internal/process"
	"workbench/internal/workspace"
)

// BuildFlags are the options accepted by the build command.
type BuildFlags struct {
	Generator string
	Jobs      int
	DryRun    bool
}

func registerBuildCommands(app *App, env *Env) {
	const buildUsage = "Usage: workbench build <name> [--generator name] [--jobs n] [--dry-run]"
	app.AddCommand(&Command{
		Name:    "build",
		Summary: "Build a workspace with its detected build system",
		Usage:   buildUsage,
		Run: func(args []string) error {
			if len(args) < 1 {
				return usageError(buildUsage)
			}
			fs := flag.NewFlagSet("build", flag.ContinueOnError)
			fs.SetOutput(env.Stderr)
			generator := fs.StringP("generator", "G", env.Config.Build.Generator, "CMake generator")
			jobs := fs.IntP("jobs", "j", env.Config.BuildJobs(), "parallel jobs")
			dryRun := fs.BoolP("dry-run", "n", false, "print the steps without running them")
			if err := fs.Parse(args[1:]); err != nil || fs.NArg() > 0 {
				return usageError(buildUsage)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runBuildCommand(ctx, env, args[0], BuildFlags{
				Generator: *generator,
				Jobs:      *jobs,
				DryRun:    *dryRun,
			})
		},
	})

	app.AddCommand(&Command{
		Name:    "configure",
		Summary: "Run cmake in the workspace's build directory",
		Usage:   "Usage: workbench configure <name>",
		Run: func(args []string) error {
			if len(args) != 1 {
				return usageError("Usage: workbench configure <name>")
			}
			return runConfigureCommand(context.Background(), env, args[0])
		},
	})

	app.AddCommand(&Command{
		Name:    "clean",
		Summary: "Remove the workspace's build directory",
		Usage:   "Usage: workbench clean <name>",
		Run: func(args []string) error {
			if len(args) != 1 {
				return usageError("Usage: workbench clean <name>")
			}
			return runCleanCommand(env, args[0])
		},
	})

	const runUsage = "Usage: workbench run <name> [--exe name] [-- args...]"
	app.AddCommand(&Command{
		Name:    "run",
		Summary: "Run the workspace's main executable",
		Usage:   runUsage,
		Run: func(args []string) error {
			if len(args) < 1 {
				return usageError(runUsage)
			}
			fs := flag.NewFlagSet("run", flag.ContinueOnError)
			fs.SetOutput(env.Stderr)
			exeName := fs.StringP("exe", "e", "", "executable to run instead of the main one")
			if err := fs.Parse(args[1:]); err != nil {
				return usageError(runUsage)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runRunCommand(ctx, env, args[0], *exeName, fs.Args())
		},
	})
}

func runBuildCommand(ctx context.Context, env *Env, name string, flags BuildFlags) error {
	ws, err := env.workspace(name)
	if err != nil {
		return err
	}
	if !ws.Exists() {
		return fmt.Errorf("%s: %s does not exist", name, ws.Path())
	}

	plan := ws.PlanBuild(workspace.BuildOptions{Generator: flags.Generator, Jobs: flags.Jobs})
	logger := env.Logs.For("build").With("workspace", name)
	logger.Info("build planned", "system", plan.System.String(), "steps", len(plan.Steps))

	if flags.DryRun {
		for _, step := range plan.Steps {
			fmt.Fprintf(env.Stdout, "(cd %s && %s)\n", process.Quote(step.Dir), step.String())
		}
		return nil
	}

	if plan.EnsureDir != "" {
		if err := os.MkdirAll(plan.EnsureDir, 0755); err != nil {
			return fmt.Errorf("creating build directory: %w", err)
		}
	}

	for _, step := range plan.Steps {
		env.println(env.Render.Step("Executing: " + step.String()))
		err := env.Runner.Stream(ctx, step, func(stream, line string) {
			if stream == process.Stderr {
				fmt.Fprintln(env.Stderr, line)
				return
			}
			fmt.Fprintln(env.Stdout, line)
		})
		if err != nil {
			logger.Error("build failed", "command", step.String(), "error", err)
			return fmt.Errorf("build %s: %w", name, err)
		}
	}

	logger.Info("build finished")
	env.println(env.Render.Success("Build completed successfully"))
	return nil
}

func runConfigureCommand(ctx context.Context, env *Env, name string) error {
	ws, err := env.workspace(name)
	if err != nil {
		return err
	}
	out, err := ws.ConfigureBuild(ctx)
	fmt.Fprint(env.Stdout, out)
	if err != nil {
		return err
	}
	env.println(env.Render.Success("Configured " + name))
	return nil
}

func runCleanCommand(env *Env, name string) error {
	ws, err := env.workspace(name)
	if err != nil {
		return err
	}
	if err := ws.Clean(); err != nil {
		return fmt.Errorf("clean %s: %w", name, err)
	}
	env.println(env.Render.Success("Cleaned " + name))
	return nil
}

func runRunCommand(ctx context.Context, env *Env, name, exeName string, exeArgs []string) error {
	ws, err := env.workspace(name)
	if err != nil {
		return err
	}

	exe, err := pickExecutable(ws, exeName)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	plan := ws.PlanRun(exe)
	plan.Command.Args = exeArgs

	if plan.Detached {
		pid, err := env.Runner.Start(plan.Command)
		if err != nil {
			return err
		}
		env.println(env.Render.Success(fmt.Sprintf("Started %s (pid %d)", exe.Name, pid)))
		return nil
	}

	env.println(env.Render.Step("Running: " + exe.RelativePath))
	return env.Runner.Attach(ctx, plan.Command, env.Stdin, env.Stdout, env.Stderr)
}

// pickExecutable returns the named executable, or the workspace's run
// target when name is empty.
func pickExecutable(ws *workspace.Workspace, name string) (workspace.Executable, error) {
	if name == "" {
		return ws.RunTarget()
	}
	for _, exe := range ws.FindExecutables() {
		if exe.Name == name || exe.RelativePath == name {
			return exe, nil
		}
	}
	return workspace.Executable{}, fmt.Errorf("executable %q not found", name)
}
