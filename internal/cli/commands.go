// pattern: Imperative Shell
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	flag "github.com/spf13/pflag"

	"workbench/internal/discovery"
	"workbench/internal/gitops"
	"workbench/internal/process"
	"workbench/internal/registry"
	"workbench/internal/report"
)

// BuildApp creates and configures the CLI application with all commands and groups.
func BuildApp(version string, env *Env) *App {
	app := NewApp(version)
	app.Stdout = env.Stdout
	app.Stderr = env.Stderr

	app.AddCommand(&Command{
		Name:    "add",
		Summary: "Register a workspace under a name",
		Usage:   "Usage: workbench add <name> <path>",
		Run: func(args []string) error {
			if len(args) != 2 {
				return usageError("Usage: workbench add <name> <path>")
			}
			return runAddCommand(env, args[0], args[1])
		},
	})

	app.AddCommand(&Command{
		Name:    "remove",
		Summary: "Unregister a workspace",
		Usage:   "Usage: workbench remove <name>",
		Run: func(args []string) error {
			if len(args) != 1 {
				return usageError("Usage: workbench remove <name>")
			}
			return runRemoveCommand(env, args[0])
		},
	})

	app.AddCommand(&Command{
		Name:    "list",
		Summary: "List registered workspaces",
		Usage:   "Usage: workbench list",
		Run: func(args []string) error {
			return runListCommand(env)
		},
	})

	app.AddCommand(&Command{
		Name:    "info",
		Summary: "Show build system, layout and git status of a workspace",
		Usage:   "Usage: workbench info <name>",
		Run: func(args []string) error {
			if len(args) != 1 {
				return usageError("Usage: workbench info <name>")
			}
			return runInfoCommand(env, args[0])
		},
	})

	app.AddCommand(&Command{
		Name:    "executables",
		Summary: "List built executables of a workspace",
		Usage:   "Usage: workbench executables <name>",
		Run: func(args []string) error {
			if len(args) != 1 {
				return usageError("Usage: workbench executables <name>")
			}
			return runExecutablesCommand(env, args[0])
		},
	})

	app.AddCommand(&Command{
		Name:    "main",
		Summary: "Print the path of the main executable",
		Usage:   "Usage: workbench main <name>",
		Run: func(args []string) error {
			if len(args) != 1 {
				return usageError("Usage: workbench main <name>")
			}
			return runMainCommand(env, args[0])
		},
	})

	registerBuildCommands(app, env)

	app.AddCommand(&Command{
		Name:    "edit",
		Summary: "Open a workspace in the configured editor",
		Usage:   "Usage: workbench edit <name>",
		Run: func(args []string) error {
			if len(args) != 1 {
				return usageError("Usage: workbench edit <name>")
			}
			return runEditCommand(env, args[0])
		},
	})

	app.AddCommand(&Command{
		Name:    "scan",
		Summary: "Find unregistered projects in scan paths",
		Usage:   "Usage: workbench scan [paths...] [--register]",
		Run: func(args []string) error {
			fs := flag.NewFlagSet("scan", flag.ContinueOnError)
			fs.SetOutput(env.Stderr)
			register := fs.Bool("register", false, "register every project found")
			if err := fs.Parse(args); err != nil {
				return usageError("Usage: workbench scan [paths...] [--register]")
			}
			return runScanCommand(env, fs.Args(), *register)
		},
	})

	app.AddCommand(&Command{
		Name:    "watch",
		Summary: "Print the registry whenever it changes",
		Usage:   "Usage: workbench watch",
		Run: func(args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatchCommand(ctx, env)
		},
	})

	app.AddCommand(&Command{
		Name:    "logs",
		Summary: "Show workbench log entries",
		Usage:   "Usage: workbench logs [--scope prefix] [--level level] [--follow]",
		Run: func(args []string) error {
			cfg, err := parseLogsFlags(env, args)
			if err != nil {
				return usageError("Usage: workbench logs [--scope prefix] [--level level] [--follow]")
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return TailLog(ctx, cfg)
		},
	})

	app.AddCommand(&Command{
		Name:    "version",
		Summary: "Print version and exit",
		Usage:   "Usage: workbench version",
		Run: func(args []string) error {
			fmt.Fprintln(env.Stdout, version)
			return nil
		},
	})

	gitGroup := app.AddGroup("git", "Version control for a workspace")
	RegisterGitCommands(gitGroup, env)

	return app
}

func runAddCommand(env *Env, name, path string) error {
	abs, err := filepath.Abs(env.Config.ResolvePath(path))
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}
	reg, err := env.OpenRegistry()
	if err != nil {
		return err
	}
	if err := reg.Add(name, abs); err != nil {
		return err
	}
	if _, statErr := os.Stat(abs); statErr != nil {
		fmt.Fprintf(env.Stderr, "Warning: %s does not exist yet\n", abs)
	}
	env.println(env.Render.Success(fmt.Sprintf("Added %s: %s", name, abs)))
	return nil
}

func runRemoveCommand(env *Env, name string) error {
	reg, err := env.OpenRegistry()
	if err != nil {
		return err
	}
	if _, ok := reg.Get(name); !ok {
		return fmt.Errorf("%w: %s", registry.ErrNotFound, name)
	}
	if err := reg.Remove(name); err != nil {
		return err
	}
	env.println(env.Render.Success("Removed " + name))
	return nil
}

func runListCommand(env *Env) error {
	reg, err := env.OpenRegistry()
	if err != nil {
		return err
	}
	printRegistry(env, reg)
	return nil
}

func printRegistry(env *Env, reg *registry.Registry) {
	entries := make([]report.Entry, 0, reg.Len())
	for _, name := range reg.Names() {
		ws, _ := reg.Get(name)
		entries = append(entries, report.Entry{Name: name, Path: ws.Path(), Missing: !ws.Exists()})
	}
	env.println(env.Render.Registry(entries))
}

func runInfoCommand(env *Env, name string) error {
	ws, err := env.workspace(name)
	if err != nil {
		return err
	}

	summary := report.Summary{
		Name:   name,
		Path:   ws.Path(),
		Exists: ws.Exists(),
	}
	if summary.Exists {
		summary.BuildSystem = ws.BuildSystemName()
		summary.BuildCommand = ws.PreferredBuildCommand()
		summary.BuildDirectory = ws.BuildDirectory()
		summary.BuildScripts = ws.BuildScripts()
		summary.Layout = ws.Layout()
		summary.Executables = ws.FindExecutables()
		if exe, ok := ws.FindMainExecutable(); ok {
			summary.Main = exe.Name
		}
		if gitops.IsRepository(ws.Path()) {
			info, err := gitops.Status(ws.Path())
			if err != nil {
				env.Logs.For("git").Warn("reading git status failed", "path", ws.Path(), "error", err)
			} else {
				summary.Git = &info
			}
		}
	}

	env.println(env.Render.Summary(summary))
	return nil
}

func runExecutablesCommand(env *Env, name string) error {
	ws, err := env.workspace(name)
	if err != nil {
		return err
	}
	exes := ws.FindExecutables()
	main := ""
	if exe, ok := ws.FindMainExecutable(); ok {
		main = exe.Name
	}
	env.println(env.Render.Executables(exes, main))
	return nil
}

func runMainCommand(env *Env, name string) error {
	ws, err := env.workspace(name)
	if err != nil {
		return err
	}
	exe, ok := ws.FindMainExecutable()
	if !ok {
		return fmt.Errorf("%s: no executables found", name)
	}
	fmt.Fprintln(env.Stdout, exe.Path)
	return nil
}

func runEditCommand(env *Env, name string) error {
	ws, err := env.workspace(name)
	if err != nil {
		return err
	}
	if !ws.Exists() {
		return fmt.Errorf("%s: %s does not exist", name, ws.Path())
	}
	editor, err := env.editor()
	if err != nil {
		return err
	}
	pid, err := env.Runner.Start(process.Command{Dir: ws.Path(), Name: editor, Args: []string{ws.Path()}})
	if err != nil {
		return err
	}
	env.Logs.For("workspace").Info("opened editor", "editor", editor, "path", ws.Path(), "pid", pid)
	return nil
}

func runScanCommand(env *Env, paths []string, register bool) error {
	if len(paths) == 0 {
		paths = env.Config.ResolveScanPaths()
	}
	if len(paths) == 0 {
		return errors.New("no scan paths given and scan_paths is empty in config.yaml")
	}

	reg, err := env.OpenRegistry()
	if err != nil {
		return err
	}
	registered := make(map[string]string)
	for _, name := range reg.Names() {
		ws, _ := reg.Get(name)
		registered[canonicalPath(ws.Path())] = name
	}

	found := discovery.NewScanner(env.Logs.For("discovery")).ScanAll(paths)
	rows := make([]report.Candidate, 0, len(found))
	added := 0
	for _, c := range found {
		_, isRegistered := registered[c.Path]
		if register && !isRegistered {
			if existing, taken := reg.Get(c.Name); taken {
				fmt.Fprintf(env.Stderr, "Warning: name %s is already used by %s; skipping %s\n", c.Name, existing.Path(), c.Path)
			} else if err := reg.Add(c.Name, c.Path); err != nil {
				return err
			} else {
				isRegistered = true
				added++
			}
		}
		rows = append(rows, report.Candidate{
			Name:        c.Name,
			Path:        c.Path,
			BuildSystem: c.BuildSystem.String(),
			Registered:  isRegistered,
		})
	}

	env.println(env.Render.Candidates(rows))
	if register {
		env.println(env.Render.Success(fmt.Sprintf("Registered %d workspace(s)", added)))
	}
	return nil
}

// canonicalPath resolves symlinks so registered paths compare equal to the
// resolved paths the scanner reports.
func canonicalPath(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

func runWatchCommand(ctx context.Context, env *Env) error {
	reg, err := env.OpenRegistry()
	if err != nil {
		return err
	}
	w, err := registry.NewWatcher(reg)
	if err != nil {
		return err
	}

	printRegistry(env, reg)
	err = w.Start(ctx, func() {
		env.println("")
		env.println(env.Render.Step("Registry changed"))
		printRegistry(env, reg)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
