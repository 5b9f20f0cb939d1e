// pattern: Imperative Shell
package main

import (
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	"workbench/internal/cli"
	"workbench/internal/config"
	"workbench/internal/logging"
	"workbench/internal/report"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// Stop parsing flags after the first non-flag arg (the subcommand),
	// so that --help after a subcommand is handled by the subcommand.
	flag.CommandLine.SetInterspersed(false)

	configDir := flag.StringP("config-dir", "c", "", "config directory (default: ~/.config/workbench)")
	verbose := flag.BoolP("verbose", "v", false, "mirror log output to stderr")
	plain := flag.Bool("plain", false, "disable colors and styling")

	// Override flag.Usage before Parse so --help uses the CLI app's help
	flag.Usage = func() {
		env := cli.NewEnv(config.DefaultConfig(), "", "", nopProvider{}, true)
		cli.BuildApp(version, env).PrintHelp(os.Stderr)
		flag.PrintDefaults()
	}

	flag.Parse()

	dir := config.Dir(*configDir)
	cfg, err := loadConfig(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if !report.ValidTheme(cfg.Theme) {
		fmt.Fprintf(os.Stderr, "Warning: unknown theme %q, using mocha\n", cfg.Theme)
	}

	logPath := filepath.Join(dir, "workbench.log")
	logConfig := logging.Config{
		FilePath:   logPath,
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 7,
		Level:      cfg.LogLevel,
	}
	if *verbose {
		logConfig.Console = os.Stderr
	}
	logManager, err := logging.NewManager(logConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		return 1
	}
	defer func() { _ = logManager.Close() }()

	env := cli.NewEnv(cfg, dir, logPath, logManager, *plain || !isTerminal(os.Stdout) || os.Getenv("NO_COLOR") != "")
	app := cli.BuildApp(version, env)

	logManager.For("app").Debug("command starting", "args", flag.Args())
	return app.Execute(flag.Args())
}

// loadConfig loads the configuration from the specified directory or default location.
func loadConfig(configDir string) (config.Config, error) {
	if configDir != "" {
		return config.LoadFromDir(configDir)
	}
	return config.Load()
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

type nopProvider struct{}

func (nopProvider) For(string) *logging.ScopedLogger {
	return logging.NopLogger()
}
