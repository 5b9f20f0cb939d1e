// pattern: Imperative Shell

package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

const appName = "workbench"

type Config struct {
	Theme        string      `yaml:"theme"`
	LogLevel     string      `yaml:"log_level"`
	RegistryFile string      `yaml:"registry_file"`
	Build        BuildConfig `yaml:"build"`
	Git          GitConfig   `yaml:"git"`
	Editor       string      `yaml:"editor"`
	ScanPaths    []string    `yaml:"scan_paths"`
}

type BuildConfig struct {
	Generator string `yaml:"generator"`
	Jobs      int    `yaml:"jobs"`
}

type GitConfig struct {
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
	Remote      string `yaml:"remote"`
}

// Generators accepted in build.generator.
var Generators = []string{"Unix Makefiles", "Ninja"}

// Editors tried in order when editor is not configured.
var Editors = []string{"code", "gedit", "xdg-open"}

// LookPathFunc is the function signature for looking up executables.
type LookPathFunc func(name string) (string, error)

func DefaultConfig() Config {
	return Config{
		Theme:    "mocha",
		LogLevel: "info",
		Build: BuildConfig{
			Generator: "Unix Makefiles",
		},
		Git: GitConfig{
			Remote: "origin",
		},
	}
}

// Load reads config.yaml from the default config directory.
func Load() (Config, error) {
	return LoadFrom(filepath.Join(Dir(""), "config.yaml"))
}

// LoadFromDir reads config.yaml from dir.
func LoadFromDir(dir string) (Config, error) {
	return LoadFrom(filepath.Join(dir, "config.yaml"))
}

func LoadFrom(configPath string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), err
	}

	defaults := DefaultConfig()
	if cfg.Theme == "" {
		cfg.Theme = defaults.Theme
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}
	if cfg.Build.Generator == "" {
		cfg.Build.Generator = defaults.Build.Generator
	}
	if cfg.Git.Remote == "" {
		cfg.Git.Remote = defaults.Git.Remote
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail later at build time.
func (c *Config) Validate() error {
	valid := false
	for _, g := range Generators {
		if c.Build.Generator == g {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("build.generator must be one of %s, got: %s",
			strings.Join(quoteAll(Generators), ", "), c.Build.Generator)
	}
	if c.Build.Jobs < 0 {
		return fmt.Errorf("build.jobs must not be negative, got: %d", c.Build.Jobs)
	}
	return nil
}

// BuildJobs returns the configured job count, or the number of CPUs when
// unset.
func (c *Config) BuildJobs() int {
	if c.Build.Jobs > 0 {
		return c.Build.Jobs
	}
	return runtime.NumCPU()
}

// RegistryPath returns the workspace registry file, defaulting to
// workspaces.txt in configDir.
func (c *Config) RegistryPath(configDir string) string {
	if c.RegistryFile != "" {
		return c.ResolvePath(c.RegistryFile)
	}
	return filepath.Join(configDir, "workspaces.txt")
}

// ResolveScanPaths expands ~ in every configured scan path.
func (c *Config) ResolveScanPaths() []string {
	paths := make([]string, 0, len(c.ScanPaths))
	for _, p := range c.ScanPaths {
		paths = append(paths, c.ResolvePath(p))
	}
	return paths
}

// ResolvePath expands a leading ~ to the user's home directory.
func (c *Config) ResolvePath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

// DetectedEditor returns the configured editor or the first one found on PATH.
func (c *Config) DetectedEditor() (string, error) {
	return c.DetectedEditorWith(exec.LookPath)
}

// DetectedEditorWith is DetectedEditor using the provided lookup function.
func (c *Config) DetectedEditorWith(lookPath LookPathFunc) (string, error) {
	if c.Editor != "" {
		return c.Editor, nil
	}
	for _, name := range Editors {
		if _, err := lookPath(name); err == nil {
			return name, nil
		}
	}
	return "", fmt.Errorf("no editor found (tried %s); set editor in config.yaml", strings.Join(Editors, ", "))
}

// Dir returns configDir when set, else $XDG_CONFIG_HOME/workbench, else
// ~/.config/workbench.
func Dir(configDir string) string {
	if configDir != "" {
		return configDir
	}
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, appName)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", appName)
	}

	return filepath.Join(home, ".config", appName)
}

func quoteAll(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = "'" + s + "'"
	}
	return out
}
