package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestLoadFullConfig(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")
	configContent := `
theme: latte
log_level: debug
registry_file: /var/lib/workbench/list.txt
build:
  generator: Ninja
  jobs: 4
git:
  author_name: Dev Person
  author_email: dev@example.com
  remote: upstream
editor: vim
scan_paths:
  - ~/src
  - /opt/projects
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	if cfg.Theme != "latte" {
		t.Errorf("Theme: got %q, want %q", cfg.Theme, "latte")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel: got %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.RegistryFile != "/var/lib/workbench/list.txt" {
		t.Errorf("RegistryFile: got %q", cfg.RegistryFile)
	}
	if cfg.Build.Generator != "Ninja" || cfg.Build.Jobs != 4 {
		t.Errorf("Build: got %+v", cfg.Build)
	}
	if cfg.Git.AuthorName != "Dev Person" || cfg.Git.AuthorEmail != "dev@example.com" {
		t.Errorf("Git author: got %+v", cfg.Git)
	}
	if cfg.Git.Remote != "upstream" {
		t.Errorf("Git.Remote: got %q, want %q", cfg.Git.Remote, "upstream")
	}
	if cfg.Editor != "vim" {
		t.Errorf("Editor: got %q, want %q", cfg.Editor, "vim")
	}
	if len(cfg.ScanPaths) != 2 {
		t.Errorf("ScanPaths: got %v", cfg.ScanPaths)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadFrom_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Theme != "mocha" || cfg.LogLevel != "info" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.Build.Generator != "Unix Makefiles" {
		t.Errorf("Build.Generator = %q, want %q", cfg.Build.Generator, "Unix Makefiles")
	}
	if cfg.Git.Remote != "origin" {
		t.Errorf("Git.Remote = %q, want %q", cfg.Git.Remote, "origin")
	}
}

func TestLoadFrom_PartialFileKeepsDefaults(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("theme: frappe\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Theme != "frappe" {
		t.Errorf("Theme = %q, want %q", cfg.Theme, "frappe")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("cfg.LogLevel = %q, want %q (default)", cfg.LogLevel, "info")
	}
	if cfg.Git.Remote != "origin" {
		t.Errorf("Git.Remote = %q, want %q (default)", cfg.Git.Remote, "origin")
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("build: [unclosed\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadFrom(configPath)
	if err == nil {
		t.Fatal("LoadFrom() expected error for invalid YAML")
	}
	if cfg.Theme != "mocha" {
		t.Errorf("LoadFrom() should return defaults on error, got theme %q", cfg.Theme)
	}
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("editor: nano\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("LoadFromDir() error = %v", err)
	}
	if cfg.Editor != "nano" {
		t.Errorf("Editor = %q, want %q", cfg.Editor, "nano")
	}
}

func TestValidate_UnknownGenerator(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Build.Generator = "Xcode"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for unknown generator")
	}
	want := "build.generator must be one of 'Unix Makefiles', 'Ninja', got: Xcode"
	if err.Error() != want {
		t.Errorf("Validate() error = %q, want %q", err.Error(), want)
	}
}

func TestValidate_NegativeJobs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Build.Jobs = -1

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for negative jobs")
	}
}

func TestBuildJobs(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.BuildJobs(); got != runtime.NumCPU() {
		t.Errorf("BuildJobs() = %d, want NumCPU %d", got, runtime.NumCPU())
	}

	cfg.Build.Jobs = 3
	if got := cfg.BuildJobs(); got != 3 {
		t.Errorf("BuildJobs() = %d, want 3", got)
	}
}

func TestRegistryPath(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.RegistryPath("/etc/wb"); got != "/etc/wb/workspaces.txt" {
		t.Errorf("RegistryPath() = %q, want default in config dir", got)
	}

	cfg.RegistryFile = "/data/ws.txt"
	if got := cfg.RegistryPath("/etc/wb"); got != "/data/ws.txt" {
		t.Errorf("RegistryPath() = %q, want %q", got, "/data/ws.txt")
	}
}

func TestResolvePath_TildeExpansion(t *testing.T) {
	cfg := Config{}
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("UserHomeDir: %v", err)
	}

	got := cfg.ResolvePath("~/foo/bar")
	want := filepath.Join(home, "foo/bar")
	if got != want {
		t.Errorf("ResolvePath(\"~/foo/bar\") = %q, want %q", got, want)
	}
	if got := cfg.ResolvePath("~"); got != home {
		t.Errorf("ResolvePath(\"~\") = %q, want %q", got, home)
	}
}

func TestResolvePath_AbsoluteUnchanged(t *testing.T) {
	cfg := Config{}
	if got := cfg.ResolvePath("/srv/src"); got != "/srv/src" {
		t.Errorf("ResolvePath(\"/srv/src\") = %q, want unchanged", got)
	}
	if got := cfg.ResolvePath("~other/src"); got != "~other/src" {
		t.Errorf("ResolvePath(\"~other/src\") = %q, want unchanged", got)
	}
}

func TestResolveScanPaths(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("UserHomeDir: %v", err)
	}
	cfg := Config{ScanPaths: []string{"~/src", "/opt"}}

	got := cfg.ResolveScanPaths()
	if len(got) != 2 || got[0] != filepath.Join(home, "src") || got[1] != "/opt" {
		t.Errorf("ResolveScanPaths() = %v", got)
	}
}

func TestDetectedEditor_ConfiguredValue(t *testing.T) {
	cfg := Config{Editor: "vim"}
	got, err := cfg.DetectedEditorWith(func(name string) (string, error) {
		return "", os.ErrNotExist
	})
	if err != nil || got != "vim" {
		t.Errorf("DetectedEditor = %q, %v; want %q", got, err, "vim")
	}
}

func TestDetectedEditor_AutoDetect(t *testing.T) {
	cfg := Config{}
	got, err := cfg.DetectedEditorWith(func(name string) (string, error) {
		if name == "gedit" || name == "xdg-open" {
			return "/usr/bin/" + name, nil
		}
		return "", os.ErrNotExist
	})
	if err != nil {
		t.Fatalf("DetectedEditor error = %v", err)
	}
	if got != "gedit" {
		t.Errorf("DetectedEditor = %q, want %q", got, "gedit")
	}
}

func TestDetectedEditor_NoneFound(t *testing.T) {
	cfg := Config{}
	_, err := cfg.DetectedEditorWith(func(name string) (string, error) {
		return "", os.ErrNotExist
	})
	if err == nil {
		t.Error("DetectedEditor expected error when nothing is on PATH")
	}
}

func TestDir(t *testing.T) {
	if got := Dir("/explicit"); got != "/explicit" {
		t.Errorf("Dir(\"/explicit\") = %q", got)
	}

	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	if got := Dir(""); got != filepath.Join("/xdg", "workbench") {
		t.Errorf("Dir(\"\") = %q, want XDG location", got)
	}
}
