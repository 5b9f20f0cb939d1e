package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"workbench/internal/workspace"
)

func mkProject(t *testing.T, dir string, files ...string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	for _, f := range files {
		path := filepath.Join(dir, f)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestScanAll_FindsProjects(t *testing.T) {
	tmpDir := t.TempDir()

	mkProject(t, filepath.Join(tmpDir, "cmake-app"), "CMakeLists.txt")
	mkProject(t, filepath.Join(tmpDir, "notes"), "README.md")

	scanner := NewScanner(nil)
	projects := scanner.ScanAll([]string{tmpDir})

	if len(projects) != 1 {
		t.Fatalf("expected 1 project, got %d", len(projects))
	}
	if projects[0].Name != "cmake-app" {
		t.Errorf("expected cmake-app, got %s", projects[0].Name)
	}
	if projects[0].BuildSystem != workspace.CMake {
		t.Errorf("BuildSystem = %v, want CMake", projects[0].BuildSystem)
	}
	if projects[0].IsRepository {
		t.Error("IsRepository = true, want false")
	}
	if !filepath.IsAbs(projects[0].Path) {
		t.Errorf("Path = %q, want absolute", projects[0].Path)
	}
}

func TestScanAll_GitRepositoryWithoutBuildSystem(t *testing.T) {
	tmpDir := t.TempDir()
	mkProject(t, filepath.Join(tmpDir, "docs-site"), ".git/HEAD")

	projects := NewScanner(nil).ScanAll([]string{tmpDir})

	if len(projects) != 1 {
		t.Fatalf("expected 1 project, got %d", len(projects))
	}
	if !projects[0].IsRepository {
		t.Error("IsRepository = false, want true")
	}
	if projects[0].BuildSystem != workspace.None {
		t.Errorf("BuildSystem = %v, want None", projects[0].BuildSystem)
	}
}

func TestScanAll_SkipsNonDirectories(t *testing.T) {
	tmpDir := t.TempDir()

	if err := os.WriteFile(filepath.Join(tmpDir, "Makefile"), []byte("all:\n"), 0644); err != nil {
		t.Fatal(err)
	}

	projects := NewScanner(nil).ScanAll([]string{tmpDir})

	if len(projects) != 0 {
		t.Fatalf("expected 0 projects, got %d", len(projects))
	}
}

func TestScanAll_SkipsHiddenDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	mkProject(t, filepath.Join(tmpDir, ".cache"), "Makefile")

	projects := NewScanner(nil).ScanAll([]string{tmpDir})

	if len(projects) != 0 {
		t.Fatalf("expected 0 projects, got %d", len(projects))
	}
}

func TestScanAll_HandlesMissingDir(t *testing.T) {
	projects := NewScanner(nil).ScanAll([]string{"/nonexistent/path"})

	if len(projects) != 0 {
		t.Fatalf("expected 0 projects for missing dir, got %d", len(projects))
	}
}

func TestScanAll_DeduplicatesSymlinks(t *testing.T) {
	tmpDir := t.TempDir()

	projectDir := filepath.Join(tmpDir, "real-project")
	mkProject(t, projectDir, "build.sh")

	// Create a second scan dir with a symlink to the same project
	scanDir2 := filepath.Join(tmpDir, "scan2")
	if err := os.MkdirAll(scanDir2, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(projectDir, filepath.Join(scanDir2, "linked-project")); err != nil {
		t.Fatal(err)
	}

	projects := NewScanner(nil).ScanAll([]string{tmpDir, scanDir2})

	if len(projects) != 1 {
		t.Fatalf("expected 1 project (deduplicated), got %d", len(projects))
	}
	if projects[0].BuildSystem != workspace.Script {
		t.Errorf("BuildSystem = %v, want Script", projects[0].BuildSystem)
	}
}

func TestScanAll_FollowsSymlinkedProjects(t *testing.T) {
	tmpDir := t.TempDir()
	realDir := filepath.Join(tmpDir, "elsewhere", "proj")
	mkProject(t, realDir, "build.ninja")

	scanDir := filepath.Join(tmpDir, "scan")
	if err := os.MkdirAll(scanDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(realDir, filepath.Join(scanDir, "alias")); err != nil {
		t.Fatal(err)
	}

	projects := NewScanner(nil).ScanAll([]string{scanDir})

	if len(projects) != 1 {
		t.Fatalf("expected 1 project, got %d", len(projects))
	}
	if projects[0].Name != "alias" {
		t.Errorf("Name = %q, want the link name %q", projects[0].Name, "alias")
	}
	resolved, _ := filepath.EvalSymlinks(realDir)
	if projects[0].Path != resolved {
		t.Errorf("Path = %q, want %q", projects[0].Path, resolved)
	}
}
