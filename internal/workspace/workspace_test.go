package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, nil, 0644))
}

func mkdir(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(path, 0755))
}

func TestDetectBuildSystem_Markers(t *testing.T) {
	tests := []struct {
		name    string
		markers []string
		want    BuildSystem
		display string
	}{
		{"cmake", []string{"CMakeLists.txt"}, CMake, "CMake"},
		{"makefile", []string{"Makefile"}, Makefile, "Makefile"},
		{"lowercase makefile", []string{"makefile"}, Makefile, "Makefile"},
		{"ninja", []string{"build.ninja"}, Ninja, "Ninja"},
		{"configure", []string{"configure"}, AutoTools, "AutoTools"},
		{"configure.ac", []string{"configure.ac"}, AutoTools, "AutoTools"},
		{"automake", []string{"Makefile.am"}, AutoTools, "AutoTools"},
		{"script", []string{"build.py"}, Script, "Build Script"},
		{"nothing", nil, None, "None"},
		{"cmake wins over makefile", []string{"Makefile", "CMakeLists.txt"}, CMake, "CMake"},
		{"makefile wins over configure", []string{"configure", "Makefile"}, Makefile, "Makefile"},
		{"ninja wins over script", []string{"build.sh", "build.ninja"}, Ninja, "Ninja"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			for _, m := range tt.markers {
				touch(t, filepath.Join(root, m))
			}
			w := New(root)
			assert.Equal(t, tt.want, w.DetectBuildSystem())
			assert.Equal(t, tt.display, w.BuildSystemName())
		})
	}
}

func TestDetectBuildSystem_CachedAfterFirstCall(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "CMakeLists.txt"))
	w := New(root)

	require.Equal(t, CMake, w.DetectBuildSystem())

	require.NoError(t, os.Remove(filepath.Join(root, "CMakeLists.txt")))
	touch(t, filepath.Join(root, "Makefile"))

	assert.Equal(t, CMake, w.DetectBuildSystem())
	assert.Equal(t, "cmake --build .", w.PreferredBuildCommand())

	// A fresh Workspace sees the new state
	assert.Equal(t, Makefile, New(root).DetectBuildSystem())
}

func TestDetectBuildSystem_EmptyUntilDetected(t *testing.T) {
	root := t.TempDir()
	w := New(root)
	assert.Equal(t, None, w.DetectBuildSystem())

	touch(t, filepath.Join(root, "CMakeLists.txt"))
	assert.Equal(t, None, w.DetectBuildSystem(), "None is cached too")
}

func TestBuildScripts_FixedOrder(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"install.sh", "build.js", "compile.sh", "build.sh", "unrelated.sh"} {
		touch(t, filepath.Join(root, name))
	}

	w := New(root)
	assert.Equal(t, []string{"build.sh", "build.js", "compile.sh", "install.sh"}, w.BuildScripts())
}

func TestBuildScripts_IndependentOfBuildSystem(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "CMakeLists.txt"))
	touch(t, filepath.Join(root, "make.sh"))

	w := New(root)
	assert.Equal(t, CMake, w.DetectBuildSystem())
	assert.Equal(t, []string{"make.sh"}, w.BuildScripts())
}

func TestBuildScripts_None(t *testing.T) {
	assert.Empty(t, New(t.TempDir()).BuildScripts())
}

func TestBuildDirectory_DefaultWhenMissing(t *testing.T) {
	root := t.TempDir()
	w := New(root)

	assert.Equal(t, filepath.Join(root, "build"), w.BuildDirectory())
	assert.NoDirExists(t, filepath.Join(root, "build"))
}

func TestBuildDirectory_Priority(t *testing.T) {
	root := t.TempDir()
	mkdir(t, filepath.Join(root, "bin"))
	mkdir(t, filepath.Join(root, "build"))
	mkdir(t, filepath.Join(root, "dist"))

	w := New(root)
	assert.Equal(t, filepath.Join(root, "build"), w.BuildDirectory())
}

func TestBuildDirectory_FirstExistingCandidate(t *testing.T) {
	root := t.TempDir()
	mkdir(t, filepath.Join(root, "target"))
	mkdir(t, filepath.Join(root, "cmake-build-debug"))

	w := New(root)
	assert.Equal(t, filepath.Join(root, "cmake-build-debug"), w.BuildDirectory())
}

func TestBuildDirectory_IgnoresFiles(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "build"))
	mkdir(t, filepath.Join(root, "out"))

	w := New(root)
	assert.Equal(t, filepath.Join(root, "out"), w.BuildDirectory())
}

func TestBuildDirectory_DistinctFromDefault(t *testing.T) {
	root := t.TempDir()
	mkdir(t, filepath.Join(root, "out"))

	w := New(root)
	assert.Equal(t, filepath.Join(root, "out"), w.BuildDirectory())
	assert.Equal(t, filepath.Join(root, "build"), w.DefaultBuildDir())
}

func TestPreferredBuildCommand(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  string
	}{
		{"cmake", []string{"CMakeLists.txt"}, "cmake --build ."},
		{"makefile", []string{"Makefile"}, "make"},
		{"ninja", []string{"build.ninja"}, "ninja"},
		{"autotools", []string{"configure.ac"}, "make"},
		{"shell script", []string{"build.sh"}, "bash build.sh"},
		{"python script", []string{"build.py"}, "python build.py"},
		{"node script", []string{"build.js"}, "./build.js"},
		{"shell beats python", []string{"build.py", "build.sh"}, "bash build.sh"},
		{"none", nil, "make"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			for _, f := range tt.files {
				touch(t, filepath.Join(root, f))
			}
			assert.Equal(t, tt.want, New(root).PreferredBuildCommand())
		})
	}
}

func TestPreferredBuildCommand_ScriptRemovedAfterDetection(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "build.sh"))
	w := New(root)
	require.Equal(t, Script, w.DetectBuildSystem())

	require.NoError(t, os.Remove(filepath.Join(root, "build.sh")))
	assert.Equal(t, "make", w.PreferredBuildCommand())
}

func TestExists(t *testing.T) {
	root := t.TempDir()
	assert.True(t, New(root).Exists())
	assert.False(t, New(filepath.Join(root, "missing")).Exists())
}

func TestPathAndName(t *testing.T) {
	w := New("/home/dev/projects/myapp/")
	assert.Equal(t, "/home/dev/projects/myapp/", w.Path())
	assert.Equal(t, "myapp", w.Name())
}

func TestLayout(t *testing.T) {
	root := t.TempDir()
	w := New(root)

	l := w.Layout()
	assert.False(t, l.HasGitHubActions)
	assert.False(t, l.HasScripts)
	assert.Equal(t, "None", l.Documentation)

	touch(t, filepath.Join(root, "README.md"))
	assert.Equal(t, "README.md", w.Layout().Documentation)

	mkdir(t, filepath.Join(root, "docs"))
	mkdir(t, filepath.Join(root, "scripts"))
	mkdir(t, filepath.Join(root, ".github", "workflows"))

	l = w.Layout()
	assert.True(t, l.HasGitHubActions)
	assert.True(t, l.HasScripts)
	assert.Equal(t, "docs/ directory", l.Documentation)
}

func TestFindMakefile(t *testing.T) {
	root := t.TempDir()
	w := New(root)

	_, ok := w.FindMakefile()
	assert.False(t, ok)

	touch(t, filepath.Join(root, "build", "Makefile"))
	path, ok := w.FindMakefile()
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "build", "Makefile"), path)

	touch(t, filepath.Join(root, "GNUmakefile"))
	path, ok = w.FindMakefile()
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "GNUmakefile"), path, "root is checked before the build directory")
}
