// pattern: Functional Core

package workspace

// BuildSystem identifies the tool or convention that builds a workspace.
type BuildSystem int

const (
	None BuildSystem = iota
	CMake
	Makefile
	Ninja
	AutoTools
	Script
)

// String returns the display name of the build system.
func (b BuildSystem) String() string {
	switch b {
	case CMake:
		return "CMake"
	case Makefile:
		return "Makefile"
	case Ninja:
		return "Ninja"
	case AutoTools:
		return "AutoTools"
	case Script:
		return "Build Script"
	default:
		return "None"
	}
}

// Executable is a runnable artifact found inside a workspace.
type Executable struct {
	Name         string // Base name of the file
	Path         string // Absolute path
	RelativePath string // Path relative to the workspace root
	IsGUI        bool   // Best-effort guess from the file name
}

// Marker files checked at the workspace root, in detection priority order.
var detectionRules = []struct {
	kind    BuildSystem
	markers []string
}{
	{CMake, []string{"CMakeLists.txt"}},
	{Makefile, []string{"Makefile", "makefile"}},
	{Ninja, []string{"build.ninja"}},
	{AutoTools, []string{"configure", "configure.ac", "Makefile.am"}},
	{Script, []string{"build.sh", "build.py", "build.js"}},
}

var buildScriptNames = []string{
	"build.sh", "build.py", "build.js", "build.bat", "compile.sh", "make.sh", "install.sh",
}

var buildDirNames = []string{
	"build", "Build", "BUILD", "_build",
	"cmake-build", "cmake-build-debug", "cmake-build-release",
	"out", "bin", "target", "dist",
}

// Searched after the effective build directory.
var extraSearchDirs = []string{"bin", "out", "target", "Release", "Debug"}

// Directories never descended into while searching for executables.
var prunedDirs = setOf(
	"CMakeFiles", ".git", "node_modules", "__pycache__", ".cache", "tmp", "temp", "obj", "libs",
)

// A file whose immediate parent has one of these names is never executable.
var excludedParents = setOf(
	"CMakeFiles", ".git", "node_modules", "__pycache__", ".cache", "tmp", "temp",
)

var excludedExtensions = setOf(
	".sh", ".py", ".js", ".pl", ".rb", ".lua", ".txt", ".md", ".json", ".xml", ".yml", ".yaml",
)

var excludedTools = setOf(
	"make", "cmake", "ninja", "gcc", "g++", "clang", "clang++",
	"git", "svn", "tar", "zip", "unzip", "wget", "curl",
	"ls", "cp", "mv", "rm", "mkdir", "cat", "grep", "sed", "awk",
	"python", "python3", "node", "npm", "yarn",
	"configure", "config", "install", "setup",
)

var guiHints = []string{"gui", "window", "qt", "gtk", "ui", "editor", "viewer", "browser"}

var mainNameHints = []string{"main", "app", "application", "run", "start"}

const (
	maxSearchDepth  = 3
	minBinarySize   = 1024
	defaultBuildDir = "build"
)

func setOf(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, item := range items {
		m[item] = true
	}
	return m
}
