// pattern: Functional Core

package workspace

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"workbench/internal/process"
)

// CMake generators accepted by BuildOptions.
const (
	GeneratorMake  = "Unix Makefiles"
	GeneratorNinja = "Ninja"
)

// BuildOptions tune the build plan.
type BuildOptions struct {
	Generator string // CMake generator; empty means GeneratorMake
	Jobs      int    // Parallel jobs for non-Ninja generators; <= 0 omits the count
}

// BuildPlan is the ordered list of commands that builds a workspace.
type BuildPlan struct {
	System    BuildSystem
	EnsureDir string // Created before the first step when set
	Steps     []process.Command
}

// PlanBuild decides how to build the workspace without running anything.
//
// CMake projects are configured first when the effective build directory
// has no CMakeCache.txt, then built with "cmake --build". Build scripts run
// from the root. Everything else runs the preferred build command from the
// effective build directory.
func (w *Workspace) PlanBuild(opts BuildOptions) BuildPlan {
	system := w.DetectBuildSystem()
	buildDir := w.BuildDirectory()
	plan := BuildPlan{System: system}

	switch system {
	case CMake:
		generator := opts.Generator
		if generator == "" {
			generator = GeneratorMake
		}
		plan.EnsureDir = buildDir
		if !exists(filepath.Join(buildDir, "CMakeCache.txt")) {
			plan.Steps = append(plan.Steps, process.Command{
				Dir:  buildDir,
				Name: "cmake",
				Args: []string{"..", "-G", generator},
			})
		}
		args := []string{"--build", ".", "--parallel"}
		if generator != GeneratorNinja && opts.Jobs > 0 {
			args = append(args, strconv.Itoa(opts.Jobs))
		}
		plan.Steps = append(plan.Steps, process.Command{Dir: buildDir, Name: "cmake", Args: args})

	case Script:
		plan.Steps = append(plan.Steps, splitCommand(w.root, w.PreferredBuildCommand()))

	default:
		plan.EnsureDir = buildDir
		plan.Steps = append(plan.Steps, splitCommand(buildDir, w.PreferredBuildCommand()))
	}

	return plan
}

// RunPlan describes how to launch an executable.
type RunPlan struct {
	Command  process.Command
	Detached bool // Start without waiting; used for GUI programs
}

// PlanRun prepares exe to run from the workspace root with the effective
// build directory appended to PATH.
func (w *Workspace) PlanRun(exe Executable) RunPlan {
	path := w.BuildDirectory()
	if current := os.Getenv("PATH"); current != "" {
		path = current + string(os.PathListSeparator) + path
	}
	return RunPlan{
		Command: process.Command{
			Dir:  w.root,
			Name: exe.Path,
			Env:  []string{"PATH=" + path},
		},
		Detached: exe.IsGUI,
	}
}

func splitCommand(dir, cmdline string) process.Command {
	fields := strings.Fields(cmdline)
	return process.Command{Dir: dir, Name: fields[0], Args: fields[1:]}
}
