// pattern: Imperative Shell

package workspace

import "path/filepath"

// Layout describes conventional project files around the build.
type Layout struct {
	HasGitHubActions bool
	HasScripts       bool
	Documentation    string // "docs/ directory", "README.md" or "None"
}

// Layout inspects the root for CI workflows, a scripts directory and
// documentation.
func (w *Workspace) Layout() Layout {
	l := Layout{
		HasGitHubActions: isDir(filepath.Join(w.root, ".github", "workflows")),
		HasScripts:       isDir(filepath.Join(w.root, "scripts")),
		Documentation:    "None",
	}
	switch {
	case isDir(filepath.Join(w.root, "docs")):
		l.Documentation = "docs/ directory"
	case exists(filepath.Join(w.root, "README.md")):
		l.Documentation = "README.md"
	}
	return l
}

var makefileNames = []string{"Makefile", "makefile", "GNUmakefile"}

// FindMakefile returns the path of the first makefile at the root, then in
// the effective build directory.
func (w *Workspace) FindMakefile() (string, bool) {
	for _, dir := range []string{w.root, w.BuildDirectory()} {
		for _, name := range makefileNames {
			path := filepath.Join(dir, name)
			if exists(path) {
				return path, true
			}
		}
	}
	return "", false
}
