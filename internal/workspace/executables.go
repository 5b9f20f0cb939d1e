// pattern: Imperative Shell

package workspace

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoExecutable is returned when a workspace has nothing to run.
var ErrNoExecutable = errors.New("no executable found (has the project been built?)")

// FindExecutables searches the build output directories for runnable
// programs. When none of them yields anything, the workspace root itself is
// checked one level deep. Results are recomputed on every call; unreadable
// directories are skipped.
func (w *Workspace) FindExecutables() []Executable {
	var found []Executable
	for _, dir := range w.searchRoots() {
		found = append(found, w.searchTree(dir)...)
	}
	if len(found) == 0 {
		found = w.searchRootLevel()
	}
	return found
}

// FindMainExecutable picks the executable most likely to be the project's
// main program: one named after the project directory, then one whose name
// contains a conventional entry-point word, then the first found.
func (w *Workspace) FindMainExecutable() (Executable, bool) {
	return pickMain(w.FindExecutables(), strings.ToLower(w.Name()))
}

// RunTarget returns the executable to launch: the only one found, or the main
// executable when there are several.
func (w *Workspace) RunTarget() (Executable, error) {
	exes := w.FindExecutables()
	switch len(exes) {
	case 0:
		return Executable{}, ErrNoExecutable
	case 1:
		return exes[0], nil
	}
	exe, _ := pickMain(exes, strings.ToLower(w.Name()))
	return exe, nil
}

func pickMain(exes []Executable, project string) (Executable, bool) {
	if len(exes) == 0 {
		return Executable{}, false
	}
	for _, exe := range exes {
		if strings.Contains(strings.ToLower(exe.Name), project) {
			return exe, true
		}
	}
	for _, hint := range mainNameHints {
		for _, exe := range exes {
			if strings.Contains(strings.ToLower(exe.Name), hint) {
				return exe, true
			}
		}
	}
	return exes[0], true
}

// searchRoots lists the directories to walk, effective build directory
// first. A directory is listed once even if several names resolve to it.
func (w *Workspace) searchRoots() []string {
	roots := []string{filepath.Clean(w.BuildDirectory())}
	seen := map[string]bool{resolveDir(roots[0]): true}
	for _, name := range extraSearchDirs {
		dir := filepath.Clean(filepath.Join(w.root, name))
		key := resolveDir(dir)
		if seen[key] {
			continue
		}
		seen[key] = true
		roots = append(roots, dir)
	}
	return roots
}

// resolveDir follows symlinks in dir, returning dir unchanged when it cannot
// be resolved.
func resolveDir(dir string) string {
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		return resolved
	}
	return dir
}

// searchTree walks dir to maxSearchDepth. Depth 0 is a direct child of dir.
// A symlinked dir is walked through its target; results keep paths under dir.
func (w *Workspace) searchTree(dir string) []Executable {
	if !isDir(dir) {
		return nil
	}
	walkRoot := resolveDir(dir)

	var found []Executable
	_ = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == walkRoot {
			return nil
		}

		rel, relErr := filepath.Rel(walkRoot, path)
		if relErr != nil {
			return nil
		}
		depth := strings.Count(rel, string(filepath.Separator))

		if d.IsDir() {
			if prunedDirs[d.Name()] || depth >= maxSearchDepth {
				return filepath.SkipDir
			}
			return nil
		}

		if exe, ok := w.classify(filepath.Join(dir, rel)); ok {
			found = append(found, exe)
		}
		return nil
	})
	return found
}

func (w *Workspace) searchRootLevel() []Executable {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return nil
	}

	var found []Executable
	for _, entry := range entries {
		if exe, ok := w.classify(filepath.Join(w.root, entry.Name())); ok {
			found = append(found, exe)
		}
	}
	return found
}

func (w *Workspace) classify(path string) (Executable, bool) {
	if !IsExecutable(path) {
		return Executable{}, false
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		rel = path
	}

	name := filepath.Base(path)
	return Executable{
		Name:         name,
		Path:         abs,
		RelativePath: rel,
		IsGUI:        LooksGraphical(name),
	}, true
}

// LooksGraphical guesses from its name whether a program opens a window.
func LooksGraphical(name string) bool {
	lower := strings.ToLower(name)
	for _, hint := range guiHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

// IsExecutable reports whether path is a runnable program rather than a
// script, a text file, a build tool or an intermediate artifact. Read
// failures count as "not executable".
func IsExecutable(path string) bool {
	c, err := newCandidate(path)
	if err != nil {
		return false
	}
	for _, rule := range executableRules {
		switch rule(c) {
		case accept:
			return true
		case reject:
			return false
		}
	}
	return true
}

type verdict int

const (
	next verdict = iota
	accept
	reject
)

// candidate carries what the executable rules inspect about one file.
type candidate struct {
	path   string
	name   string
	ext    string
	parent string
	info   os.FileInfo

	header    []byte
	headerErr error
	read      bool
}

// Bytes read from the start of an extensionless file.
const headerSize = 4096

var elfMagic = []byte{0x7f, 'E', 'L', 'F'}

func newCandidate(path string) (*candidate, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(path)
	ext := filepath.Ext(name)
	if ext == name {
		// Dotfiles have no extension.
		ext = ""
	}
	return &candidate{
		path:   path,
		name:   name,
		ext:    ext,
		parent: filepath.Base(filepath.Dir(path)),
		info:   info,
	}, nil
}

// prefix returns up to headerSize bytes from the start of the file.
func (c *candidate) prefix() ([]byte, error) {
	if c.read {
		return c.header, c.headerErr
	}
	c.read = true

	f, err := os.Open(c.path)
	if err != nil {
		c.headerErr = err
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, headerSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		c.headerErr = err
		return nil, err
	}
	c.header = buf[:n]
	return c.header, nil
}

// firstLine returns the file's first line without its newline. It reads past
// the header when the header holds no newline.
func (c *candidate) firstLine() (string, error) {
	header, err := c.prefix()
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(header, '\n'); i >= 0 {
		return string(header[:i]), nil
	}
	if len(header) < headerSize {
		return string(header), nil
	}

	f, err := os.Open(c.path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSuffix(line, "\n"), nil
}

// Rules run in order; the first accept or reject decides.
var executableRules = []func(*candidate) verdict{
	executableRegularFile,
	allowedExtension,
	notBuildTool,
	allowedParent,
	binaryContent,
}

func executableRegularFile(c *candidate) verdict {
	if !c.info.Mode().IsRegular() || c.info.Mode().Perm()&0o111 == 0 {
		return reject
	}
	return next
}

func allowedExtension(c *candidate) verdict {
	if excludedExtensions[c.ext] {
		return reject
	}
	return next
}

func notBuildTool(c *candidate) verdict {
	if excludedTools[c.name] {
		return reject
	}
	return next
}

func allowedParent(c *candidate) verdict {
	if excludedParents[c.parent] {
		return reject
	}
	return next
}

// binaryContent applies only to files without an extension: they must be
// large enough to be a compiled program and must not look like source.
func binaryContent(c *candidate) verdict {
	if c.ext != "" {
		return next
	}
	if c.info.Size() < minBinarySize {
		return reject
	}

	header, err := c.prefix()
	if err != nil || len(header) < len(elfMagic) {
		return reject
	}
	if bytes.HasPrefix(header, elfMagic) {
		return accept
	}
	if bytes.HasPrefix(header, []byte("#!")) {
		return reject
	}

	line, err := c.firstLine()
	if err != nil || looksLikeSource(line) {
		return reject
	}
	return next
}

func looksLikeSource(line string) bool {
	for _, prefix := range []string{"#!/", "<?", "//", "/*"} {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return strings.Contains(line, "#include")
}
