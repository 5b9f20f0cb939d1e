// pattern: Functional Core

// Package report renders workspace information for the terminal.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"workbench/internal/gitops"
	"workbench/internal/workspace"
)

const labelWidth = 16

// Summary is everything the info view shows about one workspace.
type Summary struct {
	Name           string
	Path           string
	Exists         bool
	BuildSystem    string
	BuildCommand   string
	BuildDirectory string
	BuildScripts   []string
	Layout         workspace.Layout
	Executables    []workspace.Executable
	Main           string       // Name of the main executable, if any
	Git            *gitops.Info // nil when the workspace is not a repository
}

// Renderer formats output with a theme. A plain renderer emits no escape
// sequences.
type Renderer struct {
	styles *Styles
	plain  bool
}

// NewRenderer creates a renderer for the named catppuccin flavor.
func NewRenderer(theme string, plain bool) *Renderer {
	return &Renderer{styles: NewStyles(theme), plain: plain}
}

// Plain removes terminal styling from s.
func Plain(s string) string {
	return ansi.Strip(s)
}

func (r *Renderer) finish(s string) string {
	if r.plain {
		s = Plain(s)
	}
	return s
}

func (r *Renderer) row(label, value string) string {
	return r.styles.Label().Render(label) + r.styles.Value().Render(value)
}

// Summary renders the info view.
func (r *Renderer) Summary(s Summary) string {
	st := r.styles
	var rows []string

	title := st.Title().Render(s.Name)
	if !s.Exists {
		title += " " + st.Error().Render("(missing)")
	}
	rows = append(rows, title, st.Subtitle().Render(s.Path), "")

	rows = append(rows,
		r.row("Build system", s.BuildSystem),
		r.row("Build command", s.BuildCommand),
		r.row("Build dir", s.BuildDirectory),
	)
	if len(s.BuildScripts) > 0 {
		rows = append(rows, r.row("Build scripts", strings.Join(s.BuildScripts, ", ")))
	}

	rows = append(rows,
		r.row("CI workflows", yesNo(s.Layout.HasGitHubActions)),
		r.row("Scripts dir", yesNo(s.Layout.HasScripts)),
		r.row("Docs", s.Layout.Documentation),
	)

	main := s.Main
	if main == "" {
		main = st.Muted().Render("none")
	}
	rows = append(rows,
		r.row("Executables", fmt.Sprintf("%d", len(s.Executables))),
		r.row("Main", main),
	)

	if s.Git != nil {
		rows = append(rows, "")
		rows = append(rows, r.gitRows(*s.Git)...)
	} else {
		rows = append(rows, "", r.row("Git", st.Muted().Render("not a repository")))
	}

	return r.finish(st.Box().Render(lipgloss.JoinVertical(lipgloss.Left, rows...)))
}

func (r *Renderer) gitRows(info gitops.Info) []string {
	st := r.styles
	branch := info.Branch
	if branch == "" {
		branch = st.Warning().Render("detached")
	}
	remote := info.RemoteURL
	if remote == "" {
		remote = st.Muted().Render("none")
	}
	tag := info.LatestTag
	if tag == "" {
		tag = st.Muted().Render("none")
	}
	status := st.Success().Render("clean")
	if !info.Clean() {
		status = st.Warning().Render(fmt.Sprintf("%d changed", info.Changed))
	}
	return []string{
		r.row("Branch", branch),
		r.row("Remote", remote),
		r.row("Latest tag", tag),
		r.row("Status", status),
	}
}

// Git renders repository status on its own.
func (r *Renderer) Git(info gitops.Info) string {
	return r.finish(strings.Join(r.gitRows(info), "\n"))
}

// Executables renders one line per executable, marking the main one and
// GUI programs.
func (r *Renderer) Executables(exes []workspace.Executable, main string) string {
	st := r.styles
	if len(exes) == 0 {
		return r.finish(st.Muted().Render("No executables found. Has the project been built?"))
	}

	nameWidth := 0
	for _, exe := range exes {
		if w := ansi.StringWidth(exe.Name); w > nameWidth {
			nameWidth = w
		}
	}

	lines := make([]string, 0, len(exes))
	for _, exe := range exes {
		marker := "  "
		if exe.Name == main {
			marker = st.Accent().Render("* ")
		}
		name := exe.Name + strings.Repeat(" ", nameWidth-ansi.StringWidth(exe.Name))
		line := marker + st.Value().Render(name) + "  " + st.Muted().Render(exe.RelativePath)
		if exe.IsGUI {
			line += " " + st.Accent().Render("[GUI]")
		}
		lines = append(lines, line)
	}
	return r.finish(strings.Join(lines, "\n"))
}

// Entry is one registered workspace in the list view.
type Entry struct {
	Name    string
	Path    string
	Missing bool
}

// Registry renders "name  path" rows for the list command, flagging paths
// that no longer exist.
func (r *Renderer) Registry(entries []Entry) string {
	st := r.styles
	if len(entries) == 0 {
		return r.finish(st.Muted().Render("No workspaces registered. Use 'workbench add <name> <path>'."))
	}

	nameWidth := 0
	for _, e := range entries {
		if w := ansi.StringWidth(e.Name); w > nameWidth {
			nameWidth = w
		}
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		padded := e.Name + strings.Repeat(" ", nameWidth-ansi.StringWidth(e.Name))
		line := st.Title().Render(padded) + "  " + st.Value().Render(e.Path)
		if e.Missing {
			line += " " + st.Error().Render("(missing)")
		}
		lines = append(lines, line)
	}
	return r.finish(strings.Join(lines, "\n"))
}

// Candidate is one directory found by a scan.
type Candidate struct {
	Name        string
	Path        string
	BuildSystem string
	Registered  bool
}

// Candidates renders scan results.
func (r *Renderer) Candidates(found []Candidate) string {
	st := r.styles
	if len(found) == 0 {
		return r.finish(st.Muted().Render("No workspaces found."))
	}

	nameWidth := 0
	for _, c := range found {
		if w := ansi.StringWidth(c.Name); w > nameWidth {
			nameWidth = w
		}
	}

	lines := make([]string, 0, len(found))
	for _, c := range found {
		padded := c.Name + strings.Repeat(" ", nameWidth-ansi.StringWidth(c.Name))
		line := st.Title().Render(padded) + "  " + st.Value().Render(c.Path) +
			"  " + st.Muted().Render("["+c.BuildSystem+"]")
		if c.Registered {
			line += " " + st.Success().Render("(registered)")
		}
		lines = append(lines, line)
	}
	return r.finish(strings.Join(lines, "\n"))
}

// Success renders a confirmation message.
func (r *Renderer) Success(msg string) string {
	return r.finish(r.styles.Success().Render(msg))
}

// Step renders a progress line such as "Executing: make".
func (r *Renderer) Step(msg string) string {
	return r.finish(r.styles.Accent().Render("==> ") + r.styles.Value().Render(msg))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
