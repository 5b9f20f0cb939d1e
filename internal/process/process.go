// pattern: Imperative Shell

package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"workbench/internal/logging"
)

// Stream names passed to line callbacks.
const (
	Stdout = "stdout"
	Stderr = "stderr"
)

// Command describes one external program invocation.
type Command struct {
	Dir  string   // Working directory; empty means the current directory
	Name string   // Program name or path
	Args []string // Arguments, not including Name
	Env  []string // KEY=VALUE entries layered over the inherited environment
}

// String renders the command line for display and logging.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// MaxLineBytes caps a single streamed line.
const MaxLineBytes = 1024 * 1024

const streamWaitDelay = 2 * time.Second

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Command string
	Code    int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s: exit status %d", e.Command, e.Code)
}

// Runner executes commands on behalf of the workspace layer.
type Runner struct {
	logger *logging.ScopedLogger
	shell  string
}

// NewRunner creates a runner that logs to logger. A nil logger discards output.
func NewRunner(logger *logging.ScopedLogger) *Runner {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Runner{logger: logger, shell: "/bin/sh"}
}

// Output runs cmdline through the shell in dir, blocks until it exits, and
// returns everything written to stdout. Stderr is logged, not returned.
// A non-zero exit returns the captured stdout together with an *ExitError.
func (r *Runner) Output(ctx context.Context, dir, cmdline string) (string, error) {
	cmd := exec.CommandContext(ctx, r.shell, "-c", cmdline)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("running shell command", "command", cmdline, "dir", dir)

	err := cmd.Run()
	if stderr.Len() > 0 {
		r.logger.Debug("shell command stderr", "command", cmdline, "stderr", strings.TrimSpace(stderr.String()))
	}
	if err != nil {
		return stdout.String(), r.wrapError(cmdline, err)
	}
	return stdout.String(), nil
}

// Stream runs c and calls onLine for each line written to stdout or stderr.
// It blocks until the process exits. onLine may be nil, in which case lines
// are only logged. Lines longer than MaxLineBytes are truncated.
func (r *Runner) Stream(ctx context.Context, c Command, onLine func(stream, line string)) error {
	cmd := r.command(ctx, c)
	// Descendants that inherit the pipes must not keep Wait blocked once the
	// child has exited or ctx is done.
	cmd.WaitDelay = streamWaitDelay

	var mu sync.Mutex
	emit := func(stream, line string) {
		r.logger.Debug(line, "stream", stream, "process", c.Name)
		if onLine == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		onLine(stream, line)
	}

	stdout := &lineWriter{stream: Stdout, emit: emit}
	stderr := &lineWriter{stream: Stderr, emit: emit}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	r.logger.Info("starting process", "command", c.String(), "dir", c.Dir)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", c.Name, err)
	}

	err := cmd.Wait()
	stdout.flush()
	stderr.flush()
	if err != nil {
		err = r.wrapError(c.String(), err)
		r.logger.Warn("process failed", "command", c.String(), "error", err)
		return err
	}

	r.logger.Info("process exited cleanly", "command", c.String())
	return nil
}

// Attach runs c in the foreground with the given stdio and waits for it.
func (r *Runner) Attach(ctx context.Context, c Command, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := r.command(ctx, c)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	r.logger.Info("running attached process", "command", c.String(), "dir", c.Dir)

	if err := cmd.Run(); err != nil {
		return r.wrapError(c.String(), err)
	}
	return nil
}

// Start launches c without waiting for it and returns its pid. The child is
// released so it outlives this process.
func (r *Runner) Start(c Command) (int, error) {
	cmd := r.command(context.Background(), c)

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start %s: %w", c.Name, err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		r.logger.Warn("failed to release detached process", "pid", pid, "error", err)
	}

	r.logger.Info("started detached process", "command", c.String(), "pid", pid)
	return pid, nil
}

func (r *Runner) command(ctx context.Context, c Command) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	return cmd
}

func (r *Runner) wrapError(command string, err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Command: command, Code: exitErr.ExitCode()}
	}
	return fmt.Errorf("%s: %w", command, err)
}

// lineWriter splits whatever the child writes into lines. It always consumes
// its input, so a long line never stalls the child on a full pipe.
type lineWriter struct {
	stream string
	emit   func(stream, line string)
	buf    []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	n := len(p)
	for len(p) > 0 {
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			w.append(p)
			break
		}
		w.append(p[:i])
		w.emitLine()
		p = p[i+1:]
	}
	return n, nil
}

func (w *lineWriter) append(b []byte) {
	room := MaxLineBytes - len(w.buf)
	if len(b) > room {
		b = b[:room]
	}
	w.buf = append(w.buf, b...)
}

func (w *lineWriter) emitLine() {
	line := strings.TrimSuffix(string(w.buf), "\r")
	w.buf = w.buf[:0]
	w.emit(w.stream, line)
}

// flush emits a final line that had no trailing newline.
func (w *lineWriter) flush() {
	if len(w.buf) > 0 {
		w.emitLine()
	}
}
