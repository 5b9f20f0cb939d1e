package process

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"workbench/internal/logging"
)

func testLogger(t *testing.T) *logging.ScopedLogger {
	t.Helper()
	lm := logging.NewTestLogManager(100)
	t.Cleanup(func() { _ = lm.Close() })
	return lm.For("test")
}

func TestCommand_String(t *testing.T) {
	c := Command{Name: "cmake", Args: []string{"--build", "."}}
	if got := c.String(); got != "cmake --build ." {
		t.Errorf("String() = %q, want %q", got, "cmake --build .")
	}

	bare := Command{Name: "make"}
	if got := bare.String(); got != "make" {
		t.Errorf("String() = %q, want %q", got, "make")
	}
}

func TestRunner_Output_CapturesStdout(t *testing.T) {
	r := NewRunner(testLogger(t))

	out, err := r.Output(context.Background(), "", "echo hello; echo ignored >&2")
	if err != nil {
		t.Fatalf("Output() error = %v", err)
	}
	if out != "hello\n" {
		t.Errorf("Output() = %q, want %q", out, "hello\n")
	}
}

func TestRunner_Output_RunsInDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "marker"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	r := NewRunner(nil)
	out, err := r.Output(context.Background(), dir, "ls")
	if err != nil {
		t.Fatalf("Output() error = %v", err)
	}
	if !strings.Contains(out, "marker") {
		t.Errorf("Output() = %q, expected it to list marker", out)
	}
}

func TestRunner_Output_NonZeroExit(t *testing.T) {
	r := NewRunner(testLogger(t))

	out, err := r.Output(context.Background(), "", "echo partial; exit 3")
	if err == nil {
		t.Fatal("Output() expected error for exit 3")
	}
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Output() error = %T, want *ExitError", err)
	}
	if exitErr.Code != 3 {
		t.Errorf("ExitError.Code = %d, want 3", exitErr.Code)
	}
	if out != "partial\n" {
		t.Errorf("Output() = %q, want stdout preserved on failure", out)
	}
}

func TestRunner_Stream_DeliversBothStreams(t *testing.T) {
	r := NewRunner(testLogger(t))

	var lines []string
	err := r.Stream(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo out; echo err >&2"},
	}, func(stream, line string) {
		lines = append(lines, stream+":"+line)
	})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	joined := strings.Join(lines, ",")
	if !strings.Contains(joined, "stdout:out") || !strings.Contains(joined, "stderr:err") {
		t.Errorf("Stream() lines = %v, want both streams", lines)
	}
}

func TestRunner_Stream_TruncatesOverlongLine(t *testing.T) {
	r := NewRunner(testLogger(t))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var lines []string
	err := r.Stream(ctx, Command{
		Name: "sh",
		Args: []string{"-c", "head -c 2000000 /dev/zero | tr '\\0' x; echo; echo done"},
	}, func(stream, line string) {
		if stream == Stdout {
			lines = append(lines, line)
		}
	})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("Stream() delivered %d lines, want 2", len(lines))
	}
	if len(lines[0]) != MaxLineBytes {
		t.Errorf("first line length = %d, want %d", len(lines[0]), MaxLineBytes)
	}
	if lines[1] != "done" {
		t.Errorf("second line = %q, want %q", lines[1], "done")
	}
}

func TestRunner_Stream_DescendantHoldingPipe(t *testing.T) {
	r := NewRunner(testLogger(t))

	var lines []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Stream(context.Background(), Command{
			Name: "sh",
			Args: []string{"-c", "sleep 30 & echo started"},
		}, func(stream, line string) {
			lines = append(lines, line)
		})
	}()

	select {
	case <-done:
	case <-time.After(15 * time.Second):
		t.Fatal("Stream() did not return while a descendant held the pipe")
	}
	if len(lines) != 1 || lines[0] != "started" {
		t.Errorf("Stream() lines = %v, want [started]", lines)
	}
}

func TestLineWriter_SplitsWrites(t *testing.T) {
	var lines []string
	w := &lineWriter{stream: Stdout, emit: func(_, line string) { lines = append(lines, line) }}

	_, _ = w.Write([]byte("one\r\ntw"))
	_, _ = w.Write([]byte("o\nthree"))
	w.flush()

	want := []string{"one", "two", "three"}
	if strings.Join(lines, ",") != strings.Join(want, ",") {
		t.Errorf("lines = %q, want %q", lines, want)
	}
}

func TestRunner_Stream_AppliesEnv(t *testing.T) {
	r := NewRunner(testLogger(t))

	var got string
	err := r.Stream(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo $WORKBENCH_TEST"},
		Env:  []string{"WORKBENCH_TEST=value"},
	}, func(stream, line string) {
		if stream == Stdout {
			got = line
		}
	})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	if got != "value" {
		t.Errorf("env var = %q, want %q", got, "value")
	}
}

func TestRunner_Stream_MissingBinary(t *testing.T) {
	r := NewRunner(testLogger(t))

	err := r.Stream(context.Background(), Command{Name: "definitely-not-a-real-binary-xyz"}, nil)
	if err == nil {
		t.Fatal("Stream() expected error for missing binary")
	}
}

func TestRunner_Attach_WiresStdio(t *testing.T) {
	r := NewRunner(testLogger(t))

	var stdout bytes.Buffer
	err := r.Attach(context.Background(), Command{Name: "cat"}, strings.NewReader("piped"), &stdout, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if stdout.String() != "piped" {
		t.Errorf("stdout = %q, want %q", stdout.String(), "piped")
	}
}

func TestRunner_Start_Detaches(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "started")

	r := NewRunner(testLogger(t))
	pid, err := r.Start(Command{Name: "sh", Args: []string{"-c", "touch " + marker}})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if pid <= 0 {
		t.Errorf("Start() pid = %d, want positive", pid)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(marker); err == nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Error("detached process never created its marker file")
}

func TestQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "''"},
		{"origin", "origin"},
		{"feature/x-1.2", "feature/x-1.2"},
		{"two words", "'two words'"},
		{"it's", `'it'\''s'`},
		{"$(rm -rf /)", "'$(rm -rf /)'"},
	}
	for _, tt := range tests {
		if got := Quote(tt.in); got != tt.want {
			t.Errorf("Quote(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestQuote_RoundTripsThroughShell(t *testing.T) {
	r := NewRunner(nil)
	in := `a 'quoted' "value" $HOME`
	out, err := r.Output(context.Background(), "", "printf %s "+Quote(in))
	if err != nil {
		t.Fatalf("Output() error = %v", err)
	}
	if out != in {
		t.Errorf("shell saw %q, want %q", out, in)
	}
}
