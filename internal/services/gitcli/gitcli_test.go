package gitcli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
)

func captureCommands(t *testing.T, mode string) *[][]string {
	t.Helper()

	// run() sets cmd.Dir to the repo path the tests pass in, and the stubbed
	// helper process cannot start unless that directory exists.
	if err := os.Mkdir("/tmp/demo", 0o755); err == nil {
		t.Cleanup(func() { os.Remove("/tmp/demo") })
	}

	var captured [][]string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		captured = append(captured, append([]string{name}, args...))
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "GIT_HELPER_MODE="+mode)
		return cmd
	}
	t.Cleanup(func() { commandContext = original })
	return &captured
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	switch os.Getenv("GIT_HELPER_MODE") {
	case "version":
		fmt.Println("git version 2.43.0")
	case "head":
		fmt.Println("0123456789abcdef0123456789abcdef01234567")
	case "fail":
		fmt.Fprintln(os.Stderr, "fatal: repository not found")
		os.Exit(128)
	}
	os.Exit(0)
}

func TestNewDefaultsToGit(t *testing.T) {
	if got := New("").Binary(); got != "git" {
		t.Fatalf("expected git, got %q", got)
	}
	if got := New("/usr/local/bin/git").Binary(); got != "/usr/local/bin/git" {
		t.Fatalf("expected override, got %q", got)
	}
}

func TestVersion(t *testing.T) {
	captureCommands(t, "version")

	out, err := New("git").Version(context.Background())
	if err != nil {
		t.Fatalf("Version returned error: %v", err)
	}
	if !strings.HasPrefix(out, "git version") {
		t.Fatalf("unexpected version output %q", out)
	}
}

func TestCloneArguments(t *testing.T) {
	captured := captureCommands(t, "ok")

	if err := New("git").Clone(context.Background(), "https://example.com/demo.git", "/tmp/demo"); err != nil {
		t.Fatalf("Clone returned error: %v", err)
	}
	want := []string{"git", "clone", "--quiet", "https://example.com/demo.git", "/tmp/demo"}
	if len(*captured) != 1 {
		t.Fatalf("expected one command, got %d", len(*captured))
	}
	got := (*captured)[0]
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("arg %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestHeadCommitTrimsOutput(t *testing.T) {
	captureCommands(t, "head")

	commit, err := New("git").HeadCommit(context.Background(), "/tmp/demo")
	if err != nil {
		t.Fatalf("HeadCommit returned error: %v", err)
	}
	if len(commit) != 40 || strings.ContainsAny(commit, "\r\n") {
		t.Fatalf("unexpected commit %q", commit)
	}
}

func TestDiffRangeDefaultsHead(t *testing.T) {
	captured := captureCommands(t, "ok")

	if _, err := New("git").DiffNameStatus(context.Background(), "/tmp/demo", "main", ""); err != nil {
		t.Fatalf("DiffNameStatus returned error: %v", err)
	}
	if _, err := New("git").DiffUnified(context.Background(), "/tmp/demo", "main", "feature"); err != nil {
		t.Fatalf("DiffUnified returned error: %v", err)
	}

	first := (*captured)[0]
	if first[len(first)-1] != "main...HEAD" {
		t.Fatalf("expected merge-base range, got %v", first)
	}
	second := (*captured)[1]
	if second[len(second)-1] != "main...feature" {
		t.Fatalf("expected explicit head range, got %v", second)
	}
	if second[len(second)-2] != "--unified=0" {
		t.Fatalf("expected zero-context diff, got %v", second)
	}
}

func TestRunSurfacesStderr(t *testing.T) {
	captureCommands(t, "fail")

	err := New("git").Clone(context.Background(), "https://example.com/gone.git", "/tmp/gone")
	if err == nil {
		t.Fatal("expected clone to fail")
	}
	if !strings.Contains(err.Error(), "repository not found") {
		t.Fatalf("expected stderr detail in error, got %v", err)
	}
}
