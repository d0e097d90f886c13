// Package gitcli wraps the git binary for repository access. All operations
// shell out; the fetch stage injects this client so tests can substitute a
// canned implementation.
package gitcli

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

var commandContext = exec.CommandContext

// Git runs git subcommands against local checkouts and remotes.
type Git struct {
	binary string
}

// New constructs a client for the given git executable. An empty binary
// falls back to "git" on PATH.
func New(binary string) *Git {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "git"
	}
	return &Git{binary: binary}
}

// Binary returns the configured git executable.
func (g *Git) Binary() string { return g.binary }

// Version reports the git version string, used by dependency checks.
func (g *Git) Version(ctx context.Context) (string, error) {
	return g.run(ctx, "", "--version")
}

// Clone clones src into dst. Works for remotes and local paths alike.
func (g *Git) Clone(ctx context.Context, src, dst string) error {
	_, err := g.run(ctx, "", "clone", "--quiet", src, dst)
	return err
}

// Checkout switches the working tree in dir to the given ref.
func (g *Git) Checkout(ctx context.Context, dir, ref string) error {
	_, err := g.run(ctx, dir, "checkout", "--quiet", ref)
	return err
}

// HeadCommit resolves the commit hash the working tree in dir points at.
func (g *Git) HeadCommit(ctx context.Context, dir string) (string, error) {
	return g.run(ctx, dir, "rev-parse", "HEAD")
}

// DiffNameStatus lists changed files between base and head in name-status
// form (one "X\tpath" line per file, merge-base semantics).
func (g *Git) DiffNameStatus(ctx context.Context, dir, base, head string) (string, error) {
	return g.run(ctx, dir, "diff", "--name-status", diffRange(base, head))
}

// DiffUnified produces a zero-context unified diff between base and head so
// hunk headers describe exactly the changed lines.
func (g *Git) DiffUnified(ctx context.Context, dir, base, head string) (string, error) {
	return g.run(ctx, dir, "diff", "--unified=0", diffRange(base, head))
}

func diffRange(base, head string) string {
	base = strings.TrimSpace(base)
	head = strings.TrimSpace(head)
	if head == "" {
		head = "HEAD"
	}
	return base + "..." + head
}

func (g *Git) run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := commandContext(ctx, g.binary, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = strings.TrimSpace(stdout.String())
		}
		if detail != "" {
			return "", fmt.Errorf("git %s: %w: %s", args[0], err, detail)
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return strings.TrimRight(stdout.String(), "\n"), nil
}
