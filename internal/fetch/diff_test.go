package fetch

import (
	"strings"
	"testing"
)

func TestParseNameStatusHandlesRenames(t *testing.T) {
	out := strings.Join([]string{
		"M\tinternal/queue/store.go",
		"A\tinternal/api/server.go",
		"D\tlegacy/handler.go",
		"R087\told/name.go\tnew/name.go",
		"",
	}, "\n")

	files := parseNameStatus(out)
	if len(files) != 4 {
		t.Fatalf("expected 4 files, got %d: %+v", len(files), files)
	}
	wantKinds := map[string]string{
		"internal/queue/store.go": "modified",
		"internal/api/server.go":  "added",
		"legacy/handler.go":       "deleted",
		"new/name.go":             "renamed",
	}
	for _, file := range files {
		want, ok := wantKinds[file.Path]
		if !ok {
			t.Fatalf("unexpected path %q", file.Path)
		}
		if file.ChangeKind != want {
			t.Fatalf("path %s: expected kind %s, got %s", file.Path, want, file.ChangeKind)
		}
	}
}

func TestParseNameStatusSkipsMalformedLines(t *testing.T) {
	files := parseNameStatus("warning: CRLF will be replaced\nM\tmain.go\n\n")
	if len(files) != 1 || files[0].Path != "main.go" {
		t.Fatalf("expected only main.go, got %+v", files)
	}
}

func TestParseUnifiedDiffCountsLinesAndHunks(t *testing.T) {
	out := strings.Join([]string{
		"diff --git a/pkg/math.go b/pkg/math.go",
		"index 1111111..2222222 100644",
		"--- a/pkg/math.go",
		"+++ b/pkg/math.go",
		"@@ -10,0 +11,2 @@ func Add(a, b int) int {",
		"+\tif a == 0 {",
		"+\t\treturn b",
		"@@ -30,1 +32 @@",
		"-\treturn a - b",
		"+\treturn a + b",
		"diff --git a/legacy/handler.go b/legacy/handler.go",
		"--- a/legacy/handler.go",
		"+++ /dev/null",
		"@@ -1,3 +0,0 @@",
		"-package legacy",
		"-",
		"-func Handle() {}",
		"",
	}, "\n")

	deltas := parseUnifiedDiff(out)

	math, ok := deltas["pkg/math.go"]
	if !ok {
		t.Fatalf("missing pkg/math.go delta: %v", deltas)
	}
	if math.additions != 3 || math.deletions != 1 {
		t.Fatalf("expected 3 additions and 1 deletion, got %+v", math)
	}
	if len(math.hunks) != 2 {
		t.Fatalf("expected 2 hunks, got %+v", math.hunks)
	}
	if math.hunks[0].StartLine != 11 || math.hunks[0].LineCount != 2 {
		t.Fatalf("unexpected first hunk %+v", math.hunks[0])
	}
	if math.hunks[1].StartLine != 32 || math.hunks[1].LineCount != 1 {
		t.Fatalf("unexpected second hunk %+v", math.hunks[1])
	}

	legacy, ok := deltas["legacy/handler.go"]
	if !ok {
		t.Fatalf("missing deleted file delta: %v", deltas)
	}
	if legacy.deletions != 3 || legacy.additions != 0 {
		t.Fatalf("expected 3 deletions, got %+v", legacy)
	}
	if len(legacy.hunks) != 0 {
		t.Fatalf("deleted file should carry no post-change hunks, got %+v", legacy.hunks)
	}
}

func TestMergeDiffAttachesDeltas(t *testing.T) {
	files := parseNameStatus("M\tpkg/math.go\nA\tcmd/main.go\n")
	deltas := parseUnifiedDiff(strings.Join([]string{
		"--- a/pkg/math.go",
		"+++ b/pkg/math.go",
		"@@ -1,1 +1,1 @@",
		"-package maths",
		"+package math",
		"",
	}, "\n"))

	merged := mergeDiff(files, deltas)
	if merged[0].Additions != 1 || merged[0].Deletions != 1 || len(merged[0].Hunks) != 1 {
		t.Fatalf("expected delta attached to pkg/math.go, got %+v", merged[0])
	}
	if merged[1].Additions != 0 || len(merged[1].Hunks) != 0 {
		t.Fatalf("expected cmd/main.go untouched, got %+v", merged[1])
	}
}

func TestIsRemoteRepository(t *testing.T) {
	remotes := []string{
		"https://github.com/example/demo.git",
		"ssh://git@github.com/example/demo.git",
		"git@github.com:example/demo.git",
	}
	for _, repo := range remotes {
		if !isRemoteRepository(repo) {
			t.Fatalf("expected %q to be remote", repo)
		}
	}
	locals := []string{"/srv/repos/demo", "./demo", "demo"}
	for _, repo := range locals {
		if isRemoteRepository(repo) {
			t.Fatalf("expected %q to be local", repo)
		}
	}
}
