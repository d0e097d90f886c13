package llmreview

import (
	"testing"

	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
)

func TestDedupeCommentsDropsRestatements(t *testing.T) {
	comments := []scan.ReviewComment{
		{Path: "a.go", Line: 10, Comment: "The handle is never closed when the query fails."},
		{Path: "a.go", Line: 14, Comment: "The handle is never closed if the query fails."},
		{Path: "a.go", Line: 30, Comment: "Validate the request id before loading the diff."},
	}
	got := dedupeComments(comments)
	if len(got) != 2 {
		t.Fatalf("expected 2 comments, got %+v", got)
	}
	if got[0].Line != 10 || got[1].Line != 30 {
		t.Fatalf("expected first occurrence kept, got %+v", got)
	}
}

func TestDedupeCommentsKeepsOtherPaths(t *testing.T) {
	comments := []scan.ReviewComment{
		{Path: "a.go", Comment: "The handle is never closed when the query fails."},
		{Path: "b.go", Comment: "The handle is never closed when the query fails."},
	}
	got := dedupeComments(comments)
	if len(got) != 2 {
		t.Fatalf("expected both paths kept, got %+v", got)
	}
}

func TestDedupeCommentsSingleComment(t *testing.T) {
	comments := []scan.ReviewComment{{Path: "a.go", Comment: "Only one remark."}}
	got := dedupeComments(comments)
	if len(got) != 1 {
		t.Fatalf("expected passthrough, got %+v", got)
	}
}
