package llmreview

import (
	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
	"github.com/aidino/aicode-reviewer-sub001/internal/textsim"
)

// duplicateThreshold is the cosine similarity above which a later comment on
// the same file counts as a restatement of an earlier one.
const duplicateThreshold = 0.85

// dedupeComments drops comments that restate an earlier comment on the same
// path. Models frequently repeat one observation across adjacent lines with
// light rewording; the first occurrence wins.
func dedupeComments(comments []scan.ReviewComment) []scan.ReviewComment {
	if len(comments) < 2 {
		return comments
	}
	kept := make([]scan.ReviewComment, 0, len(comments))
	vectors := make([]*textsim.Vector, 0, len(comments))
	for _, comment := range comments {
		vector := textsim.NewVector(comment.Comment)
		duplicate := false
		for i, prior := range kept {
			if prior.Path != comment.Path {
				continue
			}
			if textsim.Cosine(vectors[i], vector) >= duplicateThreshold {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		kept = append(kept, comment)
		vectors = append(vectors, vector)
	}
	return kept
}
