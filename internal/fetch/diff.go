package fetch

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
)

// fileDelta accumulates the hunks and line counts parsed from a unified diff
// for one file, keyed by post-change path.
type fileDelta struct {
	hunks     []scan.Hunk
	additions int
	deletions int
}

var hunkHeaderPattern = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,(\d+))? @@`)

// parseNameStatus converts `git diff --name-status` output into DiffFile
// records. Rename and copy lines carry two paths; the post-change path wins.
func parseNameStatus(out string) []scan.DiffFile {
	var files []scan.DiffFile
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 2 {
			continue
		}
		status := strings.TrimSpace(parts[0])
		path := strings.TrimSpace(parts[len(parts)-1])
		if status == "" || path == "" {
			continue
		}
		files = append(files, scan.DiffFile{Path: path, ChangeKind: changeKind(status)})
	}
	return files
}

func changeKind(status string) string {
	switch status[0] {
	case 'A':
		return "added"
	case 'D':
		return "deleted"
	case 'M':
		return "modified"
	case 'R':
		return "renamed"
	case 'C':
		return "copied"
	case 'T':
		return "type_changed"
	default:
		return "modified"
	}
}

// parseUnifiedDiff extracts per-file hunks and added/removed line counts from
// `git diff --unified=0` output. With zero context lines every hunk header
// describes exactly the changed region, so hunk start/count map directly onto
// post-change line ranges.
func parseUnifiedDiff(out string) map[string]*fileDelta {
	deltas := make(map[string]*fileDelta)
	var current *fileDelta
	var oldPath string

	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.HasPrefix(line, "--- "):
			oldPath = diffPath(strings.TrimPrefix(line, "--- "), "a/")
		case strings.HasPrefix(line, "+++ "):
			path := diffPath(strings.TrimPrefix(line, "+++ "), "b/")
			if path == "" {
				// Deletion: the post-image is /dev/null, so line counts
				// accumulate under the pre-change path name-status reports.
				path = oldPath
			}
			if path == "" {
				current = nil
				continue
			}
			current = &fileDelta{}
			deltas[path] = current
		case strings.HasPrefix(line, "@@"):
			if current == nil {
				continue
			}
			match := hunkHeaderPattern.FindStringSubmatch(line)
			if match == nil {
				continue
			}
			start, _ := strconv.Atoi(match[1])
			count := 1
			if match[2] != "" {
				count, _ = strconv.Atoi(match[2])
			}
			if count > 0 {
				current.hunks = append(current.hunks, scan.Hunk{StartLine: start, LineCount: count})
			}
		case strings.HasPrefix(line, "+"):
			if current != nil {
				current.additions++
			}
		case strings.HasPrefix(line, "-"):
			if current != nil {
				current.deletions++
			}
		}
	}
	return deltas
}

// diffPath strips the diff prefix from a `---`/`+++` header path and maps
// /dev/null to empty.
func diffPath(raw, prefix string) string {
	path := strings.TrimSpace(strings.TrimRight(raw, "\t"))
	if path == "/dev/null" {
		return ""
	}
	return strings.TrimPrefix(path, prefix)
}

// mergeDiff attaches hunks and line counts onto the name-status file list.
func mergeDiff(files []scan.DiffFile, deltas map[string]*fileDelta) []scan.DiffFile {
	for i := range files {
		delta, ok := deltas[files[i].Path]
		if !ok {
			continue
		}
		files[i].Hunks = delta.hunks
		files[i].Additions = delta.additions
		files[i].Deletions = delta.deletions
	}
	return files
}
