package parse

import (
	"regexp"

	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
)

type symbolPattern struct {
	kind    string
	pattern *regexp.Regexp
}

// symbolPatterns holds per-language declaration matchers. Matching is
// line-wise: the first pattern that hits a line wins, so method patterns are
// listed before the plain function forms they would otherwise shadow.
var symbolPatterns = map[string][]symbolPattern{
	"go": {
		{"method", regexp.MustCompile(`^func\s+\([^)]+\)\s+([A-Za-z_]\w*)\s*\(`)},
		{"function", regexp.MustCompile(`^func\s+([A-Za-z_]\w*)\s*\(`)},
		{"type", regexp.MustCompile(`^type\s+([A-Za-z_]\w*)\s+(?:struct|interface)\b`)},
	},
	"python": {
		{"function", regexp.MustCompile(`^\s*(?:async\s+)?def\s+([A-Za-z_]\w*)\s*\(`)},
		{"class", regexp.MustCompile(`^\s*class\s+([A-Za-z_]\w*)\s*[(:]`)},
	},
	"javascript": {
		{"function", regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)\s*\(`)},
		{"function", regexp.MustCompile(`^\s*(?:export\s+)?const\s+([A-Za-z_$][\w$]*)\s*=\s*(?:async\s*)?\(`)},
		{"class", regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?class\s+([A-Za-z_$][\w$]*)`)},
	},
	"java": {
		{"class", regexp.MustCompile(`^\s*(?:public\s+|private\s+|protected\s+|abstract\s+|final\s+|static\s+)*(?:class|interface|enum)\s+([A-Za-z_]\w*)`)},
	},
	"ruby": {
		{"function", regexp.MustCompile(`^\s*def\s+([A-Za-z_]\w*[?!]?)`)},
		{"class", regexp.MustCompile(`^\s*(?:class|module)\s+([A-Z]\w*)`)},
	},
	"rust": {
		{"function", regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:async\s+)?fn\s+([A-Za-z_]\w*)`)},
		{"type", regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:struct|enum|trait)\s+([A-Za-z_]\w*)`)},
	},
}

func init() {
	// TypeScript declarations are a superset of the JavaScript forms.
	symbolPatterns["typescript"] = symbolPatterns["javascript"]
}

// extractSymbols scans lines for declarations of the given language. Symbol
// extents are approximate: each runs to the line before the next declaration,
// the last to end of file.
func extractSymbols(language string, lines []string) []scan.Symbol {
	patterns, ok := symbolPatterns[language]
	if !ok {
		return nil
	}

	var symbols []scan.Symbol
	for i, line := range lines {
		for _, sp := range patterns {
			match := sp.pattern.FindStringSubmatch(line)
			if match == nil {
				continue
			}
			symbols = append(symbols, scan.Symbol{Name: match[1], Kind: sp.kind, StartLine: i + 1})
			break
		}
	}

	for i := range symbols {
		if i+1 < len(symbols) {
			symbols[i].EndLine = symbols[i+1].StartLine - 1
		} else {
			symbols[i].EndLine = len(lines)
		}
	}
	return symbols
}
