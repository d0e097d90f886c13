package staticanalysis

import (
	"fmt"
	"regexp"

	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
)

const (
	// RuleDebugStatement flags leftover print/console debugging.
	RuleDebugStatement = "debug-statement"
	// RuleTODO flags unresolved TODO/FIXME/HACK markers.
	RuleTODO = "todo-comment"
	// RuleSecret flags suspected hardcoded credentials.
	RuleSecret = "hardcoded-secret"
	// RuleLongFunction flags functions exceeding the line budget.
	RuleLongFunction = "long-function"
	// RuleLongFile flags files exceeding the line budget.
	RuleLongFile = "long-file"

	longFunctionLines = 80
	longFileLines     = 600
)

// lineRule matches one suspicious construct per source line. A nil language
// set applies the rule to every language.
type lineRule struct {
	name      string
	severity  scan.Severity
	languages map[string]bool
	pattern   *regexp.Regexp
	message   string
}

func languageSet(names ...string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return set
}

var lineRules = []lineRule{
	{
		name:      RuleDebugStatement,
		severity:  scan.SeverityWarning,
		languages: languageSet("go"),
		pattern:   regexp.MustCompile(`\bfmt\.Print(?:ln|f)?\(|^\s*println\(`),
		message:   "debug print left in code",
	},
	{
		name:      RuleDebugStatement,
		severity:  scan.SeverityWarning,
		languages: languageSet("python"),
		pattern:   regexp.MustCompile(`\bpdb\.set_trace\(\)|\bbreakpoint\(\)|^\s*print\(`),
		message:   "debug statement left in code",
	},
	{
		name:      RuleDebugStatement,
		severity:  scan.SeverityWarning,
		languages: languageSet("javascript", "typescript"),
		pattern:   regexp.MustCompile(`\bconsole\.(?:log|debug|trace)\(|\bdebugger\b`),
		message:   "console debugging left in code",
	},
	{
		name:      RuleDebugStatement,
		severity:  scan.SeverityWarning,
		languages: languageSet("ruby"),
		pattern:   regexp.MustCompile(`\bbinding\.pry\b|\bbyebug\b`),
		message:   "debugger hook left in code",
	},
	{
		name:     RuleTODO,
		severity: scan.SeverityInfo,
		pattern:  regexp.MustCompile(`\b(?:TODO|FIXME|HACK)\b`),
		message:  "unresolved TODO marker",
	},
	{
		name:     RuleSecret,
		severity: scan.SeverityCritical,
		pattern:  regexp.MustCompile(`(?i)\b(?:api[_-]?key|apikey|secret|token|password|passwd)\b\s*[:=]\s*["'][^"']{8,}["']`),
		message:  "possible hardcoded credential",
	},
	{
		name:     RuleSecret,
		severity: scan.SeverityCritical,
		pattern:  regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),
		message:  "possible AWS access key id",
	},
	{
		name:     RuleSecret,
		severity: scan.SeverityCritical,
		pattern:  regexp.MustCompile(`-----BEGIN (?:RSA |EC |OPENSSH |PGP )?PRIVATE KEY`),
		message:  "private key material in source",
	},
}

// rulesFor returns the line rules applicable to a language.
func rulesFor(language string) []lineRule {
	rules := make([]lineRule, 0, len(lineRules))
	for _, rule := range lineRules {
		if rule.languages != nil && !rule.languages[language] {
			continue
		}
		rules = append(rules, rule)
	}
	return rules
}

// structuralFindings derives findings from the parsed outline alone: file
// and function length checks need no file content.
func structuralFindings(file scan.SourceFile) []scan.Finding {
	var findings []scan.Finding
	if file.LineCount > longFileLines {
		findings = append(findings, scan.Finding{
			Rule:     RuleLongFile,
			Severity: scan.SeverityWarning,
			Path:     file.Path,
			Line:     1,
			Message:  fmt.Sprintf("file has %d lines (threshold %d)", file.LineCount, longFileLines),
		})
	}
	for _, symbol := range file.Symbols {
		if symbol.Kind != "function" && symbol.Kind != "method" {
			continue
		}
		length := symbol.EndLine - symbol.StartLine + 1
		if length > longFunctionLines {
			findings = append(findings, scan.Finding{
				Rule:     RuleLongFunction,
				Severity: scan.SeverityWarning,
				Path:     file.Path,
				Line:     symbol.StartLine,
				Message:  fmt.Sprintf("%s spans %d lines (threshold %d)", symbol.Name, length, longFunctionLines),
			})
		}
	}
	return findings
}
