package stage

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Label renders a stage name for humans: "static_analysis" becomes
// "Static Analysis". Unknown or empty names come back unchanged.
func Label(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ""
	}
	spaced := strings.ReplaceAll(trimmed, "_", " ")
	return cases.Title(language.Und).String(spaced)
}
