package parse

import (
	"path"
	"strings"
)

// languageByExtension maps file extensions to the language tag recorded on
// parsed files. Extensions absent from the map are skipped entirely.
var languageByExtension = map[string]string{
	".go":    "go",
	".py":    "python",
	".js":    "javascript",
	".jsx":   "javascript",
	".mjs":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".java":  "java",
	".kt":    "kotlin",
	".rb":    "ruby",
	".rs":    "rust",
	".c":     "c",
	".h":     "c",
	".cc":    "cpp",
	".cpp":   "cpp",
	".hpp":   "cpp",
	".cs":    "csharp",
	".php":   "php",
	".swift": "swift",
	".sh":    "shell",
	".bash":  "shell",
	".sql":   "sql",
	".yaml":  "yaml",
	".yml":   "yaml",
	".json":  "json",
	".toml":  "toml",
	".md":    "markdown",
	".html":  "html",
	".css":   "css",
}

// detectLanguage returns the language tag for a path, or "" when the
// extension is not recognized.
func detectLanguage(rel string) string {
	ext := strings.ToLower(path.Ext(rel))
	return languageByExtension[ext]
}

// matchesGlob reports whether the slash-separated relative path matches an
// exclude pattern. A pattern matches the full path, the base name, or, for
// plain and "dir/*" forms, any path inside that directory.
func matchesGlob(pattern, rel string) bool {
	if ok, _ := path.Match(pattern, rel); ok {
		return true
	}
	if ok, _ := path.Match(pattern, path.Base(rel)); ok {
		return true
	}
	prefix := strings.TrimSuffix(pattern, "/*")
	if (prefix != pattern || !strings.ContainsAny(prefix, "*?[")) && prefix != "" {
		if rel == prefix || strings.HasPrefix(rel, prefix+"/") {
			return true
		}
	}
	return false
}
