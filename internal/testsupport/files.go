package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content to path, creating parent directories as needed.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteTree writes a set of relative path to content pairs under root and
// returns root. Useful for building small repository fixtures.
func WriteTree(t testing.TB, root string, files map[string]string) string {
	t.Helper()

	for rel, content := range files {
		WriteFile(t, filepath.Join(root, rel), content)
	}
	return root
}
