package generator

import (
	"os"
	"path/filepath"
	"strings"
)

// StubExt is the extension of rendered stub files.
const StubExt = ".pyi"

// StubPath maps a source path relative to the project root to its stub file under dir.
func StubPath(dir, rel string) string {
	rel = filepath.Clean(rel)
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	return filepath.Join(dir, rel+StubExt)
}

// WriteLines writes lines to path, newline terminated, creating parent directories.
func WriteLines(path string, lines []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	content := strings.Join(lines, "\n")
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return os.WriteFile(path, []byte(content), 0644)
}
