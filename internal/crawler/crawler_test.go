package crawler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"typin/internal/extractor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func newCrawler(t *testing.T) *Crawler {
	t.Helper()
	ext, err := extractor.NewExtractor("python")
	require.NoError(t, err)
	return NewCrawler(ext, nil)
}

func TestCrawler_ScanProject(t *testing.T) {
	root := writeTree(t, map[string]string{
		"app.py":               "def main():\n    run()\n\ndef run():\n    pass\n",
		"pkg/util.py":          "class K:\n    def m(self):\n        return 1\n",
		"pkg/README.md":        "def not_python():\n",
		".venv/lib/site.py":    "def ignored():\n    pass\n",
		"pkg/__pycache__/x.py": "def ignored():\n    pass\n",
	})

	var got []File
	require.NoError(t, newCrawler(t).ScanProject(context.Background(), root, func(f File) error {
		got = append(got, f)
		return nil
	}))

	require.Len(t, got, 2)
	assert.Equal(t, filepath.Join(root, "app.py"), got[0].Path)
	require.Len(t, got[0].Sites, 2)
	assert.Equal(t, "main", got[0].Sites[0].Name)
	assert.Equal(t, 4, got[0].Sites[1].DeclLine)

	assert.Equal(t, filepath.Join(root, "pkg", "util.py"), got[1].Path)
	require.Len(t, got[1].Sites, 1)
	assert.Equal(t, "m", got[1].Sites[0].Name)
}

func TestCrawler_CallbackErrorStops(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.py": "def a():\n    pass\n",
		"b.py": "def b():\n    pass\n",
	})
	stop := errors.New("stop")
	calls := 0
	err := newCrawler(t).ScanProject(context.Background(), root, func(File) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestCrawler_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := newCrawler(t).ScanProject(ctx, t.TempDir(), func(File) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
