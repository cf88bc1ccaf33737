package crawler

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"typin/internal/extractor"

	"go.uber.org/zap"
)

// File is one scanned source file and the definitions found in it.
type File struct {
	Path  string
	Sites []*extractor.DefSite
}

// Crawler scans a directory for Python source files.
type Crawler struct {
	extractor *extractor.Extractor
	logger    *zap.Logger
	ignored   []string
}

// NewCrawler creates a new crawler instance.
func NewCrawler(ext *extractor.Extractor, logger *zap.Logger) *Crawler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Crawler{
		extractor: ext,
		logger:    logger,
		ignored:   []string{".git", ".venv", "venv", "__pycache__", "node_modules", ".tox"},
	}
}

// ScanProject walks root and calls onFile for every .py file, in lexical order. Files that
// fail to parse are logged and skipped; an error from onFile stops the walk.
func (c *Crawler) ScanProject(ctx context.Context, root string, onFile func(File) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		// Skip ignored directories
		if d.IsDir() {
			for _, ign := range c.ignored {
				if d.Name() == ign {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if !strings.HasSuffix(d.Name(), ".py") {
			return nil
		}

		sites, err := c.extractor.ExtractFromFile(path)
		if err != nil {
			// Log and continue instead of failing the whole scan
			c.logger.Warn("failed to parse file", zap.String("path", path), zap.Error(err))
			return nil
		}
		return onFile(File{Path: path, Sites: sites})
	})
}
