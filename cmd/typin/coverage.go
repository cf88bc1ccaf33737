package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"typin/internal/crawler"
	"typin/internal/extractor"
	"typin/internal/inferencer"

	"github.com/spf13/cobra"
)

// fileCoverage lists the definitions of one source file that the trace never entered.
type fileCoverage struct {
	Path     string
	Observed bool // the trace touched the file at all
	Total    int
	Missing  []*extractor.DefSite
}

func coverage(ctx context.Context, engine *inferencer.Engine, c *crawler.Crawler, root string) ([]fileCoverage, error) {
	observed := make(map[string]bool)
	for _, f := range engine.FilePaths() {
		observed[f] = true
	}

	var out []fileCoverage
	err := c.ScanProject(ctx, root, func(f crawler.File) error {
		fc := fileCoverage{Path: f.Path, Observed: observed[f.Path], Total: len(f.Sites)}
		for _, site := range f.Sites {
			if !engine.Observed(f.Path, site) {
				fc.Missing = append(fc.Missing, site)
			}
		}
		out = append(out, fc)
		return nil
	})
	return out, err
}

var coverageCmd = &cobra.Command{
	Use:   "coverage [trace.jsonl]",
	Short: "Report functions under the project root that the trace never entered",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := mustObserve(args[0])
		defer s.logger.Sync()

		ext, err := extractor.NewExtractor("python")
		if err != nil {
			log.Fatalf("Failed to create extractor: %v", err)
		}
		report, err := coverage(context.Background(), s.engine, crawler.NewCrawler(ext, s.logger.Named("crawler")), s.root)
		if err != nil {
			log.Fatalf("Scan failed: %v", err)
		}

		total, missing := 0, 0
		for _, fc := range report {
			total += fc.Total
			missing += len(fc.Missing)
			if len(fc.Missing) == 0 {
				continue
			}
			rel, err := filepath.Rel(s.root, fc.Path)
			if err != nil {
				rel = fc.Path
			}
			if !fc.Observed {
				fmt.Printf("%s: never observed (%d functions)\n", rel, fc.Total)
				continue
			}
			for _, site := range fc.Missing {
				fmt.Printf("%s:%d: %s never called\n", rel, site.DeclLine, site.Name)
			}
		}
		fmt.Printf("📊 %d of %d functions observed in %d files\n", total-missing, total, len(report))
	},
}
