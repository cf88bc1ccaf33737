package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"typin/internal/generator"
	"typin/internal/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	rootCmd = &cobra.Command{
		Use:   "typin",
		Short: "Infer Python type stubs and docstrings from recorded execution traces",
	}
	configPath string
	rootFlag   string
	verbose    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "typin.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVarP(&rootFlag, "root", "r", "", "Project root; only files under it are written (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	docstringsCmd.Flags().BoolVarP(&writeInPlace, "write", "w", false, "Rewrite the source files instead of printing them")
	dumpCmd.Flags().BoolVar(&dumpJSON, "json", false, "Print the session snapshot as JSON")

	rootCmd.AddCommand(stubsCmd)
	rootCmd.AddCommand(docstringsCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(coverageCmd)
}

var (
	writeInPlace bool
	dumpJSON     bool
)

var stubsCmd = &cobra.Command{
	Use:   "stubs [trace.jsonl]",
	Short: "Write .pyi stubs for every observed file under the project root",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := mustObserve(args[0])
		defer s.logger.Sync()

		// 1. Resolve the output directory under the root
		outDir := s.cfg.Output.StubsDir
		if !filepath.IsAbs(outDir) {
			outDir = filepath.Join(s.root, outDir)
		}

		// 2. One stub file per observed source file
		files := s.engine.FilePathsFiltered(s.root, true)
		if len(files) == 0 {
			fmt.Printf("✅ No observed files under %s.\n", s.root)
			return
		}
		for _, f := range files {
			text, err := s.engine.PrettyFormatFile(f.Key)
			if err != nil {
				log.Fatalf("Failed to render %s: %v", f.Key, err)
			}
			path := generator.StubPath(outDir, f.Path)
			if err := generator.WriteLines(path, []string{text}); err != nil {
				log.Fatalf("Failed to write %s: %v", path, err)
			}
			s.logger.Debug("wrote stub", zap.String("source", f.Key), zap.String("stub", path))
		}
		fmt.Printf("🎉 Wrote %d stub files to %s\n", len(files), outDir)
	},
}

var docstringsCmd = &cobra.Command{
	Use:   "docstrings [trace.jsonl]",
	Short: "Insert docstring skeletons into every observed function under the project root",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := mustObserve(args[0])
		defer s.logger.Sync()
		ctx := context.Background()

		for _, f := range s.engine.FilePathsFiltered(s.root, true) {
			lines, err := s.engine.InsertDocstrings(ctx, f.Key, nil, s.cfg.DocStyle())
			if err != nil {
				log.Fatalf("Failed to insert docstrings into %s: %v", f.Key, err)
			}
			if !writeInPlace {
				fmt.Printf("# File: %s\n", f.Path)
				for _, l := range lines {
					fmt.Println(l)
				}
				continue
			}
			if err := generator.WriteLines(f.Key, lines); err != nil {
				log.Fatalf("Failed to write %s: %v", f.Key, err)
			}
			fmt.Printf("✍️  Documented %s\n", f.Path)
		}
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump [trace.jsonl]",
	Short: "Print event counters and the recorded types of every unit",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := mustObserve(args[0])
		defer s.logger.Sync()

		if dumpJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(s.engine.Snapshot()); err != nil {
				log.Fatalf("Failed to encode snapshot: %v", err)
			}
			return
		}
		if err := s.engine.Dump(os.Stdout); err != nil {
			log.Fatalf("Failed to dump: %v", err)
		}
		fmt.Println(s.engine.PrettyFormat())
	},
}

var saveCmd = &cobra.Command{
	Use:   "save [trace.jsonl]",
	Short: "Replay a trace and store the session snapshot in the local database",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := mustObserve(args[0])
		defer s.logger.Sync()

		store := mustStore(s.cfg.Storage.DB)
		defer store.Close()

		fmt.Println("💾 Saving to local database...")
		id, err := store.SaveRun(context.Background(), s.engine.Snapshot())
		if err != nil {
			log.Fatalf("Failed to save run: %v", err)
		}
		fmt.Printf("✅ Saved run %s to %s\n", id, s.cfg.Storage.DB)
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs [id]",
	Short: "List saved runs, or print the stubs of one run",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustConfig()
		store := mustStore(cfg.Storage.DB)
		defer store.Close()
		ctx := context.Background()

		if len(args) == 1 {
			snap, err := store.LoadRun(ctx, args[0])
			if err != nil {
				log.Fatalf("Failed to load run: %v", err)
			}
			for _, f := range snap.Files {
				fmt.Printf("File: %s\n%s\n", f.Path, f.Stubs)
			}
			return
		}

		runs, err := store.ListRuns(ctx)
		if err != nil {
			log.Fatalf("Failed to list runs: %v", err)
		}
		for _, r := range runs {
			fmt.Printf("%s  %s  %d events  %d files\n", r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Events, r.Files)
		}
	},
}

func mustStore(path string) *storage.SQLiteStore {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}
	store, err := storage.NewSQLiteStore(path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	return store
}
