package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"typin/internal/config"
	"typin/internal/inferencer"
	"typin/internal/logging"
	"typin/internal/registry"
	"typin/internal/trace"

	"go.uber.org/zap"
)

// session is a replayed trace and the engine that observed it.
type session struct {
	cfg    *config.Config
	logger *zap.Logger
	engine *inferencer.Engine
	root   string
}

func mustConfig() *config.Config {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if rootFlag != "" {
		cfg.Project.Root = rootFlag
	}
	return cfg
}

// mustObserve replays the trace at path inside an observation session.
func mustObserve(path string) *session {
	cfg := mustConfig()
	logger, err := logging.New(cfg.Log.Level, verbose)
	if err != nil {
		log.Fatalf("%v", err)
	}
	root, err := filepath.Abs(cfg.Project.Root)
	if err != nil {
		log.Fatalf("Failed to resolve project root: %v", err)
	}

	s, err := observe(context.Background(), cfg, logger, path)
	if err != nil {
		log.Fatalf("Replay failed: %v", err)
	}
	s.root = root
	return s
}

func observe(ctx context.Context, cfg *config.Config, logger *zap.Logger, path string) (*session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace: %w", err)
	}
	defer f.Close()

	// 1. Registry and tracer fed by the replayer
	reg := registry.NewMemory()
	tracer := trace.NewDispatcher()
	engine := inferencer.New(tracer, reg, inferencer.Options{
		Logger:            logger.Named("inferencer"),
		SyntheticPrefixes: cfg.Trace.SyntheticPrefixes,
	})

	// 2. Replay inside the session
	fmt.Fprintf(os.Stderr, "📂 Replaying trace: %s\n", path)
	start := time.Now()
	var stats trace.ReplayStats
	err = engine.Observe(func() error {
		var err error
		stats, err = trace.NewReplayer(reg, tracer).Replay(ctx, f)
		return err
	})
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(os.Stderr, "✅ Replayed %d events in %v. Observed %d files.\n", stats.Events, time.Since(start), len(engine.FilePaths()))

	return &session{cfg: cfg, logger: logger, engine: engine}, nil
}
