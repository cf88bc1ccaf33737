package storage

import (
	"context"
	"errors"
	"time"

	"typin/internal/inferencer"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("storage: run not found")

// Run is the summary row of a saved session.
type Run struct {
	ID        string
	CreatedAt time.Time
	Events    uint64
	Files     int
}

// RunStore persists session snapshots.
type RunStore interface {
	// SaveRun stores snap under a new run id and returns that id.
	SaveRun(ctx context.Context, snap *inferencer.Snapshot) (string, error)

	// LoadRun returns the snapshot saved under id.
	LoadRun(ctx context.Context, id string) (*inferencer.Snapshot, error)

	// ListRuns returns every saved run, newest first.
	ListRuns(ctx context.Context) ([]Run, error)

	Close() error
}
