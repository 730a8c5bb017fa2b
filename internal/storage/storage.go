package storage

import (
	"context"

	"github.com/slok/devrig/internal/model"
)

// ListRunsOpts are the options for listing persisted runs.
type ListRunsOpts struct {
	// Limit caps the number of returned runs, 0 means no limit.
	Limit int
}

// Repository is the interface for provisioning run persistence.
type Repository interface {
	CreateRun(ctx context.Context, r model.Run) error
	GetRun(ctx context.Context, id string) (*model.Run, error)
	// ListRuns returns persisted runs, newest first.
	ListRuns(ctx context.Context, opts ListRunsOpts) ([]model.Run, error)
}
