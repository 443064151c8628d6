// Package backend builds the dataset loader selected by DATA_BACKEND.
package backend

import (
	"context"

	"wastedash/internal/config"
	"wastedash/internal/dataset"
)

// CleanupFunc releases resources held by a loader.
type CleanupFunc func() error

// Result contains the loader and an optional cleanup function.
type Result struct {
	Loader  dataset.Loader
	Source  string
	Cleanup CleanupFunc
}

// Close runs Cleanup when set.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates loaders from application configuration.
type Factory interface {
	Create(ctx context.Context, cfg *config.Config) (*Result, error)
}
