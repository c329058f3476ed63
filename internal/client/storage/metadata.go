package storage

import (
	"context"
	"time"
)

//go:generate moq -out metadata_mock.go . MetadataStorage

// MetadataStorage defines interface for storing client metadata
type MetadataStorage interface {
	// SaveLastSync saves the time of the last successful sync
	SaveLastSync(ctx context.Context, at time.Time) error

	// GetLastSync retrieves the time of the last successful sync
	// Returns zero time if no sync has been performed yet
	GetLastSync(ctx context.Context) (time.Time, error)
}
