package storage

import (
	"context"

	"github.com/iudanet/notesync/internal/models"
)

// DocumentStorage defines interface for per-user document persistence
type DocumentStorage interface {
	// AllStubs returns the user's full inventory, tombstones included
	AllStubs(ctx context.Context, userID string) ([]models.Stub, error)

	// GetDocuments returns documents for the given ids.
	// Unknown ids are skipped; order follows ids.
	GetDocuments(ctx context.Context, userID string, ids []string) ([]*models.Document, error)

	// ApplyDocuments persists incoming documents whose revision counter is
	// strictly greater than the stored one and returns the accepted subset.
	// Stale or equal-counter writes are skipped without error.
	ApplyDocuments(ctx context.Context, userID string, docs []*models.Document) ([]*models.Document, error)
}
