package document

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for document persistence
type Repository interface {
	// FindByID loads a document with its seller, buyer and items.
	// Returns shared.ErrNotFound when no document of that type exists.
	FindByID(ctx context.Context, docType DocType, id uuid.UUID) (*Document, error)

	// Save inserts or updates a document and replaces its items
	Save(ctx context.Context, doc *Document) error

	// Delete deletes a document; its items cascade
	Delete(ctx context.Context, docType DocType, id uuid.UUID) error
}
