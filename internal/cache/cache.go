package cache

import (
	"context"

	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/model"
)

// DocumentCache is a read-through cache in front of the document store.
// Cache failures are absorbed by callers; the store stays the source of truth.
type DocumentCache interface {
	// GetDocument gets a document from the cache. A nil document means a miss.
	GetDocument(ctx context.Context, id string) (*model.Document, error)
	// SetDocument sets a document in the cache.
	SetDocument(ctx context.Context, doc *model.Document) error
	// DeleteDocument invalidates a cached document.
	DeleteDocument(ctx context.Context, id string) error
}
