package store

import (
	"context"
	"time"

	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/model"
)

type Store interface {
	DocumentStore
	VersionStore
	ActivityStore
	Transaction(ctx context.Context, f func(tx Store) error) error
	Migrate() error
}

type DocumentStore interface {
	// CreateDocument creates a new document.
	CreateDocument(ctx context.Context, doc *model.Document) error
	// GetDocument retrieves a document by ID. Soft-deleted documents are excluded.
	GetDocument(ctx context.Context, id string) (*model.Document, error)
	// ListDocuments retrieves a page of documents owned by a user.
	ListDocuments(ctx context.Context, ownerID string, offset, limit int) ([]*model.Document, int64, error)
	// UpdateDocument saves a document unconditionally.
	UpdateDocument(ctx context.Context, doc *model.Document) error
	// UpdateDocumentVersioned saves a document only if its stored version still
	// matches expectedVersion. Returns the number of rows written.
	UpdateDocumentVersioned(ctx context.Context, doc *model.Document, expectedVersion int64) (int64, error)
	// DeleteDocument soft deletes a document by ID.
	DeleteDocument(ctx context.Context, id string) error
	// EraseDocument physically deletes a document and its version ledger.
	EraseDocument(ctx context.Context, id string) error
	// ListDocumentsUpdatedSince retrieves documents touched after the given time,
	// including soft-deleted ones.
	ListDocumentsUpdatedSince(ctx context.Context, since time.Time) ([]*model.Document, error)
}

type VersionStore interface {
	// CreateVersion appends a ledger entry.
	CreateVersion(ctx context.Context, version *model.Version) error
	// GetVersion retrieves a ledger entry by document ID and version number.
	GetVersion(ctx context.Context, docID string, number int64) (*model.Version, error)
	// ListVersions retrieves a page of ledger entries, newest first.
	ListVersions(ctx context.Context, docID string, offset, limit int) ([]*model.Version, int64, error)
	// CountVersions returns the ledger length for a document.
	CountVersions(ctx context.Context, docID string) (int64, error)
	// DeleteVersionsBelow evicts ledger entries older than the given version number.
	DeleteVersionsBelow(ctx context.Context, docID string, number int64) error
}

type ActivityStore interface {
	// CreateActivity appends an audit record. Activities are never updated or deleted.
	CreateActivity(ctx context.Context, activity *model.Activity) error
	// ListActivities retrieves a page of the global feed, newest first.
	ListActivities(ctx context.Context, offset, limit int) ([]*model.Activity, int64, error)
	// ListDocumentActivities retrieves a page of one document's audit trail, newest first.
	ListDocumentActivities(ctx context.Context, docID string, offset, limit int) ([]*model.Activity, int64, error)
	// LatestActivityVersion returns the highest version number recorded for a document.
	LatestActivityVersion(ctx context.Context, docID string) (int64, error)
}
