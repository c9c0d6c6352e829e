// Package ledger owns the bounded per-document version history. The ledger
// is append-only from the caller's view; appending past the capacity evicts
// the oldest entry. Evicted entries survive only in the activity log.
package ledger

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/model"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/store"
)

type Ledger struct {
	capacity int64
}

func New() *Ledger {
	return &Ledger{capacity: model.MaxVersions}
}

// NewWithCapacity is used by tests that exercise eviction with small bounds.
func NewWithCapacity(capacity int64) *Ledger {
	return &Ledger{capacity: capacity}
}

// Append pushes a new ledger entry and evicts from the head when the bound is
// exceeded. Must run inside the document's transaction so the entry and the
// eviction commit with the document itself.
func (l *Ledger) Append(ctx context.Context, tx store.Store, version *model.Version) error {
	if err := tx.CreateVersion(ctx, version); err != nil {
		return err
	}

	count, err := tx.CountVersions(ctx, version.DocumentID)
	if err != nil {
		return err
	}

	if count > l.capacity {
		evictBelow := version.VersionNumber - l.capacity + 1
		logrus.Infof("ledger full for document %s, evicting versions below %d", version.DocumentID, evictBelow)
		if err := tx.DeleteVersionsBelow(ctx, version.DocumentID, evictBelow); err != nil {
			return err
		}
	}

	return nil
}

// Find retrieves a single retained entry by version number.
func (l *Ledger) Find(ctx context.Context, s store.Store, docID string, number int64) (*model.Version, error) {
	return s.GetVersion(ctx, docID, number)
}

// List retrieves a page of retained entries ordered by version number descending.
func (l *Ledger) List(ctx context.Context, s store.Store, docID string, offset, limit int) ([]*model.Version, int64, error) {
	return s.ListVersions(ctx, docID, offset, limit)
}
