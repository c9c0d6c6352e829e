// Package activity owns the append-only audit trail. Records reference the
// document and user by id only and are never updated or deleted; the trail
// outlives ledger eviction and document deletion.
package activity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/compress"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/model"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/queue"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/store"
)

// Snapshot is the denormalized document state carried in record metadata.
type Snapshot struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}

// Metadata holds the before/after state pair of one committed mutation.
// Replayed marks records reconstructed by the reconciliation job rather than
// written by the mutation itself.
type Metadata struct {
	Before   *Snapshot `json:"before,omitempty"`
	After    *Snapshot `json:"after,omitempty"`
	Replayed bool      `json:"replayed,omitempty"`
}

// Changes flags which user-visible fields a mutation touched.
type Changes struct {
	Title   bool
	Content bool
	Tags    bool
	Summary bool
}

type Recorder struct {
	events queue.ActivityQueue
}

func NewRecorder(events queue.ActivityQueue) *Recorder {
	if events == nil {
		events = queue.NewNoop()
	}
	return &Recorder{events: events}
}

// Record appends an audit record. The write is best-effort relative to the
// enclosing document mutation: a failure here is logged and swallowed, never
// propagated, so it cannot unwind the document-side commit.
func (r *Recorder) Record(ctx context.Context, tx store.Store, action string, doc *model.Document, userID string, changes Changes, meta Metadata) {
	metaData, err := json.Marshal(meta)
	if err != nil {
		logrus.Errorf("failed to encode activity metadata for document %s: %v", doc.ID, err)
		metaData = []byte("{}")
	}

	record := &model.Activity{
		ID:             uuid.New().String(),
		Action:         action,
		DocumentID:     doc.ID,
		DocumentTitle:  doc.Title,
		VersionNumber:  doc.Version,
		UserID:         userID,
		TitleChanged:   changes.Title,
		ContentChanged: changes.Content,
		TagsChanged:    changes.Tags,
		SummaryChanged: changes.Summary,
		Metadata:       string(metaData),
	}

	// the insert runs in its own savepoint: a failed statement must not
	// poison the enclosing document transaction on postgres
	err = tx.Transaction(ctx, func(inner store.Store) error {
		return inner.CreateActivity(ctx, record)
	})
	if err != nil {
		logrus.Errorf("failed to record %s activity for document %s: %v", action, doc.ID, err)
		return
	}

	if err := r.events.PublishActivity(ctx, record); err != nil {
		logrus.Errorf("failed to publish %s activity event for document %s: %v", action, doc.ID, err)
	}
}

// Feed returns a page of the global activity feed, newest first.
func (r *Recorder) Feed(ctx context.Context, s store.Store, offset, limit int) ([]*model.Activity, int64, error) {
	return s.ListActivities(ctx, offset, limit)
}

// DocumentFeed returns a page of one document's audit trail, newest first.
// The trail remains queryable after the document is soft deleted.
func (r *Recorder) DocumentFeed(ctx context.Context, s store.Store, docID string, offset, limit int) ([]*model.Activity, int64, error) {
	return s.ListDocumentActivities(ctx, docID, offset, limit)
}

// SnapshotOf captures the audit-visible state of a persisted document. The
// stored content is codec-encoded; the snapshot carries the plaintext.
func SnapshotOf(doc *model.Document) *Snapshot {
	content := doc.Content
	if data, err := compress.FromName(doc.Compression).Decode([]byte(doc.Content)); err == nil {
		content = string(data)
	} else {
		logrus.Errorf("failed to decode content of document %s for its audit snapshot: %v", doc.ID, err)
	}

	return &Snapshot{
		Title:   doc.Title,
		Content: content,
		Summary: doc.Summary,
		Tags:    doc.TagList(),
	}
}

// ReplayWindow is how far back the reconciliation job looks for documents
// whose best-effort audit write was lost.
const ReplayWindow = 24 * time.Hour

// Reconcile re-appends a synthetic audit record for every document whose
// committed version is ahead of its recorded trail. This is the replay hook
// backing the asymmetric-durability design: the document commit is the truth
// and the trail is caught up to it.
func (r *Recorder) Reconcile(ctx context.Context, s store.Store, since time.Time) error {
	docs, err := s.ListDocumentsUpdatedSince(ctx, since)
	if err != nil {
		return err
	}

	for _, doc := range docs {
		latest, err := s.LatestActivityVersion(ctx, doc.ID)
		if err != nil {
			return err
		}
		if latest >= doc.Version {
			continue
		}

		logrus.Warnf("document %s is at version %d but its trail stops at %d, replaying", doc.ID, doc.Version, latest)
		meta := Metadata{After: SnapshotOf(doc), Replayed: true}
		r.Record(ctx, s, model.ActivityUpdated, doc, doc.UpdatedBy, Changes{}, meta)
	}

	return nil
}
