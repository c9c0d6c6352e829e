package service

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/activity"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/diff"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/model"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/store"
)

// Restore reverts a document to a prior ledger snapshot. The version counter
// only moves forward: the pre-restore state is first appended as a new
// version, then the target snapshot is applied as another one, so restoring
// to version N while at M lands the document at M+2.
func (d *DocumentService) Restore(ctx context.Context, caller Identity, docID string, targetNumber int64) (*model.Document, error) {
	doc, err := d.getOwned(ctx, caller, docID)
	if err != nil {
		return nil, err
	}

	target, err := d.ledger.Find(ctx, d.store, docID, targetNumber)
	if err != nil {
		return nil, asStoreError(err, docID)
	}
	if err := d.decodeVersion(target); err != nil {
		return nil, transactionError(err)
	}

	startVersion := doc.Version
	content, err := d.contentOf(doc)
	if err != nil {
		return nil, transactionError(err)
	}

	current := &activity.Snapshot{Title: doc.Title, Content: content, Summary: doc.Summary, Tags: doc.TagList()}
	restored := &activity.Snapshot{Title: target.Title, Content: target.Content, Summary: target.Summary, Tags: target.TagList()}

	changes := activity.Changes{
		Title:   restored.Title != current.Title,
		Content: restored.Content != current.Content,
		Tags:    !diff.EqualSets(current.Tags, restored.Tags),
		Summary: restored.Summary != current.Summary,
	}

	encoded, err := d.compress.Encode([]byte(restored.Content))
	if err != nil {
		return nil, transactionError(err)
	}

	// the ledger snapshot carries no embedding, so it is recomputed for the
	// restored content rather than left describing the pre-restore state
	embedding, err := json.Marshal(d.deriver.Embedding(ctx, restored.Title+" "+restored.Content).Value)
	if err != nil {
		return nil, transactionError(err)
	}

	doc.Title = restored.Title
	doc.Content = string(encoded)
	doc.Compression = d.compress.Name()
	doc.Summary = restored.Summary
	doc.Embedding = string(embedding)
	doc.Version = startVersion + 2
	doc.UpdatedBy = caller.UserID
	if err := doc.SetTagList(restored.Tags); err != nil {
		return nil, transactionError(err)
	}

	err = d.store.Transaction(ctx, func(tx store.Store) error {
		rows, err := tx.UpdateDocumentVersioned(ctx, doc, startVersion)
		if err != nil {
			return err
		}
		if rows == 0 {
			return conflictError("document %s was changed by another editor", doc.ID)
		}

		// checkpoint of the pre-restore state, so it is never lost
		checkpointContent, err := d.compress.Encode([]byte(current.Content))
		if err != nil {
			return err
		}
		checkpoint := &model.Version{
			DocumentID:    doc.ID,
			VersionNumber: startVersion + 1,
			Title:         current.Title,
			Content:       string(checkpointContent),
			Summary:       current.Summary,
			Compression:   d.compress.Name(),
			EditedBy:      caller.UserID,
		}
		if err := setVersionTags(checkpoint, current.Tags); err != nil {
			return err
		}
		if err := d.ledger.Append(ctx, tx, checkpoint); err != nil {
			return err
		}

		restoredVersion := &model.Version{
			DocumentID:     doc.ID,
			VersionNumber:  startVersion + 2,
			Title:          restored.Title,
			Content:        doc.Content,
			Summary:        restored.Summary,
			Tags:           doc.Tags,
			Compression:    doc.Compression,
			TitleChanged:   changes.Title,
			ContentChanged: changes.Content,
			TagsChanged:    changes.Tags,
			SummaryChanged: changes.Summary,
			EditedBy:       caller.UserID,
		}
		if err := d.fillDiffs(restoredVersion, current, restored, changes); err != nil {
			return err
		}
		if err := d.ledger.Append(ctx, tx, restoredVersion); err != nil {
			return err
		}

		d.recorder.Record(ctx, tx, model.ActivityVersionCreated, doc, caller.UserID, changes,
			activity.Metadata{Before: current, After: restored})

		return nil
	})
	if err != nil {
		return nil, asServiceError(err)
	}

	d.invalidate(ctx, doc.ID)
	logrus.Infof("restored document %s to the state of version %d as version %d", doc.ID, targetNumber, doc.Version)
	return d.withContent(doc, restored.Content), nil
}

func setVersionTags(version *model.Version, tags []string) error {
	if tags == nil {
		tags = make([]string, 0)
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return err
	}
	version.Tags = string(data)
	return nil
}
