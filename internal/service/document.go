package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/activity"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/ai"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/cache"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/compress"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/diff"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/ledger"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/model"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/store"
	"gorm.io/gorm"
)

// tagSuggestionCount is how many tags the AI collaborator is asked for.
const tagSuggestionCount = 5

type CreateInput struct {
	Title   string
	Content string
	Tags    []string
}

// UpdatePatch carries the fields an update touches. Nil means untouched.
type UpdatePatch struct {
	Title   *string
	Content *string
	Tags    []string
}

type DocumentPage struct {
	Documents []*model.Document
	Total     int64
	HasMore   bool
}

type VersionPage struct {
	Versions []*model.Version
	Total    int64
	HasMore  bool
}

type ActivityPage struct {
	Activities []*model.Activity
	Total      int64
	HasMore    bool
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(compressor compress.Compress, st store.Store, docCache cache.DocumentCache, deriver *ai.Deriver, versions *ledger.Ledger, recorder *activity.Recorder) *DocumentService {
	return &DocumentService{
		compress: compressor,
		store:    st,
		cache:    docCache,
		deriver:  deriver,
		ledger:   versions,
		recorder: recorder,
	}
}

// DocumentService orchestrates every document mutation: validation, AI
// derivation, diffing, the ledger append and the audit record, all inside one
// atomic scope per mutation.
type DocumentService struct {
	compress compress.Compress
	store    store.Store
	cache    cache.DocumentCache
	deriver  *ai.Deriver
	ledger   *ledger.Ledger
	recorder *activity.Recorder
}

// Create validates the input, derives summary, tags and embedding, and
// commits the document together with ledger version 1 and a created activity
// record.
func (d *DocumentService) Create(ctx context.Context, caller Identity, input CreateInput) (*model.Document, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, validationError("title is required")
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, validationError("content is required")
	}

	derived := d.deriver.Derive(ctx, title, content, tagSuggestionCount)
	tags := mergeTags(input.Tags, derived.Tags.Value)

	embedding, err := json.Marshal(derived.Embedding.Value)
	if err != nil {
		return nil, transactionError(err)
	}

	encoded, err := d.compress.Encode([]byte(content))
	if err != nil {
		return nil, transactionError(err)
	}

	doc := &model.Document{
		ID:          uuid.New().String(),
		Title:       title,
		Content:     string(encoded),
		Summary:     derived.Summary.Value,
		Embedding:   string(embedding),
		Compression: d.compress.Name(),
		Version:     1,
		CreatedBy:   caller.UserID,
		UpdatedBy:   caller.UserID,
	}
	if err := doc.SetTagList(tags); err != nil {
		return nil, transactionError(err)
	}

	err = d.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.CreateDocument(ctx, doc); err != nil {
			return err
		}

		// version 1 has no predecessor: all flags set, no diffs
		version := &model.Version{
			DocumentID:     doc.ID,
			VersionNumber:  1,
			Title:          title,
			Content:        doc.Content,
			Summary:        doc.Summary,
			Tags:           doc.Tags,
			Compression:    doc.Compression,
			TitleChanged:   true,
			ContentChanged: true,
			TagsChanged:    true,
			SummaryChanged: true,
			EditedBy:       caller.UserID,
		}
		if err := d.ledger.Append(ctx, tx, version); err != nil {
			return err
		}

		after := &activity.Snapshot{Title: title, Content: content, Summary: doc.Summary, Tags: tags}
		d.recorder.Record(ctx, tx, model.ActivityCreated, doc, caller.UserID,
			activity.Changes{Title: true, Content: true, Tags: true, Summary: true},
			activity.Metadata{After: after})

		return nil
	})
	if err != nil {
		return nil, transactionError(err)
	}

	logrus.Infof("created document %s at version 1", doc.ID)
	return d.withContent(doc, content), nil
}

// Update applies a patch. If title or content changed, the derived fields are
// recomputed before the diff so the diff compares the old snapshot against
// the final post-AI state. An update that changes nothing writes nothing.
func (d *DocumentService) Update(ctx context.Context, caller Identity, docID string, patch UpdatePatch) (*model.Document, error) {
	doc, err := d.getOwned(ctx, caller, docID)
	if err != nil {
		return nil, err
	}

	startVersion := doc.Version
	oldContent, err := d.contentOf(doc)
	if err != nil {
		return nil, transactionError(err)
	}
	oldTitle := doc.Title
	oldSummary := doc.Summary
	oldTags := doc.TagList()

	newTitle := oldTitle
	if patch.Title != nil {
		newTitle = strings.TrimSpace(*patch.Title)
		if newTitle == "" {
			return nil, validationError("title cannot be empty")
		}
	}
	newContent := oldContent
	if patch.Content != nil {
		newContent = strings.TrimSpace(*patch.Content)
		if newContent == "" {
			return nil, validationError("content cannot be empty")
		}
	}
	newTags := oldTags
	if patch.Tags != nil {
		newTags = mergeTags(patch.Tags, nil)
	}

	newSummary := oldSummary
	newEmbedding := doc.Embedding
	if newTitle != oldTitle || newContent != oldContent {
		derived := d.deriver.Derive(ctx, newTitle, newContent, tagSuggestionCount)
		newSummary = derived.Summary.Value
		newTags = mergeTags(newTags, derived.Tags.Value)

		embedding, err := json.Marshal(derived.Embedding.Value)
		if err != nil {
			return nil, transactionError(err)
		}
		newEmbedding = string(embedding)
	}

	changes := activity.Changes{
		Title:   newTitle != oldTitle,
		Content: newContent != oldContent,
		Tags:    !diff.EqualSets(oldTags, newTags),
		Summary: newSummary != oldSummary,
	}
	if !changes.Title && !changes.Content && !changes.Tags && !changes.Summary {
		// idempotent no-op: no version, no activity
		return d.withContent(doc, oldContent), nil
	}

	before := &activity.Snapshot{Title: oldTitle, Content: oldContent, Summary: oldSummary, Tags: oldTags}
	after := &activity.Snapshot{Title: newTitle, Content: newContent, Summary: newSummary, Tags: newTags}

	encoded, err := d.compress.Encode([]byte(newContent))
	if err != nil {
		return nil, transactionError(err)
	}

	doc.Title = newTitle
	doc.Content = string(encoded)
	doc.Compression = d.compress.Name()
	doc.Summary = newSummary
	doc.Embedding = newEmbedding
	doc.Version = startVersion + 1
	doc.UpdatedBy = caller.UserID
	if err := doc.SetTagList(newTags); err != nil {
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

		version := &model.Version{
			DocumentID:     doc.ID,
			VersionNumber:  doc.Version,
			Title:          newTitle,
			Content:        doc.Content,
			Summary:        newSummary,
			Tags:           doc.Tags,
			Compression:    doc.Compression,
			TitleChanged:   changes.Title,
			ContentChanged: changes.Content,
			TagsChanged:    changes.Tags,
			SummaryChanged: changes.Summary,
			EditedBy:       caller.UserID,
		}
		if err := d.fillDiffs(version, before, after, changes); err != nil {
			return err
		}
		if err := d.ledger.Append(ctx, tx, version); err != nil {
			return err
		}

		d.recorder.Record(ctx, tx, model.ActivityUpdated, doc, caller.UserID, changes,
			activity.Metadata{Before: before, After: after})

		return nil
	})
	if err != nil {
		return nil, asServiceError(err)
	}

	d.invalidate(ctx, doc.ID)
	logrus.Infof("updated document %s to version %d", doc.ID, doc.Version)
	return d.withContent(doc, newContent), nil
}

// Delete soft deletes a document. The version ledger is untouched and the
// audit trail keeps the document's history reachable by id.
func (d *DocumentService) Delete(ctx context.Context, caller Identity, docID string) error {
	doc, err := d.getOwned(ctx, caller, docID)
	if err != nil {
		return err
	}

	content, err := d.contentOf(doc)
	if err != nil {
		return transactionError(err)
	}
	before := &activity.Snapshot{Title: doc.Title, Content: content, Summary: doc.Summary, Tags: doc.TagList()}

	err = d.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.DeleteDocument(ctx, docID); err != nil {
			return err
		}

		d.recorder.Record(ctx, tx, model.ActivityDeleted, doc, caller.UserID,
			activity.Changes{}, activity.Metadata{Before: before})

		return nil
	})
	if err != nil {
		return transactionError(err)
	}

	d.invalidate(ctx, docID)
	logrus.Infof("deleted document %s", docID)
	return nil
}

// Erase physically removes a document and its ledger. Activity records are
// left in place on purpose.
func (d *DocumentService) Erase(ctx context.Context, caller Identity, docID string) error {
	if _, err := d.getOwned(ctx, caller, docID); err != nil {
		return err
	}

	if err := d.store.EraseDocument(ctx, docID); err != nil {
		return transactionError(err)
	}

	d.invalidate(ctx, docID)
	return nil
}

// ForceSummarize recomputes the summary without creating a version; no
// user-authored field changed, so the versioning contract does not apply.
func (d *DocumentService) ForceSummarize(ctx context.Context, caller Identity, docID string) (string, error) {
	doc, err := d.getOwned(ctx, caller, docID)
	if err != nil {
		return "", err
	}

	content, err := d.contentOf(doc)
	if err != nil {
		return "", transactionError(err)
	}

	doc.Summary = d.deriver.Summarize(ctx, content).Value
	if err := d.store.UpdateDocument(ctx, doc); err != nil {
		return "", transactionError(err)
	}

	d.invalidate(ctx, docID)
	return doc.Summary, nil
}

// ForceTags recomputes the tag set without creating a version.
func (d *DocumentService) ForceTags(ctx context.Context, caller Identity, docID string) ([]string, error) {
	doc, err := d.getOwned(ctx, caller, docID)
	if err != nil {
		return nil, err
	}

	content, err := d.contentOf(doc)
	if err != nil {
		return nil, transactionError(err)
	}

	tags := mergeTags(d.deriver.Tags(ctx, doc.Title+" "+content, tagSuggestionCount).Value, nil)
	if err := doc.SetTagList(tags); err != nil {
		return nil, transactionError(err)
	}
	if err := d.store.UpdateDocument(ctx, doc); err != nil {
		return nil, transactionError(err)
	}

	d.invalidate(ctx, docID)
	return tags, nil
}

// Get retrieves a document through the cache. Soft-deleted documents are not
// visible here.
func (d *DocumentService) Get(ctx context.Context, docID string) (*model.Document, error) {
	if d.cache != nil {
		cached, err := d.cache.GetDocument(ctx, docID)
		if err != nil {
			logrus.Warnf("document cache read failed for %s: %v", docID, err)
		} else if cached != nil {
			return cached, nil
		}
	}

	doc, err := d.store.GetDocument(ctx, docID)
	if err != nil {
		return nil, asStoreError(err, docID)
	}

	content, err := d.contentOf(doc)
	if err != nil {
		return nil, transactionError(err)
	}
	plain := d.withContent(doc, content)

	if d.cache != nil {
		if err := d.cache.SetDocument(ctx, plain); err != nil {
			logrus.Warnf("document cache write failed for %s: %v", docID, err)
		}
	}

	return plain, nil
}

// List returns a page of the caller's documents, most recently updated first.
func (d *DocumentService) List(ctx context.Context, caller Identity, page Pagination) (*DocumentPage, error) {
	docs, total, err := d.store.ListDocuments(ctx, caller.UserID, page.offset(), page.limit())
	if err != nil {
		return nil, transactionError(err)
	}

	out := make([]*model.Document, 0, len(docs))
	for _, doc := range docs {
		content, err := d.contentOf(doc)
		if err != nil {
			return nil, transactionError(err)
		}
		out = append(out, d.withContent(doc, content))
	}

	return &DocumentPage{Documents: out, Total: total, HasMore: page.hasMore(total)}, nil
}

// Versions lists the retained ledger entries, newest first.
func (d *DocumentService) Versions(ctx context.Context, docID string, page Pagination) (*VersionPage, error) {
	if _, err := d.store.GetDocument(ctx, docID); err != nil {
		return nil, asStoreError(err, docID)
	}

	versions, total, err := d.ledger.List(ctx, d.store, docID, page.offset(), page.limit())
	if err != nil {
		return nil, transactionError(err)
	}

	for _, version := range versions {
		if err := d.decodeVersion(version); err != nil {
			return nil, transactionError(err)
		}
	}

	return &VersionPage{Versions: versions, Total: total, HasMore: page.hasMore(total)}, nil
}

// Feed returns a page of the global activity feed.
func (d *DocumentService) Feed(ctx context.Context, page Pagination) (*ActivityPage, error) {
	activities, total, err := d.recorder.Feed(ctx, d.store, page.offset(), page.limit())
	if err != nil {
		return nil, transactionError(err)
	}
	return &ActivityPage{Activities: activities, Total: total, HasMore: page.hasMore(total)}, nil
}

// DocumentFeed returns one document's audit trail, available even after the
// document was soft deleted.
func (d *DocumentService) DocumentFeed(ctx context.Context, docID string, page Pagination) (*ActivityPage, error) {
	activities, total, err := d.recorder.DocumentFeed(ctx, d.store, docID, page.offset(), page.limit())
	if err != nil {
		return nil, transactionError(err)
	}
	return &ActivityPage{Activities: activities, Total: total, HasMore: page.hasMore(total)}, nil
}

func (d *DocumentService) getOwned(ctx context.Context, caller Identity, docID string) (*model.Document, error) {
	doc, err := d.store.GetDocument(ctx, docID)
	if err != nil {
		return nil, asStoreError(err, docID)
	}

	if doc.CreatedBy != caller.UserID && !caller.Elevated() {
		return nil, forbiddenError("user %s does not own document %s", caller.UserID, docID)
	}

	return doc, nil
}

func (d *DocumentService) fillDiffs(version *model.Version, before, after *activity.Snapshot, changes activity.Changes) error {
	marshal := func(v any) (string, error) {
		data, err := json.Marshal(v)
		return string(data), err
	}

	var err error
	if changes.Title {
		if version.TitleDiff, err = marshal(diff.Text(before.Title, after.Title)); err != nil {
			return err
		}
	}
	if changes.Content {
		if version.ContentDiff, err = marshal(diff.Text(before.Content, after.Content)); err != nil {
			return err
		}
	}
	if changes.Tags {
		if version.TagsDiff, err = marshal(diff.Set(before.Tags, after.Tags)); err != nil {
			return err
		}
	}
	if changes.Summary {
		if version.SummaryDiff, err = marshal(diff.Scalar(before.Summary, after.Summary)); err != nil {
			return err
		}
	}

	return nil
}

// contentOf decodes the stored content without mutating the record.
func (d *DocumentService) contentOf(doc *model.Document) (string, error) {
	data, err := compress.FromName(doc.Compression).Decode([]byte(doc.Content))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (d *DocumentService) decodeVersion(version *model.Version) error {
	data, err := compress.FromName(version.Compression).Decode([]byte(version.Content))
	if err != nil {
		return err
	}
	version.Content = string(data)
	version.Compression = ""
	return nil
}

// withContent returns a copy carrying plaintext content for callers.
func (d *DocumentService) withContent(doc *model.Document, content string) *model.Document {
	out := *doc
	out.Content = content
	out.Compression = ""
	return &out
}

func (d *DocumentService) invalidate(ctx context.Context, docID string) {
	if d.cache == nil {
		return
	}
	if err := d.cache.DeleteDocument(ctx, docID); err != nil {
		logrus.Warnf("document cache invalidation failed for %s: %v", docID, err)
	}
}

// asStoreError maps a store read failure onto the service taxonomy.
func asStoreError(err error, docID string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFoundError("document %s not found", docID)
	}
	return transactionError(err)
}

// asServiceError keeps an already-classified error and wraps the rest.
func asServiceError(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return transactionError(err)
}

// mergeTags normalizes, deduplicates and caps the union of user-supplied and
// suggested tags. User tags win the cap.
func mergeTags(userTags, suggested []string) []string {
	seen := mapset.NewSet[string]()
	merged := make([]string, 0, model.MaxTags)

	for _, tag := range append(append([]string{}, userTags...), suggested...) {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen.Contains(tag) {
			continue
		}
		seen.Add(tag)
		merged = append(merged, tag)
		if len(merged) == model.MaxTags {
			break
		}
	}

	return merged
}
