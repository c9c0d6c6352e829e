package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/activity"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/ai"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/compress"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/ledger"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/model"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/store"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/tester"
)

// newTestService builds a service against the test database with no AI
// collaborator configured, so every derived field takes the fallback path.
func newTestService() (*DocumentService, store.Store) {
	st := store.NewGormStore(tester.TestDB())
	svc := NewDocumentService(
		compress.NewNop(),
		st,
		nil,
		ai.NewDeriver(nil, time.Second),
		ledger.New(),
		activity.NewRecorder(nil),
	)
	return svc, st
}

func strptr(s string) *string {
	return &s
}

func TestDocumentService_Create(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	svc, _ := newTestService()
	owner := Identity{UserID: uuid.New().String()}

	doc, err := svc.Create(context.TODO(), owner, CreateInput{
		Title:   "Runbook",
		Content: "Step one. Step two.",
		Tags:    []string{"Ops"},
	})
	assert.NoError(t, err)
	assert.NotNil(t, doc)

	assert.Equal(t, int64(1), doc.Version)
	assert.Equal(t, "Step one. Step two.", doc.Content)
	// AI collaborators are unavailable: summary falls back to truncated
	// content, tags to top-frequency words, embedding to the hash vector
	assert.Equal(t, "Step one. Step two.", doc.Summary)
	assert.Contains(t, doc.TagList(), "ops")
	assert.Contains(t, doc.TagList(), "step")
	assert.NotEmpty(t, doc.Embedding)

	versions, err := svc.Versions(context.TODO(), doc.ID, Pagination{})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), versions.Total)
	assert.Len(t, versions.Versions, 1)

	first := versions.Versions[0]
	assert.Equal(t, int64(1), first.VersionNumber)
	assert.True(t, first.TitleChanged)
	assert.True(t, first.ContentChanged)
	assert.True(t, first.TagsChanged)
	assert.True(t, first.SummaryChanged)
	// version 1 has no predecessor, so no diffs
	assert.Empty(t, first.TitleDiff)
	assert.Empty(t, first.ContentDiff)

	feed, err := svc.DocumentFeed(context.TODO(), doc.ID, Pagination{})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), feed.Total)
	assert.Equal(t, model.ActivityCreated, feed.Activities[0].Action)
	assert.Equal(t, int64(1), feed.Activities[0].VersionNumber)
	assert.Equal(t, "Runbook", feed.Activities[0].DocumentTitle)
}

func TestDocumentService_CreateValidation(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	svc, _ := newTestService()
	owner := Identity{UserID: uuid.New().String()}

	_, err := svc.Create(context.TODO(), owner, CreateInput{Title: "", Content: "content"})
	assert.Error(t, err)
	assert.True(t, IsKind(err, KindValidation))

	_, err = svc.Create(context.TODO(), owner, CreateInput{Title: "title", Content: "   "})
	assert.Error(t, err)
	assert.True(t, IsKind(err, KindValidation))
}

func TestDocumentService_Update(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	svc, _ := newTestService()
	owner := Identity{UserID: uuid.New().String()}

	doc, err := svc.Create(context.TODO(), owner, CreateInput{
		Title:   "Deploy guide",
		Content: "run the deploy script",
	})
	assert.NoError(t, err)

	updated, err := svc.Update(context.TODO(), owner, doc.ID, UpdatePatch{
		Content: strptr("run the updated deploy script"),
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, "run the updated deploy script", updated.Content)
	assert.Equal(t, "Deploy guide", updated.Title)

	versions, err := svc.Versions(context.TODO(), doc.ID, Pagination{})
	assert.NoError(t, err)
	assert.Equal(t, int64(2), versions.Total)

	latest := versions.Versions[0]
	assert.Equal(t, int64(2), latest.VersionNumber)
	assert.True(t, latest.ContentChanged)
	assert.NotEmpty(t, latest.ContentDiff)
	assert.False(t, latest.TitleChanged)
	assert.Empty(t, latest.TitleDiff)

	feed, err := svc.DocumentFeed(context.TODO(), doc.ID, Pagination{})
	assert.NoError(t, err)
	assert.Equal(t, int64(2), feed.Total)
	assert.Equal(t, model.ActivityUpdated, feed.Activities[0].Action)
	assert.True(t, feed.Activities[0].ContentChanged)
	assert.False(t, feed.Activities[0].TitleChanged)
}

func TestDocumentService_UpdateNoOp(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	svc, _ := newTestService()
	owner := Identity{UserID: uuid.New().String()}

	doc, err := svc.Create(context.TODO(), owner, CreateInput{
		Title:   "Runbook",
		Content: "Step one. Step two.",
	})
	assert.NoError(t, err)

	// identical payload: no version, no activity
	same, err := svc.Update(context.TODO(), owner, doc.ID, UpdatePatch{
		Title:   strptr("Runbook"),
		Content: strptr("Step one. Step two."),
		Tags:    doc.TagList(),
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), same.Version)

	versions, err := svc.Versions(context.TODO(), doc.ID, Pagination{})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), versions.Total)

	feed, err := svc.DocumentFeed(context.TODO(), doc.ID, Pagination{})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), feed.Total)
}

func TestDocumentService_UpdateOwnership(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	svc, _ := newTestService()
	owner := Identity{UserID: uuid.New().String()}
	stranger := Identity{UserID: uuid.New().String()}
	admin := Identity{UserID: uuid.New().String(), Role: "admin"}

	doc, err := svc.Create(context.TODO(), owner, CreateInput{Title: "t", Content: "c"})
	assert.NoError(t, err)

	_, err = svc.Update(context.TODO(), stranger, doc.ID, UpdatePatch{Title: strptr("x")})
	assert.Error(t, err)
	assert.True(t, IsKind(err, KindForbidden))

	_, err = svc.Update(context.TODO(), admin, doc.ID, UpdatePatch{Title: strptr("admin edit")})
	assert.NoError(t, err)

	_, err = svc.Update(context.TODO(), owner, uuid.New().String(), UpdatePatch{Title: strptr("x")})
	assert.Error(t, err)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestDocumentService_LedgerBound(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	svc, st := newTestService()
	owner := Identity{UserID: uuid.New().String()}

	doc, err := svc.Create(context.TODO(), owner, CreateInput{Title: "t", Content: "revision 0"})
	assert.NoError(t, err)

	for i := 1; i <= 10; i++ {
		_, err := svc.Update(context.TODO(), owner, doc.ID, UpdatePatch{
			Content: strptr("revision " + uuid.New().String()),
		})
		assert.NoError(t, err)
	}

	// 1 create + 10 updates: version 11, ledger full, version 1 evicted
	versions, err := svc.Versions(context.TODO(), doc.ID, Pagination{Size: 50})
	assert.NoError(t, err)
	assert.Equal(t, int64(model.MaxVersions), versions.Total)
	assert.Equal(t, int64(11), versions.Versions[0].VersionNumber)
	assert.Equal(t, int64(2), versions.Versions[len(versions.Versions)-1].VersionNumber)

	// one more update evicts version 2
	_, err = svc.Update(context.TODO(), owner, doc.ID, UpdatePatch{
		Content: strptr("revision " + uuid.New().String()),
	})
	assert.NoError(t, err)

	versions, err = svc.Versions(context.TODO(), doc.ID, Pagination{Size: 50})
	assert.NoError(t, err)
	assert.Equal(t, int64(model.MaxVersions), versions.Total)
	assert.Equal(t, int64(12), versions.Versions[0].VersionNumber)
	assert.Equal(t, int64(3), versions.Versions[len(versions.Versions)-1].VersionNumber)

	// the activity feed still holds the full history past the eviction
	feed, err := svc.DocumentFeed(context.TODO(), doc.ID, Pagination{Size: 50})
	assert.NoError(t, err)
	assert.Equal(t, int64(12), feed.Total)

	count, err := st.CountVersions(context.TODO(), doc.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(model.MaxVersions), count)
}

func TestDocumentService_Delete(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	svc, st := newTestService()
	owner := Identity{UserID: uuid.New().String()}

	doc, err := svc.Create(context.TODO(), owner, CreateInput{Title: "t", Content: "c"})
	assert.NoError(t, err)

	_, err = svc.Update(context.TODO(), owner, doc.ID, UpdatePatch{Content: strptr("c2")})
	assert.NoError(t, err)

	err = svc.Delete(context.TODO(), owner, doc.ID)
	assert.NoError(t, err)

	// default-scope reads omit the document
	_, err = svc.Get(context.TODO(), doc.ID)
	assert.Error(t, err)
	assert.True(t, IsKind(err, KindNotFound))

	// the audit trail stays reachable by document id
	feed, err := svc.DocumentFeed(context.TODO(), doc.ID, Pagination{})
	assert.NoError(t, err)
	assert.Equal(t, int64(3), feed.Total)
	assert.Equal(t, model.ActivityDeleted, feed.Activities[0].Action)

	// the ledger rows survive the soft delete for audit purposes
	count, err := st.CountVersions(context.TODO(), doc.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestDocumentService_GetAndList(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	svc, _ := newTestService()
	owner := Identity{UserID: uuid.New().String()}

	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.TODO(), owner, CreateInput{
			Title:   "doc " + uuid.New().String(),
			Content: "content",
		})
		assert.NoError(t, err)
	}

	page, err := svc.List(context.TODO(), owner, Pagination{Page: 1, Size: 2})
	assert.NoError(t, err)
	assert.Len(t, page.Documents, 2)
	assert.Equal(t, int64(3), page.Total)
	assert.True(t, page.HasMore)

	page, err = svc.List(context.TODO(), owner, Pagination{Page: 2, Size: 2})
	assert.NoError(t, err)
	assert.Len(t, page.Documents, 1)
	assert.False(t, page.HasMore)

	got, err := svc.Get(context.TODO(), page.Documents[0].ID)
	assert.NoError(t, err)
	assert.Equal(t, "content", got.Content)
}

func TestDocumentService_Feed(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	svc, _ := newTestService()
	owner := Identity{UserID: uuid.New().String()}

	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.TODO(), owner, CreateInput{
			Title:   "doc " + uuid.New().String(),
			Content: "content",
		})
		assert.NoError(t, err)
	}

	feed, err := svc.Feed(context.TODO(), Pagination{Page: 1, Size: 2})
	assert.NoError(t, err)
	assert.Len(t, feed.Activities, 2)
	assert.Equal(t, int64(3), feed.Total)
	assert.True(t, feed.HasMore)

	feed, err = svc.Feed(context.TODO(), Pagination{Page: 2, Size: 2})
	assert.NoError(t, err)
	assert.Len(t, feed.Activities, 1)
	assert.False(t, feed.HasMore)
}

func TestDocumentService_ForceDerived(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	st := store.NewGormStore(tester.TestDB())
	svc := NewDocumentService(
		compress.NewNop(),
		st,
		nil,
		ai.NewDeriver(fixedCollaborator{}, time.Second),
		ledger.New(),
		activity.NewRecorder(nil),
	)
	owner := Identity{UserID: uuid.New().String()}

	doc, err := svc.Create(context.TODO(), owner, CreateInput{Title: "t", Content: "c"})
	assert.NoError(t, err)

	summary, err := svc.ForceSummarize(context.TODO(), owner, doc.ID)
	assert.NoError(t, err)
	assert.Equal(t, "fixed summary", summary)

	tags, err := svc.ForceTags(context.TODO(), owner, doc.ID)
	assert.NoError(t, err)
	assert.Equal(t, []string{"fixed"}, tags)

	// recomputing a derived field is exempt from the versioning contract
	got, err := svc.Get(context.TODO(), doc.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)

	versions, err := svc.Versions(context.TODO(), doc.ID, Pagination{})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), versions.Total)

	feed, err := svc.DocumentFeed(context.TODO(), doc.ID, Pagination{})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), feed.Total)
}

func TestStore_VersionedUpdateGuard(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	svc, st := newTestService()
	owner := Identity{UserID: uuid.New().String()}

	created, err := svc.Create(context.TODO(), owner, CreateInput{Title: "t", Content: "c"})
	assert.NoError(t, err)

	doc, err := st.GetDocument(context.TODO(), created.ID)
	assert.NoError(t, err)

	// first writer wins
	doc.Version = 2
	rows, err := st.UpdateDocumentVersioned(context.TODO(), doc, 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	// a second writer still holding version 1 is rejected
	stale := *doc
	stale.Version = 2
	rows, err = st.UpdateDocumentVersioned(context.TODO(), &stale, 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), rows)
}

func TestActivityReconcile(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	svc, st := newTestService()
	recorder := activity.NewRecorder(nil)
	owner := Identity{UserID: uuid.New().String()}

	doc, err := svc.Create(context.TODO(), owner, CreateInput{Title: "t", Content: "c"})
	assert.NoError(t, err)

	// simulate a lost best-effort audit write
	err = tester.TestDB().Exec("DELETE FROM activities").Error
	assert.NoError(t, err)

	err = recorder.Reconcile(context.TODO(), st, time.Now().Add(-time.Hour))
	assert.NoError(t, err)

	feed, err := svc.DocumentFeed(context.TODO(), doc.ID, Pagination{})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), feed.Total)
	assert.Equal(t, model.ActivityUpdated, feed.Activities[0].Action)
	assert.Equal(t, int64(1), feed.Activities[0].VersionNumber)
	// reconstructions are marked so the trail stays honest about them
	assert.Contains(t, feed.Activities[0].Metadata, `"replayed":true`)
}

func TestActivityReconcileCompressed(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	st := store.NewGormStore(tester.TestDB())
	svc := NewDocumentService(
		compress.NewGZip(),
		st,
		nil,
		ai.NewDeriver(nil, time.Second),
		ledger.New(),
		activity.NewRecorder(nil),
	)
	recorder := activity.NewRecorder(nil)
	owner := Identity{UserID: uuid.New().String()}

	doc, err := svc.Create(context.TODO(), owner, CreateInput{
		Title:   "Runbook",
		Content: "Step one. Step two.",
	})
	assert.NoError(t, err)

	err = tester.TestDB().Exec("DELETE FROM activities").Error
	assert.NoError(t, err)

	err = recorder.Reconcile(context.TODO(), st, time.Now().Add(-time.Hour))
	assert.NoError(t, err)

	// the replayed snapshot must carry the plaintext, not the gzip bytes
	feed, err := svc.DocumentFeed(context.TODO(), doc.ID, Pagination{})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), feed.Total)
	assert.Contains(t, feed.Activities[0].Metadata, "Step one. Step two.")
}

// flakyAuditStore fails every activity insert while passing everything else
// through.
type flakyAuditStore struct {
	store.Store
}

func (f *flakyAuditStore) CreateActivity(ctx context.Context, record *model.Activity) error {
	return errors.New("audit store unavailable")
}

func (f *flakyAuditStore) Transaction(ctx context.Context, fn func(tx store.Store) error) error {
	return f.Store.Transaction(ctx, func(tx store.Store) error {
		return fn(&flakyAuditStore{Store: tx})
	})
}

func TestAuditWriteFailureDoesNotUnwindMutation(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	st := &flakyAuditStore{Store: store.NewGormStore(tester.TestDB())}
	svc := NewDocumentService(
		compress.NewNop(),
		st,
		nil,
		ai.NewDeriver(nil, time.Second),
		ledger.New(),
		activity.NewRecorder(nil),
	)
	owner := Identity{UserID: uuid.New().String()}

	// audit writes are best-effort: their failure is logged and swallowed
	doc, err := svc.Create(context.TODO(), owner, CreateInput{Title: "t", Content: "c"})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), doc.Version)

	updated, err := svc.Update(context.TODO(), owner, doc.ID, UpdatePatch{Content: strptr("c2")})
	assert.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)

	versions, err := svc.Versions(context.TODO(), doc.ID, Pagination{})
	assert.NoError(t, err)
	assert.Equal(t, int64(2), versions.Total)

	feed, err := svc.DocumentFeed(context.TODO(), doc.ID, Pagination{})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), feed.Total)
}

type fixedCollaborator struct {
}

func (fixedCollaborator) Summarize(ctx context.Context, text string) (string, error) {
	return "fixed summary", nil
}

func (fixedCollaborator) SuggestTags(ctx context.Context, text string, k int) ([]string, error) {
	return []string{"fixed"}, nil
}

func (fixedCollaborator) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}
