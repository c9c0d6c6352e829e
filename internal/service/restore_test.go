package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/ai"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/model"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/tester"
)

func TestDocumentService_Restore(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	svc, _ := newTestService()
	owner := Identity{UserID: uuid.New().String()}

	doc, err := svc.Create(context.TODO(), owner, CreateInput{Title: "A", Content: "step one"})
	assert.NoError(t, err)

	_, err = svc.Update(context.TODO(), owner, doc.ID, UpdatePatch{Title: strptr("B")})
	assert.NoError(t, err)

	current, err := svc.Update(context.TODO(), owner, doc.ID, UpdatePatch{Title: strptr("C")})
	assert.NoError(t, err)
	assert.Equal(t, int64(3), current.Version)

	// restoring to version 2 moves forward: a checkpoint of the current
	// state, then the restored state, never a rewind
	restored, err := svc.Restore(context.TODO(), owner, doc.ID, 2)
	assert.NoError(t, err)
	assert.Equal(t, int64(5), restored.Version)
	assert.Equal(t, "B", restored.Title)
	assert.Equal(t, "step one", restored.Content)

	// the embedding is recomputed for the restored content, not carried over
	// from the pre-restore state
	expected, err := json.Marshal(ai.FallbackEmbedding("B step one"))
	assert.NoError(t, err)
	assert.Equal(t, string(expected), restored.Embedding)

	versions, err := svc.Versions(context.TODO(), doc.ID, Pagination{Size: 50})
	assert.NoError(t, err)
	assert.Equal(t, int64(5), versions.Total)

	top := versions.Versions[0]
	assert.Equal(t, int64(5), top.VersionNumber)
	assert.Equal(t, "B", top.Title)
	assert.True(t, top.TitleChanged)
	assert.NotEmpty(t, top.TitleDiff)
	assert.False(t, top.ContentChanged)
	assert.Empty(t, top.ContentDiff)

	checkpoint := versions.Versions[1]
	assert.Equal(t, int64(4), checkpoint.VersionNumber)
	assert.Equal(t, "C", checkpoint.Title)
	assert.False(t, checkpoint.TitleChanged)
	assert.False(t, checkpoint.ContentChanged)

	feed, err := svc.DocumentFeed(context.TODO(), doc.ID, Pagination{Size: 50})
	assert.NoError(t, err)
	assert.Equal(t, model.ActivityVersionCreated, feed.Activities[0].Action)
	assert.Equal(t, int64(5), feed.Activities[0].VersionNumber)
	assert.Contains(t, feed.Activities[0].Metadata, `"before"`)
	assert.Contains(t, feed.Activities[0].Metadata, `"after"`)
}

func TestDocumentService_RestoreMissingVersion(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	svc, _ := newTestService()
	owner := Identity{UserID: uuid.New().String()}

	doc, err := svc.Create(context.TODO(), owner, CreateInput{Title: "A", Content: "step one"})
	assert.NoError(t, err)

	_, err = svc.Restore(context.TODO(), owner, doc.ID, 42)
	assert.Error(t, err)
	assert.True(t, IsKind(err, KindNotFound))

	_, err = svc.Restore(context.TODO(), owner, uuid.New().String(), 1)
	assert.Error(t, err)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestDocumentService_RestoreOwnership(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	svc, _ := newTestService()
	owner := Identity{UserID: uuid.New().String()}
	stranger := Identity{UserID: uuid.New().String()}

	doc, err := svc.Create(context.TODO(), owner, CreateInput{Title: "A", Content: "step one"})
	assert.NoError(t, err)

	_, err = svc.Restore(context.TODO(), stranger, doc.ID, 1)
	assert.Error(t, err)
	assert.True(t, IsKind(err, KindForbidden))
}
