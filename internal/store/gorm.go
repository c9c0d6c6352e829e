package store

import (
	"context"
	"time"

	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/model"
	"gorm.io/gorm"
)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db: db,
	}
}

var _ Store = (*GormStore)(nil)

type GormStore struct {
	db *gorm.DB
}

func (g *GormStore) CreateDocument(ctx context.Context, doc *model.Document) error {
	return g.db.WithContext(ctx).Create(doc).Error
}

func (g *GormStore) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	var doc model.Document
	err := g.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (g *GormStore) ListDocuments(ctx context.Context, ownerID string, offset, limit int) ([]*model.Document, int64, error) {
	var docs []*model.Document
	var total int64

	q := g.db.WithContext(ctx).Model(&model.Document{}).Where("created_by = ?", ownerID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("updated_at desc").Offset(offset).Limit(limit).Find(&docs).Error
	return docs, total, err
}

func (g *GormStore) UpdateDocument(ctx context.Context, doc *model.Document) error {
	return g.db.WithContext(ctx).Save(doc).Error
}

// UpdateDocumentVersioned writes the document only when the stored version
// still matches the version read at request start. A zero row count means a
// concurrent editor committed first.
func (g *GormStore) UpdateDocumentVersioned(ctx context.Context, doc *model.Document, expectedVersion int64) (int64, error) {
	res := g.db.WithContext(ctx).Model(&model.Document{}).
		Where("id = ? AND version = ?", doc.ID, expectedVersion).
		Select("Title", "Content", "Summary", "Tags", "Embedding", "Compression", "Version", "UpdatedBy").
		Updates(doc)
	return res.RowsAffected, res.Error
}

func (g *GormStore) DeleteDocument(ctx context.Context, id string) error {
	return g.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Document{}).Error
}

func (g *GormStore) EraseDocument(ctx context.Context, id string) error {
	if err := g.db.WithContext(ctx).Where("document_id = ?", id).Delete(&model.Version{}).Error; err != nil {
		return err
	}
	return g.db.WithContext(ctx).Unscoped().Where("id = ?", id).Delete(&model.Document{}).Error
}

func (g *GormStore) ListDocumentsUpdatedSince(ctx context.Context, since time.Time) ([]*model.Document, error) {
	var docs []*model.Document
	err := g.db.WithContext(ctx).Unscoped().Where("updated_at > ?", since).Find(&docs).Error
	return docs, err
}

func (g *GormStore) CreateVersion(ctx context.Context, version *model.Version) error {
	return g.db.WithContext(ctx).Create(version).Error
}

func (g *GormStore) GetVersion(ctx context.Context, docID string, number int64) (*model.Version, error) {
	var version model.Version
	err := g.db.WithContext(ctx).
		Where("document_id = ? AND version_number = ?", docID, number).
		First(&version).Error
	if err != nil {
		return nil, err
	}
	return &version, nil
}

func (g *GormStore) ListVersions(ctx context.Context, docID string, offset, limit int) ([]*model.Version, int64, error) {
	var versions []*model.Version
	var total int64

	q := g.db.WithContext(ctx).Model(&model.Version{}).Where("document_id = ?", docID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("version_number desc").Offset(offset).Limit(limit).Find(&versions).Error
	return versions, total, err
}

func (g *GormStore) CountVersions(ctx context.Context, docID string) (int64, error) {
	var total int64
	err := g.db.WithContext(ctx).Model(&model.Version{}).
		Where("document_id = ?", docID).Count(&total).Error
	return total, err
}

func (g *GormStore) DeleteVersionsBelow(ctx context.Context, docID string, number int64) error {
	return g.db.WithContext(ctx).
		Where("document_id = ? AND version_number < ?", docID, number).
		Delete(&model.Version{}).Error
}

func (g *GormStore) CreateActivity(ctx context.Context, activity *model.Activity) error {
	return g.db.WithContext(ctx).Create(activity).Error
}

func (g *GormStore) ListActivities(ctx context.Context, offset, limit int) ([]*model.Activity, int64, error) {
	var activities []*model.Activity
	var total int64

	q := g.db.WithContext(ctx).Model(&model.Activity{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("created_at desc").Offset(offset).Limit(limit).Find(&activities).Error
	return activities, total, err
}

func (g *GormStore) ListDocumentActivities(ctx context.Context, docID string, offset, limit int) ([]*model.Activity, int64, error) {
	var activities []*model.Activity
	var total int64

	q := g.db.WithContext(ctx).Model(&model.Activity{}).Where("document_id = ?", docID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("created_at desc").Offset(offset).Limit(limit).Find(&activities).Error
	return activities, total, err
}

func (g *GormStore) LatestActivityVersion(ctx context.Context, docID string) (int64, error) {
	var number *int64
	err := g.db.WithContext(ctx).Model(&model.Activity{}).
		Where("document_id = ?", docID).
		Select("max(version_number)").Scan(&number).Error
	if err != nil {
		return 0, err
	}
	if number == nil {
		return 0, nil
	}
	return *number, nil
}

func (g *GormStore) Migrate() error {
	return model.Migrate(g.db)
}

func (g *GormStore) Transaction(ctx context.Context, f func(tx Store) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return f(&GormStore{db: tx})
	})
}
