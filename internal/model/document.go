package model

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// MaxTags caps the merged caller + AI tag set on a document.
const MaxTags = 10

// Document is the primary record. Its version ledger rows share its atomic
// scope; activity rows only reference it by id and survive its deletion.
type Document struct {
	ID          string `gorm:"primaryKey;uuid;not null"`
	Title       string `gorm:"not null"`
	Content     string `gorm:"not null"`
	Summary     string
	Tags        string // JSON array, normalized, capped at MaxTags
	Embedding   string // JSON array of floats, owned by the AI collaborator
	Compression string // codec used to encode the stored content
	Version     int64  `gorm:"not null;default:1"`
	CreatedBy   string `gorm:"index;uuid;not null"`
	UpdatedBy   string `gorm:"uuid;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (Document) TableName() string {
	return "documents"
}

// IsDeleted reports whether the document was soft deleted.
func (d *Document) IsDeleted() bool {
	return d.DeletedAt.Valid
}

// TagList decodes the stored tag set.
func (d *Document) TagList() []string {
	tags := make([]string, 0)
	if d.Tags == "" {
		return tags
	}
	if err := json.Unmarshal([]byte(d.Tags), &tags); err != nil {
		return []string{}
	}
	return tags
}

// SetTagList encodes the tag set into the stored form.
func (d *Document) SetTagList(tags []string) error {
	if tags == nil {
		tags = make([]string, 0)
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return err
	}
	d.Tags = string(data)
	return nil
}

func (d *Document) MarshalBinary() ([]byte, error) {
	return json.Marshal(d)
}
