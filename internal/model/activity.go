package model

import "time"

// Activity action kinds.
const (
	ActivityCreated        = "created"
	ActivityUpdated        = "updated"
	ActivityDeleted        = "deleted"
	ActivityVersionCreated = "version_created"
)

// Activity is one append-only audit record. It references the document and
// user by id only, so deleting a document never touches its activity trail.
// The title is denormalized for display after the document is gone.
type Activity struct {
	ID             string `gorm:"primaryKey;uuid;not null"`
	Action         string `gorm:"not null"`
	DocumentID     string `gorm:"index;uuid;not null"`
	DocumentTitle  string
	VersionNumber  int64
	UserID         string `gorm:"uuid;not null"`
	TitleChanged   bool
	ContentChanged bool
	TagsChanged    bool
	SummaryChanged bool
	Metadata       string // JSON before/after state snapshots
	CreatedAt      time.Time `gorm:"index"`
}

func (Activity) TableName() string {
	return "activities"
}
