package model

import (
	"encoding/json"
	"time"
)

// MaxVersions bounds the per-document version ledger. Appending beyond the
// bound evicts the oldest entry; the full history survives only in the
// activity log.
const MaxVersions = 10

// Version is one ledger entry: a full field snapshot as of that version plus
// the diff against the immediately preceding version. Diff columns are
// populated only when the matching changed flag is set.
type Version struct {
	DocumentID     string `gorm:"primaryKey;uuid;not null"`
	VersionNumber  int64  `gorm:"primaryKey"`
	Title          string `gorm:"not null"`
	Content        string `gorm:"not null"`
	Summary        string
	Tags           string // JSON array snapshot
	Compression    string // codec used to encode the content snapshot
	TitleDiff      string // JSON []diff.Segment
	ContentDiff    string // JSON []diff.Segment
	TagsDiff       string // JSON diff.SetDiff
	SummaryDiff    string // JSON diff.ScalarDiff
	TitleChanged   bool
	ContentChanged bool
	TagsChanged    bool
	SummaryChanged bool
	EditedBy       string `gorm:"uuid;not null"`
	CreatedAt      time.Time
}

func (Version) TableName() string {
	return "document_versions"
}

// TagList decodes the snapshot tag set.
func (v *Version) TagList() []string {
	tags := make([]string, 0)
	if v.Tags == "" {
		return tags
	}
	if err := json.Unmarshal([]byte(v.Tags), &tags); err != nil {
		return []string{}
	}
	return tags
}
