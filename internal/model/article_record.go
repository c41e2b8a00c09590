package model

import "time"

// Index states recorded per source record.
const (
	IndexStatusIndexed = "indexed"
	IndexStatusFailed  = "failed"
)

// ArticleRecord is the bookkeeping row kept per source record: which content
// hash was last indexed under which schema version. It lets re-runs of the
// same harvest batch skip unchanged records and gives failures an audit trail.
type ArticleRecord struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"`
	SourceUUID    string    `gorm:"type:varchar(64);not null;uniqueIndex;column:source_uuid"`
	DocID         string    `gorm:"type:varchar(36);column:doc_id"`
	ContentHash   string    `gorm:"type:varchar(32);column:content_hash"`
	SchemaVersion int       `gorm:"column:schema_version"`
	Status        string    `gorm:"type:varchar(16);column:status"`
	LastError     string    `gorm:"type:text;column:last_error"`
	IndexedAt     time.Time `gorm:"column:indexed_at"`
}

func (ArticleRecord) TableName() string {
	return "article_records"
}
