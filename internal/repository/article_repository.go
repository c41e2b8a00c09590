// Package repository holds the MySQL bookkeeping layer.
package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"najah-search-go/internal/model"
)

// ArticleRepository persists per-source indexing state.
type ArticleRepository interface {
	Upsert(record *model.ArticleRecord) error
	FindBySourceUUID(sourceUUID string) (*model.ArticleRecord, error)
}

type articleRepository struct {
	db *gorm.DB
}

// NewArticleRepository creates an ArticleRepository over the given database.
func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

// Upsert inserts or replaces the row keyed by source_uuid.
func (r *articleRepository) Upsert(record *model.ArticleRecord) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source_uuid"}},
		UpdateAll: true,
	}).Create(record).Error
}

// FindBySourceUUID returns the row for sourceUUID, or nil when none exists.
func (r *articleRepository) FindBySourceUUID(sourceUUID string) (*model.ArticleRecord, error) {
	var record model.ArticleRecord
	err := r.db.Where("source_uuid = ?", sourceUUID).First(&record).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}
