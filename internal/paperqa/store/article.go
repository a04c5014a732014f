package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kart-io/paperqa/internal/model"
)

type articles struct {
	db *gorm.DB
}

func newArticles(db *gorm.DB) *articles {
	return &articles{db}
}

func (a *articles) Create(ctx context.Context, article *model.Article) error {
	return a.db.WithContext(ctx).Create(article).Error
}

// Upsert inserts the article or refreshes its metadata.
func (a *articles) Upsert(ctx context.Context, article *model.Article) error {
	return a.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "a_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "description", "publication_date", "authors", "pdf_url", "image_url", "updated_at"}),
	}).Create(article).Error
}

func (a *articles) Get(ctx context.Context, id string) (*model.Article, error) {
	var article model.Article
	if err := a.db.WithContext(ctx).Where("a_id = ?", id).First(&article).Error; err != nil {
		return nil, err
	}
	return &article, nil
}

func (a *articles) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := a.db.WithContext(ctx).Model(&model.Article{}).Where("a_id = ?", id).Count(&count).Error
	return count > 0, err
}

// List lists articles, newest publication first.
func (a *articles) List(ctx context.Context, offset, limit int) (int64, []*model.Article, error) {
	var count int64
	var items []*model.Article

	if err := a.db.WithContext(ctx).Model(&model.Article{}).Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if err := a.db.WithContext(ctx).
		Order("publication_date DESC").
		Offset(offset).Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return count, items, nil
}
