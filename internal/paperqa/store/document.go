package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/kart-io/paperqa/internal/model"
	"github.com/kart-io/paperqa/pkg/utils/id"
)

type documents struct {
	db *gorm.DB
}

func newDocuments(db *gorm.DB) *documents {
	return &documents{db}
}

func (d *documents) GetByHash(ctx context.Context, hash string) (*model.Document, error) {
	var doc model.Document
	if err := d.db.WithContext(ctx).Where("hash = ?", hash).First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// Save inserts or updates doc. A failed file that is retried reuses its row.
func (d *documents) Save(ctx context.Context, doc *model.Document) error {
	if doc.ID == "" {
		doc.ID = id.NewULID()
	}
	return d.db.WithContext(ctx).Save(doc).Error
}

func (d *documents) List(ctx context.Context, status string) ([]*model.Document, error) {
	q := d.db.WithContext(ctx)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var items []*model.Document
	if err := q.Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
