package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/kart-io/paperqa/internal/model"
)

type notes struct {
	db *gorm.DB
}

func newNotes(db *gorm.DB) *notes {
	return &notes{db}
}

func (n *notes) Create(ctx context.Context, note *model.ResearchNote) error {
	return n.db.WithContext(ctx).Create(note).Error
}

func (n *notes) Get(ctx context.Context, articleID, noteID string) (*model.ResearchNote, error) {
	var note model.ResearchNote
	err := n.db.WithContext(ctx).
		Where("a_id = ? AND id = ?", articleID, noteID).
		First(&note).Error
	if err != nil {
		return nil, err
	}
	return &note, nil
}

// List returns the notes of an article, oldest first.
func (n *notes) List(ctx context.Context, articleID string, validatedOnly bool) ([]*model.ResearchNote, error) {
	q := n.db.WithContext(ctx).Where("a_id = ?", articleID)
	if validatedOnly {
		q = q.Where("validated = ?", true)
	}
	var items []*model.ResearchNote
	if err := q.Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (n *notes) SetValidated(ctx context.Context, articleID, noteID string, validated bool) error {
	res := n.db.WithContext(ctx).Model(&model.ResearchNote{}).
		Where("a_id = ? AND id = ?", articleID, noteID).
		Update("validated", validated)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
