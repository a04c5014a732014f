package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kart-io/paperqa/internal/model"
)

type summaries struct {
	db *gorm.DB
}

func newSummaries(db *gorm.DB) *summaries {
	return &summaries{db}
}

func (s *summaries) Get(ctx context.Context, articleID string) (*model.Summary, error) {
	var summary model.Summary
	if err := s.db.WithContext(ctx).Where("a_id = ?", articleID).First(&summary).Error; err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *summaries) Upsert(ctx context.Context, summary *model.Summary) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "a_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "model", "updated_at"}),
	}).Create(summary).Error
}
