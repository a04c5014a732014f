package model

import (
	"time"

	"gorm.io/gorm"

	"github.com/kart-io/paperqa/pkg/utils/id"
)

// ResearchNote is one answered question. Validated notes form the report of
// an article.
type ResearchNote struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	ArticleID string    `json:"a_id" gorm:"column:a_id;type:varchar(64);index:idx_note_article"`
	UserID    uint64    `json:"user_id" gorm:"index"`
	Question  string    `json:"question" gorm:"type:text;not null"`
	Answer    string    `json:"answer" gorm:"type:text"`
	ToolsUsed []string  `json:"tools_used" gorm:"serializer:json;type:text"`
	Model     string    `json:"model" gorm:"size:128"`
	Validated bool      `json:"validated" gorm:"default:false;index:idx_note_article"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (ResearchNote) TableName() string {
	return "research_notes"
}

// BeforeCreate assigns a ULID when the caller did not.
func (n *ResearchNote) BeforeCreate(_ *gorm.DB) error {
	if n.ID == "" {
		n.ID = id.NewULID()
	}
	return nil
}
