// Package model defines the persisted records of paperqa.
package model

import "time"

// Article is a paper that can be questioned. ID is the arXiv style article id.
type Article struct {
	ID              string    `json:"a_id" gorm:"column:a_id;primaryKey;type:varchar(64)"`
	Title           string    `json:"title" gorm:"size:500;not null"`
	Description     string    `json:"description" gorm:"type:text"`
	PublicationDate time.Time `json:"publication_date"`
	Authors         string    `json:"authors" gorm:"size:500"`
	PDFURL          string    `json:"pdf_url" gorm:"column:pdf_url;size:500"`
	ImageURL        string    `json:"image_url" gorm:"column:image_url;size:500"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM.
func (Article) TableName() string {
	return "articles"
}

// ArticleList 分页结果
type ArticleList struct {
	TotalCount int64      `json:"total_count"`
	Items      []*Article `json:"items"`
}

// Summary is the generated summary of an article, one per article.
type Summary struct {
	ArticleID string    `json:"a_id" gorm:"column:a_id;primaryKey;type:varchar(64)"`
	Content   string    `json:"summary" gorm:"type:text"`
	Model     string    `json:"model" gorm:"size:128"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Summary) TableName() string {
	return "summaries"
}
