package model

import (
	"time"
)

// Document status values.
const (
	DocumentPending = "pending"
	DocumentIndexed = "indexed"
	DocumentFailed  = "failed"
)

// Document is the ingestion ledger entry of one source file.
type Document struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	ArticleID string    `json:"a_id" gorm:"column:a_id;type:varchar(64);index"`
	Source    string    `json:"source" gorm:"type:varchar(512);not null"` // 文件路径或对象键
	Hash      string    `json:"hash" gorm:"type:varchar(64);uniqueIndex"` // 内容 sha256，用于去重
	ChunkNum  int       `json:"chunk_num" gorm:"default:0"`
	Status    string    `json:"status" gorm:"type:varchar(32);default:'pending'"`
	Error     string    `json:"error,omitempty" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for Document.
func (Document) TableName() string {
	return "ingest_documents"
}
