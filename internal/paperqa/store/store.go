// Package store persists paperqa records with gorm.
package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/kart-io/paperqa/internal/model"
	"github.com/kart-io/paperqa/pkg/component/db"
	dbopts "github.com/kart-io/paperqa/pkg/options/db"
)

// ErrRecordNotFound is returned by the Get methods when nothing matches.
var ErrRecordNotFound = gorm.ErrRecordNotFound

// IsNotFound reports whether err is a not-found error from a store.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// Factory defines the factory interface for creating stores.
type Factory interface {
	Articles() ArticleStore
	Notes() NoteStore
	Summaries() SummaryStore
	Users() UserStore
	Documents() DocumentStore
	DB() *gorm.DB
	Close() error
}

// ArticleStore defines the article storage interface.
type ArticleStore interface {
	Create(ctx context.Context, article *model.Article) error
	Upsert(ctx context.Context, article *model.Article) error
	Get(ctx context.Context, id string) (*model.Article, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, offset, limit int) (int64, []*model.Article, error)
}

// NoteStore defines the research note storage interface.
type NoteStore interface {
	Create(ctx context.Context, note *model.ResearchNote) error
	Get(ctx context.Context, articleID, noteID string) (*model.ResearchNote, error)
	List(ctx context.Context, articleID string, validatedOnly bool) ([]*model.ResearchNote, error)
	SetValidated(ctx context.Context, articleID, noteID string, validated bool) error
}

// SummaryStore defines the summary storage interface.
type SummaryStore interface {
	Get(ctx context.Context, articleID string) (*model.Summary, error)
	Upsert(ctx context.Context, summary *model.Summary) error
}

// UserStore defines the user storage interface.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	Get(ctx context.Context, username string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

// DocumentStore defines the ingestion ledger interface.
type DocumentStore interface {
	GetByHash(ctx context.Context, hash string) (*model.Document, error)
	Save(ctx context.Context, doc *model.Document) error
	List(ctx context.Context, status string) ([]*model.Document, error)
}

// datastore implements the Factory interface.
type datastore struct {
	db *gorm.DB
}

// NewFactory wraps an open connection.
func NewFactory(gdb *gorm.DB) Factory {
	return &datastore{db: gdb}
}

// Open connects with opts and migrates the schema.
func Open(ctx context.Context, opts *dbopts.Options) (Factory, error) {
	gdb, err := db.New(ctx, opts)
	if err != nil {
		return nil, err
	}
	ds := &datastore{db: gdb}
	if err := ds.AutoMigrate(); err != nil {
		_ = db.Close(gdb)
		return nil, err
	}
	return ds, nil
}

func (ds *datastore) Articles() ArticleStore   { return newArticles(ds.db) }
func (ds *datastore) Notes() NoteStore         { return newNotes(ds.db) }
func (ds *datastore) Summaries() SummaryStore  { return newSummaries(ds.db) }
func (ds *datastore) Users() UserStore         { return newUsers(ds.db) }
func (ds *datastore) Documents() DocumentStore { return newDocuments(ds.db) }

// DB exposes the connection for components that manage their own tables.
func (ds *datastore) DB() *gorm.DB { return ds.db }

// AutoMigrate migrates the database schema.
func (ds *datastore) AutoMigrate() error {
	return ds.db.AutoMigrate(
		&model.Article{},
		&model.ResearchNote{},
		&model.Summary{},
		&model.User{},
		&model.Document{},
	)
}

// Close closes the database connection.
func (ds *datastore) Close() error {
	return db.Close(ds.db)
}
