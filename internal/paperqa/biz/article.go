package biz

import (
	"context"

	"github.com/kart-io/paperqa/internal/model"
	"github.com/kart-io/paperqa/internal/paperqa/store"
	errno "github.com/kart-io/paperqa/pkg/utils/errors"
)

// MaxPageSize bounds list requests.
const MaxPageSize = 100

// ArticleBiz serves article metadata.
type ArticleBiz struct {
	store store.Factory
}

func NewArticleBiz(s store.Factory) *ArticleBiz {
	return &ArticleBiz{store: s}
}

// List returns a page of articles.
func (b *ArticleBiz) List(ctx context.Context, offset, limit int) (*model.ArticleList, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}
	total, items, err := b.store.Articles().List(ctx, offset, limit)
	if err != nil {
		return nil, errno.ErrDatabase.WithCause(err)
	}
	return &model.ArticleList{TotalCount: total, Items: items}, nil
}

// Get returns one article or ErrArticleNotFound.
func (b *ArticleBiz) Get(ctx context.Context, id string) (*model.Article, error) {
	a, err := b.store.Articles().Get(ctx, id)
	if err != nil {
		return nil, dbError(err, errno.ErrArticleNotFound)
	}
	return a, nil
}

// ensureArticle returns ErrArticleNotFound unless id exists.
func ensureArticle(ctx context.Context, s store.Factory, id string) error {
	ok, err := s.Articles().Exists(ctx, id)
	if err != nil {
		return errno.ErrDatabase.WithCause(err)
	}
	if !ok {
		return errno.ErrArticleNotFound
	}
	return nil
}
