package biz

import (
	"context"
	"fmt"
	"strings"

	"github.com/kart-io/logger"

	"github.com/kart-io/paperqa/internal/model"
	"github.com/kart-io/paperqa/internal/paperqa/store"
	"github.com/kart-io/paperqa/pkg/component/milvus"
	"github.com/kart-io/paperqa/pkg/llm"
	errno "github.com/kart-io/paperqa/pkg/utils/errors"
)

const summarySystemPrompt = `You summarise research papers for busy readers.
Use only the excerpts provided. Cover the problem, the method, the main results and the limitations.
Write markdown with short sections.`

const summaryPromptTemplate = `Paper: %s

Excerpts:

%s

Write the summary.`

// ChunkSource returns the stored chunks of an article ranked against a query.
type ChunkSource interface {
	Hits(ctx context.Context, query, articleID string, limit int) ([]milvus.Hit, error)
}

// SummaryBiz generates and stores article summaries.
type SummaryBiz struct {
	store  store.Factory
	chunks ChunkSource
	chat   llm.ChatProvider
	limit  int
	model  string
}

func NewSummaryBiz(s store.Factory, chunks ChunkSource, chat llm.ChatProvider, limit int, modelName string) *SummaryBiz {
	if limit <= 0 {
		limit = 20
	}
	return &SummaryBiz{store: s, chunks: chunks, chat: chat, limit: limit, model: modelName}
}

// Generate returns the stored summary unless force is set or none exists.
func (b *SummaryBiz) Generate(ctx context.Context, articleID string, force bool) (*model.Summary, error) {
	article, err := b.store.Articles().Get(ctx, articleID)
	if err != nil {
		return nil, dbError(err, errno.ErrArticleNotFound)
	}

	if !force {
		existing, err := b.store.Summaries().Get(ctx, articleID)
		if err == nil {
			return existing, nil
		}
		if !store.IsNotFound(err) {
			return nil, errno.ErrDatabase.WithCause(err)
		}
	}

	query := article.Title
	if article.Description != "" {
		query += "\n" + article.Description
	}
	hits, err := b.chunks.Hits(ctx, query, articleID, b.limit)
	if err != nil {
		return nil, errno.ErrSummaryFailed.WithCause(err)
	}
	if len(hits) == 0 {
		return nil, errno.ErrSummaryFailed.WithMessage("article has no indexed content")
	}

	excerpts := make([]string, 0, len(hits))
	for _, h := range hits {
		excerpts = append(excerpts, h.Text)
	}
	prompt := fmt.Sprintf(summaryPromptTemplate, article.Title, strings.Join(excerpts, "\n\n---\n\n"))

	content, err := b.chat.Generate(llm.WithModel(ctx, b.model), prompt, summarySystemPrompt)
	if err != nil {
		return nil, errno.ErrSummaryFailed.WithCause(err)
	}

	s := &model.Summary{ArticleID: articleID, Content: content, Model: b.model}
	if err := b.store.Summaries().Upsert(ctx, s); err != nil {
		return nil, errno.ErrDatabase.WithCause(err)
	}
	logger.Infow("summary generated", "article_id", articleID, "chunks", len(hits))
	return s, nil
}
