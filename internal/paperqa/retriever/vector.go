// Package retriever implements the evidence sources used by the workflow.
package retriever

import (
	"context"
	"fmt"

	"github.com/kart-io/logger"

	"github.com/kart-io/paperqa/pkg/component/milvus"
	"github.com/kart-io/paperqa/pkg/llm"
)

// VectorSearcher is the subset of the milvus client used for retrieval.
type VectorSearcher interface {
	Search(ctx context.Context, collection string, vector []float32, topK int, filter string) ([]milvus.Hit, error)
}

// VectorRetriever embeds the question and searches the chunks of one article.
type VectorRetriever struct {
	embedder   llm.EmbeddingProvider
	store      VectorSearcher
	collection string
	topK       int
}

// NewVectorRetriever 创建向量检索器。
func NewVectorRetriever(embedder llm.EmbeddingProvider, store VectorSearcher, collection string, topK int) *VectorRetriever {
	if topK <= 0 {
		topK = 5
	}
	return &VectorRetriever{
		embedder:   embedder,
		store:      store,
		collection: collection,
		topK:       topK,
	}
}

// Search returns the text of the best matching chunks. An empty articleID
// searches the whole collection.
func (r *VectorRetriever) Search(ctx context.Context, question, articleID string) ([]string, error) {
	hits, err := r.Hits(ctx, question, articleID, r.topK)
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(hits))
	for _, h := range hits {
		texts = append(texts, h.Text)
	}
	return texts, nil
}

// Hits is Search with scores and an explicit limit.
func (r *VectorRetriever) Hits(ctx context.Context, question, articleID string, limit int) ([]milvus.Hit, error) {
	vec, err := r.embedder.EmbedSingle(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	var filter string
	if articleID != "" {
		filter = milvus.EqualFilter(milvus.FieldArticleID, articleID)
	}

	hits, err := r.store.Search(ctx, r.collection, vec, limit, filter)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", r.collection, err)
	}
	logger.Debugw("vector search done",
		"collection", r.collection,
		"article_id", articleID,
		"hits", len(hits),
	)
	return hits, nil
}
