package biz

import (
	"context"
	"fmt"

	"github.com/kart-io/paperqa/internal/model"
	"github.com/kart-io/paperqa/pkg/component/milvus"
	"github.com/kart-io/paperqa/pkg/llm"
)

// VectorInserter is the subset of the milvus client used to index notes.
type VectorInserter interface {
	Insert(ctx context.Context, collection string, rows []milvus.Row) ([]int64, error)
}

// NoteIndexer embeds validated notes into the reports collection.
type NoteIndexer struct {
	embedder   llm.EmbeddingProvider
	store      VectorInserter
	collection string
}

func NewNoteIndexer(embedder llm.EmbeddingProvider, store VectorInserter, collection string) *NoteIndexer {
	return &NoteIndexer{embedder: embedder, store: store, collection: collection}
}

// IndexNote implements Indexer.
func (i *NoteIndexer) IndexNote(ctx context.Context, note *model.ResearchNote) error {
	text := fmt.Sprintf("Question: %s\n\nAnswer: %s", note.Question, note.Answer)
	vec, err := i.embedder.EmbedSingle(ctx, text)
	if err != nil {
		return fmt.Errorf("embed note: %w", err)
	}
	_, err = i.store.Insert(ctx, i.collection, []milvus.Row{{
		Embedding: vec,
		ArticleID: note.ArticleID,
		Text:      text,
		Source:    "note:" + note.ID,
	}})
	return err
}
