package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kart-io/logger"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/paperqa/internal/model"
	"github.com/kart-io/paperqa/internal/paperqa/store"
	"github.com/kart-io/paperqa/internal/pkg/textutil"
	"github.com/kart-io/paperqa/pkg/component/milvus"
	"github.com/kart-io/paperqa/pkg/infra/pool"
	"github.com/kart-io/paperqa/pkg/llm"
	ingestopts "github.com/kart-io/paperqa/pkg/options/ingest"
	errno "github.com/kart-io/paperqa/pkg/utils/errors"
)

// VectorInserter is the subset of the milvus client used by the pipeline.
type VectorInserter interface {
	Insert(ctx context.Context, collection string, rows []milvus.Row) ([]int64, error)
}

// Report summarises one pipeline run.
type Report struct {
	Total   int           `json:"total"`
	Indexed int           `json:"indexed"`
	Skipped int           `json:"skipped"`
	Failed  int           `json:"failed"`
	Chunks  int           `json:"chunks"`
	Elapsed time.Duration `json:"elapsed"`
}

type outcome int

const (
	outcomeIndexed outcome = iota
	outcomeSkipped
	outcomeFailed
)

// Pipeline moves files from a Source into the article collection.
type Pipeline struct {
	source     Source
	store      store.Factory
	embedder   llm.EmbeddingProvider
	vectors    VectorInserter
	collection string
	opts       *ingestopts.Options
}

func NewPipeline(src Source, s store.Factory, embedder llm.EmbeddingProvider, vectors VectorInserter, collection string, opts *ingestopts.Options) *Pipeline {
	return &Pipeline{
		source:     src,
		store:      s,
		embedder:   embedder,
		vectors:    vectors,
		collection: collection,
		opts:       opts,
	}
}

// Run processes every file of the source. A failing file is recorded in the
// ledger and does not stop the others; all failures are returned aggregated.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	objs, err := p.source.List(ctx)
	if err != nil {
		return nil, err
	}
	logger.Infow("ingest started", "source", p.source.Name(), "files", len(objs), "workers", p.opts.Workers)

	workers, err := pool.NewPool("ingest", pool.DefaultConfig(p.opts.Workers))
	if err != nil {
		return nil, err
	}
	defer workers.Release()

	var (
		mu     sync.Mutex
		errs   []error
		report = &Report{Total: len(objs)}
	)
	record := func(obj Object, res outcome, chunks int, err error) {
		mu.Lock()
		defer mu.Unlock()
		switch res {
		case outcomeIndexed:
			report.Indexed++
			report.Chunks += chunks
		case outcomeSkipped:
			report.Skipped++
		case outcomeFailed:
			report.Failed++
			errs = append(errs, fmt.Errorf("%s: %w", obj.Key, err))
		}
	}

	for _, obj := range objs {
		if err := workers.SubmitWithContext(ctx, func() {
			res, chunks, err := p.process(ctx, obj)
			record(obj, res, chunks, err)
		}); err != nil {
			break
		}
	}
	workers.Wait()

	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	report.Elapsed = time.Since(start)
	logger.Infow("ingest finished",
		"indexed", report.Indexed,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"chunks", report.Chunks,
		"elapsed", report.Elapsed.String(),
	)
	return report, utilerrors.NewAggregate(errs)
}

func (p *Pipeline) process(ctx context.Context, obj Object) (outcome, int, error) {
	data, err := p.source.Fetch(ctx, obj.Key)
	if err != nil {
		return outcomeFailed, 0, err
	}
	hash := textutil.HashBytes(data)

	doc, err := p.store.Documents().GetByHash(ctx, hash)
	switch {
	case err == nil && doc.Status == model.DocumentIndexed:
		logger.Debugw("ingest skipped unchanged file", "key", obj.Key, "hash", hash)
		return outcomeSkipped, 0, nil
	case err == nil:
		// 失败过的文件重试时复用原记录
	case store.IsNotFound(err):
		doc = &model.Document{Hash: hash}
	default:
		return outcomeFailed, 0, errno.ErrDatabase.WithCause(err)
	}
	doc.ArticleID = obj.ArticleID()
	doc.Source = obj.Key

	chunks, err := p.index(ctx, obj, data)
	if err != nil {
		doc.Status = model.DocumentFailed
		doc.Error = err.Error()
		if serr := p.store.Documents().Save(ctx, doc); serr != nil {
			logger.Warnw("failed to record ingest failure", "key", obj.Key, "error", serr.Error())
		}
		return outcomeFailed, 0, err
	}

	doc.Status = model.DocumentIndexed
	doc.ChunkNum = chunks
	doc.Error = ""
	if err := p.store.Documents().Save(ctx, doc); err != nil {
		return outcomeFailed, 0, errno.ErrDatabase.WithCause(err)
	}
	logger.Debugw("ingest indexed file", "key", obj.Key, "article_id", doc.ArticleID, "chunks", chunks)
	return outcomeIndexed, chunks, nil
}

// index extracts, chunks, embeds and inserts one file and returns the number
// of chunks written.
func (p *Pipeline) index(ctx context.Context, obj Object, data []byte) (int, error) {
	text, err := Extract(obj.Key, data)
	if err != nil {
		return 0, err
	}
	if err := p.ensureArticle(ctx, obj.ArticleID()); err != nil {
		return 0, err
	}

	chunks := textutil.SplitIntoChunks(text, p.opts.ChunkSize, p.opts.ChunkOverlap)
	rows := make([]milvus.Row, 0, len(chunks))
	for i := 0; i < len(chunks); i += p.opts.BatchSize {
		end := i + p.opts.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		vecs, err := p.embedder.Embed(ctx, chunks[i:end])
		if err != nil {
			return 0, errno.ErrIngestEmbed.WithCause(err)
		}
		if len(vecs) != end-i {
			return 0, errno.ErrIngestEmbed.WithMessagef("expected %d embeddings, got %d", end-i, len(vecs))
		}
		for j, v := range vecs {
			rows = append(rows, milvus.Row{
				Embedding: v,
				ArticleID: obj.ArticleID(),
				Text:      chunks[i+j],
				Source:    obj.Key,
			})
		}
	}

	if _, err := p.vectors.Insert(ctx, p.collection, rows); err != nil {
		return 0, errno.ErrIngestIndex.WithCause(err)
	}
	return len(rows), nil
}

// ensureArticle creates a placeholder article row so the file can be queried
// before its metadata is imported.
func (p *Pipeline) ensureArticle(ctx context.Context, articleID string) error {
	ok, err := p.store.Articles().Exists(ctx, articleID)
	if err != nil {
		return errno.ErrDatabase.WithCause(err)
	}
	if ok {
		return nil
	}
	if err := p.store.Articles().Upsert(ctx, &model.Article{ID: articleID, Title: articleID}); err != nil {
		return errno.ErrDatabase.WithCause(err)
	}
	return nil
}
