// Package milvus wraps the Milvus v2 client for the article and report collections.
package milvus

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	milvusopts "github.com/kart-io/paperqa/pkg/options/milvus"
)

// Field names shared by every collection.
const (
	FieldID        = "id"
	FieldEmbedding = "embedding"
	FieldArticleID = "article_id"
	FieldText      = "text"
	FieldSource    = "source"
)

const maxTextLen = 65535

// Client wraps the Milvus SDK client.
type Client struct {
	client *milvusclient.Client
	opts   *milvusopts.Options
}

// New connects to Milvus.
func New(ctx context.Context, opts *milvusopts.Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("milvus options is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	c, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address:  opts.Address,
		Username: opts.Username,
		Password: opts.Password,
		DBName:   opts.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus: %w", err)
	}
	return &Client{client: c, opts: opts}, nil
}

// Close closes the Milvus client connection.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Close(ctx)
}

// Ping checks the connection by looking up the article collection.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(c.opts.Collection))
	return err
}

// EnsureCollection creates a text collection (embedding, article_id, text, source)
// with a cosine IVF_FLAT index unless it already exists, then loads it.
func (c *Client) EnsureCollection(ctx context.Context, name string, dim int) error {
	exists, err := c.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(name))
	if err != nil {
		return fmt.Errorf("failed to check collection %s: %w", name, err)
	}

	if !exists {
		schema := entity.NewSchema().
			WithName(name).
			WithAutoID(true).
			WithField(entity.NewField().WithName(FieldID).WithDataType(entity.FieldTypeInt64).WithIsPrimaryKey(true).WithIsAutoID(true)).
			WithField(entity.NewField().WithName(FieldEmbedding).WithDataType(entity.FieldTypeFloatVector).WithDim(int64(dim))).
			WithField(entity.NewField().WithName(FieldArticleID).WithDataType(entity.FieldTypeVarChar).WithMaxLength(256)).
			WithField(entity.NewField().WithName(FieldText).WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxTextLen)).
			WithField(entity.NewField().WithName(FieldSource).WithDataType(entity.FieldTypeVarChar).WithMaxLength(1024))

		if err := c.client.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(name, schema)); err != nil {
			return fmt.Errorf("failed to create collection %s: %w", name, err)
		}

		idx := index.NewIvfFlatIndex(entity.COSINE, 128)
		task, err := c.client.CreateIndex(ctx, milvusclient.NewCreateIndexOption(name, FieldEmbedding, idx))
		if err != nil {
			return fmt.Errorf("failed to create index on %s: %w", name, err)
		}
		if err := task.Await(ctx); err != nil {
			return fmt.Errorf("failed to wait for index on %s: %w", name, err)
		}
	}

	loadTask, err := c.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(name))
	if err != nil {
		return fmt.Errorf("failed to load collection %s: %w", name, err)
	}
	return loadTask.Await(ctx)
}

// Row is a single text record.
type Row struct {
	Embedding []float32
	ArticleID string
	Text      string
	Source    string
}

// Insert writes rows into the collection and flushes so they are searchable.
func (c *Client) Insert(ctx context.Context, collection string, rows []Row) ([]int64, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	dim := len(rows[0].Embedding)
	vectors := make([][]float32, len(rows))
	articleIDs := make([]string, len(rows))
	texts := make([]string, len(rows))
	sources := make([]string, len(rows))
	for i, r := range rows {
		if len(r.Embedding) != dim {
			return nil, fmt.Errorf("row %d has dimension %d, want %d", i, len(r.Embedding), dim)
		}
		vectors[i] = r.Embedding
		articleIDs[i] = r.ArticleID
		texts[i] = truncate(r.Text, maxTextLen)
		sources[i] = r.Source
	}

	result, err := c.client.Insert(ctx, milvusclient.NewColumnBasedInsertOption(collection,
		column.NewColumnFloatVector(FieldEmbedding, dim, vectors),
		column.NewColumnVarChar(FieldArticleID, articleIDs),
		column.NewColumnVarChar(FieldText, texts),
		column.NewColumnVarChar(FieldSource, sources),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to insert into %s: %w", collection, err)
	}

	flushTask, err := c.client.Flush(ctx, milvusclient.NewFlushOption(collection))
	if err != nil {
		return nil, fmt.Errorf("failed to flush %s: %w", collection, err)
	}
	if err := flushTask.Await(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for flush of %s: %w", collection, err)
	}

	if ids, ok := result.IDs.(*column.ColumnInt64); ok {
		return ids.Data(), nil
	}
	return nil, nil
}

// Hit is a single search result.
type Hit struct {
	ID        int64
	Score     float32
	ArticleID string
	Text      string
	Source    string
}

// Search returns the topK nearest rows. filter is a Milvus boolean expression
// and may be empty.
func (c *Client) Search(ctx context.Context, collection string, vector []float32, topK int, filter string) ([]Hit, error) {
	opt := milvusclient.NewSearchOption(collection, topK, []entity.Vector{entity.FloatVector(vector)}).
		WithANNSField(FieldEmbedding).
		WithSearchParam("nprobe", "16").
		WithOutputFields(FieldArticleID, FieldText, FieldSource)
	if filter != "" {
		opt = opt.WithFilter(filter)
	}

	results, err := c.client.Search(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", collection, err)
	}
	if len(results) == 0 {
		return []Hit{}, nil
	}

	rs := results[0]
	hits := make([]Hit, rs.ResultCount)
	for i := 0; i < rs.ResultCount; i++ {
		hits[i].Score = rs.Scores[i]
		if ids, ok := rs.IDs.(*column.ColumnInt64); ok {
			hits[i].ID = ids.Data()[i]
		}
	}
	for _, field := range rs.Fields {
		col, ok := field.(*column.ColumnVarChar)
		if !ok {
			continue
		}
		data := col.Data()
		for i := 0; i < rs.ResultCount && i < len(data); i++ {
			switch col.Name() {
			case FieldArticleID:
				hits[i].ArticleID = data[i]
			case FieldText:
				hits[i].Text = data[i]
			case FieldSource:
				hits[i].Source = data[i]
			}
		}
	}
	return hits, nil
}

// Query returns up to limit rows matching filter, in storage order.
func (c *Client) Query(ctx context.Context, collection, filter string, limit int) ([]Hit, error) {
	rs, err := c.client.Query(ctx, milvusclient.NewQueryOption(collection).
		WithFilter(filter).
		WithLimit(limit).
		WithOutputFields(FieldArticleID, FieldText, FieldSource))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}

	hits := make([]Hit, rs.ResultCount)
	for _, name := range []string{FieldArticleID, FieldText, FieldSource} {
		col, ok := rs.GetColumn(name).(*column.ColumnVarChar)
		if !ok {
			continue
		}
		for i, v := range col.Data() {
			if i >= len(hits) {
				break
			}
			switch name {
			case FieldArticleID:
				hits[i].ArticleID = v
			case FieldText:
				hits[i].Text = v
			case FieldSource:
				hits[i].Source = v
			}
		}
	}
	return hits, nil
}

// EqualFilter builds `field == "value"` with the value quoted for Milvus.
func EqualFilter(field, value string) string {
	return fmt.Sprintf("%s == %q", field, value)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// 按字节截断时不能切断 UTF-8 字符
	for n > 0 && !utf8Start(s[n]) {
		n--
	}
	return s[:n]
}

func utf8Start(b byte) bool {
	return b&0xC0 != 0x80
}
