package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/paperqa/internal/model"
	"github.com/kart-io/paperqa/internal/paperqa/store"
	"github.com/kart-io/paperqa/pkg/component/milvus"
	dbopts "github.com/kart-io/paperqa/pkg/options/db"
	ingestopts "github.com/kart-io/paperqa/pkg/options/ingest"
	errno "github.com/kart-io/paperqa/pkg/utils/errors"
)

type fakeEmbedder struct {
	mu    sync.Mutex
	calls int
	fail  string // texts containing fail are rejected
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if f.fail != "" && strings.Contains(t, f.fail) {
			return nil, errors.New("embedding backend down")
		}
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	v, err := f.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

func (f *fakeEmbedder) Name() string { return "fake" }

type fakeInserter struct {
	mu   sync.Mutex
	rows []milvus.Row
}

func (f *fakeInserter) Insert(_ context.Context, collection string, rows []milvus.Row) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int64, len(rows))
	for i := range rows {
		ids[i] = int64(len(f.rows) + i)
	}
	f.rows = append(f.rows, rows...)
	return ids, nil
}

func (f *fakeInserter) byArticle() map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := map[string]int{}
	for _, r := range f.rows {
		m[r.ArticleID]++
	}
	return m
}

func newStore(t *testing.T) store.Factory {
	t.Helper()
	opts := dbopts.NewOptions()
	opts.Driver = dbopts.DriverSQLite
	opts.Path = ":memory:"
	s, err := store.Open(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func testOptions(dir string) *ingestopts.Options {
	o := ingestopts.NewOptions()
	o.Dir = dir
	o.Workers = 2
	o.ChunkSize = 40
	o.ChunkOverlap = 5
	o.BatchSize = 2
	return o
}

func TestObjectArticleID(t *testing.T) {
	assert.Equal(t, "2401.00001", Object{Key: "papers/2401.00001.pdf"}.ArticleID())
	assert.Equal(t, "notes", Object{Key: `C:\docs\notes.md`}.ArticleID())
	assert.Equal(t, "plain", Object{Key: "plain"}.ArticleID())
}

func TestLocalSourceList(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "b")
	writeFile(t, dir, "sub/a.PDF", "a")
	writeFile(t, dir, "c.md", "c")
	writeFile(t, dir, "skip.docx", "x")

	objs, err := NewLocalSource(dir).List(context.Background())
	require.NoError(t, err)
	require.Len(t, objs, 3)
	keys := []string{objs[0].Key, objs[1].Key, objs[2].Key}
	assert.Equal(t, []string{filepath.Join(dir, "b.txt"), filepath.Join(dir, "c.md"), filepath.Join(dir, "sub/a.PDF")}, keys)
	assert.Equal(t, int64(1), objs[0].Size)

	_, err = NewLocalSource(filepath.Join(dir, "missing")).List(context.Background())
	assert.True(t, errno.IsCode(err, errno.ErrIngestSource.Code))
}

func TestExtract(t *testing.T) {
	text, err := Extract("a.md", []byte("# Title\n\nsome   body\ntext"))
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nsome body text", text)

	_, err = Extract("a.txt", []byte("  \n "))
	assert.True(t, errno.IsCode(err, errno.ErrIngestExtract.Code))

	_, err = Extract("a.txt", []byte{0xff, 0xfe})
	assert.True(t, errno.IsCode(err, errno.ErrIngestExtract.Code))

	_, err = Extract("a.docx", []byte("x"))
	assert.True(t, errno.IsCode(err, errno.ErrIngestExtract.Code))

	_, err = Extract("broken.pdf", []byte("%PDF-1.4 not really"))
	assert.True(t, errno.IsCode(err, errno.ErrIngestExtract.Code))
}

func TestPipelineRun(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "alpha.txt", strings.Repeat("alpha beta gamma delta ", 10))
	writeFile(t, dir, "beta.md", "short note about beta")
	s := newStore(t)
	emb := &fakeEmbedder{}
	ins := &fakeInserter{}
	p := NewPipeline(NewLocalSource(dir), s, emb, ins, "articles", testOptions(dir))

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 2, report.Indexed)
	assert.Equal(t, report.Chunks, len(ins.rows))
	counts := ins.byArticle()
	assert.Greater(t, counts["alpha"], 1)
	assert.Equal(t, 1, counts["beta"])

	docs, err := s.Documents().List(context.Background(), model.DocumentIndexed)
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	ok, err := s.Articles().Exists(context.Background(), "alpha")
	require.NoError(t, err)
	assert.True(t, ok)

	// 第二次运行跳过未变化的文件
	report, err = p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 0, report.Indexed)
}

func TestPipelineRecordsFailures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.txt", "a perfectly fine document")
	writeFile(t, dir, "bad.txt", "this one mentions poison")
	writeFile(t, dir, "empty.md", "   ")
	s := newStore(t)
	emb := &fakeEmbedder{fail: "poison"}
	ins := &fakeInserter{}
	p := NewPipeline(NewLocalSource(dir), s, emb, ins, "articles", testOptions(dir))

	report, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.txt")
	assert.Contains(t, err.Error(), "empty.md")
	assert.Equal(t, 1, report.Indexed)
	assert.Equal(t, 2, report.Failed)

	failed, err := s.Documents().List(context.Background(), model.DocumentFailed)
	require.NoError(t, err)
	require.Len(t, failed, 2)
	for _, d := range failed {
		assert.NotEmpty(t, d.Error)
	}

	// 修复后重试复用原有记录
	emb.fail = ""
	writeFile(t, dir, "empty.md", "now it has text")
	report, err = p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 2, report.Indexed)

	all, err := s.Documents().List(context.Background(), "")
	require.NoError(t, err)
	// empty.md 内容变化产生新记录，bad.txt 复用失败记录
	assert.Len(t, all, 4)
	indexed, err := s.Documents().List(context.Background(), model.DocumentIndexed)
	require.NoError(t, err)
	assert.Len(t, indexed, 3)
}

func TestPipelineCancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "text")
	p := NewPipeline(NewLocalSource(dir), newStore(t), &fakeEmbedder{}, &fakeInserter{}, "articles", testOptions(dir))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
