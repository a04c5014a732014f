package retriever

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/kart-io/paperqa/pkg/component/milvus"
	"github.com/kart-io/paperqa/pkg/llm"
	searchopts "github.com/kart-io/paperqa/pkg/options/search"
)

type fakeEmbedder struct{ err error }

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, f.err
}

func (f *fakeEmbedder) EmbedSingle(context.Context, string) ([]float32, error) {
	return []float32{1, 0}, f.err
}

func (f *fakeEmbedder) Name() string { return "fake" }

var _ llm.EmbeddingProvider = (*fakeEmbedder)(nil)

type fakeSearcher struct {
	hits       []milvus.Hit
	err        error
	collection string
	topK       int
	filter     string
}

func (f *fakeSearcher) Search(_ context.Context, collection string, _ []float32, topK int, filter string) ([]milvus.Hit, error) {
	f.collection, f.topK, f.filter = collection, topK, filter
	return f.hits, f.err
}

func TestVectorRetrieverSearch(t *testing.T) {
	store := &fakeSearcher{hits: []milvus.Hit{
		{ID: 1, Score: 0.9, ArticleID: "2401.00001", Text: "chunk one"},
		{ID: 2, Score: 0.7, ArticleID: "2401.00001", Text: "chunk two"},
	}}
	r := NewVectorRetriever(&fakeEmbedder{}, store, "articles", 3)

	got, err := r.Search(context.Background(), "what?", "2401.00001")
	require.NoError(t, err)
	assert.Equal(t, []string{"chunk one", "chunk two"}, got)
	assert.Equal(t, "articles", store.collection)
	assert.Equal(t, 3, store.topK)
	assert.Equal(t, `article_id == "2401.00001"`, store.filter)
}

func TestVectorRetrieverUnscoped(t *testing.T) {
	store := &fakeSearcher{}
	r := NewVectorRetriever(&fakeEmbedder{}, store, "articles", 0)

	got, err := r.Search(context.Background(), "what?", "")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, store.filter)
	assert.Equal(t, 5, store.topK)
}

func TestVectorRetrieverErrors(t *testing.T) {
	boom := errors.New("boom")

	_, err := NewVectorRetriever(&fakeEmbedder{err: boom}, &fakeSearcher{}, "articles", 3).
		Search(context.Background(), "q", "a")
	assert.ErrorIs(t, err, boom)

	_, err = NewVectorRetriever(&fakeEmbedder{}, &fakeSearcher{err: boom}, "articles", 3).
		Search(context.Background(), "q", "a")
	assert.ErrorIs(t, err, boom)
}

const arxivFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/1706.03762v7</id>
    <published>2017-06-12T17:57:34Z</published>
    <title>Attention Is All
      You Need</title>
    <summary>  The dominant sequence transduction models
  are based on recurrent networks.</summary>
    <author><name>Ashish Vaswani</name></author>
    <author><name>Noam Shazeer</name></author>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/0000.00000v1</id>
    <title>Empty</title>
    <summary>   </summary>
  </entry>
</feed>`

func newArxivTestRetriever(url string) *ArxivRetriever {
	r := NewArxivRetriever(&searchopts.ArxivOptions{
		BaseURL:    url,
		MaxResults: 2,
		Timeout:    5 * time.Second,
		MaxRetries: 3,
	})
	r.retry.InitialDelay = time.Millisecond
	return r
}

func TestArxivRetrieverSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "all:transformer attention", r.URL.Query().Get("search_query"))
		assert.Equal(t, "2", r.URL.Query().Get("max_results"))
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = io.WriteString(w, arxivFeed)
	}))
	defer srv.Close()

	r := newArxivTestRetriever(srv.URL)
	papers, err := r.Papers(context.Background(), "transformer attention")
	require.NoError(t, err)
	require.Len(t, papers, 1)
	assert.Equal(t, "Attention Is All You Need", papers[0].Title)
	assert.Equal(t, []string{"Ashish Vaswani", "Noam Shazeer"}, papers[0].Authors)

	got, err := r.Search(context.Background(), "transformer attention", "ignored")
	require.NoError(t, err)
	assert.Equal(t, []string{"The dominant sequence transduction models are based on recurrent networks."}, got)
}

func TestArxivRetrieverRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, arxivFeed)
	}))
	defer srv.Close()

	got, err := newArxivTestRetriever(srv.URL).Search(context.Background(), "q", "")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestArxivRetrieverMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "<feed><entry>")
	}))
	defer srv.Close()

	_, err := newArxivTestRetriever(srv.URL).Search(context.Background(), "q", "")
	assert.Error(t, err)
}

func newTavilyTestRetriever(url string) *TavilyRetriever {
	r := NewTavilyRetriever(&searchopts.TavilyOptions{
		BaseURL:    url,
		APIKey:     "tvly-test",
		MaxResults: 3,
		Depth:      "basic",
		Timeout:    5 * time.Second,
		MaxRetries: 2,
	})
	r.retry.InitialDelay = time.Millisecond
	return r
}

func TestTavilyRetrieverSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "what is rag?", gjson.GetBytes(body, "query").String())
		assert.Equal(t, int64(3), gjson.GetBytes(body, "max_results").Int())
		assert.Equal(t, "Bearer tvly-test", r.Header.Get("Authorization"))

		_, _ = io.WriteString(w, `{"query":"what is rag?","results":[
			{"title":"a","url":"https://a","content":"retrieval augmented generation"},
			{"title":"b","url":"https://b","content":"  "},
			{"title":"c","url":"https://c","content":"grounds answers in documents"}
		]}`)
	}))
	defer srv.Close()

	got, err := newTavilyTestRetriever(srv.URL).Search(context.Background(), "what is rag?", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"retrieval augmented generation", "grounds answers in documents"}, got)
}

func TestTavilyRetrieverClientErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTavilyTestRetriever(srv.URL).Search(context.Background(), "q", "")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTavilyRetrieverMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "not json")
	}))
	defer srv.Close()

	_, err := newTavilyTestRetriever(srv.URL).Search(context.Background(), "q", "")
	assert.Error(t, err)
}
