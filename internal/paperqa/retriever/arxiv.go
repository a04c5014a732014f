package retriever

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/kart-io/logger"

	"github.com/kart-io/paperqa/pkg/llm/resilience"
	searchopts "github.com/kart-io/paperqa/pkg/options/search"
	"github.com/kart-io/paperqa/pkg/utils/httpclient"
)

// arXiv 查询接口返回 Atom feed
type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string `xml:"id"`
	Title     string `xml:"title"`
	Summary   string `xml:"summary"`
	Published string `xml:"published"`
	Authors   []struct {
		Name string `xml:"name"`
	} `xml:"author"`
}

// Paper is one arXiv search result.
type Paper struct {
	ID        string
	Title     string
	Summary   string
	Published string
	Authors   []string
}

// ArxivRetriever searches arXiv abstracts. It ignores the article id.
type ArxivRetriever struct {
	baseURL    string
	maxResults int
	client     *httpclient.Client
	retry      *resilience.RetryConfig
}

// NewArxivRetriever 创建 arXiv 论文检索器。
func NewArxivRetriever(opts *searchopts.ArxivOptions) *ArxivRetriever {
	retry := resilience.DefaultRetryConfig()
	if opts.MaxRetries > 0 {
		retry.MaxAttempts = opts.MaxRetries
	}
	return &ArxivRetriever{
		baseURL:    opts.BaseURL,
		maxResults: opts.MaxResults,
		client:     httpclient.NewClient(opts.Timeout, 0),
		retry:      retry,
	}
}

// Search returns the abstracts of the best matching papers.
func (r *ArxivRetriever) Search(ctx context.Context, question, _ string) ([]string, error) {
	papers, err := r.Papers(ctx, question)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(papers))
	for _, p := range papers {
		out = append(out, p.Summary)
	}
	return out, nil
}

// Papers runs the query and returns parsed entries.
func (r *ArxivRetriever) Papers(ctx context.Context, question string) ([]Paper, error) {
	q := url.Values{}
	q.Set("search_query", "all:"+question)
	q.Set("start", "0")
	q.Set("max_results", strconv.Itoa(r.maxResults))
	endpoint := r.baseURL + "?" + q.Encode()

	var body []byte
	err := resilience.Do(ctx, r.retry, nil, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		body, err = r.client.Do(req)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("arxiv query: %w", err)
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("arxiv decode: %w", err)
	}

	papers := make([]Paper, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		summary := collapseSpace(e.Summary)
		if summary == "" {
			continue
		}
		p := Paper{
			ID:        strings.TrimSpace(e.ID),
			Title:     collapseSpace(e.Title),
			Summary:   summary,
			Published: strings.TrimSpace(e.Published),
		}
		for _, a := range e.Authors {
			p.Authors = append(p.Authors, strings.TrimSpace(a.Name))
		}
		papers = append(papers, p)
	}
	logger.Debugw("arxiv search done", "results", len(papers))
	return papers, nil
}

// collapseSpace joins the hard-wrapped lines arXiv uses in titles and abstracts.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
