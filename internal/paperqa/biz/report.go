package biz

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kart-io/logger"
	"gopkg.in/yaml.v3"

	"github.com/kart-io/paperqa/internal/model"
	"github.com/kart-io/paperqa/internal/paperqa/cache"
	"github.com/kart-io/paperqa/internal/paperqa/store"
	errno "github.com/kart-io/paperqa/pkg/utils/errors"
)

// Indexer makes validated notes searchable.
type Indexer interface {
	IndexNote(ctx context.Context, note *model.ResearchNote) error
}

// ReportBiz manages the research notes of an article.
type ReportBiz struct {
	store   store.Factory
	indexer Indexer
	cache   *cache.AnswerCache
	now     func() time.Time
}

// NewReportBiz creates a ReportBiz. indexer and cache may be nil.
func NewReportBiz(s store.Factory, indexer Indexer, c *cache.AnswerCache) *ReportBiz {
	return &ReportBiz{store: s, indexer: indexer, cache: c, now: time.Now}
}

// List returns the notes of an article.
func (b *ReportBiz) List(ctx context.Context, articleID string, validatedOnly bool) ([]*model.ResearchNote, error) {
	if err := ensureArticle(ctx, b.store, articleID); err != nil {
		return nil, err
	}
	notes, err := b.store.Notes().List(ctx, articleID, validatedOnly)
	if err != nil {
		return nil, errno.ErrDatabase.WithCause(err)
	}
	return notes, nil
}

// Feedback accepts or denies a note. Accepted notes are indexed.
func (b *ReportBiz) Feedback(ctx context.Context, articleID, reportID, feedback string) (*model.ResearchNote, error) {
	var validated bool
	switch feedback {
	case model.FeedbackAccept:
		validated = true
	case model.FeedbackDeny:
		validated = false
	default:
		return nil, errno.ErrInvalidFeedback
	}

	note, err := b.store.Notes().Get(ctx, articleID, reportID)
	if err != nil {
		return nil, dbError(err, errno.ErrReportNotFound)
	}

	if validated && b.indexer != nil {
		if err := b.indexer.IndexNote(ctx, note); err != nil {
			return nil, errno.ErrReportIndex.WithCause(err)
		}
	}

	if err := b.store.Notes().SetValidated(ctx, articleID, reportID, validated); err != nil {
		return nil, dbError(err, errno.ErrReportNotFound)
	}
	note.Validated = validated

	// 验证状态变化后旧答案不再可信
	if err := b.cache.Invalidate(ctx, articleID); err != nil {
		logger.Warnw("failed to invalidate answer cache", "article_id", articleID, "error", err.Error())
	}
	logger.Infow("report feedback recorded",
		"article_id", articleID,
		"report_id", reportID,
		"feedback", feedback,
	)
	return note, nil
}

type exportHeader struct {
	ArticleID   string    `yaml:"article_id"`
	Title       string    `yaml:"title"`
	Authors     string    `yaml:"authors,omitempty"`
	PDFURL      string    `yaml:"pdf_url,omitempty"`
	Notes       int       `yaml:"notes"`
	GeneratedAt time.Time `yaml:"generated_at"`
}

// Export renders the validated notes of an article as markdown with a YAML
// front matter block.
func (b *ReportBiz) Export(ctx context.Context, articleID string) ([]byte, error) {
	article, err := b.store.Articles().Get(ctx, articleID)
	if err != nil {
		return nil, dbError(err, errno.ErrArticleNotFound)
	}
	notes, err := b.store.Notes().List(ctx, articleID, true)
	if err != nil {
		return nil, errno.ErrDatabase.WithCause(err)
	}

	header, err := yaml.Marshal(exportHeader{
		ArticleID:   article.ID,
		Title:       article.Title,
		Authors:     article.Authors,
		PDFURL:      article.PDFURL,
		Notes:       len(notes),
		GeneratedAt: b.now().UTC().Truncate(time.Second),
	})
	if err != nil {
		return nil, errno.ErrInternal.WithCause(err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(header)
	buf.WriteString("---\n\n")
	fmt.Fprintf(&buf, "# %s\n", article.Title)
	for i, n := range notes {
		fmt.Fprintf(&buf, "\n## %d. %s\n\n", i+1, strings.TrimSpace(n.Question))
		buf.WriteString(strings.TrimSpace(n.Answer))
		buf.WriteString("\n")
		if len(n.ToolsUsed) > 0 {
			fmt.Fprintf(&buf, "\n_Sources: %s_\n", strings.Join(n.ToolsUsed, ", "))
		}
	}
	return buf.Bytes(), nil
}
