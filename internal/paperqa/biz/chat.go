package biz

import (
	"context"
	"strconv"
	"time"

	"github.com/kart-io/logger"
	"golang.org/x/sync/singleflight"

	"github.com/kart-io/paperqa/internal/model"
	"github.com/kart-io/paperqa/internal/paperqa/cache"
	"github.com/kart-io/paperqa/internal/paperqa/store"
	"github.com/kart-io/paperqa/internal/paperqa/workflow"
	"github.com/kart-io/paperqa/pkg/llm"
	errno "github.com/kart-io/paperqa/pkg/utils/errors"
)

// Runner runs the question answering workflow.
type Runner interface {
	Run(ctx context.Context, question, articleID string) (*workflow.Result, error)
}

// QueryObserver is told the result of every question.
type QueryObserver interface {
	ObserveQuery(result string, elapsed time.Duration)
}

// ChatBiz answers questions about an article and records every answer as a
// research note.
type ChatBiz struct {
	store        store.Factory
	runner       Runner
	cache        *cache.AnswerCache
	timeout      time.Duration
	defaultModel string
	observer     QueryObserver

	group singleflight.Group
}

// NewChatBiz creates a ChatBiz. cache may be nil. timeout <= 0 disables the
// per question deadline.
func NewChatBiz(s store.Factory, runner Runner, c *cache.AnswerCache, timeout time.Duration, defaultModel string) *ChatBiz {
	return &ChatBiz{
		store:        s,
		runner:       runner,
		cache:        c,
		timeout:      timeout,
		defaultModel: defaultModel,
	}
}

// WithObserver sets the observer told about every question and returns b.
func (b *ChatBiz) WithObserver(o QueryObserver) *ChatBiz {
	b.observer = o
	return b
}

func (b *ChatBiz) observe(result string, elapsed time.Duration) {
	if b.observer != nil {
		b.observer.ObserveQuery(result, elapsed)
	}
}

// Ask answers req.Question about articleID on behalf of userID.
func (b *ChatBiz) Ask(ctx context.Context, userID uint64, articleID string, req *model.AskRequest) (*model.AskResponse, error) {
	if err := ensureArticle(ctx, b.store, articleID); err != nil {
		return nil, err
	}

	modelName := req.Model
	if modelName == "" {
		modelName = b.defaultModel
	}

	if cached := b.cache.Get(ctx, articleID, modelName, req.Question); cached != nil {
		b.observe("cached", 0)
		return cached, nil
	}

	// 相同问题并发到达时只运行一次工作流
	key := articleID + "\x00" + modelName + "\x00" + req.Question
	v, err, shared := b.group.Do(key, func() (interface{}, error) {
		return b.answer(context.WithoutCancel(ctx), userID, articleID, modelName, req.Question)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.Debugw("shared in-flight answer", "article_id", articleID)
	}
	resp := *v.(*model.AskResponse)
	return &resp, nil
}

func (b *ChatBiz) answer(ctx context.Context, userID uint64, articleID, modelName, question string) (*model.AskResponse, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	ctx = llm.WithModel(ctx, modelName)

	start := time.Now()
	res, err := b.runner.Run(ctx, question, articleID)
	if err != nil {
		b.observe("error", time.Since(start))
		logger.Errorw("workflow failed",
			"article_id", articleID,
			"user_id", strconv.FormatUint(userID, 10),
			"error", err.Error(),
		)
		return nil, mapWorkflowError(err)
	}

	note := &model.ResearchNote{
		ArticleID: articleID,
		UserID:    userID,
		Question:  question,
		Answer:    res.Answer,
		ToolsUsed: res.ToolsUsed,
		Model:     modelName,
	}
	if err := b.store.Notes().Create(ctx, note); err != nil {
		return nil, errno.ErrDatabase.WithCause(err)
	}

	resp := &model.AskResponse{
		ReportID:    note.ID,
		Response:    res.Answer,
		ToolsUsed:   res.ToolsUsed,
		PaperSearch: res.PaperSearch,
		WebSearch:   res.WebSearch,
	}
	if err := b.cache.Set(ctx, articleID, modelName, question, resp); err != nil {
		logger.Warnw("failed to cache answer", "article_id", articleID, "error", err.Error())
	}

	b.observe("answered", time.Since(start))
	logger.Infow("question answered",
		"article_id", articleID,
		"report_id", note.ID,
		"tools_used", res.ToolsUsed,
		"duration", time.Since(start).String(),
	)
	return resp, nil
}
