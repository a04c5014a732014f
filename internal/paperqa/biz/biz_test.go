package biz

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/kart-io/paperqa/internal/model"
	"github.com/kart-io/paperqa/internal/paperqa/store"
	"github.com/kart-io/paperqa/internal/paperqa/workflow"
	"github.com/kart-io/paperqa/pkg/component/milvus"
	"github.com/kart-io/paperqa/pkg/llm"
	dbopts "github.com/kart-io/paperqa/pkg/options/db"
	jwtopts "github.com/kart-io/paperqa/pkg/options/jwt"
	"github.com/kart-io/paperqa/pkg/security/jwt"
	errno "github.com/kart-io/paperqa/pkg/utils/errors"
)

const testArticle = "2401.00001"

func newTestStore(t *testing.T) store.Factory {
	t.Helper()
	opts := dbopts.NewOptions()
	opts.Driver = dbopts.DriverSQLite
	opts.Path = ":memory:"

	f, err := store.Open(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	require.NoError(t, f.Articles().Create(context.Background(), &model.Article{
		ID:              testArticle,
		Title:           "Attention Is All You Need",
		Description:     "Transformers.",
		Authors:         "Vaswani et al.",
		PublicationDate: time.Date(2017, 6, 12, 0, 0, 0, 0, time.UTC),
	}))
	return f
}

type stubRunner struct {
	res   *workflow.Result
	err   error
	delay time.Duration
	calls int32
	model atomic.Value
}

func (s *stubRunner) Run(ctx context.Context, _, _ string) (*workflow.Result, error) {
	atomic.AddInt32(&s.calls, 1)
	s.model.Store(llm.ModelFromContext(ctx, ""))
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.res, nil
}

func TestArticleBiz(t *testing.T) {
	b := NewArticleBiz(newTestStore(t))
	ctx := context.Background()

	list, err := b.List(ctx, -1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.TotalCount)

	_, err = b.Get(ctx, "missing")
	assert.ErrorIs(t, err, errno.ErrArticleNotFound)
}

func TestChatAsk(t *testing.T) {
	s := newTestStore(t)
	runner := &stubRunner{res: &workflow.Result{
		Answer:    "It introduces the Transformer.",
		ToolsUsed: []string{"vector_store_retrieval", "llm_generation"},
	}}
	b := NewChatBiz(s, runner, nil, time.Second, "gpt-4o-mini")

	resp, err := b.Ask(context.Background(), 3, testArticle, &model.AskRequest{Question: "What is new?", Model: "gpt-4o"})
	require.NoError(t, err)
	assert.Equal(t, "It introduces the Transformer.", resp.Response)
	assert.NotEmpty(t, resp.ReportID)
	assert.Equal(t, "gpt-4o", runner.model.Load())

	notes, err := s.Notes().List(context.Background(), testArticle, false)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, resp.ReportID, notes[0].ID)
	assert.Equal(t, uint64(3), notes[0].UserID)
	assert.Equal(t, "gpt-4o", notes[0].Model)
}

type countingObserver struct {
	mu      sync.Mutex
	results []string
}

func (o *countingObserver) ObserveQuery(result string, _ time.Duration) {
	o.mu.Lock()
	o.results = append(o.results, result)
	o.mu.Unlock()
}

func TestChatAskReportsResults(t *testing.T) {
	obs := &countingObserver{}
	ok := NewChatBiz(newTestStore(t), &stubRunner{res: &workflow.Result{Answer: "a"}}, nil, 0, "m").WithObserver(obs)
	_, err := ok.Ask(context.Background(), 1, testArticle, &model.AskRequest{Question: "q"})
	require.NoError(t, err)

	failing := NewChatBiz(newTestStore(t), &stubRunner{err: errors.New("boom")}, nil, 0, "m").WithObserver(obs)
	_, err = failing.Ask(context.Background(), 1, testArticle, &model.AskRequest{Question: "q"})
	require.Error(t, err)

	assert.Equal(t, []string{"answered", "error"}, obs.results)
}

func TestChatAskUnknownArticle(t *testing.T) {
	runner := &stubRunner{}
	b := NewChatBiz(newTestStore(t), runner, nil, 0, "m")

	_, err := b.Ask(context.Background(), 1, "nope", &model.AskRequest{Question: "q"})
	assert.ErrorIs(t, err, errno.ErrArticleNotFound)
	assert.Zero(t, atomic.LoadInt32(&runner.calls))
}

func TestChatAskMapsWorkflowErrors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name string
		err  error
		want *errno.Errno
	}{
		{"provider", &workflow.ProviderError{Stage: workflow.StagePaperSearch, Provider: "paper", Err: boom}, errno.ErrWorkflowProvider},
		{"grading", &workflow.GradingError{Stage: workflow.StageVectorSearchEvaluate, Err: boom}, errno.ErrWorkflowGrading},
		{"generation", &workflow.GenerationError{Err: boom}, errno.ErrWorkflowGeneration},
		{"timeout", context.DeadlineExceeded, errno.ErrQueryTimeout},
		{"invalid", workflow.ErrInvalidQuery, errno.ErrInvalidQuestion},
		{"other", boom, errno.ErrInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			b := NewChatBiz(s, &stubRunner{err: tt.err}, nil, 0, "m")
			_, err := b.Ask(context.Background(), 1, testArticle, &model.AskRequest{Question: "q"})
			assert.ErrorIs(t, err, tt.want)

			notes, err := s.Notes().List(context.Background(), testArticle, false)
			require.NoError(t, err)
			assert.Empty(t, notes)
		})
	}
}

func TestChatAskSharesConcurrentQuestions(t *testing.T) {
	runner := &stubRunner{
		res:   &workflow.Result{Answer: "a", ToolsUsed: []string{"llm_generation"}},
		delay: 50 * time.Millisecond,
	}
	b := NewChatBiz(newTestStore(t), runner, nil, 0, "m")

	var wg sync.WaitGroup
	ids := make([]string, 4)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := b.Ask(context.Background(), 1, testArticle, &model.AskRequest{Question: "same"})
			if assert.NoError(t, err) {
				ids[i] = resp.ReportID
			}
		}(i)
	}
	wg.Wait()

	assert.Less(t, atomic.LoadInt32(&runner.calls), int32(4))
	for _, id := range ids {
		assert.NotEmpty(t, id)
	}
}

type recordingIndexer struct {
	notes []*model.ResearchNote
	err   error
}

func (r *recordingIndexer) IndexNote(_ context.Context, n *model.ResearchNote) error {
	r.notes = append(r.notes, n)
	return r.err
}

func seedNote(t *testing.T, s store.Factory, question string) *model.ResearchNote {
	t.Helper()
	n := &model.ResearchNote{
		ArticleID: testArticle,
		Question:  question,
		Answer:    "answer to " + question,
		ToolsUsed: []string{"vector_store_retrieval", "llm_generation"},
	}
	require.NoError(t, s.Notes().Create(context.Background(), n))
	return n
}

func TestReportFeedback(t *testing.T) {
	s := newTestStore(t)
	idx := &recordingIndexer{}
	b := NewReportBiz(s, idx, nil)
	ctx := context.Background()
	n := seedNote(t, s, "q1")

	got, err := b.Feedback(ctx, testArticle, n.ID, model.FeedbackAccept)
	require.NoError(t, err)
	assert.True(t, got.Validated)
	require.Len(t, idx.notes, 1)

	validated, err := b.List(ctx, testArticle, true)
	require.NoError(t, err)
	assert.Len(t, validated, 1)

	got, err = b.Feedback(ctx, testArticle, n.ID, model.FeedbackDeny)
	require.NoError(t, err)
	assert.False(t, got.Validated)
	assert.Len(t, idx.notes, 1)

	_, err = b.Feedback(ctx, testArticle, n.ID, "maybe")
	assert.ErrorIs(t, err, errno.ErrInvalidFeedback)

	_, err = b.Feedback(ctx, testArticle, "missing", model.FeedbackAccept)
	assert.ErrorIs(t, err, errno.ErrReportNotFound)
}

func TestReportFeedbackIndexFailure(t *testing.T) {
	s := newTestStore(t)
	b := NewReportBiz(s, &recordingIndexer{err: errors.New("milvus down")}, nil)
	n := seedNote(t, s, "q1")

	_, err := b.Feedback(context.Background(), testArticle, n.ID, model.FeedbackAccept)
	assert.ErrorIs(t, err, errno.ErrReportIndex)

	validated, err := s.Notes().List(context.Background(), testArticle, true)
	require.NoError(t, err)
	assert.Empty(t, validated)
}

func TestReportExport(t *testing.T) {
	s := newTestStore(t)
	b := NewReportBiz(s, nil, nil)
	b.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	ctx := context.Background()

	n1 := seedNote(t, s, "What is new?")
	seedNote(t, s, "Not validated")
	require.NoError(t, s.Notes().SetValidated(ctx, testArticle, n1.ID, true))

	out, err := b.Export(ctx, testArticle)
	require.NoError(t, err)

	text := string(out)
	require.True(t, strings.HasPrefix(text, "---\n"))
	parts := strings.SplitN(text[4:], "---\n", 2)
	require.Len(t, parts, 2)

	var header exportHeader
	require.NoError(t, yaml.Unmarshal([]byte(parts[0]), &header))
	assert.Equal(t, testArticle, header.ArticleID)
	assert.Equal(t, 1, header.Notes)
	assert.Equal(t, 2026, header.GeneratedAt.Year())

	assert.Contains(t, parts[1], "## 1. What is new?")
	assert.Contains(t, parts[1], "answer to What is new?")
	assert.NotContains(t, parts[1], "Not validated")

	_, err = b.Export(ctx, "missing")
	assert.ErrorIs(t, err, errno.ErrArticleNotFound)
}

type stubChunks struct {
	hits []milvus.Hit
	err  error
}

func (s *stubChunks) Hits(context.Context, string, string, int) ([]milvus.Hit, error) {
	return s.hits, s.err
}

type stubChat struct {
	reply string
	calls int
}

func (s *stubChat) Chat(context.Context, []llm.Message) (string, error) { return s.reply, nil }
func (s *stubChat) Generate(context.Context, string, string) (string, error) {
	s.calls++
	return s.reply, nil
}
func (s *stubChat) Name() string { return "stub" }

func TestSummaryGenerate(t *testing.T) {
	s := newTestStore(t)
	chat := &stubChat{reply: "## Summary"}
	b := NewSummaryBiz(s, &stubChunks{hits: []milvus.Hit{{Text: "c1"}, {Text: "c2"}}}, chat, 10, "gpt-4o")
	ctx := context.Background()

	got, err := b.Generate(ctx, testArticle, false)
	require.NoError(t, err)
	assert.Equal(t, "## Summary", got.Content)

	// 已有摘要直接返回
	_, err = b.Generate(ctx, testArticle, false)
	require.NoError(t, err)
	assert.Equal(t, 1, chat.calls)

	chat.reply = "## Updated"
	got, err = b.Generate(ctx, testArticle, true)
	require.NoError(t, err)
	assert.Equal(t, "## Updated", got.Content)
	assert.Equal(t, 2, chat.calls)
}

func TestSummaryGenerateFailures(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := NewSummaryBiz(s, &stubChunks{}, &stubChat{}, 10, "m").Generate(ctx, testArticle, true)
	assert.ErrorIs(t, err, errno.ErrSummaryFailed)

	_, err = NewSummaryBiz(s, &stubChunks{err: errors.New("down")}, &stubChat{}, 10, "m").Generate(ctx, testArticle, true)
	assert.ErrorIs(t, err, errno.ErrSummaryFailed)

	_, err = NewSummaryBiz(s, &stubChunks{}, &stubChat{}, 10, "m").Generate(ctx, "missing", false)
	assert.ErrorIs(t, err, errno.ErrArticleNotFound)
}

func newTestAuth(t *testing.T, s store.Factory) *AuthBiz {
	t.Helper()
	opts := jwtopts.NewOptions()
	opts.Key = "0123456789abcdef0123456789abcdef"
	j, err := jwt.New(opts, nil)
	require.NoError(t, err)
	b := NewAuthBiz(s, j)
	b.cost = bcrypt.MinCost
	return b
}

func TestAuthRegisterAndLogin(t *testing.T) {
	s := newTestStore(t)
	b := newTestAuth(t, s)
	ctx := context.Background()

	u, err := b.Register(ctx, &model.RegisterRequest{Username: "alice", Password: "secret123"})
	require.NoError(t, err)
	assert.True(t, u.Active)
	assert.NotEqual(t, "secret123", u.Password)

	_, err = b.Register(ctx, &model.RegisterRequest{Username: "alice", Password: "secret123"})
	assert.ErrorIs(t, err, errno.ErrAlreadyExists)

	pair, err := b.Login(ctx, &model.LoginRequest{Username: "alice", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	next, err := b.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, next.AccessToken)

	_, err = b.Login(ctx, &model.LoginRequest{Username: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, errno.ErrInvalidCredentials)

	_, err = b.Login(ctx, &model.LoginRequest{Username: "bob", Password: "secret123"})
	assert.ErrorIs(t, err, errno.ErrInvalidCredentials)
}

func TestAuthLoginInactive(t *testing.T) {
	s := newTestStore(t)
	b := newTestAuth(t, s)
	ctx := context.Background()

	hashed, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, s.Users().Create(ctx, &model.User{Username: "carol", Password: string(hashed), Active: false}))

	_, err = b.Login(ctx, &model.LoginRequest{Username: "carol", Password: "secret123"})
	assert.ErrorIs(t, err, errno.ErrAccountDisabled)
}
