package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/kart-io/paperqa/internal/model"
	"github.com/kart-io/paperqa/internal/paperqa/authz"
	"github.com/kart-io/paperqa/internal/paperqa/handler"
	"github.com/kart-io/paperqa/internal/paperqa/metrics"
	"github.com/kart-io/paperqa/pkg/component/db"
	dbopts "github.com/kart-io/paperqa/pkg/options/db"
	jwtopts "github.com/kart-io/paperqa/pkg/options/jwt"
	"github.com/kart-io/paperqa/pkg/security/jwt"
	errno "github.com/kart-io/paperqa/pkg/utils/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubArticles struct{}

func (stubArticles) List(_ context.Context, offset, limit int) (*model.ArticleList, error) {
	return &model.ArticleList{TotalCount: 1, Items: []*model.Article{{ID: "a1", Title: "T"}}}, nil
}

func (stubArticles) Get(_ context.Context, id string) (*model.Article, error) {
	if id != "a1" {
		return nil, errno.ErrArticleNotFound
	}
	return &model.Article{ID: "a1", Title: "T"}, nil
}

type stubSummary struct{ force bool }

func (s *stubSummary) Generate(_ context.Context, articleID string, force bool) (*model.Summary, error) {
	s.force = force
	return &model.Summary{ArticleID: articleID, Content: "short"}, nil
}

type stubChat struct {
	userID uint64
	block  bool
}

func (s *stubChat) Ask(ctx context.Context, userID uint64, articleID string, req *model.AskRequest) (*model.AskResponse, error) {
	s.userID = userID
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return &model.AskResponse{ReportID: "r1", Response: "answer to " + req.Question, ToolsUsed: []string{"vector_store_retrieval"}}, nil
}

type stubReports struct{ feedback string }

func (s *stubReports) List(_ context.Context, articleID string, validatedOnly bool) ([]*model.ResearchNote, error) {
	return []*model.ResearchNote{{ID: "r1", ArticleID: articleID, Validated: validatedOnly}}, nil
}

func (s *stubReports) Feedback(_ context.Context, articleID, reportID, feedback string) (*model.ResearchNote, error) {
	s.feedback = feedback
	return &model.ResearchNote{ID: reportID, ArticleID: articleID, Validated: feedback == model.FeedbackAccept}, nil
}

func (s *stubReports) Export(_ context.Context, articleID string) ([]byte, error) {
	return []byte("---\narticle_id: " + articleID + "\n---\n"), nil
}

type stubAuth struct{}

func (stubAuth) Register(_ context.Context, req *model.RegisterRequest) (*model.User, error) {
	return &model.User{ID: 1, Username: req.Username}, nil
}

func (stubAuth) Login(context.Context, *model.LoginRequest) (*model.TokenPair, error) {
	return nil, errno.ErrInvalidCredentials
}

func (stubAuth) Refresh(context.Context, string) (*model.TokenPair, error) {
	return nil, errno.ErrInvalidToken
}

type fixture struct {
	engine  *gin.Engine
	tokens  *jwt.JWT
	chat    *stubChat
	summary *stubSummary
	reports *stubReports
}

func newFixture(t *testing.T, timeout time.Duration) *fixture {
	t.Helper()

	opts := dbopts.NewOptions()
	opts.Driver = dbopts.DriverSQLite
	opts.Path = ":memory:"
	gdb, err := db.New(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	enforcer, err := authz.NewEnforcer(gdb)
	require.NoError(t, err)

	jo := jwtopts.NewOptions()
	jo.Key = "0123456789abcdef0123456789abcdef"
	tokens, err := jwt.New(jo, nil)
	require.NoError(t, err)

	f := &fixture{tokens: tokens, chat: &stubChat{}, summary: &stubSummary{}, reports: &stubReports{}}
	f.engine = New(Config{Verifier: tokens, Enforcer: enforcer, RequestTimeout: timeout, Metrics: metrics.New()}, Handlers{
		Health:  handler.NewHealthHandler(map[string]handler.Pinger{"db": func(context.Context) error { return nil }}),
		Auth:    handler.NewAuthHandler(stubAuth{}),
		Article: handler.NewArticleHandler(stubArticles{}, f.summary),
		Chat:    handler.NewChatHandler(f.chat),
		Report:  handler.NewReportHandler(f.reports),
	})
	return f
}

func (f *fixture) token(t *testing.T, subject, role string) string {
	t.Helper()
	pair, err := f.tokens.Issue(context.Background(), subject, map[string]any{"role": role})
	require.NoError(t, err)
	return pair.AccessToken
}

func (f *fixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, time.Second)
	w := f.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", gjson.Get(w.Body.String(), "checks.db").String())
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, time.Second)
	f.do(http.MethodGet, "/healthz", "", "")

	w := f.do(http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `paperqa_http_requests_total{code="200",method="GET",route="/healthz"} 1`)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := newFixture(t, time.Second)
	w := f.do(http.MethodGet, "/api/v1/articles", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestArticles(t *testing.T) {
	f := newFixture(t, time.Second)
	tok := f.token(t, "7", model.RoleUser)

	w := f.do(http.MethodGet, "/api/v1/articles?limit=5", tok, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Equal(t, int64(1), gjson.Get(body, "data.total").Int())
	assert.Equal(t, "a1", gjson.Get(body, "data.list.0.a_id").String())
	assert.Equal(t, int64(5), gjson.Get(body, "data.limit").Int())

	w = f.do(http.MethodGet, "/api/v1/articles?limit=x", tok, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodGet, "/api/v1/articles/nope", tok, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodPost, "/api/v1/articles/a1/summary?force=true", tok, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, f.summary.force)
}

func TestAsk(t *testing.T) {
	f := newFixture(t, time.Second)
	tok := f.token(t, "42", model.RoleUser)

	w := f.do(http.MethodPost, "/api/v1/chat/a1/qa", tok, `{"question":"what?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "answer to what?", gjson.Get(w.Body.String(), "data.response").String())
	assert.Equal(t, uint64(42), f.chat.userID)

	w = f.do(http.MethodPost, "/api/v1/chat/a1/qa", tok, `{"question":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/api/v1/chat/a1/qa", tok, `{`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAskTimeout(t *testing.T) {
	f := newFixture(t, 20*time.Millisecond)
	f.chat.block = true
	tok := f.token(t, "1", model.RoleUser)

	w := f.do(http.MethodPost, "/api/v1/chat/a1/qa", tok, `{"question":"slow"}`)
	assert.Equal(t, http.StatusRequestTimeout, w.Code)
	assert.Equal(t, int64(errno.ErrRequestTimeout.Code), gjson.Get(w.Body.String(), "code").Int())
}

func TestFeedbackRequiresReviewer(t *testing.T) {
	f := newFixture(t, time.Second)
	body := `{"feedback":"accept"}`

	w := f.do(http.MethodPost, "/api/v1/reports/a1/r1/feedback", f.token(t, "1", model.RoleUser), body)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, f.reports.feedback)

	w = f.do(http.MethodPost, "/api/v1/reports/a1/r1/feedback", f.token(t, "2", model.RoleReviewer), `{"feedback":"maybe"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/api/v1/reports/a1/r1/feedback", f.token(t, "2", model.RoleReviewer), body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.FeedbackAccept, f.reports.feedback)
	assert.True(t, gjson.Get(w.Body.String(), "data.validated").Bool())
}

func TestReportsListAndExport(t *testing.T) {
	f := newFixture(t, time.Second)
	tok := f.token(t, "1", model.RoleUser)

	w := f.do(http.MethodGet, "/api/v1/reports/a1?validated=true", tok, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, gjson.Get(w.Body.String(), "data.0.validated").Bool())

	w = f.do(http.MethodGet, "/api/v1/reports/a1/export", tok, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/markdown")
	assert.Contains(t, w.Body.String(), "article_id: a1")
}

func TestAuthRoutes(t *testing.T) {
	f := newFixture(t, time.Second)

	w := f.do(http.MethodPost, "/api/v1/auth/login", "", `{"username":"bob","password":"whatever1"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodPost, "/api/v1/auth/refresh", "", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNoRoute(t *testing.T) {
	f := newFixture(t, time.Second)
	w := f.do(http.MethodGet, "/api/v2/none", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
