package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	errno "github.com/kart-io/paperqa/pkg/utils/errors"
	"github.com/kart-io/paperqa/pkg/utils/response"
)

// ArticleHandler serves /articles.
type ArticleHandler struct {
	articles ArticleService
	summary  SummaryService
}

func NewArticleHandler(articles ArticleService, summary SummaryService) *ArticleHandler {
	return &ArticleHandler{articles: articles, summary: summary}
}

// List handles GET /articles?offset=&limit=.
func (h *ArticleHandler) List(c *gin.Context) {
	offset, err1 := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, err2 := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err1 != nil || err2 != nil {
		write(c, errno.ErrInvalidParam.WithMessage("offset and limit must be integers"), nil)
		return
	}

	list, err := h.articles.List(c.Request.Context(), offset, limit)
	if err != nil {
		write(c, err, nil)
		return
	}
	write(c, nil, response.Page(list.Items, list.TotalCount, offset, limit))
}

// Get handles GET /articles/:id.
func (h *ArticleHandler) Get(c *gin.Context) {
	a, err := h.articles.Get(c.Request.Context(), c.Param("id"))
	write(c, err, a)
}

// Summary handles POST /articles/:id/summary?force=true.
func (h *ArticleHandler) Summary(c *gin.Context) {
	force, _ := strconv.ParseBool(c.DefaultQuery("force", "false"))
	s, err := h.summary.Generate(c.Request.Context(), c.Param("id"), force)
	write(c, err, s)
}
