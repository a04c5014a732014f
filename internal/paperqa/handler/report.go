package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/paperqa/internal/model"
	"github.com/kart-io/paperqa/internal/pkg/httputils"
)

// ReportHandler serves /reports.
type ReportHandler struct {
	reports ReportService
}

func NewReportHandler(reports ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// List handles GET /reports/:article_id?validated=true.
func (h *ReportHandler) List(c *gin.Context) {
	validated, _ := strconv.ParseBool(c.DefaultQuery("validated", "false"))
	notes, err := h.reports.List(c.Request.Context(), c.Param("article_id"), validated)
	write(c, err, notes)
}

// Feedback handles POST /reports/:article_id/:report_id/feedback.
func (h *ReportHandler) Feedback(c *gin.Context) {
	var req model.FeedbackRequest
	if err := httputils.BindJSON(c, &req); err != nil {
		write(c, err, nil)
		return
	}
	note, err := h.reports.Feedback(c.Request.Context(), c.Param("article_id"), c.Param("report_id"), req.Feedback)
	write(c, err, note)
}

// Export handles GET /reports/:article_id/export.
func (h *ReportHandler) Export(c *gin.Context) {
	articleID := c.Param("article_id")
	doc, err := h.reports.Export(c.Request.Context(), articleID)
	if err != nil {
		write(c, err, nil)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+articleID+`-report.md"`)
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", doc)
}
