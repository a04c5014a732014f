package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/kart-io/paperqa/internal/model"
	"github.com/kart-io/paperqa/internal/pkg/httputils"
)

// ChatHandler serves the question endpoint.
type ChatHandler struct {
	chat ChatService
}

func NewChatHandler(chat ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Ask handles POST /chat/:article_id/qa.
func (h *ChatHandler) Ask(c *gin.Context) {
	var req model.AskRequest
	if err := httputils.BindJSON(c, &req); err != nil {
		write(c, err, nil)
		return
	}
	uid, err := userID(c)
	if err != nil {
		write(c, err, nil)
		return
	}

	resp, err := h.chat.Ask(c.Request.Context(), uid, c.Param("article_id"), &req)
	write(c, err, resp)
}
