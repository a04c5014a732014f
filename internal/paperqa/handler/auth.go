package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/kart-io/paperqa/internal/model"
	"github.com/kart-io/paperqa/internal/pkg/httputils"
)

// AuthHandler serves /auth.
type AuthHandler struct {
	auth AuthService
}

func NewAuthHandler(auth AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := httputils.BindJSON(c, &req); err != nil {
		write(c, err, nil)
		return
	}
	user, err := h.auth.Register(c.Request.Context(), &req)
	write(c, err, user)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := httputils.BindJSON(c, &req); err != nil {
		write(c, err, nil)
		return
	}
	pair, err := h.auth.Login(c.Request.Context(), &req)
	write(c, err, pair)
}

// Refresh handles POST /auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req model.RefreshRequest
	if err := httputils.BindJSON(c, &req); err != nil {
		write(c, err, nil)
		return
	}
	pair, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	write(c, err, pair)
}
