// Package handler provides the HTTP handlers of the paperqa API.
package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/paperqa/internal/model"
	"github.com/kart-io/paperqa/internal/pkg/httputils"
	"github.com/kart-io/paperqa/pkg/security/middleware"
	errno "github.com/kart-io/paperqa/pkg/utils/errors"
)

// ArticleService is implemented by biz.ArticleBiz.
type ArticleService interface {
	List(ctx context.Context, offset, limit int) (*model.ArticleList, error)
	Get(ctx context.Context, id string) (*model.Article, error)
}

// ChatService is implemented by biz.ChatBiz.
type ChatService interface {
	Ask(ctx context.Context, userID uint64, articleID string, req *model.AskRequest) (*model.AskResponse, error)
}

// ReportService is implemented by biz.ReportBiz.
type ReportService interface {
	List(ctx context.Context, articleID string, validatedOnly bool) ([]*model.ResearchNote, error)
	Feedback(ctx context.Context, articleID, reportID, feedback string) (*model.ResearchNote, error)
	Export(ctx context.Context, articleID string) ([]byte, error)
}

// SummaryService is implemented by biz.SummaryBiz.
type SummaryService interface {
	Generate(ctx context.Context, articleID string, force bool) (*model.Summary, error)
}

// AuthService is implemented by biz.AuthBiz.
type AuthService interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error)
}

// write 统一输出，请求超时映射为 408
func write(c *gin.Context, err error, data interface{}) {
	if err != nil && errors.Is(c.Request.Context().Err(), context.DeadlineExceeded) &&
		!errno.IsCode(err, errno.ErrQueryTimeout.Code) {
		err = errno.ErrRequestTimeout.WithCause(err)
	}
	httputils.WriteResponse(c, err, data)
}

// userID returns the numeric subject of the authenticated user.
func userID(c *gin.Context) (uint64, error) {
	claims := middleware.Claims(c)
	if claims == nil {
		return 0, errno.ErrUnauthorized
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, errno.ErrInvalidToken.WithMessage("subject is not a user id")
	}
	return id, nil
}
