// Package middleware provides gin middlewares for authentication and authorization.
package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/paperqa/pkg/security/jwt"
	"github.com/kart-io/paperqa/pkg/utils/errors"
	"github.com/kart-io/paperqa/pkg/utils/response"
)

// ContextKeyClaims is the gin context key holding *jwt.Claims.
const ContextKeyClaims = "paperqa.claims"

// Verifier validates access tokens.
type Verifier interface {
	Verify(ctx context.Context, token string) (*jwt.Claims, error)
}

// Authn rejects requests without a valid bearer token and stores the claims
// in both the gin context and the request context.
func Authn(v Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abort(c, errors.ErrUnauthorized.WithMessage("missing bearer token"))
			return
		}

		claims, err := v.Verify(c.Request.Context(), token)
		if err != nil {
			logger.Debugw("token rejected", "path", c.Request.URL.Path, "error", err.Error())
			abort(c, errors.FromError(err))
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Request = c.Request.WithContext(jwt.NewContext(c.Request.Context(), claims))
		c.Next()
	}
}

// Claims returns the claims set by Authn, or nil.
func Claims(c *gin.Context) *jwt.Claims {
	v, ok := c.Get(ContextKeyClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*jwt.Claims)
	return claims
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abort(c *gin.Context, e *errors.Errno) {
	resp := response.Err(e)
	defer response.Release(resp)
	c.AbortWithStatusJSON(resp.HTTPStatus(), resp)
}
