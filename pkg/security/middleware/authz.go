package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/paperqa/pkg/utils/errors"
)

// Enforcer decides whether sub may perform act on obj.
type Enforcer interface {
	Enforce(rvals ...interface{}) (bool, error)
}

// Authz checks a fixed (obj, act) pair for the role carried in the token.
// It must run after Authn.
func Authz(e Enforcer, obj, act string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			abort(c, errors.ErrUnauthorized)
			return
		}
		role, _ := claims.Extra["role"].(string)

		allowed, err := e.Enforce(role, obj, act)
		if err != nil {
			logGinAuthz(c, "authorization error", role, obj, act, "error", err.Error())
			abort(c, errors.ErrInternal.WithCause(err))
			return
		}
		if !allowed {
			logGinAuthz(c, "authorization denied", role, obj, act)
			abort(c, errors.ErrForbidden)
			return
		}
		c.Next()
	}
}

// logGinAuthz logs authorization decisions for security audit.
func logGinAuthz(c *gin.Context, msg, subject, resource, action string, extra ...interface{}) {
	fields := []interface{}{
		"subject", subject,
		"resource", resource,
		"action", action,
		"remote_addr", c.ClientIP(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	}
	logger.Warnw(msg, append(fields, extra...)...)
}
