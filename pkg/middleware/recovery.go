package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/paperqa/pkg/utils/errors"
	"github.com/kart-io/paperqa/pkg/utils/response"
)

// Recovery turns a panic into a 500 ErrPanic response.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorw("panic recovered",
					"path", c.Request.URL.Path,
					"request_id", GetRequestID(c.Request.Context()),
					"panic", fmt.Sprint(r),
					"stack", string(debug.Stack()),
				)
				resp := response.Err(errors.ErrPanic).WithRequestID(GetRequestID(c.Request.Context()))
				defer response.Release(resp)
				c.AbortWithStatusJSON(resp.HTTPStatus(), resp)
			}
		}()
		c.Next()
	}
}
