// Package httputils provides HTTP utility functions.
package httputils

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/paperqa/pkg/utils/errors"
	"github.com/kart-io/paperqa/pkg/utils/response"
	"github.com/kart-io/paperqa/pkg/utils/validator"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

// WriteResponse writes the response to the client.
// It handles both success and error cases, ensuring consistent response format.
func WriteResponse(c *gin.Context, err error, data interface{}) {
	var resp *response.Response
	switch {
	case err != nil:
		resp = response.ErrWithLang(errors.FromError(err), Lang(c))
	default:
		// data can be *response.Response (e.g. from response.Page) or raw data
		if r, ok := data.(*response.Response); ok {
			resp = r
		} else {
			resp = response.Success(data)
		}
	}
	defer response.Release(resp)

	if rid := c.GetHeader(HeaderRequestID); rid != "" {
		resp.WithRequestID(rid)
	} else if rid := c.Writer.Header().Get(HeaderRequestID); rid != "" {
		resp.WithRequestID(rid)
	}
	c.JSON(resp.HTTPStatus(), resp)
}

// Lang returns "zh" when the client prefers Chinese, "en" otherwise.
func Lang(c *gin.Context) string {
	if strings.HasPrefix(strings.ToLower(c.GetHeader("Accept-Language")), validator.LangZH) {
		return validator.LangZH
	}
	return validator.LangEN
}

// BindJSON decodes the body into obj and validates it. The returned error is
// an Errno ready for WriteResponse.
func BindJSON(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		return errors.ErrBadRequest.WithMessage(err.Error())
	}
	if verrs := validator.Global().Validate(obj, Lang(c)); verrs != nil {
		return errors.ErrValidationFailed.WithMessage(verrs.First())
	}
	return nil
}
