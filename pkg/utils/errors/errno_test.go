package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestMakeAndParseCode(t *testing.T) {
	code := MakeCode(ServicePaperQA, CategoryResource, 1)
	assert.Equal(t, 2004001, code)

	service, category, seq := ParseCode(code)
	assert.Equal(t, ServicePaperQA, service)
	assert.Equal(t, CategoryResource, category)
	assert.Equal(t, 1, seq)

	assert.True(t, IsClientError(code))
	assert.False(t, IsServerError(code))
	assert.True(t, IsServerError(ErrWorkflowGeneration.Code))
}

func TestErrnoWithCause(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := ErrWorkflowProvider.WithCause(cause)

	assert.Equal(t, ErrWorkflowProvider.Code, err.Code)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrWorkflowProvider)
	assert.Nil(t, ErrWorkflowProvider.Unwrap(), "original must stay untouched")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestErrnoWithMessage(t *testing.T) {
	err := ErrInvalidParam.WithMessagef("limit must be <= %d", 100)
	assert.Equal(t, "limit must be <= 100", err.MessageEN)
	assert.Equal(t, "Invalid parameter", ErrInvalidParam.MessageEN)
	assert.Equal(t, "参数无效", err.Message("zh"))
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	wrapped := fmt.Errorf("load article: %w", ErrArticleNotFound)
	e := FromError(wrapped)
	require.NotNil(t, e)
	assert.Equal(t, ErrArticleNotFound.Code, e.Code)
	assert.Equal(t, http.StatusNotFound, e.HTTPStatus())
	assert.True(t, IsCode(wrapped, ErrArticleNotFound.Code))

	plain := FromError(fmt.Errorf("boom"))
	assert.Equal(t, ErrInternal.Code, plain.Code)
	assert.Equal(t, codes.Internal, plain.GRPCStatus())
	assert.Equal(t, -1, GetCode(fmt.Errorf("boom")))
}

func TestRegisterDuplicatePanics(t *testing.T) {
	assert.Panics(t, func() {
		Register(New(ErrInternal.Code, http.StatusInternalServerError, codes.Internal, "dup", ""))
	})
	assert.Panics(t, func() {
		NewRequestErr(ServicePaperQA, 1000, "out of range", "")
	})
}

func TestNetworkErrorsMapToBadGateway(t *testing.T) {
	for _, e := range []*Errno{ErrWorkflowProvider, ErrWorkflowGrading, ErrWorkflowGeneration} {
		assert.Equal(t, http.StatusBadGateway, e.HTTPStatus())
		assert.Equal(t, codes.Unavailable, e.GRPCStatus())
	}
	_, ok := Lookup(ErrReportNotFound.Code)
	assert.True(t, ok)
}
