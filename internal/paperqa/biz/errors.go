package biz

import (
	"context"
	"errors"

	"github.com/kart-io/paperqa/internal/paperqa/store"
	"github.com/kart-io/paperqa/internal/paperqa/workflow"
	errno "github.com/kart-io/paperqa/pkg/utils/errors"
)

// mapWorkflowError turns a workflow failure into the Errno returned to clients.
func mapWorkflowError(err error) error {
	var (
		pe *workflow.ProviderError
		ge *workflow.GradingError
		gn *workflow.GenerationError
		en *errno.Errno
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return errno.ErrQueryTimeout.WithCause(err)
	case errors.Is(err, context.Canceled):
		return errno.ErrContextCanceled.WithCause(err)
	case errors.As(err, &pe):
		return errno.ErrWorkflowProvider.WithCause(err)
	case errors.As(err, &ge):
		return errno.ErrWorkflowGrading.WithCause(err)
	case errors.As(err, &gn):
		return errno.ErrWorkflowGeneration.WithCause(err)
	case errors.As(err, &en):
		return en
	default:
		return errno.ErrInternal.WithCause(err)
	}
}

// dbError maps a store error, using notFound for missing rows.
func dbError(err error, notFound *errno.Errno) error {
	if store.IsNotFound(err) {
		return notFound
	}
	return errno.ErrDatabase.WithCause(err)
}
