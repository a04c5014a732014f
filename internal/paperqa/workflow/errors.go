package workflow

import (
	"fmt"

	"github.com/kart-io/paperqa/pkg/utils/errors"
)

// ErrInvalidWorkflow is returned by New when a collaborator is missing.
var ErrInvalidWorkflow = errors.ErrWorkflowInvalid

// ProviderError reports a failed retrieval provider.
type ProviderError struct {
	Stage    Stage
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s provider failed: %v", e.Stage, e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// GradingError reports a grader failure on the evidence item at Index.
type GradingError struct {
	Stage Stage
	Index int
	Err   error
}

func (e *GradingError) Error() string {
	return fmt.Sprintf("%s: grading evidence %d failed: %v", e.Stage, e.Index, e.Err)
}

func (e *GradingError) Unwrap() error { return e.Err }

// GenerationError reports a generator failure.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %v", StageGenerate, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
