package workflow

import (
	"strings"

	"github.com/kart-io/paperqa/pkg/utils/errors"
)

// ErrInvalidQuery is returned when the question or article id is blank.
var ErrInvalidQuery = errors.ErrInvalidQuestion

// QueryContext is the state of a single run. It is created per question and
// only mutated by the stage functions of this package.
type QueryContext struct {
	question  string
	articleID string

	evidence []string
	steps    []Stage

	escalateToPaperSearch bool
	escalateToWebSearch   bool

	answer string
}

// NewQueryContext validates the inputs and returns a fresh context.
func NewQueryContext(question, articleID string) (*QueryContext, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrInvalidQuery.WithMessage("question must not be blank")
	}
	if strings.TrimSpace(articleID) == "" {
		return nil, ErrInvalidQuery.WithMessage("article id must not be blank")
	}
	return &QueryContext{question: question, articleID: articleID}, nil
}

func (q *QueryContext) Question() string  { return q.question }
func (q *QueryContext) ArticleID() string { return q.articleID }
func (q *QueryContext) Answer() string    { return q.answer }

func (q *QueryContext) EscalateToPaperSearch() bool { return q.escalateToPaperSearch }
func (q *QueryContext) EscalateToWebSearch() bool   { return q.escalateToWebSearch }

// Evidence returns a copy of the current evidence.
func (q *QueryContext) Evidence() []string {
	return append([]string(nil), q.evidence...)
}

// Steps returns a copy of the executed stages.
func (q *QueryContext) Steps() []Stage {
	return append([]Stage(nil), q.steps...)
}

// ToolsUsed returns the executed stage names.
func (q *QueryContext) ToolsUsed() []string {
	out := make([]string, len(q.steps))
	for i, s := range q.steps {
		out[i] = s.String()
	}
	return out
}

// replaceEvidence drops whatever the previous stage left behind.
func (q *QueryContext) replaceEvidence(items []string) {
	q.evidence = append([]string(nil), items...)
}

// logStage appends s unless it is already the last entry.
func (q *QueryContext) logStage(s Stage) {
	if n := len(q.steps); n > 0 && q.steps[n-1] == s {
		return
	}
	q.steps = append(q.steps, s)
}
