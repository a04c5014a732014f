package workflow

import (
	"context"
	"time"

	"github.com/kart-io/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "paperqa.workflow"

// Retriever fetches candidate evidence for a question. articleID is empty for
// retrievers that are not scoped to a single article.
type Retriever interface {
	Search(ctx context.Context, question, articleID string) ([]string, error)
}

// Grader decides whether a single evidence item is relevant to the question.
type Grader interface {
	Grade(ctx context.Context, question, evidence string) (bool, error)
}

// Generator writes the final answer from the surviving evidence.
type Generator interface {
	Generate(ctx context.Context, question string, evidence []string) (string, error)
}

// Result is what a run returns to the caller.
type Result struct {
	Answer      string   `json:"response"`
	ToolsUsed   []string `json:"tools_used"`
	PaperSearch bool     `json:"paper_search"`
	WebSearch   bool     `json:"web_search"`
}

// Observer receives per stage measurements. Implementations must be safe for
// concurrent use.
type Observer interface {
	ObserveStage(stage, trigger string, elapsed time.Duration, err error)
	ObserveGrade(stage string, relevant bool)
}

type nopObserver struct{}

func (nopObserver) ObserveStage(string, string, time.Duration, error) {}
func (nopObserver) ObserveGrade(string, bool)                         {}

// Option configures a Workflow.
type Option func(*Workflow)

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(w *Workflow) {
		if t != nil {
			w.tracer = t
		}
	}
}

// WithObserver reports stage timings and grading verdicts to o.
func WithObserver(o Observer) Option {
	return func(w *Workflow) {
		if o != nil {
			w.observer = o
		}
	}
}

// Workflow runs the retrieve, grade and generate state machine. It holds no
// per-run state and is safe for concurrent use.
type Workflow struct {
	vector    Retriever
	paper     Retriever
	web       Retriever
	grader    Grader
	generator Generator
	tracer    trace.Tracer
	observer  Observer
}

// New builds a workflow from its collaborators. All of them are required.
func New(vector, paper, web Retriever, grader Grader, generator Generator, opts ...Option) (*Workflow, error) {
	switch {
	case vector == nil:
		return nil, ErrInvalidWorkflow.WithMessage("vector retriever is required")
	case paper == nil:
		return nil, ErrInvalidWorkflow.WithMessage("paper retriever is required")
	case web == nil:
		return nil, ErrInvalidWorkflow.WithMessage("web retriever is required")
	case grader == nil:
		return nil, ErrInvalidWorkflow.WithMessage("grader is required")
	case generator == nil:
		return nil, ErrInvalidWorkflow.WithMessage("generator is required")
	}

	w := &Workflow{
		vector:    vector,
		paper:     paper,
		web:       web,
		grader:    grader,
		generator: generator,
		tracer:    otel.Tracer(tracerName),
		observer:  nopObserver{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run answers question about articleID.
func (w *Workflow) Run(ctx context.Context, question, articleID string) (*Result, error) {
	qc, err := NewQueryContext(question, articleID)
	if err != nil {
		return nil, err
	}

	stage := StageVectorSearch
	for stage != StageTerminal {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		trigger, err := w.runStage(ctx, stage, qc)
		if err != nil {
			logger.Warnw("workflow stage failed",
				"stage", stage.String(),
				"article_id", articleID,
				"error", err.Error(),
			)
			return nil, err
		}

		next, err := Next(stage, trigger)
		if err != nil {
			return nil, err
		}
		logger.Debugw("workflow transition",
			"from", stage.String(),
			"trigger", trigger.String(),
			"to", next.String(),
			"evidence", len(qc.evidence),
		)
		stage = next
	}

	logger.Infow("workflow completed",
		"article_id", articleID,
		"tools_used", qc.ToolsUsed(),
		"paper_search", qc.escalateToPaperSearch,
		"web_search", qc.escalateToWebSearch,
	)

	return &Result{
		Answer:      qc.answer,
		ToolsUsed:   qc.ToolsUsed(),
		PaperSearch: qc.escalateToPaperSearch,
		WebSearch:   qc.escalateToWebSearch,
	}, nil
}

func (w *Workflow) runStage(ctx context.Context, stage Stage, qc *QueryContext) (trigger Trigger, err error) {
	start := time.Now()
	ctx, span := w.tracer.Start(ctx, tracerName+"/"+stage.String())
	defer func() {
		w.observer.ObserveStage(stage.String(), trigger.String(), time.Since(start), err)
		span.SetAttributes(attribute.Int("evidence.count", len(qc.evidence)))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	switch stage {
	case StageVectorSearch:
		return w.retrieve(ctx, stage, qc, "vector", w.vector, qc.articleID)
	case StageVectorSearchEvaluate:
		return w.evaluate(ctx, stage, qc, &qc.escalateToPaperSearch)
	case StagePaperSearch:
		return w.retrieve(ctx, stage, qc, "paper", w.paper, "")
	case StagePaperSearchEvaluate:
		return w.evaluate(ctx, stage, qc, &qc.escalateToWebSearch)
	case StageWebSearch:
		return w.retrieve(ctx, stage, qc, "web", w.web, "")
	case StageGenerate:
		return w.generate(ctx, qc)
	default:
		return 0, ErrInvalidTransition
	}
}

func (w *Workflow) retrieve(ctx context.Context, stage Stage, qc *QueryContext, provider string, r Retriever, articleID string) (Trigger, error) {
	qc.logStage(stage)

	items, err := r.Search(ctx, qc.question, articleID)
	if err != nil {
		return 0, &ProviderError{Stage: stage, Provider: provider, Err: err}
	}
	qc.replaceEvidence(items)
	return TriggerRetrieved, nil
}

// evaluate grades each item in order. An empty set counts as not relevant.
func (w *Workflow) evaluate(ctx context.Context, stage Stage, qc *QueryContext, escalate *bool) (Trigger, error) {
	kept := make([]string, 0, len(qc.evidence))
	for i, item := range qc.evidence {
		ok, err := w.grader.Grade(ctx, qc.question, item)
		if err != nil {
			return 0, &GradingError{Stage: stage, Index: i, Err: err}
		}
		w.observer.ObserveGrade(stage.String(), ok)
		if ok {
			kept = append(kept, item)
		}
	}

	allRelevant := len(qc.evidence) > 0 && len(kept) == len(qc.evidence)
	qc.replaceEvidence(kept)
	if allRelevant {
		return TriggerAllRelevant, nil
	}

	*escalate = true
	qc.logStage(stage)
	return TriggerAnyIrrelevant, nil
}

func (w *Workflow) generate(ctx context.Context, qc *QueryContext) (Trigger, error) {
	qc.logStage(StageGenerate)

	answer, err := w.generator.Generate(ctx, qc.question, qc.Evidence())
	if err != nil {
		return 0, &GenerationError{Err: err}
	}
	qc.answer = answer
	return TriggerAnswered, nil
}
