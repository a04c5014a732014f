package workflow

import (
	"errors"
	"fmt"
)

// Stage identifies a step of the retrieval workflow.
type Stage int

const (
	StageVectorSearch Stage = iota
	StageVectorSearchEvaluate
	StagePaperSearch
	StagePaperSearchEvaluate
	StageWebSearch
	StageGenerate
	StageTerminal
)

var stageNames = map[Stage]string{
	StageVectorSearch:         "vector_store_retrieval",
	StageVectorSearchEvaluate: "vector_store_evaluation",
	StagePaperSearch:          "paper_search_retrieval",
	StagePaperSearchEvaluate:  "paper_search_evaluation",
	StageWebSearch:            "web_search_retrieval",
	StageGenerate:             "llm_generation",
	StageTerminal:             "terminal",
}

// String returns the name reported in tools_used.
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Trigger is the outcome a stage reports to the transition table.
type Trigger int

const (
	// TriggerRetrieved is emitted by every retrieval stage, whatever it found.
	TriggerRetrieved Trigger = iota
	TriggerAllRelevant
	TriggerAnyIrrelevant
	TriggerAnswered
)

func (t Trigger) String() string {
	switch t {
	case TriggerRetrieved:
		return "retrieved"
	case TriggerAllRelevant:
		return "all_relevant"
	case TriggerAnyIrrelevant:
		return "any_irrelevant"
	case TriggerAnswered:
		return "answered"
	default:
		return fmt.Sprintf("trigger(%d)", int(t))
	}
}

type edge struct {
	from    Stage
	trigger Trigger
}

// Transitions is the complete state machine. Pairs not listed are invalid.
var Transitions = map[edge]Stage{
	{StageVectorSearch, TriggerRetrieved}:             StageVectorSearchEvaluate,
	{StageVectorSearchEvaluate, TriggerAllRelevant}:   StageGenerate,
	{StageVectorSearchEvaluate, TriggerAnyIrrelevant}: StagePaperSearch,
	{StagePaperSearch, TriggerRetrieved}:              StagePaperSearchEvaluate,
	{StagePaperSearchEvaluate, TriggerAllRelevant}:    StageGenerate,
	{StagePaperSearchEvaluate, TriggerAnyIrrelevant}:  StageWebSearch,
	{StageWebSearch, TriggerRetrieved}:                StageGenerate,
	{StageGenerate, TriggerAnswered}:                  StageTerminal,
}

// ErrInvalidTransition is returned by Next for a pair missing from Transitions.
var ErrInvalidTransition = errors.New("invalid workflow transition")

// Next looks up the stage that follows from after trigger.
func Next(from Stage, trigger Trigger) (Stage, error) {
	to, ok := Transitions[edge{from, trigger}]
	if !ok {
		return StageTerminal, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, from, trigger)
	}
	return to, nil
}
