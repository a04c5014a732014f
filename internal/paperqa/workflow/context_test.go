package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQueryContext(t *testing.T) {
	tests := []struct {
		name      string
		question  string
		articleID string
		wantErr   bool
	}{
		{"valid", "What is the main contribution?", "2401.00001", false},
		{"blank question", "   ", "2401.00001", true},
		{"empty article", "What?", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qc, err := NewQueryContext(tt.question, tt.articleID)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidQuery))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.question, qc.Question())
			assert.Equal(t, tt.articleID, qc.ArticleID())
			assert.Empty(t, qc.Evidence())
			assert.Empty(t, qc.Steps())
		})
	}
}

func TestQueryContextLogStageSkipsRepeats(t *testing.T) {
	qc, err := NewQueryContext("q", "a")
	require.NoError(t, err)

	qc.logStage(StageVectorSearch)
	qc.logStage(StageVectorSearch)
	qc.logStage(StageGenerate)

	assert.Equal(t, []string{"vector_store_retrieval", "llm_generation"}, qc.ToolsUsed())
}

func TestQueryContextAccessorsCopy(t *testing.T) {
	qc, err := NewQueryContext("q", "a")
	require.NoError(t, err)
	qc.replaceEvidence([]string{"x", "y"})

	ev := qc.Evidence()
	ev[0] = "mutated"
	assert.Equal(t, []string{"x", "y"}, qc.Evidence())
}
