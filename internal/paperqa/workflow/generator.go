package workflow

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kart-io/paperqa/pkg/llm"
)

// LLMGenerator produces the final markdown answer.
type LLMGenerator struct {
	chat llm.ChatProvider
}

func NewLLMGenerator(chat llm.ChatProvider) *LLMGenerator {
	return &LLMGenerator{chat: chat}
}

// Generate implements Generator. An empty evidence set still reaches the model.
func (g *LLMGenerator) Generate(ctx context.Context, question string, evidence []string) (string, error) {
	block := FormatEvidence(evidence)
	if block == "" {
		block = NoEvidenceText
	}
	return g.chat.Generate(ctx, fmt.Sprintf(generatorPromptTemplate, block, question), generatorSystemPrompt)
}

// FormatEvidence numbers items from 1 and separates them with a blank line.
func FormatEvidence(evidence []string) string {
	var b strings.Builder
	for i, item := range evidence {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(item)
	}
	return b.String()
}
