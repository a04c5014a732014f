package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/kart-io/paperqa/pkg/llm"
)

// LLMGrader grades one evidence item per model call.
type LLMGrader struct {
	chat llm.ChatProvider
}

// NewLLMGrader returns a grader backed by chat.
func NewLLMGrader(chat llm.ChatProvider) *LLMGrader {
	return &LLMGrader{chat: chat}
}

// Grade implements Grader.
func (g *LLMGrader) Grade(ctx context.Context, question, evidence string) (bool, error) {
	prompt := fmt.Sprintf(graderPromptTemplate, evidence, question)
	reply, err := g.chat.Generate(ctx, prompt, graderSystemPrompt)
	if err != nil {
		return false, err
	}
	return ParseVerdict(reply), nil
}

// ParseVerdict reads a yes/no reply. Besides a bare word it accepts a JSON
// object with a "score" field, which some models return regardless of the
// instructions.
func ParseVerdict(reply string) bool {
	s := strings.TrimSpace(reply)
	if strings.HasPrefix(s, "{") && gjson.Valid(s) {
		s = gjson.Get(s, "score").String()
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "yes" {
		return true
	}
	if rest, ok := strings.CutPrefix(s, "yes"); ok {
		return strings.Trim(rest, ".!,;: ") == ""
	}
	return false
}
