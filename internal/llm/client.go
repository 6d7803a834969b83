// Package llm wraps the LLM inference providers behind a small client
// interface: plain completions and a multi-turn tool-calling loop.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/dspybridge/dspybridge/internal/tools"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotConfigured   = errors.New("llm provider is not configured")
	ErrUnknownProvider = errors.New("unknown llm provider")
	ErrMaxIterations   = errors.New("tool loop exceeded max iterations")
	ErrEmptyResponse   = errors.New("llm returned no choices")
)

// DefaultMaxIters bounds RunTools when the caller passes no limit.
const DefaultMaxIters = 6

const finalAnswerPrompt = "You have enough information. Please provide your final answer now without calling any more tools."

// Request is a single prompt sent to the provider.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature *float64
}

// ToolRun is the outcome of a tool-calling loop.
type ToolRun struct {
	Text       string
	ToolsUsed  []string
	Iterations int
}

// Client is implemented by every provider backend.
type Client interface {
	Provider() string
	Model() string
	Complete(ctx context.Context, req Request) (string, error)
	RunTools(ctx context.Context, req Request, agentTools []tools.Tool, maxIter int) (*ToolRun, error)
}

type toolCall struct {
	ID    string
	Name  string
	Input map[string]interface{}
}

// executeTool runs the named tool. The bool result is true when the call
// could not be dispatched at all.
func executeTool(ctx context.Context, tc toolCall, agentTools []tools.Tool) (string, bool) {
	for _, t := range agentTools {
		if t.Name == tc.Name {
			return t.Call(ctx, tc.Input), false
		}
	}
	log.Warn().Str("tool", tc.Name).Msg("model requested unknown tool")
	return fmt.Sprintf("error: unknown tool: %s", tc.Name), true
}

func preview(s string) string {
	if len(s) > 80 {
		return s[:80]
	}
	return s
}
