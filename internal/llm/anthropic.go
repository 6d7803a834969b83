package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/dspybridge/dspybridge/internal/tools"
	"github.com/rs/zerolog/log"
)

const defaultAnthropicModel = "claude-sonnet-4-6"

// AnthropicClient talks to Anthropic Claude or a compatible provider.
type AnthropicClient struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

func NewAnthropicClient(apiKey, model, baseURL string, maxTokens int) *AnthropicClient {
	if model == "" {
		model = defaultAnthropicModel
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &AnthropicClient{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (c *AnthropicClient) Provider() string { return "anthropic" }
func (c *AnthropicClient) Model() string    { return c.model }

func (c *AnthropicClient) Complete(ctx context.Context, req Request) (string, error) {
	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
	}
	resp, err := c.client.Messages.New(ctx, c.params(req, messages, nil))
	if err != nil {
		return "", fmt.Errorf("anthropic call failed: %w", err)
	}
	text, _ := splitAnthropicContent(resp)
	return text, nil
}

// RunTools executes the tool loop until the model stops asking for tools.
// The last permitted call is preceded by a request for a final answer.
func (c *AnthropicClient) RunTools(ctx context.Context, req Request, agentTools []tools.Tool, maxIter int) (*ToolRun, error) {
	if maxIter <= 0 {
		maxIter = DefaultMaxIters
	}
	toolParams := anthropicTools(agentTools)
	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
	}

	run := &ToolRun{}
	for iter := 0; iter < maxIter; iter++ {
		resp, err := c.client.Messages.New(ctx, c.params(req, messages, toolParams))
		if err != nil {
			return run, fmt.Errorf("anthropic call failed: %w", err)
		}
		run.Iterations++

		text, calls := splitAnthropicContent(resp)
		log.Debug().
			Int("iter", iter).
			Str("stop_reason", string(resp.StopReason)).
			Str("text_preview", preview(text)).
			Int("tool_calls", len(calls)).
			Msg("agent iteration")

		if resp.StopReason != "tool_use" || len(calls) == 0 {
			run.Text = text
			return run, nil
		}
		if iter == maxIter-1 {
			if text == "" {
				return run, fmt.Errorf("%w (%d)", ErrMaxIterations, maxIter)
			}
			run.Text = text
			return run, nil
		}

		messages = append(messages, resp.ToParam())
		results := make([]anthropic.ContentBlockParamUnion, 0, len(calls)+1)
		for _, tc := range calls {
			run.ToolsUsed = append(run.ToolsUsed, tc.Name)
			out, isErr := executeTool(ctx, tc, agentTools)
			results = append(results, anthropic.NewToolResultBlock(tc.ID, out, isErr))
		}
		if iter == maxIter-2 {
			results = append(results, anthropic.NewTextBlock(finalAnswerPrompt))
		}
		messages = append(messages, anthropic.NewUserMessage(results...))
	}
	return run, fmt.Errorf("%w (%d)", ErrMaxIterations, maxIter)
}

func (c *AnthropicClient) params(req Request, messages []anthropic.MessageParam, toolParams []anthropic.ToolUnionUnionParam) anthropic.MessageNewParams {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.F(anthropic.Model(c.model)),
		MaxTokens: anthropic.F(int64(maxTokens)),
		Messages:  anthropic.F(messages),
	}
	if len(toolParams) > 0 {
		params.Tools = anthropic.F(toolParams)
	}
	if req.System != "" {
		params.System = anthropic.F([]anthropic.TextBlockParam{
			anthropic.NewTextBlock(req.System),
		})
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.F(*req.Temperature)
	}
	return params
}

func anthropicTools(agentTools []tools.Tool) []anthropic.ToolUnionUnionParam {
	out := make([]anthropic.ToolUnionUnionParam, len(agentTools))
	for i, t := range agentTools {
		schema := map[string]interface{}{
			"type":       "object",
			"properties": t.InputSchema["properties"],
		}
		if required, ok := t.InputSchema["required"]; ok {
			schema["required"] = required
		}
		out[i] = anthropic.ToolParam{
			Name:        anthropic.String(t.Name),
			Description: anthropic.String(t.Description),
			InputSchema: anthropic.F[interface{}](schema),
		}
	}
	return out
}

func splitAnthropicContent(resp *anthropic.Message) (string, []toolCall) {
	var text string
	var calls []toolCall
	for _, block := range resp.Content {
		switch b := block.AsUnion().(type) {
		case anthropic.TextBlock:
			text += b.Text
		case anthropic.ToolUseBlock:
			var input map[string]interface{}
			if err := json.Unmarshal(b.Input, &input); err != nil {
				log.Warn().Err(err).Str("tool", b.Name).Msg("failed to parse tool input")
				input = map[string]interface{}{}
			}
			calls = append(calls, toolCall{ID: b.ID, Name: b.Name, Input: input})
		}
	}
	return text, calls
}
