package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dspybridge/dspybridge/internal/tools"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"github.com/rs/zerolog/log"
)

// GroqBaseURL is Groq's OpenAI-compatible endpoint.
const GroqBaseURL = "https://api.groq.com/openai/v1"

// OpenAIClient serves any provider that speaks the OpenAI Chat Completions API.
type OpenAIClient struct {
	client    *openai.Client
	provider  string
	model     string
	maxTokens int
}

func NewOpenAIClient(provider, apiKey, model, baseURL string, maxTokens int) *OpenAIClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return &OpenAIClient{
		client:    &client,
		provider:  provider,
		model:     model,
		maxTokens: maxTokens,
	}
}

func (c *OpenAIClient) Provider() string { return c.provider }
func (c *OpenAIClient) Model() string    { return c.model }

func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, c.params(req, c.initialMessages(req), nil))
	if err != nil {
		return "", fmt.Errorf("%s call failed: %w", c.provider, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// RunTools mirrors AnthropicClient.RunTools over Chat Completions tool calls.
func (c *OpenAIClient) RunTools(ctx context.Context, req Request, agentTools []tools.Tool, maxIter int) (*ToolRun, error) {
	if maxIter <= 0 {
		maxIter = DefaultMaxIters
	}
	toolParams := openaiTools(agentTools)
	messages := c.initialMessages(req)

	run := &ToolRun{}
	for iter := 0; iter < maxIter; iter++ {
		resp, err := c.client.Chat.Completions.New(ctx, c.params(req, messages, toolParams))
		if err != nil {
			return run, fmt.Errorf("%s call failed: %w", c.provider, err)
		}
		run.Iterations++
		if len(resp.Choices) == 0 {
			return run, ErrEmptyResponse
		}
		choice := resp.Choices[0]
		text := choice.Message.Content

		log.Debug().
			Int("iter", iter).
			Str("finish_reason", choice.FinishReason).
			Str("text_preview", preview(text)).
			Int("tool_calls", len(choice.Message.ToolCalls)).
			Msg("agent iteration")

		if len(choice.Message.ToolCalls) == 0 {
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

		messages = append(messages, choice.Message.ToParam())
		for _, call := range choice.Message.ToolCalls {
			var input map[string]interface{}
			if err := json.Unmarshal([]byte(call.Function.Arguments), &input); err != nil {
				log.Warn().Err(err).Str("tool", call.Function.Name).Msg("failed to parse tool input")
				input = map[string]interface{}{}
			}
			tc := toolCall{ID: call.ID, Name: call.Function.Name, Input: input}
			run.ToolsUsed = append(run.ToolsUsed, tc.Name)
			out, _ := executeTool(ctx, tc, agentTools)
			messages = append(messages, openai.ToolMessage(out, tc.ID))
		}
		if iter == maxIter-2 {
			messages = append(messages, openai.UserMessage(finalAnswerPrompt))
		}
	}
	return run, fmt.Errorf("%w (%d)", ErrMaxIterations, maxIter)
}

func (c *OpenAIClient) initialMessages(req Request) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	return append(messages, openai.UserMessage(req.Prompt))
}

func (c *OpenAIClient) params(req Request, messages []openai.ChatCompletionMessageParamUnion, toolParams []openai.ChatCompletionToolUnionParam) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(c.model),
		Messages: messages,
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if len(toolParams) > 0 {
		params.Tools = toolParams
	}
	return params
}

func openaiTools(agentTools []tools.Tool) []openai.ChatCompletionToolUnionParam {
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(agentTools))
	for _, t := range agentTools {
		out = append(out, openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        t.Name,
			Description: openai.String(t.Description),
			Parameters:  shared.FunctionParameters(t.InputSchema),
		}))
	}
	return out
}
