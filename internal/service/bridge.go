// Package service wires the prompting modules to the LLM client and the
// tool registry. Each endpoint calls one Bridge method.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dspybridge/dspybridge/internal/llm"
	"github.com/dspybridge/dspybridge/internal/modules"
	"github.com/dspybridge/dspybridge/internal/tools"
	"github.com/rs/zerolog/log"
)

var ErrUnknownCategory = errors.New("unknown tool category")

const (
	// FallbackModel is reported as model_used when no provider is configured.
	FallbackModel = "Fallback (DSPyBridge not configured)"
	notConfigured = "Not configured"
	contextNone   = "No additional context provided."

	questionFallback  = "DSPyBridge is not properly configured. Please check your setup."
	reasoningFallback = "Chain of thought reasoning is not available."
	agentFallback     = "Service not configured. Please set GROQ_API_KEY."
)

// Module signatures, one per endpoint.
var (
	chatSignature = modules.MustSignature("message -> response").
			WithInstructions("You are a helpful assistant. Reply to the user's message.").
			Describe(map[string]string{
			"message":  "User message",
			"response": "Assistant response",
		})

	qaSignature = modules.MustSignature("question, context -> answer").
			WithInstructions("Answer the question. Use the context when it is relevant.").
			Describe(map[string]string{
			"question": "User question",
			"context":  "Relevant context",
			"answer":   "Answer to the question",
		}).
		WithDefault("context", contextNone)

	ragSignature = modules.MustSignature("query, context -> response").
			WithInstructions("Answer the query using only the retrieved documents in the context.").
			Describe(map[string]string{
			"query":    "User query",
			"context":  "Retrieved context documents",
			"response": "Response based on retrieved context",
		})

	agentSignature = modules.MustSignature("user_request -> analysis_response").
			WithInstructions("You are a helpful agent. Use the available tools when they help answer the request.").
			Describe(map[string]string{
			"user_request":      "The user's request",
			"analysis_response": "The final answer to the user",
		})
)

// Options configures a Bridge.
type Options struct {
	// Client is nil when no provider is configured; every method then
	// answers with fallback text.
	Client        llm.Client
	Registry      *tools.Registry
	AgentMaxIters int
}

// Bridge holds one prompting module per endpoint.
type Bridge struct {
	client   llm.Client
	registry *tools.Registry
	router   *IntentRouter

	chat  *modules.Predict
	qa    *modules.Predict
	cot   *modules.ChainOfThought
	rag   *modules.Predict
	agent *modules.ReAct
}

func NewBridge(opts Options) *Bridge {
	b := &Bridge{
		client:   opts.Client,
		registry: opts.Registry,
		router:   NewIntentRouter(),
	}
	if b.registry == nil {
		b.registry = tools.NewRegistry()
	}
	if opts.Client == nil {
		log.Warn().Msg("no LLM API key configured, using fallback mode")
		return b
	}

	defaults, err := b.registry.Default()
	if err != nil {
		log.Warn().Err(err).Msg("default agent tools unavailable")
	}
	b.chat = modules.NewPredict(opts.Client, chatSignature)
	b.qa = modules.NewPredict(opts.Client, qaSignature)
	b.cot = modules.NewChainOfThought(opts.Client, qaSignature)
	b.rag = modules.NewPredict(opts.Client, ragSignature)
	b.agent = modules.NewReAct(opts.Client, agentSignature, defaults, opts.AgentMaxIters)
	log.Info().
		Str("provider", opts.Client.Provider()).
		Str("model", opts.Client.Model()).
		Msg("prompting modules configured")
	return b
}

func (b *Bridge) Configured() bool { return b.client != nil }

// ModelProvider describes the backing model for health output.
func (b *Bridge) ModelProvider() string {
	if b.client == nil {
		return notConfigured
	}
	return fmt.Sprintf("%s (%s)", b.client.Provider(), b.client.Model())
}

// ModelUsed is the model_used value of responses.
func (b *Bridge) ModelUsed() string {
	if b.client == nil {
		return FallbackModel
	}
	return b.client.Provider() + "/" + b.client.Model()
}

func (b *Bridge) Registry() *tools.Registry { return b.registry }
func (b *Bridge) Router() *IntentRouter     { return b.router }

// Chat replies to a single message.
func (b *Bridge) Chat(ctx context.Context, message string, opts ...modules.CallOption) (string, error) {
	if b.chat == nil {
		return fmt.Sprintf("I received your message: '%s'. However, DSPyBridge is not properly configured. "+
			"Please check your GROQ_API_KEY environment variable.", message), nil
	}
	pred, err := b.chat.Forward(ctx, map[string]string{"message": message}, opts...)
	if err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}
	return pred.Get("response"), nil
}

// Answer answers a question with optional context.
func (b *Bridge) Answer(ctx context.Context, question, context string) (string, error) {
	if b.qa == nil {
		return questionFallback, nil
	}
	pred, err := b.qa.Forward(ctx, map[string]string{"question": question, "context": context})
	if err != nil {
		return "", fmt.Errorf("question: %w", err)
	}
	return pred.Get("answer"), nil
}

// Reason answers with explicit step-by-step reasoning.
func (b *Bridge) Reason(ctx context.Context, question, context string) (reasoning, answer string, err error) {
	if b.cot == nil {
		return reasoningFallback, questionFallback, nil
	}
	pred, err := b.cot.Forward(ctx, map[string]string{"question": question, "context": context})
	if err != nil {
		return "", "", fmt.Errorf("reasoning: %w", err)
	}
	return pred.Get(modules.ReasoningField.Name), pred.Get("answer"), nil
}

// Generate answers query from retrieved context.
func (b *Bridge) Generate(ctx context.Context, query, context string) (string, error) {
	if b.rag == nil {
		return "Based on the retrieved documents: " + truncate(context, 500) + "...", nil
	}
	pred, err := b.rag.Forward(ctx, map[string]string{"query": query, "context": context})
	if err != nil {
		return "", fmt.Errorf("rag: %w", err)
	}
	return pred.Get("response"), nil
}

// SelectTools resolves the agent tool set: none when disabled, the named
// tools, a category, or the default set.
func (b *Bridge) SelectTools(enabled bool, names []string, category string) ([]tools.Tool, error) {
	switch {
	case !enabled:
		return []tools.Tool{}, nil
	case len(names) > 0:
		return b.registry.ByNames(names)
	case category != "":
		selected := b.registry.ByCategory(category)
		if len(selected) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
		}
		return selected, nil
	default:
		return b.registry.Default()
	}
}

// AgentResult is the outcome of RunAgent.
type AgentResult struct {
	Response  string
	ToolsUsed []string
	Intent    RoutingResult
	Fallback  bool
}

// RunAgent runs the ReAct agent over agentTools. Without a provider, joke
// and time requests are served by calling the registered tool directly as
// long as tools are enabled.
func (b *Bridge) RunAgent(ctx context.Context, message string, agentTools []tools.Tool, opts ...modules.CallOption) (*AgentResult, error) {
	intent := b.router.Route(message)
	if b.agent == nil {
		return b.fallbackAgent(ctx, agentTools, intent), nil
	}

	opts = append([]modules.CallOption{modules.WithTools(agentTools)}, opts...)
	pred, err := b.agent.Forward(ctx, map[string]string{"user_request": message}, opts...)
	if err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}
	toolsUsed := pred.ToolsUsed
	if toolsUsed == nil {
		toolsUsed = []string{}
	}
	return &AgentResult{
		Response:  pred.Get("analysis_response"),
		ToolsUsed: toolsUsed,
		Intent:    intent,
	}, nil
}

func (b *Bridge) fallbackAgent(ctx context.Context, agentTools []tools.Tool, intent RoutingResult) *AgentResult {
	res := &AgentResult{Response: agentFallback, ToolsUsed: []string{}, Intent: intent, Fallback: true}

	var name, prefix string
	switch intent.Intent {
	case IntentEntertainment:
		name, prefix = "joke", "Here's a joke for you:\n\n"
	case IntentTime:
		name = "time"
	default:
		return res
	}
	if len(agentTools) == 0 {
		return res
	}
	t, err := b.registry.Get(name)
	if err != nil {
		return res
	}
	res.Response = prefix + t.Call(ctx, nil)
	res.ToolsUsed = []string{name}
	return res
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
