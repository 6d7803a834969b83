package modules

import (
	"context"
	"fmt"

	"github.com/dspybridge/dspybridge/internal/llm"
	"github.com/dspybridge/dspybridge/internal/tools"
	"github.com/rs/zerolog/log"
)

// Module is anything that maps named inputs to a Prediction.
type Module interface {
	Forward(ctx context.Context, inputs map[string]string, opts ...CallOption) (*Prediction, error)
}

// Prediction holds the parsed output fields of one module call.
type Prediction struct {
	Fields    map[string]string
	ToolsUsed []string
}

// Get returns the named output, or "" when absent.
func (p *Prediction) Get(name string) string {
	if p == nil {
		return ""
	}
	return p.Fields[name]
}

type callOptions struct {
	maxTokens    int
	temperature  *float64
	instructions string
	tools        []tools.Tool
	toolsSet     bool
}

// CallOption adjusts a single Forward call.
type CallOption func(*callOptions)

func WithMaxTokens(n int) CallOption {
	return func(o *callOptions) { o.maxTokens = n }
}

func WithTemperature(t float64) CallOption {
	return func(o *callOptions) { o.temperature = &t }
}

// WithInstructions replaces the signature instructions for this call.
func WithInstructions(text string) CallOption {
	return func(o *callOptions) { o.instructions = text }
}

// WithTools overrides the tool set of a ReAct call. An empty slice
// disables tools.
func WithTools(t []tools.Tool) CallOption {
	return func(o *callOptions) {
		o.tools = t
		o.toolsSet = true
	}
}

func applyOptions(opts []CallOption) callOptions {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Predict asks the model for the signature outputs in a single call.
type Predict struct {
	client llm.Client
	sig    Signature
	demos  []Example
}

func NewPredict(client llm.Client, sig Signature) *Predict {
	return &Predict{client: client, sig: sig}
}

// WithDemos returns a copy of p that shows demos to the model.
func (p *Predict) WithDemos(demos []Example) *Predict {
	cp := *p
	cp.demos = append([]Example(nil), demos...)
	return &cp
}

func (p *Predict) Signature() Signature { return p.sig }
func (p *Predict) Demos() []Example     { return p.demos }

func (p *Predict) Forward(ctx context.Context, inputs map[string]string, opts ...CallOption) (*Prediction, error) {
	o := applyOptions(opts)
	sig := p.sig
	if o.instructions != "" {
		sig = sig.WithInstructions(o.instructions)
	}

	req, err := buildRequest(sig, p.demos, inputs, o, false)
	if err != nil {
		return nil, err
	}
	text, err := p.client.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sig.String(), err)
	}
	fields, err := parseOutputs(text, sig.Outputs)
	if err != nil {
		log.Debug().Str("signature", sig.String()).Str("reply", preview(text)).Msg("unparseable model reply")
		return nil, err
	}
	return &Prediction{Fields: fields}, nil
}

func buildRequest(sig Signature, demos []Example, inputs map[string]string, o callOptions, useTools bool) (llm.Request, error) {
	system, err := renderSystem(sig, demos, useTools)
	if err != nil {
		return llm.Request{}, fmt.Errorf("render system prompt: %w", err)
	}
	user, err := renderUser(sig, inputs)
	if err != nil {
		return llm.Request{}, fmt.Errorf("render user prompt: %w", err)
	}
	return llm.Request{
		System:      system,
		Prompt:      user,
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
	}, nil
}

func preview(s string) string {
	if len(s) > 120 {
		return s[:120]
	}
	return s
}
