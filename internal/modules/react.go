package modules

import (
	"context"
	"fmt"

	"github.com/dspybridge/dspybridge/internal/llm"
	"github.com/dspybridge/dspybridge/internal/tools"
	"github.com/rs/zerolog/log"
)

// ReAct lets the model call tools before producing the signature outputs.
type ReAct struct {
	client   llm.Client
	sig      Signature
	tools    []tools.Tool
	maxIters int
}

func NewReAct(client llm.Client, sig Signature, agentTools []tools.Tool, maxIters int) *ReAct {
	if maxIters <= 0 {
		maxIters = llm.DefaultMaxIters
	}
	return &ReAct{client: client, sig: sig, tools: agentTools, maxIters: maxIters}
}

func (r *ReAct) Signature() Signature { return r.sig }
func (r *ReAct) Tools() []tools.Tool  { return r.tools }

func (r *ReAct) Forward(ctx context.Context, inputs map[string]string, opts ...CallOption) (*Prediction, error) {
	o := applyOptions(opts)
	sig := r.sig
	if o.instructions != "" {
		sig = sig.WithInstructions(o.instructions)
	}
	agentTools := r.tools
	if o.toolsSet {
		agentTools = o.tools
	}

	req, err := buildRequest(sig, nil, inputs, o, len(agentTools) > 0)
	if err != nil {
		return nil, err
	}
	run, err := r.client.RunTools(ctx, req, agentTools, r.maxIters)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sig.String(), err)
	}
	log.Debug().
		Int("iterations", run.Iterations).
		Strs("tools_used", run.ToolsUsed).
		Msg("react run finished")

	fields, err := parseOutputs(run.Text, sig.Outputs)
	if err != nil {
		return nil, err
	}
	return &Prediction{Fields: fields, ToolsUsed: run.ToolsUsed}, nil
}
