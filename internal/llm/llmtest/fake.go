// Package llmtest provides a scripted llm.Client for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/dspybridge/dspybridge/internal/llm"
	"github.com/dspybridge/dspybridge/internal/tools"
)

// ToolCall is a scripted tool invocation performed by Fake.RunTools.
type ToolCall struct {
	Name  string
	Input map[string]interface{}
}

// Fake replays Responses in order; the last response repeats once the
// script is exhausted. Err, when set, is returned by every call.
type Fake struct {
	ProviderName string
	ModelName    string
	Responses    []string
	Err          error
	// ToolCalls are executed by RunTools before it answers.
	ToolCalls []ToolCall

	mu          sync.Mutex
	calls       int
	requests    []llm.Request
	toolResults []string
}

// New returns a Fake answering with responses.
func New(responses ...string) *Fake {
	return &Fake{ProviderName: "fake", ModelName: "fake-model", Responses: responses}
}

func (f *Fake) Provider() string { return f.ProviderName }
func (f *Fake) Model() string    { return f.ModelName }

func (f *Fake) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.next(req)
}

func (f *Fake) RunTools(ctx context.Context, req llm.Request, agentTools []tools.Tool, maxIter int) (*llm.ToolRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	run := &llm.ToolRun{}
	for _, call := range f.ToolCalls {
		if run.Iterations >= maxIter-1 {
			break
		}
		run.Iterations++
		for _, t := range agentTools {
			if t.Name == call.Name {
				run.ToolsUsed = append(run.ToolsUsed, t.Name)
				f.toolResults = append(f.toolResults, t.Call(ctx, call.Input))
			}
		}
	}
	text, err := f.next(req)
	if err != nil {
		return run, err
	}
	run.Iterations++
	run.Text = text
	return run, nil
}

func (f *Fake) next(req llm.Request) (string, error) {
	f.requests = append(f.requests, req)
	f.calls++
	if f.Err != nil {
		return "", f.Err
	}
	if len(f.Responses) == 0 {
		return "", nil
	}
	i := f.calls - 1
	if i >= len(f.Responses) {
		i = len(f.Responses) - 1
	}
	return f.Responses[i], nil
}

// Requests returns every request received so far.
func (f *Fake) Requests() []llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.Request(nil), f.requests...)
}

// ToolResults returns the outputs of scripted tool calls.
func (f *Fake) ToolResults() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.toolResults...)
}

// Calls returns the number of provider calls made.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
