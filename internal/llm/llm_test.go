package llm_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/dspybridge/dspybridge/internal/llm"
	"github.com/dspybridge/dspybridge/internal/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func clockTool() tools.Tool {
	return tools.NewTool("time", "Get the time.", []string{"time"},
		func(ctx context.Context, _ tools.NoInput) string { return "It is 12:00." })
}

// scriptedServer answers POSTs with the given bodies in order and records
// each request body.
type scriptedServer struct {
	*httptest.Server
	mu     sync.Mutex
	bodies []string
}

func newScriptedServer(t *testing.T, path string, responses ...string) *scriptedServer {
	t.Helper()
	s := &scriptedServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, path) {
			http.NotFound(w, r)
			return
		}
		b, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.bodies = append(s.bodies, string(b))
		i := len(s.bodies) - 1
		s.mu.Unlock()
		if i >= len(responses) {
			i = len(responses) - 1
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(responses[i]))
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *scriptedServer) body(i int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bodies[i]
}

func (s *scriptedServer) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bodies)
}

func TestParseModel(t *testing.T) {
	tests := []struct {
		in, provider, model string
	}{
		{"groq/llama-3.1-8b-instant", "groq", "llama-3.1-8b-instant"},
		{"OpenAI/gpt-4o-mini", "openai", "gpt-4o-mini"},
		{"anthropic/claude-sonnet-4-6", "anthropic", "claude-sonnet-4-6"},
		{"gpt-4o", "openai", "gpt-4o"},
	}
	for _, tt := range tests {
		p, m := llm.ParseModel(tt.in)
		assert.Equal(t, tt.provider, p, tt.in)
		assert.Equal(t, tt.model, m, tt.in)
	}
}

func TestNew(t *testing.T) {
	_, err := llm.New(llm.Options{Model: "groq/llama-3.1-8b-instant"})
	assert.ErrorIs(t, err, llm.ErrNotConfigured)

	_, err = llm.New(llm.Options{Model: "cohere/command", APIKey: "k"})
	assert.ErrorIs(t, err, llm.ErrUnknownProvider)

	c, err := llm.New(llm.Options{Model: "groq/llama-3.1-8b-instant", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "groq", c.Provider())
	assert.Equal(t, "llama-3.1-8b-instant", c.Model())

	c, err = llm.New(llm.Options{Model: "anthropic/claude-sonnet-4-6", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", c.Provider())
}

func TestOpenAIComplete(t *testing.T) {
	srv := newScriptedServer(t, "/chat/completions",
		`{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Hello there."}}]}`)

	c := llm.NewOpenAIClient("openai", "k", "m", srv.URL, 100)
	temp := 0.2
	out, err := c.Complete(context.Background(), llm.Request{System: "be brief", Prompt: "hi", Temperature: &temp})
	require.NoError(t, err)
	assert.Equal(t, "Hello there.", out)

	body := srv.body(0)
	assert.Equal(t, "m", gjson.Get(body, "model").String())
	assert.Equal(t, "system", gjson.Get(body, "messages.0.role").String())
	assert.Equal(t, "hi", gjson.Get(body, "messages.1.content").String())
	assert.InDelta(t, 0.2, gjson.Get(body, "temperature").Float(), 1e-9)
}

func TestOpenAIRunTools(t *testing.T) {
	srv := newScriptedServer(t, "/chat/completions",
		`{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"finish_reason":"tool_calls","message":{"role":"assistant","content":"","tool_calls":[{"id":"call_1","type":"function","function":{"name":"time","arguments":"{}"}}]}}]}`,
		`{"id":"c2","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"It is noon."}}]}`)

	c := llm.NewOpenAIClient("groq", "k", "m", srv.URL, 100)
	run, err := c.RunTools(context.Background(), llm.Request{Prompt: "what time is it?"}, []tools.Tool{clockTool()}, 6)
	require.NoError(t, err)
	assert.Equal(t, "It is noon.", run.Text)
	assert.Equal(t, []string{"time"}, run.ToolsUsed)
	assert.Equal(t, 2, run.Iterations)

	first := srv.body(0)
	assert.Equal(t, "time", gjson.Get(first, "tools.0.function.name").String())
	second := srv.body(1)
	assert.Equal(t, "It is 12:00.", gjson.Get(second, `messages.#(role=="tool").content`).String())
	assert.Equal(t, "call_1", gjson.Get(second, `messages.#(role=="tool").tool_call_id`).String())
}

func TestOpenAIRunToolsUnknownTool(t *testing.T) {
	srv := newScriptedServer(t, "/chat/completions",
		`{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"finish_reason":"tool_calls","message":{"role":"assistant","content":"","tool_calls":[{"id":"call_1","type":"function","function":{"name":"stocks","arguments":"{}"}}]}}]}`,
		`{"id":"c2","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"No stock data."}}]}`)

	c := llm.NewOpenAIClient("openai", "k", "m", srv.URL, 100)
	run, err := c.RunTools(context.Background(), llm.Request{Prompt: "stocks?"}, []tools.Tool{clockTool()}, 6)
	require.NoError(t, err)
	assert.Equal(t, "No stock data.", run.Text)
	assert.Contains(t, gjson.Get(srv.body(1), `messages.#(role=="tool").content`).String(), "unknown tool")
}

func TestOpenAIRunToolsForcesFinalAnswer(t *testing.T) {
	toolCall := `{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"finish_reason":"tool_calls","message":{"role":"assistant","content":"","tool_calls":[{"id":"call_1","type":"function","function":{"name":"time","arguments":"{}"}}]}}]}`
	srv := newScriptedServer(t, "/chat/completions", toolCall)

	c := llm.NewOpenAIClient("openai", "k", "m", srv.URL, 100)
	run, err := c.RunTools(context.Background(), llm.Request{Prompt: "loop"}, []tools.Tool{clockTool()}, 3)
	assert.ErrorIs(t, err, llm.ErrMaxIterations)
	assert.Equal(t, 3, srv.count())
	assert.Equal(t, 3, run.Iterations)
	assert.Len(t, run.ToolsUsed, 2)
	assert.Contains(t, srv.body(2), "final answer")
}

func TestAnthropicRunTools(t *testing.T) {
	srv := newScriptedServer(t, "/v1/messages",
		`{"id":"msg_1","type":"message","role":"assistant","model":"m","content":[{"type":"tool_use","id":"tu_1","name":"time","input":{}}],"stop_reason":"tool_use","stop_sequence":null,"usage":{"input_tokens":1,"output_tokens":1}}`,
		`{"id":"msg_2","type":"message","role":"assistant","model":"m","content":[{"type":"text","text":"It is noon."}],"stop_reason":"end_turn","stop_sequence":null,"usage":{"input_tokens":1,"output_tokens":1}}`)

	c := llm.NewAnthropicClient("k", "m", srv.URL, 100)
	run, err := c.RunTools(context.Background(), llm.Request{System: "sys", Prompt: "time?"}, []tools.Tool{clockTool()}, 6)
	require.NoError(t, err)
	assert.Equal(t, "It is noon.", run.Text)
	assert.Equal(t, []string{"time"}, run.ToolsUsed)

	first := srv.body(0)
	assert.Equal(t, "time", gjson.Get(first, "tools.0.name").String())
	assert.Equal(t, "sys", gjson.Get(first, "system.0.text").String())
	second := srv.body(1)
	assert.Equal(t, "tu_1", gjson.Get(second, "messages.2.content.0.tool_use_id").String())
}

func TestAnthropicComplete(t *testing.T) {
	srv := newScriptedServer(t, "/v1/messages",
		`{"id":"msg_1","type":"message","role":"assistant","model":"m","content":[{"type":"text","text":"4"}],"stop_reason":"end_turn","stop_sequence":null,"usage":{"input_tokens":1,"output_tokens":1}}`)

	c := llm.NewAnthropicClient("k", "m", srv.URL, 100)
	out, err := c.Complete(context.Background(), llm.Request{Prompt: "2+2?", MaxTokens: 50})
	require.NoError(t, err)
	assert.Equal(t, "4", out)
	assert.Equal(t, int64(50), gjson.Get(srv.body(0), "max_tokens").Int())
}
