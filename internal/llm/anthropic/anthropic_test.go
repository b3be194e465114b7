package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/quickdeals/internal/llm"
)

type fakeAnthropic struct {
	mu        sync.Mutex
	responses []string
	requests  []map[string]any
}

func (f *fakeAnthropic) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var rec map[string]any
	body, _ := io.ReadAll(r.Body)
	_ = json.Unmarshal(body, &rec)
	f.requests = append(f.requests, rec)

	idx := len(f.requests) - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, f.responses[idx])
}

const toolUseMessage = `{
  "id": "msg_1", "type": "message", "role": "assistant", "model": "claude-3-5-haiku-latest",
  "stop_reason": "tool_use",
  "content": [
    {"type": "text", "text": "Let me check."},
    {"type": "tool_use", "id": "toolu_1", "name": "list_databases", "input": {}}
  ],
  "usage": {"input_tokens": 10, "output_tokens": 5}
}`

const answerMessage = `{
  "id": "msg_2", "type": "message", "role": "assistant", "model": "claude-3-5-haiku-latest",
  "stop_reason": "end_turn",
  "content": [{"type": "text", "text": "There are three databases."}],
  "usage": {"input_tokens": 20, "output_tokens": 6}
}`

func newTestProvider(t *testing.T, h http.Handler) *Provider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	p, err := New(Config{APIKey: "test", Model: "claude-3-5-haiku-latest", BaseURL: srv.URL}, nil)
	require.NoError(t, err)
	return p
}

func listTool(n *int) llm.Tool {
	return llm.Tool{
		Name: "list_databases",
		Run: func(context.Context, map[string]any) (string, error) {
			*n++
			return "zepto\nblinkit\ninstamart", nil
		},
	}
}

func TestRun_ToolLoopThenAnswer(t *testing.T) {
	fake := &fakeAnthropic{responses: []string{toolUseMessage, answerMessage}}
	p := newTestProvider(t, fake)

	calls := 0
	answer, err := p.Run(context.Background(), &llm.Request{
		System:   "system prompt",
		Prompt:   "how many databases?",
		Tools:    []llm.Tool{listTool(&calls)},
		MaxTurns: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, "There are three databases.", answer)
	assert.Equal(t, 1, calls)

	require.Len(t, fake.requests, 2)
	msgs, ok := fake.requests[1]["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 3)

	last := msgs[2].(map[string]any)
	assert.Equal(t, "user", last["role"])
	content := last["content"].([]any)
	block := content[0].(map[string]any)
	assert.Equal(t, "tool_result", block["type"])
	assert.Equal(t, "toolu_1", block["tool_use_id"])
}

func TestRun_MaxTurns(t *testing.T) {
	fake := &fakeAnthropic{responses: []string{toolUseMessage}}
	p := newTestProvider(t, fake)

	calls := 0
	_, err := p.Run(context.Background(), &llm.Request{Prompt: "q", Tools: []llm.Tool{listTool(&calls)}, MaxTurns: 2})
	assert.ErrorIs(t, err, llm.ErrMaxTurns)
	assert.Equal(t, 2, calls)
}

func TestRun_UpstreamError(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`)
	}))

	_, err := p.Run(context.Background(), &llm.Request{Prompt: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestDefineTool(t *testing.T) {
	tool := defineTool(llm.Tool{Name: "q", Description: "d", Params: []llm.Param{{Name: "query", Type: "string"}}})
	props, ok := tool.InputSchema.Properties.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "query")

	empty := defineTool(llm.Tool{Name: "noargs"})
	assert.Equal(t, map[string]any{}, empty.InputSchema.Properties)
}
