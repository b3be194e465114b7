package openai

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

type recordedRequest struct {
	Messages []map[string]any `json:"messages"`
	Tools    []map[string]any `json:"tools"`
}

type fakeOpenAI struct {
	mu        sync.Mutex
	responses []string
	requests  []recordedRequest
}

func (f *fakeOpenAI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var rec recordedRequest
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

const toolCallCompletion = `{
  "id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "gpt-4o-mini",
  "choices": [{"index": 0, "finish_reason": "tool_calls", "message": {
    "role": "assistant", "content": null,
    "tool_calls": [{"id": "call_1", "type": "function", "function": {"name": "zepto_sql_db_query", "arguments": "{\"query\":\"SELECT 1\"}"}}]
  }}]
}`

const answerCompletion = `{
  "id": "chatcmpl-2", "object": "chat.completion", "created": 2, "model": "gpt-4o-mini",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": " Milk is cheapest on Blinkit. "}}]
}`

func newTestProvider(t *testing.T, fake http.Handler) *Provider {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	p, err := New(Config{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: srv.URL}, nil)
	require.NoError(t, err)
	return p
}

func queryTool(seen *[]string) llm.Tool {
	return llm.Tool{
		Name:   "zepto_sql_db_query",
		Params: []llm.Param{{Name: "query", Type: "string", Required: true}},
		Run: func(_ context.Context, args map[string]any) (string, error) {
			q, _ := llm.StringArg(args, "query")
			*seen = append(*seen, q)
			return "1\n1", nil
		},
	}
}

func TestRun_ToolLoopThenAnswer(t *testing.T) {
	fake := &fakeOpenAI{responses: []string{toolCallCompletion, answerCompletion}}
	p := newTestProvider(t, fake)

	var seen []string
	answer, err := p.Run(context.Background(), &llm.Request{
		System:   "system prompt",
		Prompt:   "cheapest milk?",
		Tools:    []llm.Tool{queryTool(&seen)},
		MaxTurns: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, "Milk is cheapest on Blinkit.", answer)
	assert.Equal(t, []string{"SELECT 1"}, seen)

	require.Len(t, fake.requests, 2)
	first := fake.requests[0]
	require.Len(t, first.Messages, 2)
	assert.Equal(t, "system", first.Messages[0]["role"])
	assert.Equal(t, "user", first.Messages[1]["role"])
	require.Len(t, first.Tools, 1)

	second := fake.requests[1]
	require.Len(t, second.Messages, 4)
	assert.Equal(t, "assistant", second.Messages[2]["role"])
	assert.Equal(t, "tool", second.Messages[3]["role"])
	assert.Equal(t, "call_1", second.Messages[3]["tool_call_id"])
}

func TestRun_MaxTurns(t *testing.T) {
	fake := &fakeOpenAI{responses: []string{toolCallCompletion}}
	p := newTestProvider(t, fake)

	var seen []string
	_, err := p.Run(context.Background(), &llm.Request{Prompt: "q", Tools: []llm.Tool{queryTool(&seen)}, MaxTurns: 3})
	assert.ErrorIs(t, err, llm.ErrMaxTurns)
	assert.Len(t, seen, 3)
}

func TestRun_UpstreamError(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`)
	}))

	_, err := p.Run(context.Background(), &llm.Request{Prompt: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{Model: "gpt-4o-mini"}, nil)
	assert.Error(t, err)
	_, err = New(Config{APIKey: "k"}, nil)
	assert.Error(t, err)
}
