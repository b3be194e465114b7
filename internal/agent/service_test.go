package agent

import (
	"context"
	"errors"
	"math/rand/v2"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/quickdeals/internal/llm"
	"github.com/angelmondragon/quickdeals/internal/seed"
	"github.com/angelmondragon/quickdeals/internal/toolkit"
	"github.com/angelmondragon/quickdeals/pkg/config"
	"github.com/angelmondragon/quickdeals/pkg/db"
	"github.com/angelmondragon/quickdeals/pkg/enums"
)

type fakeProvider struct {
	mu      sync.Mutex
	calls   int
	lastReq *llm.Request
	run     func(ctx context.Context, req *llm.Request) (string, error)
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Run(ctx context.Context, req *llm.Request) (string, error) {
	f.mu.Lock()
	f.calls++
	f.lastReq = req
	f.mu.Unlock()
	return f.run(ctx, req)
}

type recorder struct {
	success, failure, skipped int
	tools                     map[string]int
}

func (r *recorder) ObserveDuration(string, time.Duration) {}
func (r *recorder) IncSuccess(string)                    { r.success++ }
func (r *recorder) IncFailure(string)                    { r.failure++ }
func (r *recorder) IncSkipped()                          { r.skipped++ }

func (r *recorder) IncToolCall(tool string, failed bool) {
	if r.tools == nil {
		r.tools = map[string]int{}
	}
	key := tool
	if failed {
		key += ":error"
	}
	r.tools[key]++
}

func newKits(t *testing.T) []*toolkit.Toolkit {
	t.Helper()
	ctx := context.Background()
	s, err := seed.New(seed.Options{PriceMin: 10, PriceMax: 100, Discounts: []int{0, 10, 20, 30}, Rand: rand.New(rand.NewPCG(5, 5))}, nil)
	require.NoError(t, err)

	var kits []*toolkit.Toolkit
	for _, name := range []string{"zepto", "blinkit"} {
		path := filepath.Join(t.TempDir(), name+".db")
		rw, err := db.Open(ctx, path, db.Options{MaxOpenConns: 1}, nil)
		require.NoError(t, err)
		platform := map[string]string{"zepto": "Zepto", "blinkit": "Blinkit"}[name]
		_, err = s.Seed(ctx, rw, seed.Plan{Platforms: []string{platform}, Products: []string{"Onion"}})
		require.NoError(t, err)
		require.NoError(t, rw.Close())

		ro, err := db.Open(ctx, path, db.Options{ReadOnly: true}, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = ro.Close() })
		kits = append(kits, toolkit.New(name, []string{platform}, ro, toolkit.Options{}, nil))
	}
	return kits
}

func TestAsk_EmptyQuestionSkipsProvider(t *testing.T) {
	provider := &fakeProvider{run: func(context.Context, *llm.Request) (string, error) { return "nope", nil }}
	rec := &recorder{}
	svc, err := NewService(provider, newKits(t), Options{}, rec, nil)
	require.NoError(t, err)

	for _, q := range []string{"", "   ", "\n\t"} {
		res := svc.Ask(context.Background(), q)
		assert.Equal(t, enums.QueryStatusSkipped, res.Status)
		assert.True(t, res.Skipped())
		assert.Empty(t, res.Answer)
		assert.Empty(t, res.Error)
	}
	assert.Equal(t, 0, provider.calls)
	assert.Equal(t, 3, rec.skipped)
}

func TestAsk_SuccessPassesQuestionAndTaggedTools(t *testing.T) {
	kits := newKits(t)
	provider := &fakeProvider{run: func(ctx context.Context, req *llm.Request) (string, error) {
		zepto := req.RunTool(ctx, "zepto_sql_db_query", map[string]any{"query": "SELECT name FROM platform"})
		blinkit := req.RunTool(ctx, "blinkit_sql_db_query", map[string]any{"query": "SELECT name FROM platform"})
		req.RunTool(ctx, "zepto_sql_db_query", map[string]any{"query": "DELETE FROM product"})
		return zepto + " | " + blinkit, nil
	}}
	rec := &recorder{}
	svc, err := NewService(provider, kits, Options{MaxTurns: 4, TopK: 5}, rec, nil)
	require.NoError(t, err)

	res := svc.Ask(context.Background(), "  Cheapest onions across platforms  ")
	require.Equal(t, enums.QueryStatusSucceeded, res.Status, res.Error)
	assert.Equal(t, "Cheapest onions across platforms", res.Question)
	assert.Equal(t, "name\nZepto | name\nBlinkit", res.Answer)
	assert.Equal(t, "fake", res.Provider)

	req := provider.lastReq
	assert.Equal(t, "Cheapest onions across platforms", req.Prompt)
	assert.Equal(t, 4, req.MaxTurns)
	assert.Contains(t, req.System, "at most 5 results")
	assert.Contains(t, req.System, "- zepto (Zepto)")
	assert.Len(t, req.Tools, 9)

	assert.Equal(t, 1, rec.success)
	assert.Equal(t, 1, rec.tools["zepto_sql_db_query"])
	assert.Equal(t, 1, rec.tools["zepto_sql_db_query:error"])
}

func TestAsk_ProviderErrorBecomesFailedResult(t *testing.T) {
	provider := &fakeProvider{run: func(context.Context, *llm.Request) (string, error) {
		return "", errors.New("429 resource exhausted")
	}}
	rec := &recorder{}
	svc, err := NewService(provider, newKits(t), Options{}, rec, nil)
	require.NoError(t, err)

	res := svc.Ask(context.Background(), "cheapest milk")
	assert.Equal(t, enums.QueryStatusFailed, res.Status)
	assert.True(t, res.Failed())
	assert.Contains(t, res.Error, "429 resource exhausted")
	assert.Empty(t, res.Answer)
	assert.False(t, IsTimeout(res))
	assert.Equal(t, 1, rec.failure)
}

func TestAsk_EmptyAnswerFails(t *testing.T) {
	provider := &fakeProvider{run: func(context.Context, *llm.Request) (string, error) { return "  ", nil }}
	svc, err := NewService(provider, newKits(t), Options{}, nil, nil)
	require.NoError(t, err)

	res := svc.Ask(context.Background(), "anything")
	assert.Equal(t, enums.QueryStatusFailed, res.Status)
	assert.Contains(t, res.Error, "empty answer")
}

func TestAsk_Timeout(t *testing.T) {
	provider := &fakeProvider{run: func(ctx context.Context, _ *llm.Request) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	svc, err := NewService(provider, newKits(t), Options{Timeout: 20 * time.Millisecond}, nil, nil)
	require.NoError(t, err)

	res := svc.Ask(context.Background(), "slow question")
	assert.Equal(t, enums.QueryStatusFailed, res.Status)
	assert.True(t, IsTimeout(res))
}

func TestNewService_Validation(t *testing.T) {
	_, err := NewService(nil, newKits(t), Options{}, nil, nil)
	assert.Error(t, err)

	_, err = NewService(&fakeProvider{}, nil, Options{}, nil, nil)
	assert.Error(t, err)
}

func TestNewProvider(t *testing.T) {
	ctx := context.Background()
	for _, name := range []string{config.ProviderGemini, config.ProviderOpenAI, config.ProviderAnthropic} {
		p, err := NewProvider(ctx, config.LLMConfig{Provider: name, Model: "m", APIKey: "k"}, nil)
		require.NoError(t, err, name)
		assert.Equal(t, name, p.Name())
	}

	_, err := NewProvider(ctx, config.LLMConfig{Provider: "palm", Model: "m", APIKey: "k"}, nil)
	assert.Error(t, err)

	p, err := NewProvider(ctx, config.LLMConfig{Provider: config.ProviderOpenAI, Model: "m"}, nil)
	assert.Error(t, err)
	assert.Nil(t, p)
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(config.AgentConfig{MaxTurns: 3, TopK: 7}, config.LLMConfig{Temperature: 0.2, Timeout: time.Minute})
	assert.Equal(t, Options{MaxTurns: 3, TopK: 7, Temperature: 0.2, Timeout: time.Minute}, opts)
}
