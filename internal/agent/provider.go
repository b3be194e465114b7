package agent

import (
	"context"
	"fmt"

	"github.com/angelmondragon/quickdeals/internal/llm"
	"github.com/angelmondragon/quickdeals/internal/llm/anthropic"
	"github.com/angelmondragon/quickdeals/internal/llm/gemini"
	"github.com/angelmondragon/quickdeals/internal/llm/openai"
	"github.com/angelmondragon/quickdeals/pkg/config"
	"github.com/angelmondragon/quickdeals/pkg/logger"
)

// NewProvider builds the provider named in cfg.
func NewProvider(ctx context.Context, cfg config.LLMConfig, logg *logger.Logger) (llm.Provider, error) {
	var (
		provider llm.Provider
		err      error
	)
	switch cfg.Provider {
	case config.ProviderGemini:
		provider, err = gemini.New(ctx, gemini.Config{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL}, logg)
	case config.ProviderOpenAI:
		provider, err = openai.New(openai.Config{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL}, logg)
	case config.ProviderAnthropic:
		provider, err = anthropic.New(anthropic.Config{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL}, logg)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return provider, nil
}

// OptionsFromConfig maps the agent and llm config sections onto Options.
func OptionsFromConfig(agentCfg config.AgentConfig, llmCfg config.LLMConfig) Options {
	return Options{
		MaxTurns:    agentCfg.MaxTurns,
		TopK:        agentCfg.TopK,
		Temperature: llmCfg.Temperature,
		Timeout:     llmCfg.Timeout,
	}
}
