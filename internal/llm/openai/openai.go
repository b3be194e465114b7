package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/angelmondragon/quickdeals/internal/llm"
	"github.com/angelmondragon/quickdeals/pkg/logger"
)

// Name is the provider identifier used in config and metrics.
const Name = "openai"

// Config selects the model and endpoint. BaseURL also covers
// OpenAI-compatible gateways.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Provider runs the tool loop against the Chat Completions API.
type Provider struct {
	client openai.Client
	model  string
	logg   *logger.Logger
}

// New builds an OpenAI provider.
func New(cfg Config, logg *logger.Logger) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("openai model is required")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Provider{client: openai.NewClient(opts...), model: cfg.Model, logg: logg}, nil
}

func (p *Provider) Name() string { return Name }

// Run sends the prompt and answers tool calls until the model replies with text.
func (p *Provider) Run(ctx context.Context, req *llm.Request) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       p.model,
		Temperature: openai.Float(req.Temperature),
	}
	if req.System != "" {
		params.Messages = append(params.Messages, openai.SystemMessage(req.System))
	}
	params.Messages = append(params.Messages, openai.UserMessage(req.Prompt))

	for _, t := range req.Tools {
		params.Tools = append(params.Tools, defineTool(t))
	}

	for turn := range req.Turns() {
		completion, err := p.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("openai chat completion: %w", err)
		}
		if len(completion.Choices) == 0 {
			return "", fmt.Errorf("openai chat completion: no choices returned")
		}

		msg := completion.Choices[0].Message
		p.logg.Debug(p.logg.WithFields(ctx, map[string]any{
			"turn":          turn,
			"tool_calls":    len(msg.ToolCalls),
			"finish_reason": completion.Choices[0].FinishReason,
		}), "openai turn completed")

		if len(msg.ToolCalls) == 0 {
			return strings.TrimSpace(msg.Content), nil
		}

		params.Messages = append(params.Messages, msg.ToParam())
		for _, call := range msg.ToolCalls {
			var args map[string]any
			out := ""
			if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
				if err := json.Unmarshal([]byte(raw), &args); err != nil {
					out = fmt.Sprintf("Error: arguments are not valid JSON: %v", err)
				}
			}
			if out == "" {
				out = req.RunTool(ctx, call.Function.Name, args)
			}
			params.Messages = append(params.Messages, openai.ToolMessage(out, call.ID))
		}
	}

	return "", llm.ErrMaxTurns
}

func defineTool(t llm.Tool) openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Function: openai.FunctionDefinitionParam{
			Name:        t.Name,
			Description: openai.String(t.Description),
			Parameters:  openai.FunctionParameters(t.Schema()),
		},
	}
}
