package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/angelmondragon/quickdeals/internal/llm"
	"github.com/angelmondragon/quickdeals/pkg/logger"
)

// Name is the provider identifier used in config and metrics.
const Name = "anthropic"

const maxTokens = 4096

// Config selects the model and endpoint.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Provider runs the tool loop against the Messages API.
type Provider struct {
	client anthropic.Client
	model  anthropic.Model
	logg   *logger.Logger
}

// New builds an Anthropic provider.
func New(cfg Config, logg *logger.Logger) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("anthropic model is required")
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
	return &Provider{client: anthropic.NewClient(opts...), model: anthropic.Model(cfg.Model), logg: logg}, nil
}

func (p *Provider) Name() string { return Name }

// Run sends the prompt and answers tool_use blocks until the model stops
// asking for tools.
func (p *Provider) Run(ctx context.Context, req *llm.Request) (string, error) {
	var system []anthropic.TextBlockParam
	if req.System != "" {
		system = append(system, anthropic.TextBlockParam{Text: req.System})
	}

	tools := make([]anthropic.ToolUnionParam, 0, len(req.Tools))
	for _, t := range req.Tools {
		tools = append(tools, anthropic.ToolUnionParam{OfTool: defineTool(t)})
	}

	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
	}

	for turn := range req.Turns() {
		completion, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:       p.model,
			MaxTokens:   maxTokens,
			System:      system,
			Messages:    messages,
			Tools:       tools,
			Temperature: anthropic.Float(req.Temperature),
		})
		if err != nil {
			return "", fmt.Errorf("anthropic messages: %w", err)
		}

		var text strings.Builder
		var results []anthropic.ContentBlockParamUnion
		for _, block := range completion.Content {
			switch variant := block.AsAny().(type) {
			case anthropic.TextBlock:
				text.WriteString(variant.Text)
			case anthropic.ToolUseBlock:
				var args map[string]any
				isErr := false
				var out string
				if err := json.Unmarshal([]byte(variant.JSON.Input.Raw()), &args); err != nil {
					out, isErr = fmt.Sprintf("Error: arguments are not valid JSON: %v", err), true
				} else {
					out = req.RunTool(ctx, variant.Name, args)
					isErr = strings.HasPrefix(out, "Error: ")
				}
				results = append(results, newToolResultBlock(variant.ID, out, isErr))
			}
		}

		p.logg.Debug(p.logg.WithFields(ctx, map[string]any{
			"turn":        turn,
			"tool_calls":  len(results),
			"stop_reason": completion.StopReason,
		}), "anthropic turn completed")

		if len(results) == 0 {
			return strings.TrimSpace(text.String()), nil
		}

		messages = append(messages, completion.ToParam())
		messages = append(messages, anthropic.NewUserMessage(results...))
	}

	return "", llm.ErrMaxTurns
}

func defineTool(t llm.Tool) *anthropic.ToolParam {
	props, _ := t.Schema()["properties"].(map[string]any)
	if props == nil {
		props = map[string]any{}
	}
	return &anthropic.ToolParam{
		Name:        t.Name,
		Description: anthropic.String(t.Description),
		InputSchema: anthropic.ToolInputSchemaParam{Properties: props},
		Type:        anthropic.ToolTypeCustom,
	}
}

func newToolResultBlock(toolUseID, content string, isError bool) anthropic.ContentBlockParamUnion {
	block := anthropic.ToolResultBlockParam{
		ToolUseID: toolUseID,
		IsError:   anthropic.Bool(isError),
		Content: []anthropic.ToolResultBlockParamContentUnion{
			{OfText: &anthropic.TextBlockParam{Text: content}},
		},
	}
	return anthropic.ContentBlockParamUnion{OfToolResult: &block}
}
