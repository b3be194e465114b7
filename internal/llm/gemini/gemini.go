package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/angelmondragon/quickdeals/internal/llm"
	"github.com/angelmondragon/quickdeals/pkg/logger"
)

// Name is the provider identifier used in config and metrics.
const Name = "gemini"

// Config selects the model and endpoint.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Provider runs the tool loop against the Gemini API.
type Provider struct {
	client *genai.Client
	model  string
	logg   *logger.Logger
}

// New builds a Gemini provider.
func New(ctx context.Context, cfg Config, logg *logger.Logger) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("gemini model is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Provider{client: client, model: cfg.Model, logg: logg}, nil
}

func (p *Provider) Name() string { return Name }

// Run sends the prompt and answers function calls until the model replies with text.
func (p *Provider) Run(ctx context.Context, req *llm.Request) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, defineTool(t))
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
		config.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode: genai.FunctionCallingConfigModeAuto,
			},
		}
	}

	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}

	for turn := range req.Turns() {
		resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
		if err != nil {
			return "", fmt.Errorf("gemini generate content: %w", err)
		}

		calls := resp.FunctionCalls()
		p.logg.Debug(p.logg.WithFields(ctx, map[string]any{"turn": turn, "tool_calls": len(calls)}), "gemini turn completed")
		if len(calls) == 0 {
			return strings.TrimSpace(resp.Text()), nil
		}

		if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
			contents = append(contents, resp.Candidates[0].Content)
		}

		parts := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			out := req.RunTool(ctx, call.Name, call.Args)
			part := genai.NewPartFromFunctionResponse(call.Name, map[string]any{"output": out})
			part.FunctionResponse.ID = call.ID
			parts = append(parts, part)
		}
		contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))
	}

	return "", llm.ErrMaxTurns
}

func defineTool(t llm.Tool) *genai.FunctionDeclaration {
	decl := &genai.FunctionDeclaration{
		Name:        t.Name,
		Description: t.Description,
	}
	if len(t.Params) == 0 {
		return decl
	}

	schema := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(t.Params)),
	}
	for _, param := range t.Params {
		schema.Properties[param.Name] = &genai.Schema{
			Type:        genai.Type(strings.ToUpper(param.Type)),
			Description: param.Description,
		}
		if param.Required {
			schema.Required = append(schema.Required, param.Name)
		}
	}
	decl.Parameters = schema
	return decl
}
