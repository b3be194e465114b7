package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrMaxTurns is returned when the model keeps calling tools past Request.MaxTurns.
var ErrMaxTurns = errors.New("llm: tool loop exceeded max turns without an answer")

// Param describes one named argument of a tool.
type Param struct {
	Name        string
	Type        string // JSON schema type: string, integer, number, boolean
	Description string
	Required    bool
}

// Tool is a function the model may call by name.
type Tool struct {
	Name        string
	Description string
	Params      []Param
	Run         func(ctx context.Context, args map[string]any) (string, error)
}

// Schema renders the tool parameters as a JSON schema object.
func (t Tool) Schema() map[string]any {
	props := make(map[string]any, len(t.Params))
	required := make([]string, 0, len(t.Params))
	for _, p := range t.Params {
		props[p.Name] = map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// Request is one question plus the tools available to answer it.
type Request struct {
	System      string
	Prompt      string
	Tools       []Tool
	MaxTurns    int
	Temperature float64

	// OnToolCall, when set, observes every tool invocation.
	OnToolCall func(name string, err error)
}

// Turns returns MaxTurns, defaulting to one round trip.
func (r *Request) Turns() int {
	if r.MaxTurns <= 0 {
		return 1
	}
	return r.MaxTurns
}

// RunTool dispatches name to the matching tool. Unknown tools and tool
// failures become text for the model so it can recover on the next turn.
func (r *Request) RunTool(ctx context.Context, name string, args map[string]any) string {
	var (
		out string
		err error
	)
	tool, ok := r.lookup(name)
	if !ok {
		err = fmt.Errorf("unknown tool %q; available tools: %v", name, r.toolNames())
	} else {
		if args == nil {
			args = map[string]any{}
		}
		out, err = tool.Run(ctx, args)
	}
	if r.OnToolCall != nil {
		r.OnToolCall(name, err)
	}
	if err != nil {
		return "Error: " + err.Error()
	}
	return out
}

func (r *Request) lookup(name string) (Tool, bool) {
	for _, t := range r.Tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

func (r *Request) toolNames() []string {
	names := make([]string, 0, len(r.Tools))
	for _, t := range r.Tools {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

// Provider drives one hosted model through the tool-calling loop.
type Provider interface {
	Name() string
	Run(ctx context.Context, req *Request) (string, error)
}

// StringArg reads a string argument, accepting any scalar the model sent.
func StringArg(args map[string]any, name string) (string, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return "", fmt.Errorf("missing required argument %q", name)
	}
	switch s := v.(type) {
	case string:
		return s, nil
	default:
		return fmt.Sprint(s), nil
	}
}
