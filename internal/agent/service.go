package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/quickdeals/internal/llm"
	"github.com/angelmondragon/quickdeals/internal/toolkit"
	"github.com/angelmondragon/quickdeals/pkg/enums"
	"github.com/angelmondragon/quickdeals/pkg/logger"
)

// Recorder receives query and tool-call outcomes.
type Recorder interface {
	ObserveDuration(provider string, d time.Duration)
	IncSuccess(provider string)
	IncFailure(provider string)
	IncSkipped()
	IncToolCall(tool string, failed bool)
}

// Options tunes the agent loop.
type Options struct {
	MaxTurns    int
	TopK        int
	Temperature float64

	// Timeout bounds one question; zero waits for the provider indefinitely.
	Timeout time.Duration
}

// Service answers natural-language questions with the SQL toolkits.
type Service struct {
	provider llm.Provider
	tools    []llm.Tool
	system   string
	opts     Options
	metrics  Recorder
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires a provider to the toolkits.
func NewService(provider llm.Provider, kits []*toolkit.Toolkit, opts Options, metrics Recorder, logg *logger.Logger) (*Service, error) {
	if provider == nil {
		return nil, fmt.Errorf("llm provider required")
	}
	if len(kits) == 0 {
		return nil, fmt.Errorf("at least one toolkit required")
	}
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = 15
	}
	if opts.TopK <= 0 {
		opts.TopK = 10
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{
		provider: provider,
		tools:    toolkit.AllTools(kits),
		system:   SystemPrompt(kits, opts.TopK),
		opts:     opts,
		metrics:  metrics,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// Provider returns the configured provider name.
func (s *Service) Provider() string { return s.provider.Name() }

// Ask passes question to the agent and reports the outcome. Whitespace-only
// questions return StatusSkipped without calling the provider.
func (s *Service) Ask(ctx context.Context, question string) Result {
	question = strings.TrimSpace(question)
	res := Result{Question: question, Provider: s.provider.Name()}
	if question == "" {
		res.Status = enums.QueryStatusSkipped
		if s.metrics != nil {
			s.metrics.IncSkipped()
		}
		return res
	}

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	req := &llm.Request{
		System:      s.system,
		Prompt:      question,
		Tools:       s.tools,
		MaxTurns:    s.opts.MaxTurns,
		Temperature: s.opts.Temperature,
		OnToolCall: func(name string, err error) {
			if s.metrics != nil {
				s.metrics.IncToolCall(name, err != nil)
			}
			if err != nil {
				s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"tool": name, "error": err.Error()}), "agent tool call failed")
			}
		},
	}

	start := s.now()
	answer, err := s.provider.Run(ctx, req)
	if err == nil && strings.TrimSpace(answer) == "" {
		err = errors.New("the model returned an empty answer")
	}
	res.Duration = s.now().Sub(start)

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"provider":        s.provider.Name(),
		"question_length": len(question),
		"duration_ms":     res.Duration.Milliseconds(),
	})
	if s.metrics != nil {
		s.metrics.ObserveDuration(s.provider.Name(), res.Duration)
	}

	if err != nil {
		res.Status = enums.QueryStatusFailed
		res.Error = err.Error()
		res.Err = err
		if s.metrics != nil {
			s.metrics.IncFailure(s.provider.Name())
		}
		s.logg.Error(logCtx, "agent query failed", err)
		return res
	}

	res.Status = enums.QueryStatusSucceeded
	res.Answer = answer
	if s.metrics != nil {
		s.metrics.IncSuccess(s.provider.Name())
	}
	s.logg.Info(logCtx, "agent query succeeded")
	return res
}

// IsTimeout reports whether a failed result ran out of time.
func IsTimeout(res Result) bool {
	return res.Err != nil && errors.Is(res.Err, context.DeadlineExceeded)
}
