package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AgentMetrics records question and tool-call outcomes.
type AgentMetrics struct {
	duration  *prometheus.HistogramVec
	success   *prometheus.CounterVec
	failure   *prometheus.CounterVec
	skipped   prometheus.Counter
	toolCalls *prometheus.CounterVec
}

// NewAgentMetrics registers the agent metrics on the provided registerer.
func NewAgentMetrics(reg prometheus.Registerer) *AgentMetrics {
	if reg == nil {
		return &AgentMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agent_query_duration_seconds",
		Help:    "Duration of agent questions in seconds.",
		Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
	}, []string{"provider"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_query_success_total",
		Help: "Questions answered by the agent.",
	}, []string{"provider"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_query_failure_total",
		Help: "Questions where the agent call failed.",
	}, []string{"provider"})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "agent_query_skipped_total",
		Help: "Empty submissions that did not reach the agent.",
	})
	toolCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_tool_calls_total",
		Help: "Tool invocations requested by the model.",
	}, []string{"tool", "outcome"})
	reg.MustRegister(duration, success, failure, skipped, toolCalls)
	return &AgentMetrics{
		duration:  duration,
		success:   success,
		failure:   failure,
		skipped:   skipped,
		toolCalls: toolCalls,
	}
}

// ObserveDuration records how long the named provider took.
func (a *AgentMetrics) ObserveDuration(provider string, duration time.Duration) {
	if a == nil || a.duration == nil {
		return
	}
	a.duration.WithLabelValues(normalizeLabel(provider)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named provider.
func (a *AgentMetrics) IncSuccess(provider string) {
	if a == nil || a.success == nil {
		return
	}
	a.success.WithLabelValues(normalizeLabel(provider)).Inc()
}

// IncFailure increments the failure counter for the named provider.
func (a *AgentMetrics) IncFailure(provider string) {
	if a == nil || a.failure == nil {
		return
	}
	a.failure.WithLabelValues(normalizeLabel(provider)).Inc()
}

// IncSkipped counts an empty submission.
func (a *AgentMetrics) IncSkipped() {
	if a == nil || a.skipped == nil {
		return
	}
	a.skipped.Inc()
}

// IncToolCall counts one tool invocation.
func (a *AgentMetrics) IncToolCall(tool string, failed bool) {
	if a == nil || a.toolCalls == nil {
		return
	}
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	a.toolCalls.WithLabelValues(normalizeLabel(tool), outcome).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
