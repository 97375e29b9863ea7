// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// TurnsTotal tracks processed user turns.
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_turns_total",
			Help: "User turns processed, by resulting phase and outcome",
		},
		[]string{"phase", "outcome"},
	)

	// PhaseTransitionsTotal tracks elicitation to construction handoffs.
	PhaseTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_phase_transitions_total",
			Help: "Phase transitions",
		},
		[]string{"from", "to"},
	)

	// StepLimitHitsTotal counts turns aborted by the step budget.
	StepLimitHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_step_limit_hits_total",
			Help: "Turns aborted because the step budget ran out",
		},
		[]string{"phase"},
	)

	// ToolCallsTotal tracks tool invocations.
	ToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_calls_total",
			Help: "Tool invocations by tool and status",
		},
		[]string{"tool", "status"},
	)

	// ToolCallDuration tracks tool latency.
	ToolCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tool_call_duration_seconds",
			Help:    "Tool invocation duration",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"tool"},
	)

	// LLMDuration tracks model call duration.
	LLMDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "LLM completion duration",
			Buckets: []float64{.5, 1, 2, 5, 10, 20, 30, 45, 60, 90, 120},
		},
		[]string{"model", "phase", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// EventPublishFailuresTotal counts transcript and event publish failures.
	EventPublishFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_publish_failures_total",
			Help: "Failed NATS publishes",
		},
		[]string{"kind"},
	)

	// NATSStreamMessages tracks messages in NATS stream.
	NATSStreamMessages = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nats_stream_messages",
			Help: "Number of messages in NATS stream",
		},
		[]string{"stream"},
	)

	// NATSStreamBytes tracks bytes in NATS stream.
	NATSStreamBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nats_stream_bytes",
			Help: "Bytes in NATS stream",
		},
		[]string{"stream"},
	)

	NATSReconnectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_reconnects_total",
			Help: "Times the NATS connection was re-established",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordLLMCall records metrics for one model completion.
func RecordLLMCall(model, phase, status string, duration float64, tokensIn, tokensOut int) {
	LLMDuration.WithLabelValues(model, phase, status).Observe(duration)
	LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}

// RecordToolCall records metrics for one tool invocation.
func RecordToolCall(tool, status string, duration float64) {
	ToolCallsTotal.WithLabelValues(tool, status).Inc()
	ToolCallDuration.WithLabelValues(tool).Observe(duration)
}

// RecordTurn records the outcome of one user turn.
func RecordTurn(phase, outcome string) {
	TurnsTotal.WithLabelValues(phase, outcome).Inc()
}

// RecordPhaseTransition records a handoff between phases.
func RecordPhaseTransition(from, to string) {
	PhaseTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordStepLimitHit records a turn aborted by the step budget.
func RecordStepLimitHit(phase string) {
	StepLimitHitsTotal.WithLabelValues(phase).Inc()
}

// RecordPublishFailure records a failed event or transcript publish.
func RecordPublishFailure(kind string) {
	EventPublishFailuresTotal.WithLabelValues(kind).Inc()
}
