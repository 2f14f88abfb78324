// Package metrics exposes Prometheus instruments for the comment pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gpt_bot"

// Pipeline records delivery outcomes, content size and completion latency.
// Each Pipeline owns its registry so tests do not share global state.
type Pipeline struct {
	registry *prometheus.Registry

	deliveries *prometheus.CounterVec
	tokens     *prometheus.HistogramVec
	completion *prometheus.HistogramVec
}

// NewPipeline registers the pipeline metrics plus the Go runtime and
// process collectors on a fresh registry
func NewPipeline() *Pipeline {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Pipeline{
		registry: reg,

		// Labels: command (summary, comment, pr_review, ...), outcome (done, rejected, ...)
		deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "issue_comment deliveries by command and outcome",
		}, []string{"command", "outcome"}),

		tokens: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "content_tokens",
			Help:      "Token count of fetched content before prompting",
			Buckets:   prometheus.ExponentialBuckets(256, 2, 10),
		}, []string{"command"}),

		// Labels: command, status (success, error)
		completion: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_duration_seconds",
			Help:      "Latency of completion requests",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"command", "status"}),
	}
}

func (p *Pipeline) ObserveDelivery(command, outcome string) {
	p.deliveries.WithLabelValues(command, outcome).Inc()
}

func (p *Pipeline) ObserveContentTokens(command string, tokens int) {
	p.tokens.WithLabelValues(command).Observe(float64(tokens))
}

func (p *Pipeline) ObserveCompletion(command string, elapsed time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	p.completion.WithLabelValues(command, status).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus text format
func (p *Pipeline) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Registry returns the underlying registry
func (p *Pipeline) Registry() *prometheus.Registry {
	return p.registry
}
