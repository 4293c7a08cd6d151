// Package metrics exposes Prometheus collectors for generation runs and an
// OpenTelemetry meter provider that exports through the same registry.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// DefaultBuckets provides a common set of histogram buckets in seconds that can
// be reused across the application for latency metrics.
var DefaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60} //nolint: gochecknoglobals

const namespace = "geosite"

// Pipeline holds the collectors updated by every generation run. A nil
// *Pipeline is valid and records nothing.
type Pipeline struct {
	runs          *prometheus.CounterVec
	phaseDuration *prometheus.HistogramVec
	domains       prometheus.Gauge
	artifactBytes *prometheus.GaugeVec
	lastSuccess   prometheus.Gauge
}

// NewPipeline creates the pipeline collectors and registers them with reg.
func NewPipeline(reg prometheus.Registerer) (*Pipeline, error) {
	p := &Pipeline{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Generation runs by outcome (OK or the error kind).",
		}, []string{"outcome"}),
		phaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "phase_duration_seconds",
			Help:      "Duration of each pipeline phase.",
			Buckets:   DefaultBuckets,
		}, []string{"phase"}),
		domains: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "domains",
			Help:      "Domain suffixes in the last generated rule-set.",
		}),
		artifactBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "artifact_bytes",
			Help:      "Size of the last written artifacts.",
		}, []string{"artifact"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
	}

	for _, c := range []prometheus.Collector{p.runs, p.phaseDuration, p.domains, p.artifactBytes, p.lastSuccess} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("could not register collector: %w", err)
		}
	}

	return p, nil
}

// ObservePhase records how long phase took.
func (p *Pipeline) ObservePhase(phase string, d time.Duration) {
	if p == nil {
		return
	}
	p.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// ObserveRun records a finished run with the given outcome label.
func (p *Pipeline) ObserveRun(outcome string, at time.Time) {
	if p == nil {
		return
	}
	p.runs.WithLabelValues(outcome).Inc()
	if outcome == "OK" {
		p.lastSuccess.Set(float64(at.Unix()))
	}
}

// SetDomains records the size of the generated rule-set.
func (p *Pipeline) SetDomains(n int) {
	if p == nil {
		return
	}
	p.domains.Set(float64(n))
}

// SetArtifactSize records the on-disk size of an artifact ("json" or "srs").
func (p *Pipeline) SetArtifactSize(artifact string, size int64) {
	if p == nil {
		return
	}
	p.artifactBytes.WithLabelValues(artifact).Set(float64(size))
}

// NewMeterProvider returns an OpenTelemetry meter provider whose instruments
// are exported through reg.
func NewMeterProvider(reg prometheus.Registerer) (*sdkmetric.MeterProvider, error) {
	exp, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("could not create otel exporter: %w", err)
	}

	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp)), nil
}
