// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Reactor metrics backed by a dedicated Prometheus registry.
// A nil *Metrics is valid and records nothing.

package control

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

const metricsNamespace = "uring_reactor"

// Metrics holds the counters and gauges of one reactor loop.
type Metrics struct {
	registry *prometheus.Registry

	submitted       prometheus.Counter
	completed       prometheus.Counter
	resubmitted     prometheus.Counter
	backlogged      prometheus.Counter
	sentinelExpired prometheus.Counter
	inflight        prometheus.Gauge
	backlog         prometheus.Gauge
}

// NewMetrics registers the loop's metrics, labelled loop=loopID, in reg.
// A nil reg gets a fresh registry.
func NewMetrics(loopID string, reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	labels := prometheus.Labels{"loop": loopID}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace, Name: name, Help: help, ConstLabels: labels,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace, Name: name, Help: help, ConstLabels: labels,
		})
	}
	m := &Metrics{
		registry:        reg,
		submitted:       counter("submitted_total", "Completions placed in a submission slot."),
		completed:       counter("completed_total", "Completions whose callback was invoked."),
		resubmitted:     counter("resubmitted_total", "Callbacks that asked for resubmission."),
		backlogged:      counter("backlogged_total", "Enqueues deferred for lack of a submission slot."),
		sentinelExpired: counter("sentinel_expired_total", "Deadline sentinels that elapsed naturally."),
		inflight:        gauge("inflight", "Completions currently owned by the ring."),
		backlog:         gauge("backlog", "Completions waiting for a submission slot."),
	}
	reg.MustRegister(m.submitted, m.completed, m.resubmitted, m.backlogged,
		m.sentinelExpired, m.inflight, m.backlog)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) OnSubmit() {
	if m != nil {
		m.submitted.Inc()
	}
}

func (m *Metrics) OnComplete() {
	if m != nil {
		m.completed.Inc()
	}
}

func (m *Metrics) OnResubmit() {
	if m != nil {
		m.resubmitted.Inc()
	}
}

func (m *Metrics) OnBacklog() {
	if m != nil {
		m.backlogged.Inc()
	}
}

func (m *Metrics) OnSentinelExpired() {
	if m != nil {
		m.sentinelExpired.Inc()
	}
}

// SetDepth records the in-flight and backlog sizes.
func (m *Metrics) SetDepth(inflight, backlog int) {
	if m != nil {
		m.inflight.Set(float64(inflight))
		m.backlog.Set(float64(backlog))
	}
}

// GetSnapshot returns current values keyed by fully-qualified metric name.
func (m *Metrics) GetSnapshot() map[string]any {
	out := make(map[string]any)
	if m == nil {
		return out
	}
	families, err := m.registry.Gather()
	if err != nil {
		return out
	}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			out[mf.GetName()] = metricValue(mf.GetType(), metric)
		}
	}
	return out
}

func metricValue(t dto.MetricType, m *dto.Metric) float64 {
	switch t {
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue()
	case dto.MetricType_GAUGE:
		return m.GetGauge().GetValue()
	default:
		return 0
	}
}
