// Package metrics records simulation timings and outcomes. The Prometheus
// recorder is served on /metrics by the view API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder receives simulation observations. Implementations must be safe for
// concurrent use.
type Recorder interface {
	// Observe records one operation ("tick", "offline", "build", "demolish", "save").
	Observe(op string, success bool, d time.Duration)
	// ObserveOffline records simulated hours replayed during offline catch-up.
	ObserveOffline(hours float64)
	// ObserveWorld records the headline world numbers after a tick.
	ObserveWorld(credits, population float64)
}

// Nop discards every observation.
type Nop struct{}

func (Nop) Observe(string, bool, time.Duration) {}
func (Nop) ObserveOffline(float64)              {}
func (Nop) ObserveWorld(float64, float64)       {}

// OrNop returns r, or Nop when r is nil.
func OrNop(r Recorder) Recorder {
	if r == nil {
		return Nop{}
	}
	return r
}

// Prometheus is a Recorder backed by Prometheus collectors.
type Prometheus struct {
	durations  *prometheus.HistogramVec
	results    *prometheus.CounterVec
	offline    prometheus.Counter
	credits    prometheus.Gauge
	population prometheus.Gauge
}

// NewPrometheus creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	p := &Prometheus{
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "idlegalaxy",
			Name:      "operation_duration_seconds",
			Help:      "Duration of simulation operations.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"op"}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "idlegalaxy",
			Name:      "operations_total",
			Help:      "Simulation operations by outcome.",
		}, []string{"op", "result"}),
		offline: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "idlegalaxy",
			Name:      "offline_hours_total",
			Help:      "Simulated hours replayed by offline catch-up.",
		}),
		credits: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "idlegalaxy",
			Name:      "credits",
			Help:      "Current credit balance.",
		}),
		population: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "idlegalaxy",
			Name:      "population",
			Help:      "Total population across all systems.",
		}),
	}
	for _, c := range []prometheus.Collector{p.durations, p.results, p.offline, p.credits, p.population} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Prometheus) Observe(op string, success bool, d time.Duration) {
	result := "ok"
	if !success {
		result = "failed"
	}
	p.durations.WithLabelValues(op).Observe(d.Seconds())
	p.results.WithLabelValues(op, result).Inc()
}

func (p *Prometheus) ObserveOffline(hours float64) {
	if hours > 0 {
		p.offline.Add(hours)
	}
}

func (p *Prometheus) ObserveWorld(credits, population float64) {
	p.credits.Set(credits)
	p.population.Set(population)
}
