package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ScrapeRegistry is a Registry backed by a Prometheus registry.
type ScrapeRegistry struct {
	prom      *prometheus.Registry
	namespace string
}

// NewScrapeRegistry returns a registry with the Go and process collectors
// installed. Metric names are prefixed with namespace when it is set.
func NewScrapeRegistry(namespace string) (*ScrapeRegistry, error) {
	reg := prometheus.NewRegistry()
	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering collector: %w", err)
		}
	}
	return &ScrapeRegistry{prom: reg, namespace: namespace}, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (r *ScrapeRegistry) Handler() http.Handler {
	return promhttp.HandlerFor(r.prom, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Gatherer exposes the underlying registry, mainly for tests.
func (r *ScrapeRegistry) Gatherer() prometheus.Gatherer {
	return r.prom
}

func (r *ScrapeRegistry) register(name string, c prometheus.Collector) error {
	if err := r.prom.Register(c); err != nil {
		return fmt.Errorf("registering %q: %w", name, err)
	}
	return nil
}

// NewGauge creates and registers a Gauge.
func (r *ScrapeRegistry) NewGauge(opts prometheus.GaugeOpts) (Gauge, error) {
	opts.Namespace = r.namespace
	g := prometheus.NewGauge(opts)
	if err := r.register(opts.Name, g); err != nil {
		return nil, err
	}
	return g, nil
}

// NewGaugeVec creates and registers a GaugeVec.
func (r *ScrapeRegistry) NewGaugeVec(opts prometheus.GaugeOpts, labels []string) (GaugeVec, error) {
	opts.Namespace = r.namespace
	g := prometheus.NewGaugeVec(opts, labels)
	if err := r.register(opts.Name, g); err != nil {
		return nil, err
	}
	return gaugeVec{g}, nil
}

// NewCounter creates and registers a Counter.
func (r *ScrapeRegistry) NewCounter(opts prometheus.CounterOpts) (Counter, error) {
	opts.Namespace = r.namespace
	c := prometheus.NewCounter(opts)
	if err := r.register(opts.Name, c); err != nil {
		return nil, err
	}
	return c, nil
}

// NewCounterVec creates and registers a CounterVec.
func (r *ScrapeRegistry) NewCounterVec(opts prometheus.CounterOpts, labels []string) (CounterVec, error) {
	opts.Namespace = r.namespace
	c := prometheus.NewCounterVec(opts, labels)
	if err := r.register(opts.Name, c); err != nil {
		return nil, err
	}
	return counterVec{c}, nil
}

// The vec wrappers narrow the return type of With to our interfaces.
type gaugeVec struct{ *prometheus.GaugeVec }

func (g gaugeVec) With(l prometheus.Labels) Gauge { return g.GaugeVec.With(l) }

type counterVec struct{ *prometheus.CounterVec }

func (c counterVec) With(l prometheus.Labels) Counter { return c.CounterVec.With(l) }
