package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusProvider implements Provider on top of client_golang,
// registering one Prometheus collector per distinct instrument name on
// first use and reusing it afterward. Instrument Attributes become
// constant Prometheus labels, so two instruments sharing a name must use
// the same attribute key set or registration fails permanently for the
// mismatched call (instruments are created once and cached, so a caller
// hitting this should fix the call site rather than retry).
type PrometheusProvider struct {
	reg *prometheus.Registry

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	updowns    map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
}

// NewPrometheusProvider constructs a PrometheusProvider that registers its
// collectors against reg. Pass prometheus.NewRegistry() for an isolated
// registry, or prometheus.DefaultRegisterer's underlying registry to
// expose metrics on the process-wide /metrics endpoint.
func NewPrometheusProvider(reg *prometheus.Registry) *PrometheusProvider {
	return &PrometheusProvider{
		reg:        reg,
		counters:   make(map[string]*prometheus.CounterVec),
		updowns:    make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

func labelNames(attrs map[string]string) ([]string, prometheus.Labels) {
	names := make([]string, 0, len(attrs))
	labels := make(prometheus.Labels, len(attrs))
	for k, v := range attrs {
		names = append(names, k)
		labels[k] = v
	}
	return names, labels
}

func (p *PrometheusProvider) Counter(name string, opts ...InstrumentOption) Counter {
	cfg := applyOptions(opts)
	names, labels := labelNames(cfg.Attributes)

	p.mu.Lock()
	vec, ok := p.counters[name]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: cfg.Description}, names)
		p.reg.MustRegister(vec)
		p.counters[name] = vec
	}
	p.mu.Unlock()

	return &promCounter{c: vec.With(labels)}
}

func (p *PrometheusProvider) UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter {
	cfg := applyOptions(opts)
	names, labels := labelNames(cfg.Attributes)

	p.mu.Lock()
	vec, ok := p.updowns[name]
	if !ok {
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: cfg.Description}, names)
		p.reg.MustRegister(vec)
		p.updowns[name] = vec
	}
	p.mu.Unlock()

	return &promGauge{g: vec.With(labels)}
}

func (p *PrometheusProvider) Histogram(name string, opts ...InstrumentOption) Histogram {
	cfg := applyOptions(opts)
	names, labels := labelNames(cfg.Attributes)

	p.mu.Lock()
	vec, ok := p.histograms[name]
	if !ok {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: name, Help: cfg.Description}, names)
		p.reg.MustRegister(vec)
		p.histograms[name] = vec
	}
	p.mu.Unlock()

	return &promHistogram{h: vec.With(labels)}
}

type promCounter struct{ c prometheus.Counter }

func (p *promCounter) Add(n int64) {
	if n < 0 {
		return
	}
	p.c.Add(float64(n))
}

type promGauge struct{ g prometheus.Gauge }

func (p *promGauge) Add(n int64) { p.g.Add(float64(n)) }

type promHistogram struct{ h prometheus.Observer }

func (p *promHistogram) Record(v float64) { p.h.Observe(v) }
