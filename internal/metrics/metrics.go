package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes geotagging Prometheus metrics.
type Collector struct {
	gatherer prometheus.Gatherer

	SamplesTotal     *prometheus.CounterVec
	SeriesPoints     prometheus.Gauge
	FixesTotal       *prometheus.CounterVec
	RunDuration      prometheus.Histogram
	ParseWarnings    prometheus.Counter
	SamplesDiscarded *prometheus.CounterVec
}

// NewCollector registers geotagging metrics against the provided registerer.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	samples := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geotrack_source_samples_total",
		Help: "Raw samples read from track sources.",
	}, []string{"kind"})
	samples, err := registerCounterVec(reg, samples, "geotrack_source_samples_total")
	if err != nil {
		return nil, err
	}

	points := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "geotrack_series_points",
		Help: "Points in the most recently built series.",
	})
	points, err = registerGauge(reg, points, "geotrack_series_points")
	if err != nil {
		return nil, err
	}

	fixes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geotrack_fixes_total",
		Help: "Correlated targets by outcome (exact, interpolated, clamped, rejected).",
	}, []string{"outcome"})
	fixes, err = registerCounterVec(reg, fixes, "geotrack_fixes_total")
	if err != nil {
		return nil, err
	}

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "geotrack_run_duration_seconds",
		Help:    "Duration of a full source-to-fix run.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	})
	duration, err = registerHistogram(reg, duration, "geotrack_run_duration_seconds")
	if err != nil {
		return nil, err
	}

	warnings := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geotrack_parse_warnings_total",
		Help: "Input lines skipped while parsing.",
	})
	warnings, err = registerCounter(reg, warnings, "geotrack_parse_warnings_total")
	if err != nil {
		return nil, err
	}

	discarded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geotrack_samples_discarded_total",
		Help: "Samples removed while building a series (dropped, merged).",
	}, []string{"reason"})
	discarded, err = registerCounterVec(reg, discarded, "geotrack_samples_discarded_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:         gatherer,
		SamplesTotal:     samples,
		SeriesPoints:     points,
		FixesTotal:       fixes,
		RunDuration:      duration,
		ParseWarnings:    warnings,
		SamplesDiscarded: discarded,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *Collector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

func (c *Collector) AddSamples(kind string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.SamplesTotal.WithLabelValues(kind).Add(float64(n))
}

func (c *Collector) AddParseWarnings(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.ParseWarnings.Add(float64(n))
}

// ObserveSeries records the size of a freshly built series.
func (c *Collector) ObserveSeries(points, dropped, merged int) {
	if c == nil {
		return
	}
	c.SeriesPoints.Set(float64(points))
	if dropped > 0 {
		c.SamplesDiscarded.WithLabelValues("dropped").Add(float64(dropped))
	}
	if merged > 0 {
		c.SamplesDiscarded.WithLabelValues("merged").Add(float64(merged))
	}
}

func (c *Collector) IncFix(outcome string) {
	if c == nil {
		return
	}
	c.FixesTotal.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObserveRun(d time.Duration) {
	if c == nil {
		return
	}
	c.RunDuration.Observe(d.Seconds())
}

// WriteTextfile dumps the gathered metrics in the node_exporter textfile format.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, c.gatherer)
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
