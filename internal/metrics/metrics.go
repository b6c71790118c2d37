package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the pricing collectors exposed on /metrics.
type Metrics struct {
	Computations *prometheus.CounterVec
	FinalPrice   prometheus.Histogram
	Saves        prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Computations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pricebook",
			Name:      "pricing_computations_total",
			Help:      "Pricing computations served, by entry point.",
		}, []string{"source"}),
		FinalPrice: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pricebook",
			Name:      "final_price",
			Help:      "Distribution of computed final prices.",
			Buckets:   []float64{25, 50, 100, 150, 200, 300, 500, 750, 1000, 2000},
		}),
		Saves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pricebook",
			Name:      "pricing_saves_total",
			Help:      "Pricing results persisted onto products.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Computations, m.FinalPrice, m.Saves)
	}
	return m
}

// ObserveComputation records one computed final price for the given source (form, api).
func (m *Metrics) ObserveComputation(source string, finalPrice float64) {
	if m == nil {
		return
	}
	m.Computations.WithLabelValues(source).Inc()
	m.FinalPrice.Observe(finalPrice)
}

// ObserveSave counts a persisted pricing result.
func (m *Metrics) ObserveSave() {
	if m == nil {
		return
	}
	m.Saves.Inc()
}
