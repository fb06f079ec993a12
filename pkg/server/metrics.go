package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	mutations       *prometheus.CounterVec
	synthesis       prometheus.Histogram
	synthesisErrors prometheus.Counter
	gates           prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatesynth_mutations_total",
				Help: "Editor operations by outcome",
			},
			[]string{"op", "result"},
		),
		synthesis: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gatesynth_synthesis_duration_seconds",
				Help:    "Duration of expression synthesis passes",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
			},
		),
		synthesisErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gatesynth_synthesis_errors_total",
				Help: "Synthesis passes that failed, e.g. on a cycle",
			},
		),
		gates: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "gatesynth_gates",
				Help: "Gates in the circuit",
			},
		),
	}
	reg.MustRegister(m.mutations, m.synthesis, m.synthesisErrors, m.gates)
	return m
}
