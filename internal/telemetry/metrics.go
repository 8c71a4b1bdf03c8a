package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "nearby"

// NewRegistry returns a registry carrying the Go runtime and process
// collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ScanMetrics instruments the scan lifecycle. A nil *ScanMetrics is valid
// and records nothing.
type ScanMetrics struct {
	scanning      prometheus.Gauge
	indicating    prometheus.Gauge
	transitions   *prometheus.CounterVec
	startFailures *prometheus.CounterVec
	alerts        *prometheus.CounterVec
	intents       *prometheus.CounterVec
}

// NewScanMetrics creates scan metrics and registers them with registry when
// it is not nil.
func NewScanMetrics(registry prometheus.Registerer) *ScanMetrics {
	m := &ScanMetrics{
		scanning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "running",
			Help:      "1 while the scanner is running",
		}),
		indicating: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "indicating",
			Help:      "1 while the UI shows the searching indicator",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "transitions_total",
			Help:      "Scanner start and stop calls",
		}, []string{"direction"}),
		startFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "start_failures_total",
			Help:      "Scanner starts that failed or did not settle in time",
		}, []string{"reason"}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "total",
			Help:      "Network errors by outcome",
		}, []string{"outcome"}),
		intents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intents",
			Name:      "total",
			Help:      "Intents dispatched to the store",
		}, []string{"type"}),
	}

	if registry != nil {
		registry.MustRegister(
			m.scanning,
			m.indicating,
			m.transitions,
			m.startFailures,
			m.alerts,
			m.intents,
		)
	}
	return m
}

func (m *ScanMetrics) SetScanning(on bool) {
	if m == nil {
		return
	}
	m.scanning.Set(boolValue(on))
}

func (m *ScanMetrics) SetIndicating(on bool) {
	if m == nil {
		return
	}
	m.indicating.Set(boolValue(on))
}

func (m *ScanMetrics) ObserveTransition(direction string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(direction).Inc()
}

func (m *ScanMetrics) ObserveStartFailure(reason string) {
	if m == nil {
		return
	}
	m.startFailures.WithLabelValues(reason).Inc()
}

// ObserveAlert records a network error as "shown" or "suppressed".
func (m *ScanMetrics) ObserveAlert(outcome string) {
	if m == nil {
		return
	}
	m.alerts.WithLabelValues(outcome).Inc()
}

func (m *ScanMetrics) ObserveIntent(actionType string) {
	if m == nil {
		return
	}
	m.intents.WithLabelValues(actionType).Inc()
}

func boolValue(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
