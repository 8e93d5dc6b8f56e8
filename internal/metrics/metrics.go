// Package metrics exports poller counters to Prometheus.
package metrics

import (
	"context"

	"gluco_watch/internal/errs"
	"gluco_watch/internal/jsonval"
	"gluco_watch/internal/models"
	"gluco_watch/internal/service"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gluco"

// TickMetrics is a tick observer that keeps Prometheus collectors current.
type TickMetrics struct {
	ticks        *prometheus.CounterVec
	errors       *prometheus.CounterVec
	sinkFailures *prometheus.CounterVec
	setups       *prometheus.CounterVec
	lastGlucose  *prometheus.GaugeVec
	lastSuccess  prometheus.Gauge
	consecutive  prometheus.Gauge
}

var (
	_ service.TickObserver  = (*TickMetrics)(nil)
	_ service.SetupObserver = (*TickMetrics)(nil)
)

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *TickMetrics {
	m := &TickMetrics{
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Polling ticks by result.",
		}, []string{"result"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tick_errors_total",
			Help:      "Failed ticks by error kind.",
		}, []string{"kind"}),
		sinkFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_failures_total",
			Help:      "Failed persist calls by sink.",
		}, []string{"sink"}),
		setups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_setups_total",
			Help:      "Session setups by trigger and result.",
		}, []string{"trigger", "result"}),
		lastGlucose: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_glucose_mmol",
			Help:      "Most recent glucose reading.",
		}, []string{"identity"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful tick.",
		}),
		consecutive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "consecutive_errors",
			Help:      "Current run of failed ticks.",
		}),
	}
	reg.MustRegister(m.ticks, m.errors, m.sinkFailures, m.setups, m.lastGlucose, m.lastSuccess, m.consecutive)
	return m
}

func (m *TickMetrics) OnSuccess(_ context.Context, rec models.Record, _ jsonval.Value) error {
	m.ticks.WithLabelValues("ok").Inc()
	m.lastGlucose.WithLabelValues(rec.Identity).Set(rec.Reading.GlucoseValue)
	m.lastSuccess.Set(float64(rec.FetchedAt.Unix()))
	m.consecutive.Set(0)
	return nil
}

func (m *TickMetrics) OnFailure(_ context.Context, err error) error {
	m.ticks.WithLabelValues("failed").Inc()
	m.errors.WithLabelValues(errs.Classify(err)).Inc()
	for _, sink := range errs.FailedSinks(err) {
		m.sinkFailures.WithLabelValues(sink).Inc()
	}
	m.consecutive.Inc()
	return nil
}

func (m *TickMetrics) OnSetup(_ context.Context, renewal bool, err error) error {
	trigger, result := "startup", "ok"
	if renewal {
		trigger = "renewal"
		m.consecutive.Set(0)
	}
	if err != nil {
		result = "failed"
	}
	m.setups.WithLabelValues(trigger, result).Inc()
	return nil
}
