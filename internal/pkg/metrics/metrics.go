package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ocp_installer_helper"

type Metrics struct {
	Commands       *prometheus.CounterVec
	CommandSeconds *prometheus.HistogramVec
	Artifacts      *prometheus.CounterVec
	MirrorTasks    prometheus.Gauge
	FormSessions   prometheus.Gauge
}

// New creates the collectors and registers them with reg when it is not nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands executed, by command key and result.",
		}, []string{"key", "result"}),
		CommandSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Command execution time, by command key.",
			Buckets:   []float64{0.1, 1, 5, 30, 120, 600, 1800},
		}, []string{"key"}),
		Artifacts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_generated_total",
			Help:      "Configuration files written, by kind.",
		}, []string{"kind"}),
		MirrorTasks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mirror_tasks_running",
			Help:      "oc mirror runs currently in progress.",
		}),
		FormSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "form_sessions",
			Help:      "Open node form sessions.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Commands, m.CommandSeconds, m.Artifacts, m.MirrorTasks, m.FormSessions)
	}
	return m
}

func Result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
