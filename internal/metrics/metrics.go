package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Collector records gateway calls, corrective actions and run durations.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry     *prometheus.Registry
	gatewayCalls *prometheus.CounterVec
	actions      *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
}

func NewCollector() (*Collector, error) {
	registry := prometheus.NewRegistry()

	gatewayCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "followflow",
		Subsystem: "gateway",
		Name:      "calls_total",
		Help:      "Remote social API calls by operation and outcome.",
	}, []string{"operation", "outcome"})

	actions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "followflow",
		Subsystem: "engine",
		Name:      "actions_total",
		Help:      "Corrective actions attempted by component and outcome.",
	}, []string{"component", "outcome"})

	runDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "followflow",
		Subsystem: "engine",
		Name:      "run_duration_seconds",
		Help:      "Duration of scheduled entry point runs.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
	}, []string{"component"})

	for _, c := range []prometheus.Collector{gatewayCalls, actions, runDuration} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return &Collector{
		registry:     registry,
		gatewayCalls: gatewayCalls,
		actions:      actions,
		runDuration:  runDuration,
	}, nil
}

func (c *Collector) ObserveGatewayCall(operation string, err error) {
	if c == nil {
		return
	}
	c.gatewayCalls.WithLabelValues(operation, outcome(err)).Inc()
}

func (c *Collector) ObserveAction(component string, err error) {
	if c == nil {
		return
	}
	c.actions.WithLabelValues(component, outcome(err)).Inc()
}

func (c *Collector) ObserveRun(component string, d time.Duration) {
	if c == nil {
		return
	}
	c.runDuration.WithLabelValues(component).Observe(d.Seconds())
}

// Handler exposes the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
