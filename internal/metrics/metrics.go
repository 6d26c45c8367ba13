// Package metrics exposes widget activity as prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/jkaflik/valve2mqtt/internal/valve"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records what the widgets do. It implements widget.Observer and
// prometheus.Collector.
type Collector struct {
	refreshes  *prometheus.CounterVec
	dispatched *prometheus.CounterVec
	rejected   *prometheus.CounterVec
	signals    *prometheus.CounterVec
	signal     *prometheus.GaugeVec
	blinking   *prometheus.GaugeVec
	state      *prometheus.GaugeVec
	anyError   *prometheus.GaugeVec
	connected  *prometheus.GaugeVec
}

func NewCollector() *Collector {
	return &Collector{
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "valve2mqtt_refreshes_total",
			Help: "Status polls per valve",
		}, []string{"valve"}),
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "valve2mqtt_commands_dispatched_total",
			Help: "Commands accepted and pulsed",
		}, []string{"valve", "command"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "valve2mqtt_commands_rejected_total",
			Help: "Commands ignored, by reason",
		}, []string{"valve", "command", "reason"}),
		signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "valve2mqtt_signal_writes_total",
			Help: "Command signal writes to the source",
		}, []string{"valve", "command"}),
		signal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "valve2mqtt_signal_asserted",
			Help: "1 while the command signal is asserted",
		}, []string{"valve", "command"}),
		blinking: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "valve2mqtt_blinking",
			Help: "1 while the blink timer runs",
		}, []string{"valve"}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "valve2mqtt_state",
			Help: "1 for the current derived valve state",
		}, []string{"valve", "state"}),
		anyError: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "valve2mqtt_error",
			Help: "1 while the valve reports an error",
		}, []string{"valve"}),
		connected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "valve2mqtt_connection_ok",
			Help: "1 while the valve controller is reachable",
		}, []string{"valve"}),
	}
}

func (c *Collector) collectors() []prometheus.Collector {
	return []prometheus.Collector{c.refreshes, c.dispatched, c.rejected, c.signals, c.signal, c.blinking, c.state, c.anyError, c.connected}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.collectors() {
		m.Describe(ch)
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, m := range c.collectors() {
		m.Collect(ch)
	}
}

func (c *Collector) StatusRefreshed(name string, s valve.Status) {
	c.refreshes.WithLabelValues(name).Inc()
	for _, st := range []valve.State{valve.Undefined, valve.Opened, valve.Closed, valve.OpeningClosing} {
		c.state.WithLabelValues(name, st.String()).Set(boolValue(s.State() == st))
	}
	c.anyError.WithLabelValues(name).Set(boolValue(s.AnyError()))
	c.connected.WithLabelValues(name).Set(boolValue(s.ConnectionOk))
}

func (c *Collector) CommandDispatched(name string, cmd valve.Command) {
	c.dispatched.WithLabelValues(name, cmd.String()).Inc()
}

func (c *Collector) CommandRejected(name string, cmd valve.Command, r valve.Rejection) {
	c.rejected.WithLabelValues(name, cmd.String(), r.String()).Inc()
}

func (c *Collector) SignalChanged(name string, cmd valve.Command, on bool) {
	c.signals.WithLabelValues(name, cmd.String()).Inc()
	c.signal.WithLabelValues(name, cmd.String()).Set(boolValue(on))
}

func (c *Collector) BlinkingChanged(name string, on bool) {
	c.blinking.WithLabelValues(name).Set(boolValue(on))
}

// Handler serves the registry in the prometheus text format.
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

func boolValue(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
