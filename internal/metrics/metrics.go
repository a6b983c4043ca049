// Package metrics holds the prometheus collectors for session and
// interceptor activity. A nil *Collectors is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

type Collectors struct {
	refresh      *prometheus.CounterVec
	transitions  *prometheus.CounterVec
	unauthorized *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		refresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "refresh_total",
			Help:      "Token refresh attempts by trigger and outcome.",
		}, []string{"trigger", "outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Session lifecycle transitions by resulting state.",
		}, []string{"state"}),
		unauthorized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "unauthorized_total",
			Help:      "401 responses seen by the interceptor, by recovery outcome.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(c.refresh, c.transitions, c.unauthorized)
	}
	return c
}

func (c *Collectors) ObserveRefresh(trigger, outcome string) {
	if c == nil {
		return
	}
	c.refresh.WithLabelValues(trigger, outcome).Inc()
}

func (c *Collectors) ObserveTransition(state string) {
	if c == nil {
		return
	}
	c.transitions.WithLabelValues(state).Inc()
}

// ObserveUnauthorized satisfies httpclient.Observer.
func (c *Collectors) ObserveUnauthorized(outcome string) {
	if c == nil {
		return
	}
	c.unauthorized.WithLabelValues(outcome).Inc()
}

// Handler serves g in the prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
