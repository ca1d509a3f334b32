// Package metrics exposes Prometheus counters for API traffic and notifications.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the api client and notification center report to.
type Recorder interface {
	RecordRequest(method string, status int)
	RecordNotification(severity string)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	requests      *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "secondbrain_api_requests_total",
			Help: "Requests sent to the Second Brain API by method and status. Status 0 means no response.",
		}, []string{"method", "status"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "secondbrain_notifications_total",
			Help: "Notifications shown to users by severity.",
		}, []string{"severity"}),
	}

	reg.MustRegister(c.requests, c.notifications)
	return c
}

func (c *Collector) RecordRequest(method string, status int) {
	c.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

func (c *Collector) RecordNotification(severity string) {
	c.notifications.WithLabelValues(severity).Inc()
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordRequest(string, int) {}
func (Nop) RecordNotification(string) {}

// Router serves /metrics and a /healthz probe.
func Router(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}
