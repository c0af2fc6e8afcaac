// Package metrics holds the prometheus collectors of the service.
package metrics

import (
	"errors"

	"quickdrop/internal/core/domain/model/kernel"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "quickdrop"

// Auto-assignment outcomes.
const (
	OutcomeAssigned   = "assigned"
	OutcomeNoShipment = "no_shipment"
	OutcomeNoCourier  = "no_courier"
	OutcomeError      = "error"
)

type Metrics struct {
	ShipmentEvents       *prometheus.CounterVec
	AutoAssign           *prometheus.CounterVec
	OutboxPublished      prometheus.Counter
	OutboxPublishFailure prometheus.Counter
	StaleCouriers        prometheus.Counter
	HTTPRequests         *prometheus.CounterVec
	HTTPDuration         *prometheus.HistogramVec
	HTTPErrors           *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		ShipmentEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shipment_events_total",
			Help:      "Committed shipment lifecycle events by type",
		}, []string{"type"}),
		AutoAssign: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auto_assign_total",
			Help:      "Automatic assignment runs by outcome",
		}, []string{"outcome"}),
		OutboxPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_published_total",
			Help:      "Outbox events published to the broker",
		}),
		OutboxPublishFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_publish_failures_total",
			Help:      "Outbox relay runs that failed",
		}),
		StaleCouriers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_couriers_marked_offline_total",
			Help:      "Couriers marked offline after missing heartbeats",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		HTTPErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "Error responses by error kind",
		}, []string{"kind"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ShipmentEvents, m.AutoAssign, m.OutboxPublished, m.OutboxPublishFailure,
		m.StaleCouriers, m.HTTPRequests, m.HTTPDuration, m.HTTPErrors,
	}
}

// Register adds every collector to reg. A collector that is already registered is
// not an error.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveEvents counts committed domain events. It matches the unit of work's event
// observer signature.
func (m *Metrics) ObserveEvents(events []kernel.DomainEvent) {
	for _, e := range events {
		m.ShipmentEvents.WithLabelValues(e.Name()).Inc()
	}
}
