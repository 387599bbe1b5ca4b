package telemetry

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/warrantyhub/backend/internal/domain/catalog"
	"github.com/warrantyhub/backend/internal/domain/identity"
	"github.com/warrantyhub/backend/internal/domain/shared"
	"github.com/warrantyhub/backend/internal/domain/warranty"
)

const metricsNamespace = "warranty"

// BusinessMetrics counts domain events into Prometheus series. It subscribes
// to the event bus and owns the registry served on /metrics.
type BusinessMetrics struct {
	registry *prometheus.Registry

	warrantiesRegistered prometheus.Counter
	instancesGenerated   prometheus.Counter
	productEvents        *prometheus.CounterVec
	logins               prometheus.Counter
	adminRegistrations   prometheus.Counter
	adminStatusChanges   *prometheus.CounterVec
	subscriptionChanges  prometheus.Counter
	adminsDeleted        prometheus.Counter
}

// NewBusinessMetrics creates the counters on a fresh registry that also
// carries the Go runtime and process collectors
func NewBusinessMetrics() *BusinessMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &BusinessMetrics{
		registry: reg,
		warrantiesRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "registrations_total",
			Help:      "Total number of warranty registrations",
		}),
		instancesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "instances_generated_total",
			Help:      "Total number of product units generated",
		}),
		productEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "product_changes_total",
			Help:      "Product catalog changes by kind",
		}, []string{"change"}),
		logins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "admin_logins_total",
			Help:      "Total number of successful admin logins",
		}),
		adminRegistrations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "admin_registrations_total",
			Help:      "Total number of admin sign-ups",
		}),
		adminStatusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "admin_status_changes_total",
			Help:      "Admin status transitions by target status",
		}, []string{"status"}),
		subscriptionChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "subscription_changes_total",
			Help:      "Total number of subscription plan changes",
		}),
		adminsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "admins_deleted_total",
			Help:      "Total number of deleted admin accounts",
		}),
	}
	reg.MustRegister(
		m.warrantiesRegistered,
		m.instancesGenerated,
		m.productEvents,
		m.logins,
		m.adminRegistrations,
		m.adminStatusChanges,
		m.subscriptionChanges,
		m.adminsDeleted,
	)
	return m
}

// Registry returns the registry the counters live in
func (m *BusinessMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *BusinessMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// EventTypes lists the events the metrics subscribe to
func (m *BusinessMetrics) EventTypes() []string {
	return []string{
		warranty.EventTypeWarrantyRegistered,
		catalog.EventTypeProductCreated,
		catalog.EventTypeProductUpdated,
		catalog.EventTypeProductDeleted,
		catalog.EventTypeInstancesGenerated,
		identity.EventTypeAdminRegistered,
		identity.EventTypeAdminStatusChanged,
		identity.EventTypeAdminDeleted,
		identity.EventTypeSubscriptionChanged,
		identity.EventTypeAdminLoggedIn,
	}
}

// Handle updates the counter for event
func (m *BusinessMetrics) Handle(_ context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *catalog.InstancesGeneratedEvent:
		m.instancesGenerated.Add(float64(e.Quantity))
	case *identity.AdminStatusChangedEvent:
		m.adminStatusChanges.WithLabelValues(string(e.To)).Inc()
	default:
		switch event.EventType() {
		case warranty.EventTypeWarrantyRegistered:
			m.warrantiesRegistered.Inc()
		case catalog.EventTypeProductCreated:
			m.productEvents.WithLabelValues("created").Inc()
		case catalog.EventTypeProductUpdated:
			m.productEvents.WithLabelValues("updated").Inc()
		case catalog.EventTypeProductDeleted:
			m.productEvents.WithLabelValues("deleted").Inc()
		case identity.EventTypeAdminRegistered:
			m.adminRegistrations.Inc()
		case identity.EventTypeAdminDeleted:
			m.adminsDeleted.Inc()
		case identity.EventTypeSubscriptionChanged:
			m.subscriptionChanges.Inc()
		case identity.EventTypeAdminLoggedIn:
			m.logins.Inc()
		}
	}
	return nil
}

var _ shared.EventHandler = (*BusinessMetrics)(nil)
