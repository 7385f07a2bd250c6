package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	MessagesReceived     prometheus.Counter
	RepliesSent          prometheus.Counter
	UsersRegistered      prometheus.Counter
	StreamsSubmitted     prometheus.Counter
	RegistrationFailures *prometheus.CounterVec
	VerificationFailures *prometheus.CounterVec
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return newWith(prometheus.DefaultRegisterer)
}

// NewForTesting registers on a private registry so parallel tests do not
// collide on duplicate metric names.
func NewForTesting() *Metrics {
	return newWith(prometheus.NewRegistry())
}

func newWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MessagesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "aquita_messages_received_total",
			Help: "Total inbound webhook messages accepted for handling",
		}),
		RepliesSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "aquita_replies_sent_total",
			Help: "Total outbound replies dispatched to the gateway",
		}),
		UsersRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "aquita_users_registered_total",
			Help: "Total identity records persisted after successful verification",
		}),
		StreamsSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "aquita_streams_submitted_total",
			Help: "Total stream submissions persisted",
		}),
		RegistrationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aquita_registration_failures_total",
			Help: "Registration attempts that ended in a terminal failure, by reason",
		}, []string{"reason"}),
		VerificationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aquita_verification_failures_total",
			Help: "External cédula verification failures, by category",
		}, []string{"category"}),
	}
}
