package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the application.
// It includes counters for commands received and messages sent, plus
// instrumentation of the admin API calls every handler makes.
type Metrics struct {
	CommandReceived    *prometheus.CounterVec   // Counter for received commands/buttons
	SentMessages       *prometheus.CounterVec   // Counter for sent messages
	APIRequestDuration *prometheus.HistogramVec // Histogram for admin API call durations
	APIErrors          *prometheus.CounterVec   // Counter for admin API call failures
	LeadsCaptured      prometheus.Counter       // Counter for completed price-request forms
}

// NewMetrics creates a new Metrics instance registered on the provided
// Prometheus Registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		CommandReceived: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "msadmin_commands_received_total",
			Help: "Total number of used commands",
		}, []string{"command"}), // command: /start, login, dashboard, users
		SentMessages: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "msadmin_messages_sent_total",
			Help: "Output bot activity",
		}, []string{"type"}), // type: text, document, error
		APIRequestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "msadmin_api_request_duration_seconds",
			Help:    "Duration of admin API calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}), // operation: 'login', 'get_users', 'upload_firmware'
		APIErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "msadmin_api_errors_total",
			Help: "Total number of failed admin API calls.",
		}, []string{"operation"}),
		LeadsCaptured: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "msadmin_leads_captured_total",
			Help: "Total number of completed price-request forms",
		}),
	}
}
