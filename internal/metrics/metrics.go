package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for the form endpoints and their downstream deliveries
var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	PipelineRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_pipeline_rejections_total",
			Help: "Requests rejected by a pipeline guard, by route and reason",
		},
		[]string{"route", "reason"},
	)

	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_submissions_total",
			Help: "Accepted form submissions by form kind",
		},
		[]string{"kind"},
	)

	DeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_deliveries_total",
			Help: "Downstream delivery outcomes by target (crm, webhook, audit) and result",
		},
		[]string{"target", "result"},
	)

	BotChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_bot_checks_total",
			Help: "Bot-score verification results",
		},
		[]string{"result"},
	)
)

// Register registers all Prometheus metrics with reg
func Register(reg prometheus.Registerer) {
	reg.MustRegister(HTTPRequestsTotal)
	reg.MustRegister(HTTPRequestDuration)
	reg.MustRegister(PipelineRejectionsTotal)
	reg.MustRegister(SubmissionsTotal)
	reg.MustRegister(DeliveriesTotal)
	reg.MustRegister(BotChecksTotal)
}
