package transporthttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (d *ServerDeps) Router() http.Handler {
	p := d.Pipeline
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(d.Log))
	r.Use(Instrument)

	r.Method(http.MethodPost, "/api/contact", p.Route(Route{
		Prefix: "contact",
		Action: "contact_form",
		Handle: d.HandleContact,
	}))
	r.Method(http.MethodPost, "/api/lead", p.Route(Route{
		Prefix: "lead",
		Action: "lead_form",
		Handle: d.HandleLead,
	}))

	r.With(
		RateLimit(p.Limiter, p.IPs, "health", healthLimit),
		BearerAuth(d.Cfg.HealthToken, d.Cfg.Production),
	).Get("/api/health", d.HandleHealth)

	r.With(
		RequireJSON,
		BodyLimit(p.MaxBodyBytes),
		RateLimit(p.Limiter, p.IPs, "webhook", webhookLimit),
	).Post("/api/webhooks/inbound", d.HandleInboundWebhook)

	metricsHandler := d.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)
	return r
}
