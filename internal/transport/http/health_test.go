package transporthttp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/siteforms/internal/webhook"
)

func (f *fixture) get(path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("X-Real-IP", clientAddr)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func okProbe(context.Context) error { return nil }

func TestHealthOK(t *testing.T) {
	f := newFixture(t, http.StatusOK, func(d *ServerDeps) {
		d.Probes = map[string]Probe{"database": okProbe, "ratelimit_store": okProbe}
	})

	rec := f.get("/api/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, map[string]any{"database": "ok", "ratelimit_store": "ok"}, body["checks"])
}

func TestHealthDegraded(t *testing.T) {
	f := newFixture(t, http.StatusOK, func(d *ServerDeps) {
		d.Probes = map[string]Probe{
			"database": okProbe,
			"ratelimit_store": func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			},
		}
	})
	start := time.Now()

	rec := f.get("/api/health", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "unavailable", body["checks"].(map[string]any)["ratelimit_store"])
	assert.Less(t, time.Since(start), probeTimeout+2*time.Second)
}

func TestHealthAuth(t *testing.T) {
	f := newFixture(t, http.StatusOK, func(d *ServerDeps) { d.Cfg.HealthToken = "s3cret" })

	assert.Equal(t, http.StatusUnauthorized, f.get("/api/health", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, f.get("/api/health", map[string]string{"Authorization": "Bearer nope"}).Code)
	assert.Equal(t, http.StatusOK, f.get("/api/health", map[string]string{"Authorization": "Bearer s3cret"}).Code)
}

func TestHealthProductionWithoutTokenIsLocked(t *testing.T) {
	f := newFixture(t, http.StatusOK, func(d *ServerDeps) { d.Cfg.Production = true })

	assert.Equal(t, http.StatusUnauthorized, f.get("/api/health", nil).Code)
}

func TestHealthRateLimit(t *testing.T) {
	f := newFixture(t, http.StatusOK, nil)

	for i := 0; i < 10; i++ {
		require.Equal(t, http.StatusOK, f.get("/api/health", nil).Code)
	}
	rec := f.get("/api/health", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, http.StatusOK, nil)
	f.post("/api/contact", validContact, nil)

	rec := f.get("/metrics", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func signedRequest(t *testing.T, signer *webhook.Signer, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/inbound", strings.NewReader(body))
	for k, v := range signer.SignedHeaders([]byte(body)) {
		req.Header[k] = v
	}
	req.Header.Set(webhook.IDHeader, "evt_42")
	req.Header.Set("X-Real-IP", clientAddr)
	return req
}

func TestInboundWebhookAccepted(t *testing.T) {
	signer := webhook.NewSigner("shared-secret")
	f := newFixture(t, http.StatusOK, func(d *ServerDeps) { d.Inbound = signer })
	body := `{"event":"contact.updated","id":"ct_1"}`

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, signedRequest(t, signer, body))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"received":true}`, rec.Body.String())
	require.Len(t, f.audit.recs, 1)
	assert.Equal(t, "evt_42", f.audit.recs[0].SubmissionID)
	assert.Equal(t, "inbound_webhook", f.audit.recs[0].Kind)
}

func TestInboundWebhookRejected(t *testing.T) {
	signer := webhook.NewSigner("shared-secret")
	f := newFixture(t, http.StatusOK, func(d *ServerDeps) { d.Inbound = signer })

	t.Run("bad signature", func(t *testing.T) {
		req := signedRequest(t, webhook.NewSigner("other-secret"), `{"a":1}`)
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("tampered body", func(t *testing.T) {
		req := signedRequest(t, signer, `{"a":1}`)
		req.Body = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":2}`)).Body
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unsigned receiver", func(t *testing.T) {
		g := newFixture(t, http.StatusOK, nil)
		rec := httptest.NewRecorder()
		g.handler.ServeHTTP(rec, signedRequest(t, signer, `{"a":1}`))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	assert.Empty(t, f.audit.recs)
}

func TestInboundWebhookAuditFailure(t *testing.T) {
	signer := webhook.NewSigner("shared-secret")
	reporter := &captureReporter{}
	f := newFixture(t, http.StatusOK, func(d *ServerDeps) {
		d.Inbound = signer
		d.Pipeline.Reporter = reporter
	})
	f.audit.err = errors.New("connection reset")

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, signedRequest(t, signer, `{"a":1}`))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Len(t, reporter.errs, 1)
}
