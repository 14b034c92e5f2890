package transporthttp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"example.com/siteforms/internal/config"
	"example.com/siteforms/internal/delivery"
	"example.com/siteforms/internal/domain"
	"example.com/siteforms/internal/errtrack"
	"example.com/siteforms/internal/logging"
	"example.com/siteforms/internal/metrics"
	"example.com/siteforms/internal/ratelimit"
	spg "example.com/siteforms/internal/storage/postgres"
	"example.com/siteforms/internal/webhook"
)

const probeTimeout = 3 * time.Second

// Probe checks one downstream dependency.
type Probe func(ctx context.Context) error

type ServerDeps struct {
	Cfg      config.Config
	Pipeline *Pipeline
	Delivery *delivery.Orchestrator
	Probes   map[string]Probe
	Inbound  *webhook.Signer
	Audit    delivery.AuditRecorder // nil when no database is configured
	Metrics  http.Handler
	Log      *zap.Logger
	Now      func() time.Time
}

// --- Forms ---

func (d *ServerDeps) HandleContact(ctx context.Context, body map[string]any, r *http.Request) (Result, error) {
	sub, err := domain.ParseContact(body)
	if err != nil {
		return Result{}, err
	}
	metrics.SubmissionsTotal.WithLabelValues("contact").Inc()

	rep := d.Delivery.DeliverContact(ctx, sub, delivery.Meta{Referer: r.Referer()})
	logging.FromContextOr(ctx, d.Log).Info("contact submission accepted",
		zap.String("submission_id", rep.SubmissionID), zap.Bool("crm_ok", rep.CRM.Err == nil))
	return Result{ContactID: rep.ContactID()}, nil
}

func (d *ServerDeps) HandleLead(ctx context.Context, body map[string]any, r *http.Request) (Result, error) {
	sub, err := domain.ParseLead(body)
	if err != nil {
		return Result{}, err
	}
	metrics.SubmissionsTotal.WithLabelValues("lead").Inc()

	rep := d.Delivery.DeliverLead(ctx, sub, delivery.Meta{Referer: r.Referer()})
	logging.FromContextOr(ctx, d.Log).Info("lead submission accepted",
		zap.String("lead_type", sub.Type), zap.String("submission_id", rep.SubmissionID),
		zap.Bool("crm_ok", rep.CRM.Err == nil))
	return Result{ContactID: rep.ContactID()}, nil
}

// --- Health ---

type healthResp struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

// HandleHealth probes every configured dependency concurrently.
func (d *ServerDeps) HandleHealth(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContextOr(r.Context(), d.Log)
	checks := make(map[string]string, len(d.Probes))
	var mu sync.Mutex
	var g errgroup.Group
	for name, probe := range d.Probes {
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
			defer cancel()
			state := "ok"
			if err := probe(ctx); err != nil {
				state = "unavailable"
				log.Warn("health probe failed", zap.String("dependency", name), zap.Error(err))
			}
			mu.Lock()
			checks[name] = state
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	resp := healthResp{Status: "ok", Checks: checks, Timestamp: d.now().Format(time.RFC3339)}
	status := http.StatusOK
	for _, state := range checks {
		if state != "ok" {
			resp.Status, status = "degraded", http.StatusServiceUnavailable
			break
		}
	}
	WriteJSON(w, status, resp)
}

// --- Inbound webhooks ---

// HandleInboundWebhook accepts payloads signed with the shared webhook secret
// and records them in the audit store.
func (d *ServerDeps) HandleInboundWebhook(w http.ResponseWriter, r *http.Request) {
	defer DrainBody(r)
	log := logging.FromContextOr(r.Context(), d.Log)

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
			return
		}
		WriteError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	if d.Inbound == nil || !d.Inbound.Configured() || !d.Inbound.VerifyRequest(r.Header, raw) {
		metrics.PipelineRejectionsTotal.WithLabelValues("webhook", "signature").Inc()
		log.Warn("inbound webhook signature rejected")
		WriteError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil || payload == nil {
		WriteError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	if d.Audit != nil {
		id := r.Header.Get(webhook.IDHeader)
		if id == "" {
			id = "inbound_" + uuid.NewString()
		}
		_, err := d.Audit.Record(r.Context(), spg.AuditRecord{
			SubmissionID: id,
			Kind:         "inbound_webhook",
			Referer:      r.Referer(),
			Payload:      payload,
			CreatedAt:    d.now(),
		})
		if err != nil {
			log.Error("inbound webhook audit failed", zap.Error(err))
			d.reporter().Capture(r.Context(), err, map[string]string{"route": "webhook"})
			WriteError(w, http.StatusInternalServerError, msgInternal)
			return
		}
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (d *ServerDeps) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

func (d *ServerDeps) reporter() errtrack.Reporter {
	if d.Pipeline != nil && d.Pipeline.Reporter != nil {
		return d.Pipeline.Reporter
	}
	return errtrack.Nop{}
}

var (
	healthLimit  = ratelimit.Options{Limit: 10, Window: time.Minute}
	webhookLimit = ratelimit.Options{Limit: 60, Window: time.Minute}
)
