// Package delivery hands validated submissions to the CRM (mandatory) and to
// the webhook and audit store (best effort). It never fails its caller.
package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"example.com/siteforms/internal/crm"
	"example.com/siteforms/internal/domain"
	"example.com/siteforms/internal/idempotency"
	"example.com/siteforms/internal/logging"
	"example.com/siteforms/internal/metrics"
	spg "example.com/siteforms/internal/storage/postgres"
	"example.com/siteforms/internal/webhook"
)

const auditTimeout = 5 * time.Second

type ContactCreator interface {
	CreateContact(ctx context.Context, in crm.ContactRequest) (string, error)
}

type WebhookSender interface {
	Send(ctx context.Context, eventID string, payload any) error
}

type AuditRecorder interface {
	Record(ctx context.Context, rec spg.AuditRecord) (bool, error)
}

// Meta is request context that travels with the submission.
type Meta struct {
	Referer string
}

// Orchestrator wires the downstream targets. Webhook and Audit may be nil.
type Orchestrator struct {
	CRM     ContactCreator
	Webhook WebhookSender
	Audit   AuditRecorder
	Log     *zap.Logger
	Now     func() time.Time
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now().UTC()
	}
	return time.Now().UTC()
}

func (o *Orchestrator) logger(ctx context.Context) *zap.Logger {
	return logging.FromContextOr(ctx, o.Log).Named("delivery")
}

// DeliverContact runs the CRM call, then the webhook, then the audit insert.
func (o *Orchestrator) DeliverContact(ctx context.Context, c domain.ContactSubmission, meta Meta) Report {
	log := o.logger(ctx).With(zap.String("form", "contact"))
	at := o.now()
	rep := Report{SubmissionID: idempotency.DeriveKey("contact", c.Email, at, fingerprint(c))}

	first, last := SplitName(c.Name)
	rep.CRM = o.createContact(ctx, log, crm.ContactRequest{
		FirstName:   first,
		LastName:    last,
		Email:       c.Email,
		Phone:       c.Phone,
		CompanyName: c.Organization,
		Source:      "Website Contact Form",
		Tags:        ContactTags(c.Service),
		CustomFields: []crm.CustomField{
			{Key: "service", Value: c.Service},
			{Key: "message", Value: c.Message},
		},
	})

	payload := map[string]any{
		"type":         "contact",
		"submissionId": rep.SubmissionID,
		"contactId":    rep.ContactID(),
		"name":         c.Name,
		"email":        c.Email,
		"phone":        c.Phone,
		"organization": c.Organization,
		"service":      c.Service,
		"message":      c.Message,
		"referer":      meta.Referer,
		"submittedAt":  at.Format(time.RFC3339),
	}

	// side effects outlive a disconnecting client; each carries its own timeout
	bg := context.WithoutCancel(ctx)
	rep.SideEffects = append(rep.SideEffects,
		o.sendWebhook(bg, log, rep.SubmissionID, payload),
		o.recordAudit(bg, log, spg.AuditRecord{
			SubmissionID: rep.SubmissionID,
			Kind:         "contact",
			Email:        c.Email,
			Referer:      meta.Referer,
			Payload:      payload,
			CreatedAt:    at,
		}),
	)
	return rep
}

// DeliverLead runs the CRM call, then the webhook and audit insert concurrently.
// It returns once both side effects have settled.
func (o *Orchestrator) DeliverLead(ctx context.Context, l domain.LeadSubmission, meta Meta) Report {
	log := o.logger(ctx).With(zap.String("form", "lead"), zap.String("lead_type", l.Type))
	at := o.now()
	rep := Report{SubmissionID: idempotency.DeriveKey("lead", l.Email, at, fingerprint(l, l.Extras.Map()))}

	first, last := SplitName(l.Name)
	req := crm.ContactRequest{
		FirstName:   first,
		LastName:    last,
		Email:       l.Email,
		Phone:       l.Phone,
		CompanyName: l.Extras.Text(domain.ExtraChurchName),
		Source:      l.Source,
		Tags:        LeadTags(l),
	}
	for _, f := range l.Extras.Fields() {
		if f == domain.ExtraChurchName {
			continue
		}
		req.CustomFields = append(req.CustomFields, crm.CustomField{Key: string(f), Value: l.Extras[f].Value()})
	}
	rep.CRM = o.createContact(ctx, log, req)

	payload := map[string]any{
		"type":         "lead",
		"leadType":     l.Type,
		"submissionId": rep.SubmissionID,
		"contactId":    rep.ContactID(),
		"name":         l.Name,
		"email":        l.Email,
		"phone":        l.Phone,
		"source":       l.Source,
		"fields":       l.Extras.Map(),
		"referer":      meta.Referer,
		"submittedAt":  at.Format(time.RFC3339),
	}

	bg := context.WithoutCancel(ctx)
	effects := make([]BestEffort, 2)
	var g errgroup.Group
	g.Go(func() error {
		effects[0] = o.sendWebhook(bg, log, rep.SubmissionID, payload)
		return nil
	})
	g.Go(func() error {
		effects[1] = o.recordAudit(bg, log, spg.AuditRecord{
			SubmissionID: rep.SubmissionID,
			Kind:         "lead",
			Email:        l.Email,
			Referer:      meta.Referer,
			Payload:      payload,
			CreatedAt:    at,
		})
		return nil
	})
	_ = g.Wait()
	rep.SideEffects = effects
	return rep
}

func (o *Orchestrator) createContact(ctx context.Context, log *zap.Logger, req crm.ContactRequest) (out Mandatory) {
	defer func() {
		if r := recover(); r != nil {
			out = Mandatory{Err: fmt.Errorf("crm panic: %v", r)}
		}
		if out.Err != nil {
			metrics.DeliveriesTotal.WithLabelValues("crm", string(StatusFailed)).Inc()
			log.Warn("crm contact creation failed, continuing without contact id", zap.Error(out.Err))
			return
		}
		metrics.DeliveriesTotal.WithLabelValues("crm", string(StatusDelivered)).Inc()
	}()
	if o.CRM == nil {
		return Mandatory{Err: crm.ErrNotConfigured}
	}
	id, err := o.CRM.CreateContact(ctx, req)
	return Mandatory{ContactID: id, Err: err}
}

func (o *Orchestrator) sendWebhook(ctx context.Context, log *zap.Logger, id string, payload any) BestEffort {
	return o.attempt(log, "webhook", func() error {
		if o.Webhook == nil {
			return webhook.ErrNotConfigured
		}
		return o.Webhook.Send(ctx, id, payload)
	})
}

func (o *Orchestrator) recordAudit(ctx context.Context, log *zap.Logger, rec spg.AuditRecord) BestEffort {
	return o.attempt(log, "audit", func() error {
		if o.Audit == nil {
			return errSkipped
		}
		ctx, cancel := context.WithTimeout(ctx, auditTimeout)
		defer cancel()
		_, err := o.Audit.Record(ctx, rec)
		return err
	})
}

var errSkipped = errors.New("not configured")

// fingerprint is the submission content that feeds its id. Map keys marshal
// in sorted order, so equal submissions give equal bytes.
func fingerprint(parts ...any) []byte {
	b, err := json.Marshal(parts)
	if err != nil {
		return []byte(fmt.Sprint(parts...))
	}
	return b
}

// attempt runs one best-effort side effect and converts every failure,
// panics included, into an outcome.
func (o *Orchestrator) attempt(log *zap.Logger, target string, fn func() error) (out BestEffort) {
	out.Target = target
	defer func() {
		if r := recover(); r != nil {
			out.Status, out.Err = StatusFailed, fmt.Errorf("%s panic: %v", target, r)
		}
		metrics.DeliveriesTotal.WithLabelValues(target, string(out.Status)).Inc()
		if out.Status == StatusFailed {
			log.Warn("best-effort delivery failed", zap.String("target", target),
				zap.Bool("critical", false), zap.Error(out.Err))
		}
	}()

	err := fn()
	switch {
	case err == nil:
		out.Status = StatusDelivered
	case errors.Is(err, errSkipped), errors.Is(err, webhook.ErrNotConfigured):
		out.Status = StatusSkipped
	default:
		out.Status, out.Err = StatusFailed, err
	}
	return out
}
