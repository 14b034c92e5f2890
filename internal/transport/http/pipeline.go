package transporthttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"example.com/siteforms/internal/domain"
	"example.com/siteforms/internal/errtrack"
	"example.com/siteforms/internal/guard"
	"example.com/siteforms/internal/logging"
	"example.com/siteforms/internal/metrics"
	"example.com/siteforms/internal/ratelimit"
	"example.com/siteforms/internal/recaptcha"
)

const tokenField = "recaptchaToken"

// BotVerifier is the slice of recaptcha.Verifier the pipeline needs.
type BotVerifier interface {
	Verify(ctx context.Context, token, expectedAction, remoteIP string) recaptcha.Result
}

// Result is what a form handler hands back on success.
type Result struct {
	ContactID string
}

// HandleFunc is the route-specific business step. body is a parsed JSON object.
type HandleFunc func(ctx context.Context, body map[string]any, r *http.Request) (Result, error)

// Route configures one form endpoint.
type Route struct {
	Prefix string // rate-limit key prefix and metrics label
	Action string // expected reCAPTCHA action
	Limit  ratelimit.Options
	Handle HandleFunc
}

// Pipeline holds the guards shared by every form endpoint.
type Pipeline struct {
	MaxBodyBytes int64
	Origins      *guard.OriginValidator
	IPs          guard.IPResolver
	Limiter      *ratelimit.Limiter
	Bot          BotVerifier
	Reporter     errtrack.Reporter
	Timeout      time.Duration
	Log          *zap.Logger
}

// Route builds the handler for rt. Step order is fixed: content type, size,
// origin, rate limit, JSON parse, bot check, handler. An origin rejection
// never consumes a rate-limit slot.
func (p *Pipeline) Route(rt Route) http.Handler {
	var h http.Handler = p.terminal(rt)
	h = RateLimit(p.Limiter, p.IPs, rt.Prefix, rt.Limit)(h)
	h = OriginGuard(p.Origins, rt.Prefix)(h)
	h = BodyLimit(p.MaxBodyBytes)(h)
	h = RequireJSON(h)
	return h
}

func (p *Pipeline) terminal(rt Route) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer DrainBody(r)
		log := logging.FromContextOr(r.Context(), p.Log)

		body, err := decodeObject(r.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				WriteError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
				return
			}
			metrics.PipelineRejectionsTotal.WithLabelValues(rt.Prefix, "invalid_json").Inc()
			WriteError(w, http.StatusBadRequest, msgInvalidJSON)
			return
		}

		res := p.Bot.Verify(r.Context(), tokenString(body[tokenField]), rt.Action, p.IPs.Resolve(r))
		if !res.Success {
			metrics.BotChecksTotal.WithLabelValues("fail").Inc()
			metrics.PipelineRejectionsTotal.WithLabelValues(rt.Prefix, "bot_check").Inc()
			log.Warn("bot check failed", zap.String("route", rt.Prefix), zap.Float64("score", res.Score))
			WriteError(w, http.StatusForbidden, msgBotCheckFailed)
			return
		}
		metrics.BotChecksTotal.WithLabelValues("pass").Inc()

		p.invoke(w, r, rt, body, log)
	})
}

func (p *Pipeline) invoke(w http.ResponseWriter, r *http.Request, rt Route, body map[string]any, log *zap.Logger) {
	ctx := r.Context()
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	out, err := safeHandle(ctx, rt.Handle, body, r)
	if err == nil {
		WriteJSON(w, http.StatusOK, successBody{Success: true, ContactID: out.ContactID})
		return
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		WriteError(w, http.StatusBadRequest, ve.Message)
		return
	}

	status, msg := http.StatusInternalServerError, msgInternal
	if isTimeout(err) {
		status, msg = http.StatusGatewayTimeout, msgTimeout
	}
	log.Error("form handler failed", zap.String("route", rt.Prefix), zap.Int("status", status), zap.Error(err))
	if p.Reporter != nil {
		p.Reporter.Capture(ctx, err, map[string]string{"route": rt.Prefix, "status": strconv.Itoa(status)})
	}
	WriteError(w, status, msg)
}

func safeHandle(ctx context.Context, h HandleFunc, body map[string]any, r *http.Request) (out Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return h(ctx, body, r)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// decodeObject accepts exactly one JSON object.
func decodeObject(rc io.Reader) (map[string]any, error) {
	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	if body == nil {
		return nil, errors.New("body is not a JSON object")
	}
	return body, nil
}

// tokenString coerces the token field to a string; absent means "".
func tokenString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
