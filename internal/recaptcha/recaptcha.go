// Package recaptcha verifies reCAPTCHA v3 tokens against Google's siteverify API.
package recaptcha

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"
	DefaultTimeout   = 10 * time.Second
	MinScore         = 0.5
)

// Result is the verification outcome. Score is 0 whenever the check failed closed.
type Result struct {
	Success bool
	Score   float64
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	Score      float64  `json:"score"`
	Action     string   `json:"action"`
	Hostname   string   `json:"hostname"`
	ErrorCodes []string `json:"error-codes"`
}

// Verifier checks tokens. A zero Secret means "not configured".
type Verifier struct {
	Secret     string
	Production bool
	VerifyURL  string // injectable for tests
	HTTP       *http.Client
	Log        *zap.Logger
}

func New(secret string, production bool, log *zap.Logger) *Verifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Verifier{
		Secret:     secret,
		Production: production,
		VerifyURL:  DefaultVerifyURL,
		HTTP:       &http.Client{Timeout: DefaultTimeout},
		Log:        log.Named("recaptcha"),
	}
}

// Verify checks token and, when expectedAction is non-empty, the action it was issued for.
// Network trouble, timeouts and malformed responses all fail closed.
func (v *Verifier) Verify(ctx context.Context, token, expectedAction, remoteIP string) Result {
	if v.Secret == "" {
		if v.Production {
			v.Log.Error("secret key missing in production, rejecting")
			return Result{}
		}
		return Result{Success: true, Score: 1.0}
	}
	if token == "" {
		return Result{}
	}

	resp, err := v.call(ctx, token, remoteIP)
	if err != nil {
		v.Log.Warn("siteverify call failed", zap.Error(err))
		return Result{}
	}
	if !resp.Success {
		v.Log.Warn("token rejected", zap.Strings("error_codes", resp.ErrorCodes))
		return Result{}
	}
	if expectedAction != "" && resp.Action != expectedAction {
		v.Log.Warn("action mismatch", zap.String("expected", expectedAction), zap.String("actual", resp.Action))
		return Result{}
	}
	if resp.Score < MinScore {
		v.Log.Warn("score below threshold", zap.Float64("score", resp.Score))
		return Result{Success: false, Score: resp.Score}
	}
	return Result{Success: true, Score: resp.Score}
}

func (v *Verifier) call(ctx context.Context, token, remoteIP string) (*siteverifyResponse, error) {
	form := url.Values{
		"secret":   {v.Secret},
		"response": {token},
	}
	if remoteIP != "" && remoteIP != "unknown" {
		form.Set("remoteip", remoteIP)
	}

	verifyURL := v.VerifyURL
	if verifyURL == "" {
		verifyURL = DefaultVerifyURL
	}
	client := v.HTTP
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("siteverify request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("siteverify returned %d", res.StatusCode)
	}
	var out siteverifyResponse
	if err := json.NewDecoder(io.LimitReader(res.Body, 1<<16)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode siteverify response: %w", err)
	}
	return &out, nil
}
