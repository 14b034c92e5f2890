package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const DefaultTimeout = 10 * time.Second

// ErrNotConfigured is returned by Send when no destination URL is set.
var ErrNotConfigured = errors.New("webhook: destination not configured")

// Sender posts signed JSON copies of submissions to a single destination.
type Sender struct {
	URL    string
	Signer *Signer
	HTTP   *http.Client
}

func NewSender(url string, signer *Signer) *Sender {
	return &Sender{URL: url, Signer: signer, HTTP: &http.Client{Timeout: DefaultTimeout}}
}

// Send delivers payload once. There is no retry: a failed delivery is the caller's to log.
func (s *Sender) Send(ctx context.Context, eventID string, payload any) error {
	if s == nil || s.URL == "" {
		return ErrNotConfigured
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	signer := s.Signer
	if signer == nil {
		signer = NewSigner("")
	}
	for k, vs := range signer.SignedHeaders(body) {
		req.Header[k] = vs
	}
	if eventID != "" {
		req.Header.Set(IDHeader, eventID)
	}

	client := s.HTTP
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook post: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}
