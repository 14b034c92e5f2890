// Package webhook signs outbound payloads and verifies inbound ones with a
// timestamp-bound HMAC-SHA256.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	SignatureHeader = "X-Webhook-Signature"
	TimestampHeader = "X-Webhook-Timestamp"
	IDHeader        = "X-Webhook-Id"

	DefaultMaxAge = 5 * time.Minute
)

// Signer computes signatures over "<timestamp-ms>.<payload>".
type Signer struct {
	secret []byte
	now    func() time.Time
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret), now: time.Now}
}

// Configured reports whether a secret is set.
func (s *Signer) Configured() bool { return len(s.secret) > 0 }

// Sign returns the hex HMAC of timestamp + "." + payload.
func (s *Signer) Sign(timestamp string, payload []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(timestamp))
	_, _ = mac.Write([]byte{'.'})
	_, _ = mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Timestamp formats now as decimal milliseconds.
func (s *Signer) Timestamp() string {
	return strconv.FormatInt(s.now().UnixMilli(), 10)
}

// VerifyTimestamp accepts ts when it lies within ±maxAge of now, so small
// clock skew into the future is tolerated. maxAge <= 0 means DefaultMaxAge.
func (s *Signer) VerifyTimestamp(ts string, maxAge time.Duration) bool {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if ts == "" || strings.TrimLeft(ts, "0123456789") != "" {
		return false
	}
	ms, err := strconv.ParseInt(ts, 10, 64)
	if err != nil || ms <= 0 {
		return false
	}
	// bounds, not a difference: now-ms overflows for extreme ms
	now, window := s.now().UnixMilli(), maxAge.Milliseconds()
	return ms >= now-window && ms <= now+window
}

// VerifySignature checks a signature produced by Sign for the same timestamp and payload.
func (s *Signer) VerifySignature(payload []byte, signature, timestamp string, maxAge time.Duration) bool {
	if !s.Configured() || signature == "" || timestamp == "" {
		return false
	}
	if !s.VerifyTimestamp(timestamp, maxAge) {
		return false
	}
	expected := s.Sign(timestamp, payload)
	if len(expected) != len(signature) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

// SignedHeaders returns the headers for an outbound delivery of payload. The
// timestamp and signature headers are left out entirely when no secret is set.
func (s *Signer) SignedHeaders(payload []byte) http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	if !s.Configured() {
		return h
	}
	ts := s.Timestamp()
	h.Set(TimestampHeader, ts)
	h.Set(SignatureHeader, s.Sign(ts, payload))
	return h
}

// VerifyRequest checks the signature headers of an inbound request against body.
func (s *Signer) VerifyRequest(h http.Header, body []byte) bool {
	return s.VerifySignature(body, h.Get(SignatureHeader), h.Get(TimestampHeader), DefaultMaxAge)
}
