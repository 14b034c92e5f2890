// Package guard holds the request-origin checks that run before any body parsing.
package guard

import (
	"net/http"
	"strings"
)

const (
	DefaultTrustedHeader = "X-Real-IP"
	forwardedForHeader   = "X-Forwarded-For"
	UnknownClient        = "unknown"
)

// IPResolver derives a best-effort client address from proxy headers.
// TrustedHeader is set by the deployment's edge proxy and always wins.
type IPResolver struct {
	TrustedHeader string
}

// Resolve returns, in order: the trusted header, the last X-Forwarded-For hop, or "unknown".
// The last hop is the one appended by our own proxy; earlier entries are client-controlled.
func (r IPResolver) Resolve(req *http.Request) string {
	header := r.TrustedHeader
	if header == "" {
		header = DefaultTrustedHeader
	}
	if v := strings.TrimSpace(req.Header.Get(header)); v != "" {
		return v
	}
	if xff := strings.TrimSpace(req.Header.Get(forwardedForHeader)); xff != "" {
		parts := strings.Split(xff, ",")
		for i := len(parts) - 1; i >= 0; i-- {
			if hop := strings.TrimSpace(parts[i]); hop != "" {
				return hop
			}
		}
	}
	return UnknownClient
}

// ClientIP resolves with the default trusted header.
func ClientIP(req *http.Request) string {
	return IPResolver{}.Resolve(req)
}
