package guard

import (
	"net/http"
	"net/url"
	"strings"
)

// OriginValidator is the CSRF guard for browser form posts.
type OriginValidator struct {
	Production bool
	allowed    map[string]struct{}
}

// NewOriginValidator builds a validator from exact origins ("https://example.com").
func NewOriginValidator(production bool, allowed []string) *OriginValidator {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			set[o] = struct{}{}
		}
	}
	return &OriginValidator{Production: production, allowed: set}
}

// SiteOrigins returns the bare and www. https origins of a domain.
func SiteOrigins(domain string) []string {
	domain = strings.TrimPrefix(strings.TrimSpace(domain), "www.")
	if domain == "" {
		return nil
	}
	return []string{"https://" + domain, "https://www." + domain}
}

// Check returns "" when the request may proceed, otherwise the rejection reason.
// The reason is for logs only. Outside production every request passes.
func (v *OriginValidator) Check(r *http.Request) string {
	if !v.Production {
		return ""
	}
	// Origin is authoritative whenever present, even if Referer would pass.
	if origin := r.Header.Get("Origin"); origin != "" {
		if v.isAllowed(origin) {
			return ""
		}
		return "Forbidden origin: " + origin
	}
	if referer := r.Header.Get("Referer"); referer != "" {
		u, err := url.Parse(referer)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return "Forbidden referer"
		}
		if v.isAllowed(u.Scheme + "://" + u.Host) {
			return ""
		}
		return "Forbidden referer"
	}
	return "Missing origin header"
}

func (v *OriginValidator) isAllowed(origin string) bool {
	_, ok := v.allowed[origin]
	return ok
}
