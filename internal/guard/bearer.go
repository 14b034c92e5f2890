package guard

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// BearerToken reports whether the Authorization header carries want.
// An empty want never matches.
func BearerToken(r *http.Request, want string) bool {
	if want == "" {
		return false
	}
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) < len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return false
	}
	got := strings.TrimSpace(auth[len(prefix):])
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
