package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// DeriveKey returns a stable id for one submission: the hex SHA-256 of
// (kind, lower-cased email, submission time in ms, content). It is the audit
// row's unique key and the X-Webhook-Id sent to receivers. An identical
// double-submit in the same millisecond collapses to one id; different
// content never does.
func DeriveKey(kind, email string, submittedAt time.Time, content []byte) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%d|", kind, strings.ToLower(strings.TrimSpace(email)), submittedAt.UnixMilli())
	contentSum := sha256.Sum256(content)
	_, _ = h.Write(contentSum[:])
	return hex.EncodeToString(h.Sum(nil))
}
