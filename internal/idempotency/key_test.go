package idempotency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeriveKey(t *testing.T) {
	at := time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)
	body := []byte(`{"message":"Hello"}`)

	k := DeriveKey("contact", "Jane@Church.org", at, body)
	assert.Len(t, k, 64)
	assert.Equal(t, k, DeriveKey("contact", " jane@church.org ", at, body), "email is normalized")

	assert.NotEqual(t, k, DeriveKey("lead", "jane@church.org", at, body))
	assert.NotEqual(t, k, DeriveKey("contact", "john@church.org", at, body))
	assert.NotEqual(t, k, DeriveKey("contact", "jane@church.org", at.Add(time.Millisecond), body))
}

func TestDeriveKeySameMillisecondDistinctContent(t *testing.T) {
	at := time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)

	first := DeriveKey("lead", "jane@church.org", at, []byte(`{"type":"newsletter"}`))
	second := DeriveKey("lead", "jane@church.org", at, []byte(`{"type":"white_paper"}`))
	assert.NotEqual(t, first, second)

	retry := DeriveKey("lead", "jane@church.org", at, []byte(`{"type":"newsletter"}`))
	assert.Equal(t, first, retry)
}
