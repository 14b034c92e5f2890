package transporthttp

import (
	"encoding/json"
	"net/http"
)

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type successBody struct {
	Success   bool   `json:"success"`
	ContactID string `json:"contactId,omitempty"`
}

// Client-facing messages. Internal reasons stay in the logs.
const (
	msgUnsupportedMedia = "Content-Type must be application/json"
	msgTooLarge         = "Request body too large"
	msgForbidden        = "Forbidden"
	msgTooManyRequests  = "Too many requests. Please try again later."
	msgInvalidJSON      = "Invalid JSON in request body"
	msgBotCheckFailed   = "reCAPTCHA verification failed"
	msgTimeout          = "Request timed out"
	msgInternal         = "Internal server error"
	msgUnauthorized     = "Unauthorized"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes {"success":false,"error":msg}.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, errorBody{Error: msg})
}
