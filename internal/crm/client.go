// Package crm creates contacts in a HighLevel (LeadConnector) sub-account.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://services.leadconnectorhq.com"
	APIVersion     = "2021-07-28"
	DefaultTimeout = 10 * time.Second
)

// ErrNotConfigured means the API token or location id is missing.
var ErrNotConfigured = errors.New("crm: credentials not configured")

// StatusError is a non-2xx response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("crm returned %d: %s", e.Status, e.Body)
}

type CustomField struct {
	Key   string `json:"key"`
	Value any    `json:"field_value"`
}

// ContactRequest is the body of POST /contacts/.
type ContactRequest struct {
	LocationID   string        `json:"locationId"`
	FirstName    string        `json:"firstName"`
	LastName     string        `json:"lastName,omitempty"`
	Email        string        `json:"email"`
	Phone        string        `json:"phone,omitempty"`
	CompanyName  string        `json:"companyName,omitempty"`
	Source       string        `json:"source,omitempty"`
	Tags         []string      `json:"tags,omitempty"`
	CustomFields []CustomField `json:"customFields,omitempty"`
}

type Client struct {
	BaseURL    string
	Token      string
	LocationID string
	HTTP       *http.Client
}

func New(baseURL, token, locationID string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		Token:      token,
		LocationID: locationID,
		HTTP:       &http.Client{Timeout: DefaultTimeout},
	}
}

// CreateContact creates (or upserts, server side) a contact and returns its id.
func (c *Client) CreateContact(ctx context.Context, in ContactRequest) (string, error) {
	if c.Token == "" || c.LocationID == "" {
		return "", ErrNotConfigured
	}
	in.LocationID = c.LocationID
	reqBody, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("marshal contact: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/contacts/", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("build crm request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Version", APIVersion)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("crm request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	var out struct {
		Contact struct {
			ID string `json:"id"`
		} `json:"contact"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode crm response: %w", err)
	}
	if out.Contact.ID == "" {
		return "", errors.New("crm response missing contact id")
	}
	return out.Contact.ID, nil
}
