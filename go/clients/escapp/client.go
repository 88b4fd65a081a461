// Package escapp is the HTTP client for the authoritative escape-room
// platform. Every call is a JSON POST carrying the user's credentials; the
// platform answers with a response envelope that may embed a fresh ER state.
package escapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"

	"github.com/escapekit/escapekit/go/internal/state"
)

// CodeOK is the platform's success code.
const CodeOK = "OK"

// NetworkError wraps transport-level failures (timeouts, refused
// connections, 5xx after retries). These are the only recoverable errors:
// the caller surfaces a retry prompt instead of failing the operation.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network failure: %v", e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// IsNetworkError reports whether err is a transport-level failure.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// Envelope is the platform's response to every API call. Fields are
// populated depending on the endpoint.
type Envelope struct {
	Code           string                    `json:"code,omitempty"`
	Authentication bool                      `json:"authentication,omitempty"`
	Participation  state.ParticipationStatus `json:"participation,omitempty"`
	Token          string                    `json:"token,omitempty"`
	ErState        *state.Snapshot           `json:"erState,omitempty"`
	CorrectAnswer  *bool                     `json:"correctAnswer,omitempty"`
	Msg            string                    `json:"msg,omitempty"`
}

// Config holds remote client configuration.
type Config struct {
	// Endpoint is the room's API base URL, e.g. https://host/api/escapeRooms/42.
	Endpoint string
	// Locale is sent as Accept-Language on every request.
	Locale string
	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration
	// RetryMax bounds transport-level retries per call. The user-driven
	// retry prompt remains the outer recovery policy; this only smooths over
	// transient hiccups.
	RetryMax int
}

// DefaultConfig returns default remote client configuration.
func DefaultConfig() Config {
	return Config{
		Locale:   "en",
		Timeout:  30 * time.Second,
		RetryMax: 2,
	}
}

// Client performs authenticate / submit / check / start calls against the
// platform.
type Client struct {
	endpoint string
	locale   string
	http     *retryablehttp.Client
}

// NewClient creates a platform client.
func NewClient(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.Locale == "" {
		cfg.Locale = def.Locale
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.RetryMax == 0 {
		cfg.RetryMax = def.RetryMax
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.Logger = nil

	return &Client{
		endpoint: cfg.Endpoint,
		locale:   cfg.Locale,
		http:     rc,
	}
}

func (c *Client) post(ctx context.Context, path string, body any) (*Envelope, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", c.locale)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(resp.Body)
		return nil, &NetworkError{Err: fmt.Errorf("platform returned status %d: %s", resp.StatusCode, payload)}
	}

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("decode response: %w", err)}
	}

	log.Debug().Str("path", path).Str("code", env.Code).Msg("platform call completed")
	return &env, nil
}
