// Package wishapi is a thin client for the Wishlist Santa HTTP API.
//
// It maps each logical operation onto one HTTP request against <base>/api and
// attaches the session cookie automatically. It does not retry, cache or
// deduplicate anything, and sets no timeout of its own.
package wishapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/wishbot/internal/metrics"
	"github.com/Kerhoff/wishbot/internal/models"
)

const apiPrefix = "/api"

// Client talks to the Wishlist API on behalf of one session. Each Client owns
// its own cookie jar, so one Client must never be shared between chats.
type Client struct {
	root   *url.URL
	http   *http.Client
	logger *logrus.Logger
}

// New creates a client for the API served at baseURL (scheme and host, e.g.
// http://localhost:5000).
func New(baseURL string, logger *logrus.Logger) (*Client, error) {
	root, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}
	if root.Scheme == "" || root.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q: scheme and host are required", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		root:   root,
		http:   &http.Client{Jar: jar},
		logger: logger,
	}, nil
}

// Cookies returns the session cookies currently held for the API host.
func (c *Client) Cookies() []models.SessionCookie {
	var out []models.SessionCookie
	for _, ck := range c.http.Jar.Cookies(c.cookieURL()) {
		out = append(out, models.SessionCookie{Name: ck.Name, Value: ck.Value})
	}
	return out
}

// SetCookies restores previously saved session cookies.
func (c *Client) SetCookies(cookies []models.SessionCookie) {
	if len(cookies) == 0 {
		return
	}
	jarCookies := make([]*http.Cookie, 0, len(cookies))
	for _, ck := range cookies {
		jarCookies = append(jarCookies, &http.Cookie{Name: ck.Name, Value: ck.Value, Path: "/"})
	}
	c.http.Jar.SetCookies(c.cookieURL(), jarCookies)
}

// ClearCookies drops every cookie held for the API host.
func (c *Client) ClearCookies() {
	u := c.cookieURL()
	var expired []*http.Cookie
	for _, ck := range c.http.Jar.Cookies(u) {
		expired = append(expired, &http.Cookie{Name: ck.Name, Path: "/", MaxAge: -1})
	}
	if len(expired) > 0 {
		c.http.Jar.SetCookies(u, expired)
	}
}

func (c *Client) cookieURL() *url.URL {
	return &url.URL{Scheme: c.root.Scheme, Host: c.root.Host, Path: "/"}
}

// do performs one API call. body, when not nil, is sent as JSON; out, when
// not nil, receives the decoded success payload.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := c.root.String() + apiPrefix + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := c.logger.WithFields(logrus.Fields{
		"operation":  op,
		"method":     method,
		"path":       path,
		"request_id": requestID,
	})

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveAPIRequest(op, metrics.OutcomeTransport, time.Since(start))
		log.WithError(err).Warn("API request failed")
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveAPIRequest(op, metrics.OutcomeTransport, time.Since(start))
		return fmt.Errorf("%s: failed to read response: %w", op, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		metrics.ObserveAPIRequest(op, metrics.OutcomeAPIError, time.Since(start))
		apiErr := decodeError(op, resp.StatusCode, raw)
		log.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"error":  apiErr.Message,
		}).Warn("API returned an error")
		return apiErr
	}

	metrics.ObserveAPIRequest(op, metrics.OutcomeOK, time.Since(start))
	log.WithField("status", resp.StatusCode).Debug("API request completed")

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}

func decodeError(op string, status int, raw []byte) *APIError {
	var body struct {
		Error string `json:"error"`
	}
	apiErr := &APIError{Operation: op, Status: status}
	if err := json.Unmarshal(raw, &body); err == nil {
		apiErr.Message = body.Error
	}
	return apiErr
}

// APIError is a non-2xx response from the API. Message is the server's
// "error" field and is empty when the body had any other shape.
type APIError struct {
	Operation string
	Status    int
	Message   string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Operation, e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Operation, e.Status, e.Message)
}

// ErrorMessage returns the server-provided error text carried by err, or
// fallback when there is none (transport failures, unexpected bodies).
func ErrorMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// IsUnauthorized reports whether err is a 401 from the API
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}
