package data

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout        = 60 * time.Second
	defaultHTTPConnectTimeout = 5 * time.Second
	defaultHTTPTLSTimeout     = 5 * time.Second
)

// SessionCookie is the name of the Cosense session cookie.
const SessionCookie = "connect.sid"

// APIError is a non-2xx response from the REST API.
type APIError struct {
	Status  int
	Name    string
	Message string
}

func (e *APIError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s (%d): %s", e.Name, e.Status, e.Message)
	}
	return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
}

// NewHTTPClient returns an http.Client with bounded dial, TLS and overall timeouts.
func NewHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout: defaultHTTPConnectTimeout,
	}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: defaultHTTPTLSTimeout,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   defaultHTTPTimeout,
	}
}

// Client issues authenticated GET requests against a Cosense host.
type Client struct {
	http *http.Client
	host string
	sid  string
}

// NewClient creates a Client for host (e.g. "https://scrapbox.io"). An empty
// sid sends anonymous requests.
func NewClient(httpClient *http.Client, host, sid string) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient()
	}
	return &Client{
		http: httpClient,
		host: strings.TrimRight(host, "/"),
		sid:  sid,
	}
}

// Host returns the base URL the client talks to.
func (c *Client) Host() string { return c.host }

// SID returns the session id sent with each request.
func (c *Client) SID() string { return c.sid }

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.sid != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: c.sid})
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to request %s: %w", path, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("failed to read response of %s: %w", path, err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		apiErr := &APIError{Status: res.StatusCode, Message: strings.TrimSpace(string(body))}
		var payload struct {
			Name    string `json:"name"`
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &payload) == nil && payload.Name != "" {
			apiErr.Name = payload.Name
			apiErr.Message = payload.Message
		}
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response of %s: %w", path, err)
	}
	return nil
}

// EncodeTitle turns a page title into its URL path segment.
func EncodeTitle(title string) string {
	return url.PathEscape(strings.ReplaceAll(title, " ", "_"))
}
