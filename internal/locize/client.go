// Package locize implements a typed client for the locize CDN, replacing
// the vendor CLI the job used to shell out to.
package locize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/natefinch/atomic"
)

const DefaultEndpoint = "https://api.locize.app"

var (
	// ErrInvalidBundle indicates the downloaded body is not well-formed JSON.
	ErrInvalidBundle = errors.New("downloaded bundle is not valid JSON")
	// ErrEmptyBundle indicates the downloaded bundle holds no translations.
	ErrEmptyBundle = errors.New("downloaded bundle is empty")
)

// APIError is a non-2xx response from the CDN.
type APIError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("locize: %s fetching %s", e.Status, e.URL)
}

// Option overrides a default setting on a Client.
type Option func(*Client)

// Client downloads published translation bundles for one project.
type Client struct {
	endpoint  string
	projectID string
	apiKey    string
	version   string
	http      *resty.Client
}

// WithEndpoint overrides the CDN endpoint (used by tests and self-hosted
// installations).
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = strings.TrimRight(endpoint, "/")
		}
	}
}

// WithAPIKey sets the API key used to read private projects.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if key != "" {
			c.apiKey = key
		}
	}
}

// WithVersion pins a published version instead of "latest".
func WithVersion(version string) Option {
	return func(c *Client) {
		if version != "" {
			c.version = version
		}
	}
}

// New returns a Client for the given project with any overrides applied.
func New(projectID string, opts ...Option) *Client {
	c := &Client{
		endpoint:  DefaultEndpoint,
		projectID: projectID,
		version:   "latest",
		http:      resty.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Version returns the content version selector the client fetches.
func (c *Client) Version() string { return c.version }

// FetchNamespace downloads one (language, namespace) bundle and validates
// that it is well-formed, non-empty JSON. The per-attempt timeout is the
// caller's via ctx.
func (c *Client) FetchNamespace(ctx context.Context, language, namespace string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s/%s/%s/%s", c.endpoint, c.projectID, c.version, language, namespace)

	req := c.http.R().SetContext(ctx)
	if c.apiKey != "" {
		req.SetHeader("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := req.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s/%s: %w", language, namespace, err)
	}
	if resp.IsError() {
		return nil, &APIError{StatusCode: resp.StatusCode(), Status: resp.Status(), URL: url}
	}

	body := resp.Body()
	if err := validateBundle(body); err != nil {
		return nil, fmt.Errorf("validate %s/%s: %w", language, namespace, err)
	}
	return body, nil
}

// Download fetches one bundle and writes it to destPath atomically, so no
// partial or corrupt file is ever left behind on failure.
func (c *Client) Download(ctx context.Context, language, namespace, destPath string) error {
	data, err := c.FetchNamespace(ctx, language, namespace)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("mkdir %q: %w", filepath.Dir(destPath), err)
	}
	if err := atomic.WriteFile(destPath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %q: %w", destPath, err)
	}
	return nil
}

func validateBundle(data []byte) error {
	var bundle map[string]json.RawMessage
	if err := json.Unmarshal(data, &bundle); err != nil {
		return ErrInvalidBundle
	}
	if len(bundle) == 0 {
		return ErrEmptyBundle
	}
	return nil
}

// IsRetryable reports whether a fetch failure is worth another attempt.
// Every failure is, including per-attempt timeouts and invalid bundles,
// except cancellation of the run itself.
func IsRetryable(err error) bool {
	return !errors.Is(err, context.Canceled)
}
