// Package atlas provides a client for the remote metadata catalog service.
package atlas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout is the maximum time to wait for catalog responses when
// no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Config holds connection settings for the catalog service.
type Config struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
}

// Client provides access to the catalog's entity and glossary APIs.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new catalog client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.Named("atlas"),
	}
}

// SearchByType runs a DSL search returning every entity of the given type
// (e.g. "hive_db").
func (c *Client) SearchByType(ctx context.Context, typeName string) (*SearchResult, error) {
	endpoint, err := c.buildURL([]string{"api", "atlas", "v2", "search", "dsl"},
		url.Values{"query": {"from " + typeName}})
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var result SearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	c.logger.Debug("Catalog search completed",
		zap.String("type", typeName),
		zap.Int("entities", len(result.Entities)))
	return &result, nil
}

// GetEntity fetches the full entity envelope for one guid.
func (c *Client) GetEntity(ctx context.Context, guid string) (*EntityResponse, error) {
	endpoint, err := c.buildURL([]string{"api", "atlas", "v2", "entity", "guid", guid}, nil)
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	return parseEntityResponse(body)
}

// GetEntityByQualifiedName fetches an entity by its unique qualified name.
func (c *Client) GetEntityByQualifiedName(ctx context.Context, typeName, qualifiedName string) (*EntityResponse, error) {
	endpoint, err := c.buildURL(
		[]string{"api", "atlas", "v2", "entity", "uniqueAttribute", "type", typeName},
		url.Values{"attr:qualifiedName": {qualifiedName}})
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	return parseEntityResponse(body)
}

// GetGlossaries fetches every glossary with its term headers.
func (c *Client) GetGlossaries(ctx context.Context) ([]Glossary, error) {
	endpoint, err := c.buildURL([]string{"api", "atlas", "v2", "glossary"}, nil)
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	// The glossary endpoint returns either an array or a single object.
	var glossaries []Glossary
	if err := json.Unmarshal(body, &glossaries); err == nil {
		return glossaries, nil
	}
	var single Glossary
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, fmt.Errorf("failed to parse glossary response: %w", err)
	}
	return []Glossary{single}, nil
}

func parseEntityResponse(body []byte) (*EntityResponse, error) {
	var resp EntityResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse entity response: %w", err)
	}

	// Some catalog endpoints return {"entities": [...]} instead of
	// {"entity": {...}}; take the first element in that case.
	if resp.Entity == nil {
		var alt struct {
			Entities []*Entity `json:"entities"`
		}
		if err := json.Unmarshal(body, &alt); err == nil && len(alt.Entities) > 0 {
			resp.Entity = alt.Entities[0]
		}
	}
	if resp.Entity == nil {
		return nil, &Error{StatusCode: http.StatusNotFound, Message: "entity not present in response"}
	}

	resp.Raw = json.RawMessage(body)
	return &resp, nil
}

// get executes an authenticated GET and returns the response body.
// Transport failures and non-2xx statuses are classified into *Error.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Catalog returned error",
			zap.String("url", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, &Error{
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	return body, nil
}

// buildURL constructs a URL by parsing the base and joining path segments.
func (c *Client) buildURL(pathSegments []string, query url.Values) (string, error) {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}

	segments := append([]string{u.Path}, pathSegments...)
	u.Path = path.Join(segments...)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	return u.String(), nil
}

// Error is a classified catalog request failure.
type Error struct {
	StatusCode int
	Message    string
	Timeout    bool
	Cause      error
}

func (e *Error) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("catalog request timed out: %v", e.Cause)
	case e.StatusCode > 0:
		return fmt.Sprintf("catalog returned status %d: %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("catalog request failed: %v", e.Cause)
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable implements the retry.RetryableError interface: timeouts and
// server-side errors are worth retrying, client errors are not.
func (e *Error) IsRetryable() bool {
	return e.Timeout || e.StatusCode >= 500
}

// IsNotFound reports whether the failure was a 404 from the catalog.
func (e *Error) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func classifyTransportError(err error) *Error {
	timeout := errors.Is(err, context.DeadlineExceeded)
	var netErr interface{ Timeout() bool }
	if !timeout && errors.As(err, &netErr) && netErr.Timeout() {
		timeout = true
	}
	return &Error{Timeout: timeout, Cause: err}
}
