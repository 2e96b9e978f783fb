package catapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gallery/internal/domain"
)

const (
	DefaultBaseURL = "https://api.thecatapi.com/v1"
	defaultTimeout = 30 * time.Second
	userAgent      = "Gallery/1.0"
	maxErrorBody   = 4 << 10
)

// Client implements domain.CatalogClient for The Cat API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default http.Client
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient creates a new Cat API client
func NewClient(baseURL, apiKey string, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListPage returns one page of images in service order
func (c *Client) ListPage(ctx context.Context, limit, offset int) ([]domain.Item, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	body, err := c.doRequest(ctx, http.MethodGet, "/images/search", query)
	if err != nil {
		return nil, err
	}

	var images []Image
	if err := json.Unmarshal(body, &images); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return nil, domain.WrapFetchError(domain.FailureMalformed, "malformed response", err)
	}

	items, err := MapImages(images)
	if err != nil {
		return nil, domain.WrapFetchError(domain.FailureMalformed, "malformed response", err)
	}
	return items, nil
}

// GetByID returns a single image
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Item, error) {
	if id == "" {
		return nil, domain.NewFetchError(domain.FailureNotFound, 0, "empty item id")
	}

	body, err := c.doRequest(ctx, http.MethodGet, "/images/"+url.PathEscape(id), nil)
	if err != nil {
		var fe *domain.FetchError
		if errors.As(err, &fe) && fe.Kind == domain.FailureRejected && fe.Status == http.StatusNotFound {
			return nil, domain.NewFetchError(domain.FailureNotFound, http.StatusNotFound, "item "+id+" not found")
		}
		return nil, err
	}

	var img Image
	if err := json.Unmarshal(body, &img); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return nil, domain.WrapFetchError(domain.FailureMalformed, "malformed response", err)
	}

	item, err := MapImage(img)
	if err != nil {
		return nil, domain.WrapFetchError(domain.FailureMalformed, "malformed response", err)
	}
	return &item, nil
}

// doRequest performs an authenticated HTTP request and classifies failures
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values) ([]byte, error) {
	if c.apiKey == "" {
		return nil, domain.NewFetchError(domain.FailureUnauthorized, 0, "missing api key")
	}

	reqURL := c.baseURL + path
	if query != nil {
		reqURL = fmt.Sprintf("%s?%s", reqURL, query.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("catalog request", "method", method, "url", reqURL, "requestID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("catalog request failed", "error", err, "requestID", requestID)
		return nil, domain.WrapFetchError(domain.FailureTransient, "catalog service is unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Error("catalog request error", "status", resp.StatusCode, "body", string(detail), "requestID", requestID)
		return nil, statusError(resp.StatusCode, detail)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.WrapFetchError(domain.FailureTransient, "response interrupted", err)
	}
	return body, nil
}

// statusError maps a non-success status to a FetchError
func statusError(status int, body []byte) *domain.FetchError {
	reason := fmt.Sprintf("status %d", status)
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil && eb.Message != "" {
		reason = fmt.Sprintf("status %d: %s", status, eb.Message)
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &domain.FetchError{Kind: domain.FailureUnauthorized, Status: status, Reason: reason, Err: domain.ErrAuthFailed}
	default:
		return &domain.FetchError{Kind: domain.FailureRejected, Status: status, Reason: reason, Err: domain.ErrRejected}
	}
}
