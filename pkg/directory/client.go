package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/me/asilo/pkg/model"
)

// maxErrorBody bounds how much of a failed response body is kept for logs.
const maxErrorBody = 512

// Client reads the patient collection from the directory service.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     *slog.Logger
}

// NewClient creates a directory client with the given configuration.
func NewClient(config Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		config: config,
		logger: logger.With("component", "directory-client"),
	}
}

// Endpoint returns the resolved collection URL, or "" if the configuration
// is invalid.
func (c *Client) Endpoint() string {
	u, err := c.config.Endpoint()
	if err != nil {
		return ""
	}
	return u
}

// usersPage is the upstream response shape. A missing "users" field decodes
// to a nil slice.
type usersPage struct {
	Users []model.Patient `json:"users"`
	Total int             `json:"total"`
	Skip  int             `json:"skip"`
	Limit int             `json:"limit"`
}

// ListPatients fetches one bounded page of patients. It never retries; a
// cancelled ctx yields an error for which IsCancelled reports true.
func (c *Client) ListPatients(ctx context.Context) ([]model.Patient, error) {
	const op = "ListPatients"

	endpoint, err := c.config.Endpoint()
	if err != nil {
		return nil, WrapError(op, err)
	}
	logger := c.logger.With("url", endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, WrapError(op, fmt.Errorf("creating HTTP request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	logger.Debug("sending request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, WrapError(op, c.contextErr(ctx, fmt.Errorf("HTTP request failed: %w", err)))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, WrapError(op, &HTTPError{StatusCode: resp.StatusCode, Body: string(body)})
	}

	var page usersPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, WrapError(op, c.contextErr(ctx, fmt.Errorf("decoding response: %w", err)))
	}

	if page.Users == nil {
		logger.Debug("response has no users field")
		return []model.Patient{}, nil
	}

	logger.Debug("request successful", "count", len(page.Users), "total", page.Total)
	return page.Users, nil
}

// contextErr prefers the context's own error once it is done, so that a
// body read interrupted by cancellation is reported as a cancellation.
func (c *Client) contextErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w (%v)", ctxErr, err)
	}
	return err
}
