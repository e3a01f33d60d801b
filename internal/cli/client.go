package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/me/asilo/pkg/model"
)

// Client is an HTTP client for the Asilo API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// NewClient creates an Asilo API client.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{},
		Logger:     logger,
	}
}

// apiResponse is the parsed envelope with the payload left undecoded.
type apiResponse struct {
	model.Response
	Data json.RawMessage `json:"data"`
}

// Get performs a GET request and returns the parsed envelope. An error
// envelope is returned as its *model.APIError.
func (c *Client) Get(ctx context.Context, path string) (*apiResponse, error) {
	endpoint := c.BaseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.Logger.Debug("HTTP request", "method", req.Method, "url", endpoint)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.Logger.Debug("HTTP response", "status", resp.StatusCode, "bytes", len(respBody))

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("parse response (status %d): %w", resp.StatusCode, err)
	}

	if apiResp.IsError() {
		return &apiResp, apiResp.Error
	}

	return &apiResp, nil
}

// ListPatients fetches the patient list filtered by query.
func (c *Client) ListPatients(ctx context.Context, query string) (model.PatientList, error) {
	path := "/api/v1/patients"
	if query != "" {
		path += "?q=" + url.QueryEscape(query)
	}

	resp, err := c.Get(ctx, path)
	if err != nil {
		return model.PatientList{}, err
	}

	var list model.PatientList
	if err := json.Unmarshal(resp.Data, &list); err != nil {
		return model.PatientList{}, fmt.Errorf("parse patients: %w", err)
	}
	return list, nil
}
