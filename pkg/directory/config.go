// Package directory is a client for the remote person directory that backs
// the patient list. The endpoint and its schema are owned upstream; this
// package only reads from it.
package directory

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Default endpoint settings.
const (
	DefaultBaseURL = "https://dummyjson.com"
	DefaultPath    = "/users"
	DefaultLimit   = 50
	DefaultTimeout = 15 * time.Second

	// MaxLimit is the largest page the client will ever ask for.
	MaxLimit = 100
)

// Config holds all configuration for the directory client.
type Config struct {
	// BaseURL is the scheme and host of the directory service.
	BaseURL string

	// Path is the collection path appended to BaseURL.
	Path string

	// Limit bounds the number of records requested.
	Limit int

	// Timeout is the HTTP client timeout for each request.
	Timeout time.Duration
}

// DefaultConfig returns a Config pointing at the public directory.
func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Path:    DefaultPath,
		Limit:   DefaultLimit,
		Timeout: DefaultTimeout,
	}
}

// Endpoint resolves the full collection URL, including the limit parameter.
func (c Config) Endpoint() (string, error) {
	base, err := url.Parse(strings.TrimRight(c.BaseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("base url %q must be absolute", c.BaseURL)
	}

	path := c.Path
	if path == "" {
		path = DefaultPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	base.Path += path

	limit := c.Limit
	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}
	q := base.Query()
	q.Set("limit", strconv.Itoa(limit))
	base.RawQuery = q.Encode()

	return base.String(), nil
}
