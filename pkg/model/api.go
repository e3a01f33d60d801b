package model

import "time"

// Response is the standard API response envelope.
type Response struct {
	Status    string    `json:"status"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Error     *APIError `json:"error"`
}

// StatusOK and StatusError are the two values of Response.Status.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// IsError reports whether the envelope carries an error.
func (r *Response) IsError() bool {
	return r.Status == StatusError && r.Error != nil
}
