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

// StatusReport is the payload of GET /api/v1/status.
type StatusReport struct {
	View   WorldView `json:"view"`
	Paused bool      `json:"paused"`
}
