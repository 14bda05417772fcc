// Basketlift - Retail Co-Purchase Recommendation Service
// Copyright 2026 Basketlift Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlift/basketlift

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/basketlift/basketlift/internal/logging"
)

// Response is the envelope every endpoint returns.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

// ErrorBody carries a machine-readable code plus a human-readable message.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// Meta carries tracing metadata.
type Meta struct {
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Error codes.
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
)

func writeJSON(w http.ResponseWriter, statusCode int, body Response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func writeSuccess(w http.ResponseWriter, r *http.Request, statusCode int, data any) {
	writeJSON(w, statusCode, Response{
		Success: true,
		Data:    data,
		Meta: &Meta{
			RequestID: logging.RequestIDFromContext(r.Context()),
			Timestamp: time.Now(),
		},
	})
}

func writeError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	writeJSON(w, statusCode, Response{
		Success: false,
		Error: &ErrorBody{
			Code:      code,
			Message:   message,
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
		Meta: &Meta{Timestamp: time.Now()},
	})
}
