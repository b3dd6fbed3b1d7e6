// Package prophet is the HTTP client for the Prophet forecasting backend.
// The backend owns all statistical work; this package only moves data and
// normalizes the backend's wire format.
package prophet

import (
	"fmt"

	"github.com/ForesightHQ/foresight-go/internal/domain/forecast"
)

// GenerateRequest is the payload for a forecast run. Dates and values are
// the mapped columns of the session's current preview.
type GenerateRequest struct {
	Dates  []string         `json:"dates"`
	Values []float64        `json:"values"`
	Config *forecast.Config `json:"config"`
}

// ValidateRequest asks the backend to check a mapped series before running.
type ValidateRequest struct {
	Dates  []string  `json:"dates"`
	Values []float64 `json:"values"`
}

// ValidateResponse reports series-level problems found by the backend.
type ValidateResponse struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
	RowCount int      `json:"rowCount"`
}

// ProcessRequest is the payload for a cleaning or transformation step.
type ProcessRequest struct {
	Columns   []string       `json:"columns"`
	Rows      [][]string     `json:"rows"`
	Operation string         `json:"operation"`
	Options   map[string]any `json:"options,omitempty"`
}

// ProcessResponse carries the replacement rows plus the backend's report of
// what changed.
type ProcessResponse struct {
	Rows   [][]string     `json:"rows"`
	Report map[string]any `json:"report"`
}

// BackendError is a failure reported by the backend, either as a non-2xx
// status or as a success=false body, preserving the backend's own message
// where one was provided. StatusCode is zero for body-level failures.
type BackendError struct {
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("prophet backend returned %d: %s", e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("prophet backend returned %d", e.StatusCode)
	case e.Message != "":
		return fmt.Sprintf("prophet backend reported failure: %s", e.Message)
	default:
		return "prophet backend reported failure"
	}
}
