// Package endpoint owns the mapping from normalized request paths to
// per-endpoint mock behavior, plus the process-wide default behavior
// applied to unconfigured paths.
package endpoint

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned when a behavior violates its invariant.
// Invalid behaviors are rejected and never stored.
var ErrInvalidConfig = errors.New("invalid endpoint config")

// DefaultResponseMessage is the response message synthesized for paths
// that have no explicit configuration.
const DefaultResponseMessage = "Default response"

// Behavior describes how a mock endpoint responds: the delay window,
// the probability of a simulated error, and the success response shape.
//
// Invariant: 0 <= MinDelayMs <= MaxDelayMs and 0.0 <= ErrorRate <= 1.0.
type Behavior struct {
	// MinDelayMs is the lower bound of the artificial delay, inclusive.
	MinDelayMs int `json:"minDelayMs" yaml:"minDelayMs"`

	// MaxDelayMs is the upper bound of the artificial delay, inclusive.
	MaxDelayMs int `json:"maxDelayMs" yaml:"maxDelayMs"`

	// ErrorRate is the probability in [0.0, 1.0] that a request to this
	// endpoint produces a simulated error.
	ErrorRate float64 `json:"errorRate" yaml:"errorRate"`

	// ResponseHeaders are attached to successful responses as actual
	// HTTP headers, not body fields.
	ResponseHeaders map[string]string `json:"responseHeaders,omitempty" yaml:"responseHeaders,omitempty"`

	// ResponseMessage is echoed in the success payload.
	ResponseMessage string `json:"responseMessage,omitempty" yaml:"responseMessage,omitempty"`
}

// Validate checks the behavior invariant. Violations are wrapped in
// ErrInvalidConfig.
func (b Behavior) Validate() error {
	if b.MinDelayMs < 0 {
		return fmt.Errorf("%w: minDelayMs must be non-negative", ErrInvalidConfig)
	}
	if b.MaxDelayMs < 0 {
		return fmt.Errorf("%w: maxDelayMs must be non-negative", ErrInvalidConfig)
	}
	if b.MinDelayMs > b.MaxDelayMs {
		return fmt.Errorf("%w: minDelayMs cannot exceed maxDelayMs", ErrInvalidConfig)
	}
	if b.ErrorRate < 0.0 || b.ErrorRate > 1.0 {
		return fmt.Errorf("%w: errorRate must be between 0.0 and 1.0", ErrInvalidConfig)
	}
	return nil
}

// Defaults is the process-wide default behavior for unconfigured paths.
// It is immutable once constructed; the registry replaces it wholesale.
type Defaults struct {
	MinDelayMs int     `json:"minDelayMs" yaml:"minDelayMs"`
	MaxDelayMs int     `json:"maxDelayMs" yaml:"maxDelayMs"`
	ErrorRate  float64 `json:"errorRate" yaml:"errorRate"`
}

// Validate checks the defaults invariant, same rules as Behavior.
func (d Defaults) Validate() error {
	return Behavior{
		MinDelayMs: d.MinDelayMs,
		MaxDelayMs: d.MaxDelayMs,
		ErrorRate:  d.ErrorRate,
	}.Validate()
}

// Behavior synthesizes a full endpoint behavior from the defaults, with
// the fixed default message and no response headers.
func (d Defaults) Behavior() Behavior {
	return Behavior{
		MinDelayMs:      d.MinDelayMs,
		MaxDelayMs:      d.MaxDelayMs,
		ErrorRate:       d.ErrorRate,
		ResponseHeaders: map[string]string{},
		ResponseMessage: DefaultResponseMessage,
	}
}
