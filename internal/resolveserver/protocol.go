// SPDX-License-Identifier: MPL-2.0

package resolveserver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/refbridge/refbridge/pkg/resolution"
)

// Environment variables a host reads to reach the server.
const (
	// EnvAddr holds the server URL, e.g. "http://127.0.0.1:54321".
	EnvAddr = "REFBRIDGE_RESOLVER_ADDR"

	// EnvToken holds the bearer token.
	//nolint:gosec // G101: This is an env var name, not a hardcoded credential
	EnvToken = "REFBRIDGE_RESOLVER_TOKEN"
)

// Endpoints.
const (
	PathResolve = "/v1/resolve"
	PathEntries = "/v1/entries"
	PathHealth  = "/health"
	PathMetrics = "/metrics"
)

// ErrInvalidAuthToken is the sentinel error wrapped by InvalidAuthTokenError.
var ErrInvalidAuthToken = errors.New("invalid auth token")

type (
	// AuthToken authenticates requests. A valid token is non-blank.
	AuthToken string

	// InvalidAuthTokenError is returned for a blank token.
	InvalidAuthTokenError struct {
		Value AuthToken
	}

	// ResolveRequest asks for one module.
	ResolveRequest struct {
		// Name is a simple or display name.
		Name string `json:"name"`
		// Load also reads the module and returns its declared types.
		Load bool `json:"load,omitempty"`
	}

	// ResolveResponse answers a ResolveRequest.
	ResolveResponse struct {
		Name          string   `json:"name"`
		Path          string   `json:"path,omitempty"`
		ProjectOutput bool     `json:"project_output,omitempty"`
		Module        string   `json:"module,omitempty"`
		Types         []string `json:"types,omitempty"`
		Error         string   `json:"error,omitempty"`
	}

	// EntriesResponse lists the resolution table.
	EntriesResponse struct {
		Entries []resolution.Entry `json:"entries"`
		Frozen  bool               `json:"frozen"`
	}

	// ErrorResponse is the body of every non-2xx answer.
	ErrorResponse struct {
		Error string `json:"error"`
	}
)

// String returns the token.
func (t AuthToken) String() string { return string(t) }

// Validate returns nil for a non-blank token.
func (t AuthToken) Validate() error {
	if strings.TrimSpace(string(t)) == "" {
		return &InvalidAuthTokenError{Value: t}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidAuthTokenError) Error() string {
	return fmt.Sprintf("invalid auth token %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidAuthToken for errors.Is() compatibility.
func (e *InvalidAuthTokenError) Unwrap() error { return ErrInvalidAuthToken }
