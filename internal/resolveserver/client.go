// SPDX-License-Identifier: MPL-2.0

package resolveserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/refbridge/refbridge/pkg/resolution"
)

// Client talks to a resolution server.
type Client struct {
	addr   string
	token  AuthToken
	client *http.Client
}

// NewClientFromEnv creates a client from EnvAddr and EnvToken. It returns nil
// when either is unset.
func NewClientFromEnv() *Client {
	addr := os.Getenv(EnvAddr)
	token := os.Getenv(EnvToken)
	if addr == "" || token == "" {
		return nil
	}
	return NewClient(addr, AuthToken(token))
}

// NewClient creates a client for the server at addr, a base URL.
func NewClient(addr string, token AuthToken) *Client {
	return &Client{
		addr:  strings.TrimSuffix(addr, "/"),
		token: token,
		client: &http.Client{
			Timeout: time.Minute,
		},
	}
}

// IsAvailable checks the health endpoint.
func (c *Client) IsAvailable(ctx context.Context) bool {
	if c == nil {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.addr+PathHealth, http.NoBody)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Resolve asks where a module lives. A miss returns an error wrapping
// resolution.ErrResolutionMiss.
func (c *Client) Resolve(ctx context.Context, name string) (*ResolveResponse, error) {
	return c.resolve(ctx, ResolveRequest{Name: name})
}

// Load resolves and loads a module on the server, returning its declared
// types.
func (c *Client) Load(ctx context.Context, name string) (*ResolveResponse, error) {
	return c.resolve(ctx, ResolveRequest{Name: name, Load: true})
}

// Entries lists the server's resolution table.
func (c *Client) Entries(ctx context.Context) (*EntriesResponse, error) {
	var resp EntriesResponse
	status, err := c.do(ctx, http.MethodGet, PathEntries, nil, &resp)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("server error (%d)", status)
	}
	return &resp, nil
}

func (c *Client) resolve(ctx context.Context, req ResolveRequest) (*ResolveResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var resp ResolveResponse
	status, err := c.do(ctx, http.MethodPost, PathResolve, body, &resp)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		return &resp, nil
	case http.StatusNotFound:
		return nil, &resolution.MissError{Name: resolution.SimpleName(req.Name)}
	default:
		return nil, fmt.Errorf("server error (%d): %s", status, resp.Error)
	}
}

// do sends a request and decodes a JSON body into out. Non-2xx bodies are
// decoded too, so out carries the server's error message.
func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) (int, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.addr+path, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token.String())

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return resp.StatusCode, fmt.Errorf("server rejected the token: %w", ErrInvalidAuthToken)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to parse response (%d): %w", resp.StatusCode, err)
	}
	return resp.StatusCode, nil
}
