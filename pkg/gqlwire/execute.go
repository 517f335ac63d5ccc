// ABOUTME: Plain request/response execution over HTTP
// ABOUTME: Builds payloads, posts them, and decodes response envelopes
package gqlwire

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	gojson "github.com/goccy/go-json"

	"github.com/gqlwire/gqlwire-go/internal/payload"
	"github.com/gqlwire/gqlwire-go/internal/protocol"
)

// Query executes one query operation and returns its envelope. The error is
// non-nil for transport failures and for responses that carry errors without
// any data; partial results come back with a nil error, leaving the errors
// on the envelope.
func (c *Client) Query(name string, args map[string]any, fields []Field) (*Envelope, error) {
	return c.execute(payload.Query, name, args, fields)
}

// Mutate executes one mutation operation. Error semantics match Query.
func (c *Client) Mutate(name string, args map[string]any, fields []Field) (*Envelope, error) {
	return c.execute(payload.Mutation, name, args, fields)
}

func (c *Client) execute(op payload.OpType, name string, args map[string]any, fields []Field) (*Envelope, error) {
	p, err := payload.Build(op, name, args, fields)
	if err != nil {
		return nil, err
	}

	body, err := gojson.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("execute %s: server returned %s", name, resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("execute %s: read response: %w", name, err)
	}

	var env Envelope
	if err := gojson.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("execute %s: decode response: %w", name, err)
	}
	if env.Data == nil && env.HasErrors() {
		return &env, &protocol.ExecutionError{Errors: env.Errors}
	}
	return &env, nil
}
