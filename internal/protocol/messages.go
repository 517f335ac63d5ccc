// ABOUTME: GraphQL-over-WebSocket wire message definitions
// ABOUTME: Defines frames, payloads, and response envelopes shared by both protocol variants
package protocol

import (
	"fmt"
	"strings"

	gojson "github.com/goccy/go-json"
)

// Frame is one decoded transport message. ID and Payload are optional on the
// wire; Type is always present and drawn from the active variant's vocabulary.
type Frame struct {
	ID      string            `json:"id,omitempty"`
	Type    string            `json:"type"`
	Payload gojson.RawMessage `json:"payload,omitempty"`
}

// Payload is the body of a subscribe/start frame and of a plain HTTP request.
type Payload struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// Location is a position in a GraphQL document reported alongside an error.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// GraphQLError is one entry of a response's "errors" list.
type GraphQLError struct {
	Message   string     `json:"message"`
	Locations []Location `json:"locations,omitempty"`
}

func (e GraphQLError) Error() string {
	return e.Message
}

// Envelope is a GraphQL execution result. Both fields are materialized even
// when the wire response omitted one: a missing "data" decodes to a nil
// pointer, a missing "errors" to a nil slice.
type Envelope struct {
	Data   *gojson.RawMessage `json:"data"`
	Errors []GraphQLError     `json:"errors"`
}

// HasErrors reports whether the server attached execution-level errors.
func (e *Envelope) HasErrors() bool {
	return len(e.Errors) > 0
}

// DecodeInto unmarshals the envelope's data into a caller-typed value.
func (e *Envelope) DecodeInto(v any) error {
	if e.Data == nil {
		return fmt.Errorf("envelope has no data")
	}
	if err := gojson.Unmarshal(*e.Data, v); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

// ExecutionError carries the execution-level errors from a data/next frame or
// a plain response. It is raised only when the caller opted in; by default
// envelopes with errors are handed to the caller unraised.
type ExecutionError struct {
	Errors []GraphQLError
}

func (e *ExecutionError) Error() string {
	if len(e.Errors) == 0 {
		return "graphql: execution error"
	}
	msgs := make([]string, len(e.Errors))
	for i, ge := range e.Errors {
		msgs[i] = ge.Message
	}
	return "graphql: " + strings.Join(msgs, "; ")
}

// DecodeFrame parses one raw text message into a Frame.
func DecodeFrame(raw []byte) (*Frame, error) {
	var f Frame
	if err := gojson.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	if f.Type == "" {
		return nil, fmt.Errorf("decode frame: missing type")
	}
	return &f, nil
}

// EncodeFrame serializes a frame for the wire.
func EncodeFrame(f *Frame) ([]byte, error) {
	raw, err := gojson.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return raw, nil
}

// Envelope parses the frame payload as an execution result. Data/next frames
// carry an envelope; other frame types do not.
func (f *Frame) Envelope() (*Envelope, error) {
	var env Envelope
	if len(f.Payload) > 0 {
		if err := gojson.Unmarshal(f.Payload, &env); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
	}
	return &env, nil
}

// ErrorList parses the frame payload as the "error" frame body. The standard
// variant sends a list of GraphQL errors, the legacy variant a single object;
// both shapes are accepted.
func (f *Frame) ErrorList() []GraphQLError {
	if len(f.Payload) == 0 {
		return nil
	}
	var list []GraphQLError
	if err := gojson.Unmarshal(f.Payload, &list); err == nil {
		return list
	}
	var one GraphQLError
	if err := gojson.Unmarshal(f.Payload, &one); err == nil && one.Message != "" {
		return []GraphQLError{one}
	}
	return []GraphQLError{{Message: string(f.Payload)}}
}
