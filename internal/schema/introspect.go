// ABOUTME: GraphQL schema introspection client
// ABOUTME: Discovers operation names and argument metadata over HTTP with a depth-limited type walk
package schema

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	gojson "github.com/goccy/go-json"

	"github.com/gqlwire/gqlwire-go/internal/protocol"
)

// DefaultTypeDepth bounds the nested ofType expansion in the introspection
// query. Four levels resolve the common wrapper stacks (NonNull/List/NonNull/
// named); deeper schemas can raise it via Options.
const DefaultTypeDepth = 4

// Operation describes one root field of the schema.
type Operation struct {
	Name string
	Args []Arg
}

// Arg is one argument accepted by a root field.
type Arg struct {
	Name string
	Type string
}

// Schema holds the root operation sets discovered by introspection.
type Schema struct {
	Queries       map[string]Operation
	Mutations     map[string]Operation
	Subscriptions map[string]Operation
}

// Options tunes the introspection request.
type Options struct {
	// TypeDepth bounds the recursive ofType expansion; zero means
	// DefaultTypeDepth.
	TypeDepth int
}

// Introspect fetches the schema's root operations from an HTTP endpoint.
func Introspect(client *http.Client, endpoint string, headers map[string]string, opts Options) (*Schema, error) {
	depth := opts.TypeDepth
	if depth <= 0 {
		depth = DefaultTypeDepth
	}

	body, err := gojson.Marshal(protocol.Payload{Query: introspectionQuery(depth)})
	if err != nil {
		return nil, fmt.Errorf("introspect: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("introspect: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("introspect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("introspect: server returned %s", resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("introspect: read response: %w", err)
	}
	return parseSchema(raw)
}

// introspectionQuery renders the root-operation introspection document with
// the ofType chain expanded to the given depth.
func introspectionQuery(depth int) string {
	typeRef := "{ kind name"
	for i := 0; i < depth; i++ {
		typeRef += " ofType { kind name"
	}
	typeRef += strings.Repeat(" }", depth) + " }"

	fields := fmt.Sprintf("{ name args { name type %s } }", typeRef)
	return fmt.Sprintf(
		"query { __schema { "+
			"queryType { fields %s } "+
			"mutationType { fields %s } "+
			"subscriptionType { fields %s } } }",
		fields, fields, fields)
}

type rawTypeRef struct {
	Kind   string      `json:"kind"`
	Name   *string     `json:"name"`
	OfType *rawTypeRef `json:"ofType"`
}

// render flattens a wrapper chain back into GraphQL type syntax.
func (r *rawTypeRef) render() string {
	switch r.Kind {
	case "NON_NULL":
		if r.OfType == nil {
			return "!"
		}
		return r.OfType.render() + "!"
	case "LIST":
		if r.OfType == nil {
			return "[]"
		}
		return "[" + r.OfType.render() + "]"
	}
	if r.Name != nil {
		return *r.Name
	}
	return ""
}

type rawField struct {
	Name string `json:"name"`
	Args []struct {
		Name string     `json:"name"`
		Type rawTypeRef `json:"type"`
	} `json:"args"`
}

type rawRootType struct {
	Fields []rawField `json:"fields"`
}

func parseSchema(raw []byte) (*Schema, error) {
	var env protocol.Envelope
	if err := gojson.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("introspect: decode response: %w", err)
	}
	if env.HasErrors() {
		return nil, fmt.Errorf("introspect: %w", &protocol.ExecutionError{Errors: env.Errors})
	}
	if env.Data == nil {
		return nil, fmt.Errorf("introspect: response has no data")
	}

	var data struct {
		Schema struct {
			QueryType        *rawRootType `json:"queryType"`
			MutationType     *rawRootType `json:"mutationType"`
			SubscriptionType *rawRootType `json:"subscriptionType"`
		} `json:"__schema"`
	}
	if err := gojson.Unmarshal(*env.Data, &data); err != nil {
		return nil, fmt.Errorf("introspect: decode schema: %w", err)
	}

	s := &Schema{
		Queries:       opSet(data.Schema.QueryType),
		Mutations:     opSet(data.Schema.MutationType),
		Subscriptions: opSet(data.Schema.SubscriptionType),
	}
	return s, nil
}

func opSet(t *rawRootType) map[string]Operation {
	out := make(map[string]Operation)
	if t == nil {
		return out
	}
	for _, f := range t.Fields {
		op := Operation{Name: f.Name}
		for _, a := range f.Args {
			op.Args = append(op.Args, Arg{Name: a.Name, Type: a.Type.render()})
		}
		out[f.Name] = op
	}
	return out
}
