// ABOUTME: GraphQL request payload builder
// ABOUTME: Renders operation documents and variable maps from argument trees
package payload

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gqlwire/gqlwire-go/internal/protocol"
)

// OpType selects the GraphQL operation keyword.
type OpType int

const (
	Query OpType = iota
	Mutation
	Subscription
)

func (o OpType) String() string {
	switch o {
	case Mutation:
		return "mutation"
	case Subscription:
		return "subscription"
	}
	return "query"
}

// Field is one entry of a selection set, optionally nested.
type Field struct {
	Name string
	Of   []Field
}

// Fields is a convenience constructor for a flat selection set.
func Fields(names ...string) []Field {
	out := make([]Field, len(names))
	for i, n := range names {
		out[i] = Field{Name: n}
	}
	return out
}

// Build renders one operation into a wire payload. Every leaf argument value
// becomes a typed GraphQL variable, including leaves nested inside input
// objects; nested names that repeat are deduplicated with numeric suffixes.
// Argument iteration is sorted so output is deterministic.
func Build(op OpType, name string, args map[string]any, fields []Field) (*protocol.Payload, error) {
	if name == "" {
		return nil, fmt.Errorf("build payload: empty operation name")
	}

	b := &builder{
		namer:     newNamer(),
		variables: make(map[string]any),
	}
	callArgs, err := b.renderArgs(args)
	if err != nil {
		return nil, fmt.Errorf("build payload: %w", err)
	}

	var doc strings.Builder
	doc.WriteString(op.String())
	if len(b.defs) > 0 {
		doc.WriteString("(")
		doc.WriteString(strings.Join(b.defs, ", "))
		doc.WriteString(")")
	}
	doc.WriteString(" { ")
	doc.WriteString(name)
	if callArgs != "" {
		doc.WriteString("(")
		doc.WriteString(callArgs)
		doc.WriteString(")")
	}
	if len(fields) > 0 {
		doc.WriteString(" ")
		doc.WriteString(renderSelection(fields))
	}
	doc.WriteString(" }")

	p := &protocol.Payload{Query: doc.String()}
	if len(b.variables) > 0 {
		p.Variables = b.variables
	}
	return p, nil
}

type builder struct {
	namer     *namer
	defs      []string
	variables map[string]any
}

// renderArgs renders one argument map as "name: value, ..." with leaves
// hoisted to variables.
func (b *builder) renderArgs(args map[string]any) (string, error) {
	parts := make([]string, 0, len(args))
	for _, argName := range sortedKeys(args) {
		rendered, err := b.renderValue(argName, args[argName])
		if err != nil {
			return "", fmt.Errorf("argument %s: %w", argName, err)
		}
		parts = append(parts, fmt.Sprintf("%s: %s", argName, rendered))
	}
	return strings.Join(parts, ", "), nil
}

func (b *builder) renderValue(argName string, v any) (string, error) {
	switch t := v.(type) {
	case map[string]any:
		inner, err := b.renderArgs(t)
		if err != nil {
			return "", err
		}
		return "{" + inner + "}", nil
	case []map[string]any:
		parts := make([]string, len(t))
		for i, e := range t {
			inner, err := b.renderArgs(e)
			if err != nil {
				return "", err
			}
			parts[i] = "{" + inner + "}"
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	default:
		typ, err := inferType(v)
		if err != nil {
			return "", err
		}
		varName := b.namer.claim(argName)
		b.defs = append(b.defs, fmt.Sprintf("$%s: %s", varName, typ))
		b.variables[varName] = v
		return "$" + varName, nil
	}
}

// namer hands out variable names, suffixing duplicates so that nested
// arguments sharing a name never collide in the variable map.
type namer struct {
	used map[string]int
}

func newNamer() *namer {
	return &namer{used: make(map[string]int)}
}

func (n *namer) claim(base string) string {
	count := n.used[base]
	n.used[base] = count + 1
	if count == 0 {
		return base
	}
	return fmt.Sprintf("%s%d", base, count+1)
}

func renderSelection(fields []Field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		if len(f.Of) > 0 {
			parts[i] = f.Name + " " + renderSelection(f.Of)
		} else {
			parts[i] = f.Name
		}
	}
	return "{ " + strings.Join(parts, " ") + " }"
}

// inferType maps a Go value to a GraphQL variable type. Values are concrete
// at build time, so scalars are non-null.
func inferType(v any) (string, error) {
	switch t := v.(type) {
	case bool:
		return "Boolean!", nil
	case int, int32, int64:
		return "Int!", nil
	case float32, float64:
		return "Float!", nil
	case string:
		return "String!", nil
	case []any:
		if len(t) == 0 {
			return "", fmt.Errorf("cannot infer element type of empty list")
		}
		inner, err := inferType(t[0])
		if err != nil {
			return "", err
		}
		return "[" + inner + "]!", nil
	case []string:
		return "[String!]!", nil
	case []int:
		return "[Int!]!", nil
	case []float64:
		return "[Float!]!", nil
	case nil:
		return "", fmt.Errorf("cannot infer type of nil")
	}
	return "", fmt.Errorf("unsupported argument type %T", v)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
