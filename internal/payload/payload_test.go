// ABOUTME: Tests for the request payload builder
// ABOUTME: Covers document rendering, variable hoisting, and name collision avoidance
package payload

import (
	"testing"
)

func TestBuildSimpleQuery(t *testing.T) {
	p, err := Build(Query, "user", map[string]any{"id": 7}, Fields("name", "email"))
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	want := "query($id: Int!) { user(id: $id) { name email } }"
	if p.Query != want {
		t.Errorf("expected query %q, got %q", want, p.Query)
	}
	if p.Variables["id"] != 7 {
		t.Errorf("expected variable id=7, got %v", p.Variables["id"])
	}
}

func TestBuildNoArgsNoFields(t *testing.T) {
	p, err := Build(Subscription, "heartbeat", nil, nil)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	want := "subscription { heartbeat }"
	if p.Query != want {
		t.Errorf("expected query %q, got %q", want, p.Query)
	}
	if p.Variables != nil {
		t.Errorf("expected no variables, got %v", p.Variables)
	}
}

func TestBuildNestedSelection(t *testing.T) {
	fields := []Field{
		{Name: "id"},
		{Name: "author", Of: Fields("name", "handle")},
	}
	p, err := Build(Subscription, "postAdded", nil, fields)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	want := "subscription { postAdded { id author { name handle } } }"
	if p.Query != want {
		t.Errorf("expected query %q, got %q", want, p.Query)
	}
}

func TestBuildVariableCollision(t *testing.T) {
	// "limit" appears at the top level and inside the filter object; the
	// second occurrence must get a suffixed variable name.
	args := map[string]any{
		"filter": map[string]any{"limit": 5},
		"limit":  10,
	}
	p, err := Build(Query, "items", args, Fields("id"))
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	want := "query($limit: Int!, $limit2: Int!) { items(filter: {limit: $limit}, limit: $limit2) { id } }"
	if p.Query != want {
		t.Errorf("expected query %q, got %q", want, p.Query)
	}
	if p.Variables["limit"] != 5 {
		t.Errorf("expected limit=5, got %v", p.Variables["limit"])
	}
	if p.Variables["limit2"] != 10 {
		t.Errorf("expected limit2=10, got %v", p.Variables["limit2"])
	}
}

func TestBuildTypeInference(t *testing.T) {
	args := map[string]any{
		"active": true,
		"score":  1.5,
		"tags":   []string{"a", "b"},
		"title":  "hello",
	}
	p, err := Build(Mutation, "update", args, nil)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	want := "mutation($active: Boolean!, $score: Float!, $tags: [String!]!, $title: String!) " +
		"{ update(active: $active, score: $score, tags: $tags, title: $title) }"
	if p.Query != want {
		t.Errorf("expected query %q, got %q", want, p.Query)
	}
}

func TestBuildRejectsNilArgument(t *testing.T) {
	if _, err := Build(Query, "user", map[string]any{"id": nil}, nil); err == nil {
		t.Error("expected error for nil argument value")
	}
}

func TestBuildRejectsEmptyName(t *testing.T) {
	if _, err := Build(Query, "", nil, nil); err == nil {
		t.Error("expected error for empty operation name")
	}
}
