// ABOUTME: Tests for the public client API
// ABOUTME: Covers execution round-trips, operation validation, and subscription wiring
package gqlwire

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/gqlwire/gqlwire-go/internal/protocol"
	"github.com/gqlwire/gqlwire-go/internal/subscription"
)

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(Config{Endpoint: "https://api.example.com/graphql"})
	if client.config.StreamEndpoint != "wss://api.example.com/graphql" {
		t.Errorf("expected derived wss endpoint, got %s", client.config.StreamEndpoint)
	}
	if client.http == nil {
		t.Fatal("expected default HTTP client")
	}

	client = NewClient(Config{Endpoint: "http://localhost:8080/graphql"})
	if client.config.StreamEndpoint != "ws://localhost:8080/graphql" {
		t.Errorf("expected derived ws endpoint, got %s", client.config.StreamEndpoint)
	}
}

func TestQueryRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p protocol.Payload
		if err := gojson.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decode request failed: %v", err)
		}
		if !strings.Contains(p.Query, "user(id: $id)") {
			t.Errorf("unexpected query document: %s", p.Query)
		}
		if p.Variables["id"] != float64(1) {
			t.Errorf("unexpected variables: %v", p.Variables)
		}
		w.Write([]byte(`{"data":{"user":{"name":"ada"}}}`))
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL, HTTPClient: server.Client()})
	env, err := client.Query("user", map[string]any{"id": 1}, Fields("name"))
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	var out struct {
		User struct {
			Name string `json:"name"`
		} `json:"user"`
	}
	if err := env.DecodeInto(&out); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if out.User.Name != "ada" {
		t.Errorf("expected name ada, got %s", out.User.Name)
	}
}

func TestQueryTotalFailureRaises(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":null,"errors":[{"message":"no such field"}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL, HTTPClient: server.Client()})
	env, err := client.Query("nope", nil, nil)

	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected ExecutionError, got %v", err)
	}
	if env == nil || !env.HasErrors() {
		t.Error("expected envelope with errors alongside the error")
	}
}

func TestQueryPartialResultNotRaised(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"user":null},"errors":[{"message":"resolver timeout"}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL, HTTPClient: server.Client()})
	env, err := client.Query("user", nil, nil)
	if err != nil {
		t.Fatalf("partial result raised: %v", err)
	}
	if !env.HasErrors() {
		t.Error("expected errors preserved on envelope")
	}
}

func TestSubscribeUnknownNameFailsFast(t *testing.T) {
	client := NewClient(Config{
		Endpoint:      "http://127.0.0.1:1/graphql", // unreachable: no I/O may happen
		Subscriptions: []string{"heartbeat"},
	})

	err := client.Subscribe("unknownOp", func(*Envelope) bool { return true }, SubscribeOptions{})

	var usage *UsageError
	if !errors.As(err, &usage) {
		t.Fatalf("expected UsageError, got %v", err)
	}
}

func TestSubscribeNilHandler(t *testing.T) {
	client := NewClient(Config{Subscriptions: []string{"heartbeat"}})
	err := client.Subscribe("heartbeat", nil, SubscribeOptions{})

	var usage *UsageError
	if !errors.As(err, &usage) {
		t.Fatalf("expected UsageError, got %v", err)
	}
}

// TestSubscribeRoundTrip checks the full path: the payload built by the
// client is echoed back by the stub server, and the same data content
// reaches the handler.
func TestSubscribeRoundTrip(t *testing.T) {
	upgrader := websocket.Upgrader{Subprotocols: []string{protocol.SubprotocolStandard}}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		read := func() *protocol.Frame {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				t.Errorf("server read failed: %v", err)
				return &protocol.Frame{}
			}
			f, err := protocol.DecodeFrame(raw)
			if err != nil {
				t.Errorf("server decode failed: %v", err)
				return &protocol.Frame{}
			}
			return f
		}
		write := func(f *protocol.Frame) {
			raw, _ := protocol.EncodeFrame(f)
			if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				t.Errorf("server write failed: %v", err)
			}
		}

		if f := read(); f.Type != "connection_init" {
			t.Errorf("expected connection_init, got %s", f.Type)
		}
		write(&protocol.Frame{Type: "connection_ack"})

		sub := read()
		if sub.Type != "subscribe" {
			t.Errorf("expected subscribe, got %s", sub.Type)
		}

		// Echo the subscribe payload's variables back as the data content.
		var p protocol.Payload
		if err := gojson.Unmarshal(sub.Payload, &p); err != nil {
			t.Errorf("server payload decode failed: %v", err)
		}
		echo, _ := gojson.Marshal(map[string]any{"data": map[string]any{"echo": p.Variables}})
		write(&protocol.Frame{ID: sub.ID, Type: "next", Payload: echo})

		if f := read(); f.Type != "complete" {
			t.Errorf("expected complete, got %s", f.Type)
		}
	}))
	defer server.Close()

	client := NewClient(Config{
		Endpoint:      server.URL,
		Subscriptions: []string{"tick"},
		Registry:      subscription.NewRegistry(),
	})

	var got map[string]any
	err := client.Subscribe("tick", func(env *Envelope) bool {
		var out struct {
			Echo map[string]any `json:"echo"`
		}
		if err := env.DecodeInto(&out); err != nil {
			t.Errorf("decode failed: %v", err)
		}
		got = out.Echo
		return true
	}, SubscribeOptions{
		Args:         map[string]any{"interval": 5},
		OutputFields: Fields("value"),
	})
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	if got["interval"] != float64(5) {
		t.Errorf("expected echoed variables, got %v", got)
	}
}

func TestClearSubscriptions(t *testing.T) {
	reg := subscription.NewRegistry()
	client := NewClient(Config{Registry: reg})

	if err := client.ClearSubscriptions(); err != nil {
		t.Errorf("clearing empty registry failed: %v", err)
	}

	rec := reg.Allocate()
	if err := client.ClearSubscriptions(); err == nil {
		t.Error("expected clear to fail with open subscription")
	}
	reg.Mark(rec.ID, subscription.StatusClosed)
	if err := client.ClearSubscriptions(); err != nil {
		t.Errorf("clear failed after close: %v", err)
	}
}
