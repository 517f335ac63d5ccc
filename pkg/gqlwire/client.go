// ABOUTME: High-level GraphQL client API
// ABOUTME: Wires introspection, plain execution, and the subscription engine behind one Client
package gqlwire

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gqlwire/gqlwire-go/internal/schema"
	"github.com/gqlwire/gqlwire-go/internal/subscription"
)

// Config holds client configuration
type Config struct {
	// Endpoint is the HTTP endpoint for queries, mutations, and introspection.
	Endpoint string

	// StreamEndpoint is the WebSocket endpoint for subscriptions. Derived
	// from Endpoint (http -> ws) when empty.
	StreamEndpoint string

	// Headers are sent with every HTTP request and with the socket upgrade.
	Headers map[string]string

	// HTTPClient overrides the default HTTP client (30s timeout).
	HTTPClient *http.Client

	// Logger receives engine diagnostics. Nil disables logging.
	Logger *zerolog.Logger

	// Registry overrides the process-wide subscription registry.
	Registry *subscription.Registry

	// TypeDepth bounds the introspection type walk; zero keeps the default.
	TypeDepth int

	// Subscriptions seeds the known subscription operations, for servers
	// that do not answer introspection. Connect overwrites the seed.
	Subscriptions []string
}

// Client talks to one GraphQL endpoint pair.
type Client struct {
	config   Config
	http     *http.Client
	log      zerolog.Logger
	registry *subscription.Registry

	mu     sync.RWMutex
	schema *schema.Schema
}

// NewClient creates a client with the given configuration. Call Connect to
// discover the server's operations, or seed Config.Subscriptions.
func NewClient(config Config) *Client {
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if config.StreamEndpoint == "" {
		config.StreamEndpoint = deriveStreamEndpoint(config.Endpoint)
	}
	log := zerolog.Nop()
	if config.Logger != nil {
		log = *config.Logger
	}
	registry := config.Registry
	if registry == nil {
		registry = subscription.Default
	}

	c := &Client{
		config:   config,
		http:     config.HTTPClient,
		log:      log,
		registry: registry,
	}
	if len(config.Subscriptions) > 0 {
		seeded := &schema.Schema{
			Queries:       map[string]schema.Operation{},
			Mutations:     map[string]schema.Operation{},
			Subscriptions: map[string]schema.Operation{},
		}
		for _, name := range config.Subscriptions {
			seeded.Subscriptions[name] = schema.Operation{Name: name}
		}
		c.schema = seeded
	}
	return c
}

// Connect introspects the server and fills the client's operation sets.
func (c *Client) Connect() error {
	s, err := schema.Introspect(c.http, c.config.Endpoint, c.config.Headers, schema.Options{
		TypeDepth: c.config.TypeDepth,
	})
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	c.mu.Lock()
	c.schema = s
	c.mu.Unlock()

	c.log.Debug().
		Int("queries", len(s.Queries)).
		Int("mutations", len(s.Mutations)).
		Int("subscriptions", len(s.Subscriptions)).
		Msg("schema loaded")
	return nil
}

// Subscriptions lists the known subscription operation names.
func (c *Client) Subscriptions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.schema == nil {
		return nil
	}
	names := make([]string, 0, len(c.schema.Subscriptions))
	for name := range c.schema.Subscriptions {
		names = append(names, name)
	}
	return names
}

// ClearSubscriptions removes all tracked subscriptions from the registry.
// It fails, leaving the registry untouched, while any subscription is still
// open; use it for leak detection on bulk teardown.
func (c *Client) ClearSubscriptions() error {
	return c.registry.Clear()
}

func (c *Client) knownSubscription(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.schema == nil {
		return false
	}
	_, ok := c.schema.Subscriptions[name]
	return ok
}

func deriveStreamEndpoint(endpoint string) string {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return "wss://" + strings.TrimPrefix(endpoint, "https://")
	case strings.HasPrefix(endpoint, "http://"):
		return "ws://" + strings.TrimPrefix(endpoint, "http://")
	}
	return endpoint
}
