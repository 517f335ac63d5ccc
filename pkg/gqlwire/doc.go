// ABOUTME: Package documentation for the public client API
// ABOUTME: Entry point covering execution, introspection, and subscriptions
// Package gqlwire is a GraphQL client with a WebSocket subscription engine.
//
// It discovers operations from server introspection, builds request payloads
// from argument trees, executes queries and mutations over HTTP, and keeps
// long-lived subscriptions running over either of the two common
// GraphQL-over-WebSocket dialects (graphql-ws and graphql-transport-ws),
// chosen from the negotiated subprotocol.
//
// Example:
//
//	client := gqlwire.NewClient(gqlwire.Config{
//	    Endpoint: "https://api.example.com/graphql",
//	})
//	err := client.Connect()
//
//	env, err := client.Query("user", map[string]any{"id": 1}, gqlwire.Fields("name"))
//
//	err = client.Subscribe("userUpdated", func(env *gqlwire.Envelope) bool {
//	    var update UserUpdate
//	    env.DecodeInto(&update)
//	    return update.Final // true ends the subscription
//	}, gqlwire.SubscribeOptions{
//	    IdleTimeout: 30 * time.Second,
//	})
//
// Subscribe blocks on the caller's goroutine and owns exactly one socket for
// its lifetime. Cancellation is cooperative: the handler's return value, a
// polled stop predicate, or an idle timeout, all of which end the call
// cleanly with a nil error.
package gqlwire
