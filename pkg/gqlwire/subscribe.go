// ABOUTME: Blocking subscription entry point
// ABOUTME: Validates the operation, builds the payload, and hands off to the engine
package gqlwire

import (
	"time"

	"github.com/gqlwire/gqlwire-go/internal/payload"
	"github.com/gqlwire/gqlwire-go/internal/subscription"
)

// SubscribeOptions tunes one Subscribe call. The zero value is usable:
// socket redial on, no idle timeout, no stop predicate, execution errors
// delivered to the handler.
type SubscribeOptions struct {
	// Args is the operation's argument tree.
	Args map[string]any

	// OutputFields is the selection set requested per frame.
	OutputFields []Field

	// InitPayload, when set, rides on the connection_init frame (commonly
	// auth parameters).
	InitPayload any

	// InitFn runs exactly once, after connection_init is written and before
	// the ack is awaited. Use it for a companion write whose resulting
	// frames must not be missed.
	InitFn func() error

	// DisableRetry turns off redialing the socket on dial failure.
	DisableRetry bool

	// IdleTimeout ends the subscription cleanly when no frame arrives
	// within the window; the window resets on every frame. Zero disables.
	IdleTimeout time.Duration

	// StopFn is polled between frames; once true the subscription winds
	// down cleanly. Takes precedence over IdleTimeout.
	StopFn func() bool

	// StopPollInterval is the StopFn poll period (default 2s).
	StopPollInterval time.Duration

	// RaiseExecutionErrors returns execution-level errors from Subscribe
	// instead of delivering them inside the handler's envelope.
	RaiseExecutionErrors bool
}

// Subscribe opens one subscription and blocks on the caller's goroutine
// until the server completes it, the handler returns true, a stop predicate
// or idle timeout fires, or a transport/protocol failure occurs. Cancellation
// outcomes are not errors: Subscribe returns nil for them.
//
// The operation name must be known before any I/O happens: call Connect
// first or seed Config.Subscriptions.
func (c *Client) Subscribe(name string, handler Handler, opts SubscribeOptions) error {
	if handler == nil {
		return &UsageError{Op: "subscribe " + name, Reason: "nil handler"}
	}
	if !c.knownSubscription(name) {
		return &UsageError{
			Op:     "subscribe " + name,
			Reason: "unknown subscription operation (connect first or seed Config.Subscriptions)",
		}
	}

	p, err := payload.Build(payload.Subscription, name, opts.Args, opts.OutputFields)
	if err != nil {
		return err
	}

	return subscription.Open(subscription.Options{
		URL:                  c.config.StreamEndpoint,
		Headers:              c.config.Headers,
		Payload:              p,
		Handler:              subscription.Handler(handler),
		InitPayload:          opts.InitPayload,
		InitFn:               opts.InitFn,
		Retry:                !opts.DisableRetry,
		IdleTimeout:          opts.IdleTimeout,
		StopFn:               opts.StopFn,
		StopPollInterval:     opts.StopPollInterval,
		RaiseExecutionErrors: opts.RaiseExecutionErrors,
		Logger:               c.log,
		Registry:             c.registry,
	})
}
