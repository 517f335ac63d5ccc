// ABOUTME: Subscription engine entry point
// ABOUTME: Dials the stream socket, selects the protocol variant, and runs handshake plus pump
package subscription

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gqlwire/gqlwire-go/internal/protocol"
	"github.com/gqlwire/gqlwire-go/internal/version"
)

const (
	dialTimeout      = 10 * time.Second
	dialRetryCount   = 3
	dialRetryBackoff = 500 * time.Millisecond
)

// Options configures one Open call. Cancellation is purely cooperative:
// handler return value, stop predicate, or idle timeout.
type Options struct {
	// URL is the ws/wss stream endpoint.
	URL string
	// Headers are sent with the upgrade request.
	Headers map[string]string
	// Payload is the subscribe/start body.
	Payload *protocol.Payload
	// Handler receives each correlated execution result.
	Handler Handler
	// InitPayload, when set, rides on the connection_init frame.
	InitPayload any
	// InitFn runs exactly once, after connection_init is written and before
	// any ack is awaited, so a companion write cannot race past readiness.
	InitFn func() error
	// Retry redials the socket on transport failure during dial.
	Retry bool
	// IdleTimeout bounds each receive; zero disables. The window resets on
	// every received frame.
	IdleTimeout time.Duration
	// StopFn is polled between receives at StopPollInterval; once true the
	// call winds down cleanly.
	StopFn func() bool
	// StopPollInterval defaults to DefaultStopPollInterval.
	StopPollInterval time.Duration
	// RaiseExecutionErrors turns execution-level errors in a data frame into
	// a returned error instead of delivering them to the handler.
	RaiseExecutionErrors bool

	Logger   zerolog.Logger
	Registry *Registry
}

// Open runs one subscription to completion on the caller's goroutine: it
// owns exactly one socket, blocks until termination, cancellation, or error,
// and updates the registry on the way out.
func Open(opts Options) error {
	if opts.Handler == nil {
		return fmt.Errorf("subscription: nil handler")
	}
	reg := opts.Registry
	if reg == nil {
		reg = Default
	}

	rec := reg.Allocate()

	conn, err := dial(opts)
	if err != nil {
		reg.Mark(rec.ID, StatusError)
		return fmt.Errorf("dial stream endpoint: %w", err)
	}
	defer conn.Close()

	variant, known := protocol.SelectVariant(conn.Subprotocol())
	if !known {
		opts.Logger.Warn().
			Str("negotiated", conn.Subprotocol()).
			Msg("unrecognized subprotocol, assuming graphql-transport-ws")
	}
	rec.Variant = variant

	p := &pump{
		conn:            conn,
		variant:         variant,
		id:              rec.ID,
		payload:         opts.Payload,
		handler:         opts.Handler,
		idleTimeout:     opts.IdleTimeout,
		stopFn:          opts.StopFn,
		pollInterval:    opts.StopPollInterval,
		raiseExecErrors: opts.RaiseExecutionErrors,
		log:             opts.Logger.With().Str("subscription", rec.ID).Logger(),
	}

	if err := p.sendInit(opts.InitPayload); err != nil {
		reg.Mark(rec.ID, StatusError)
		return err
	}
	if opts.InitFn != nil {
		if err := opts.InitFn(); err != nil {
			reg.Mark(rec.ID, StatusError)
			return fmt.Errorf("init callback: %w", err)
		}
	}

	res, err := handshakeFor(variant).run(p)
	if err != nil {
		reg.Mark(rec.ID, StatusError)
		return err
	}
	if res == hsCancelled {
		// No subscribe frame went out; only the connection-scoped goodbye
		// applies.
		if variant == protocol.VariantLegacy {
			_ = p.send(protocol.TypeConnectionTerminate, "", nil)
		}
		reg.Mark(rec.ID, StatusClosed)
		return nil
	}

	if err := p.run(); err != nil {
		reg.Mark(rec.ID, StatusError)
		return err
	}

	p.sendTermination()
	reg.Mark(rec.ID, StatusClosed)
	return nil
}

func dial(opts Options) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: dialTimeout,
		Subprotocols:     []string{protocol.SubprotocolStandard, protocol.SubprotocolLegacy},
	}

	header := http.Header{}
	header.Set("User-Agent", version.Product+"/"+version.Version)
	for k, v := range opts.Headers {
		header.Set(k, v)
	}

	attempts := 1
	if opts.Retry {
		attempts = dialRetryCount
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			time.Sleep(time.Duration(i) * dialRetryBackoff)
			opts.Logger.Debug().Int("attempt", i+1).Str("url", opts.URL).Msg("redialing stream endpoint")
		}
		conn, resp, err := dialer.Dial(opts.URL, header)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
