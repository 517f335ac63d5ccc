// ABOUTME: Handshake state machines for both protocol variants
// ABOUTME: Drives init/ack sequencing before a subscribe request may be sent
package subscription

import (
	"fmt"

	"github.com/gqlwire/gqlwire-go/internal/protocol"
)

// HandshakeError is a fatal protocol violation during connection setup: an
// unexpected reply to connection_init, or a connection error while raising
// is enabled.
type HandshakeError struct {
	Variant   protocol.Variant
	FrameType string
	Reason    string
}

func (e *HandshakeError) Error() string {
	if e.FrameType != "" {
		return fmt.Sprintf("handshake (%s): %s (frame type %q)", e.Variant, e.Reason, e.FrameType)
	}
	return fmt.Sprintf("handshake (%s): %s", e.Variant, e.Reason)
}

// handshakeResult distinguishes a completed handshake from one abandoned by
// a cancellation sentinel. Fatal outcomes travel as errors.
type handshakeResult int

const (
	hsSubscribed handshakeResult = iota
	hsCancelled
)

// handshake drives one variant's init sequence on a pump. On hsSubscribed the
// subscribe/start frame has been written and the pump may enter its loop.
type handshake interface {
	run(p *pump) (handshakeResult, error)
}

func handshakeFor(v protocol.Variant) handshake {
	if v == protocol.VariantLegacy {
		return legacyHandshake{}
	}
	return standardHandshake{}
}

// legacyHandshake: the server may send any number of keepalives before the
// first substantive reply. A connection error is fatal only when the caller
// opted into raising execution errors; any other non-keepalive reply means
// the server is ready and the start frame goes out.
type legacyHandshake struct{}

func (legacyHandshake) run(p *pump) (handshakeResult, error) {
	for {
		out := p.read()
		if out.err != nil {
			return 0, fmt.Errorf("handshake receive: %w", out.err)
		}
		if out.sentinel != SentinelNone {
			p.log.Debug().Stringer("sentinel", out.sentinel).Msg("handshake cancelled")
			return hsCancelled, nil
		}

		switch p.variant.Classify(out.frame.Type) {
		case protocol.KindKeepAlive:
			continue
		case protocol.KindConnectionError:
			if p.raiseExecErrors {
				return 0, &HandshakeError{
					Variant:   p.variant,
					FrameType: out.frame.Type,
					Reason:    connectionErrorReason(out.frame),
				}
			}
		}
		// First non-keepalive reply: the connection is usable.
		if err := p.sendSubscribe(); err != nil {
			return 0, err
		}
		return hsSubscribed, nil
	}
}

// standardHandshake: the only acceptable reply to connection_init is
// connection_ack. Pings are answered immediately and do not advance the
// state machine.
type standardHandshake struct{}

func (standardHandshake) run(p *pump) (handshakeResult, error) {
	for {
		out := p.read()
		if out.err != nil {
			return 0, fmt.Errorf("handshake receive: %w", out.err)
		}
		if out.sentinel != SentinelNone {
			p.log.Debug().Stringer("sentinel", out.sentinel).Msg("handshake cancelled")
			return hsCancelled, nil
		}

		switch p.variant.Classify(out.frame.Type) {
		case protocol.KindPing:
			if err := p.sendPong(); err != nil {
				return 0, err
			}
		case protocol.KindConnectionAck:
			if err := p.sendSubscribe(); err != nil {
				return 0, err
			}
			return hsSubscribed, nil
		default:
			return 0, &HandshakeError{
				Variant:   p.variant,
				FrameType: out.frame.Type,
				Reason:    "expected connection_ack",
			}
		}
	}
}

func connectionErrorReason(f *protocol.Frame) string {
	if len(f.Payload) == 0 {
		return "server rejected connection"
	}
	return "server rejected connection: " + string(f.Payload)
}
