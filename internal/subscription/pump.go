// ABOUTME: Message pump for an open subscription socket
// ABOUTME: Classifies inbound frames, validates correlation ids, and drives the handler
package subscription

import (
	"fmt"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gqlwire/gqlwire-go/internal/protocol"
)

// Handler consumes one execution result per delivered frame. Returning true
// ends the subscription; returning false keeps it open. Invocation is
// strictly synchronous: one frame in flight, receipt order, never concurrent.
type Handler func(*protocol.Envelope) bool

// pump owns one socket for the duration of one subscription call.
type pump struct {
	conn    *websocket.Conn
	variant protocol.Variant
	id      string
	payload *protocol.Payload
	handler Handler

	idleTimeout     time.Duration
	stopFn          func() bool
	pollInterval    time.Duration
	raiseExecErrors bool

	log zerolog.Logger
}

func (p *pump) recv() (*protocol.Frame, error) {
	_, raw, err := p.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return protocol.DecodeFrame(raw)
}

// read is one cancellation-aware receive; the watcher resets every call.
func (p *pump) read() readOutcome {
	return awaitFrame(p.recv, p.idleTimeout, p.stopFn, p.pollInterval)
}

func (p *pump) send(frameType, id string, payload any) error {
	f := &protocol.Frame{ID: id, Type: frameType}
	if payload != nil {
		raw, err := gojson.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s payload: %w", frameType, err)
		}
		f.Payload = raw
	}
	raw, err := protocol.EncodeFrame(f)
	if err != nil {
		return err
	}
	if err := p.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		return fmt.Errorf("send %s: %w", frameType, err)
	}
	return nil
}

func (p *pump) sendInit(initPayload any) error {
	return p.send(protocol.TypeConnectionInit, "", initPayload)
}

func (p *pump) sendSubscribe() error {
	return p.send(p.variant.SubscribeType(), p.id, p.payload)
}

func (p *pump) sendPong() error {
	return p.send(protocol.TypePong, "", nil)
}

// sendTermination writes the variant's close sequence. Best effort: the
// server may already have torn the socket down.
func (p *pump) sendTermination() {
	for _, ft := range p.variant.TerminationTypes() {
		id := ""
		if protocol.TerminationCarriesID(ft) {
			id = p.id
		}
		if err := p.send(ft, id, nil); err != nil {
			p.log.Debug().Err(err).Str("type", ft).Msg("termination frame not delivered")
			return
		}
	}
}

// run is the subscribed-state loop. A nil return is a clean exit (server
// complete, handler done, or cancellation sentinel); errors are fatal.
func (p *pump) run() error {
	for {
		out := p.read()
		if out.err != nil {
			return fmt.Errorf("receive: %w", out.err)
		}
		if out.sentinel != SentinelNone {
			p.log.Debug().Stringer("sentinel", out.sentinel).Str("id", p.id).Msg("subscription cancelled")
			return nil
		}

		f := out.frame
		// Frames correlated to a different subscription id are discarded
		// without touching state.
		if f.ID != "" && f.ID != p.id {
			p.log.Debug().Str("id", f.ID).Str("want", p.id).Msg("discarding frame for foreign id")
			continue
		}

		switch p.variant.Classify(f.Type) {
		case protocol.KindKeepAlive, protocol.KindPong:
			continue
		case protocol.KindPing:
			if err := p.sendPong(); err != nil {
				return err
			}
		case protocol.KindComplete:
			return nil
		case protocol.KindConnectionError:
			return fmt.Errorf("graphql: %s", connectionErrorReason(f))
		case protocol.KindError:
			return &protocol.ExecutionError{Errors: f.ErrorList()}
		case protocol.KindData:
			env, err := f.Envelope()
			if err != nil {
				return err
			}
			if env.HasErrors() && p.raiseExecErrors {
				return &protocol.ExecutionError{Errors: env.Errors}
			}
			if p.handler(env) {
				return nil
			}
		default:
			p.log.Warn().Str("type", f.Type).Msg("ignoring frame outside protocol vocabulary")
		}
	}
}
