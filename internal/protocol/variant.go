// ABOUTME: Protocol variant selection and per-variant message vocabularies
// ABOUTME: Maps negotiated subprotocol tokens to closed frame-type lookup tables
package protocol

// Subprotocol tokens offered during the WebSocket upgrade. The server's pick
// decides which handshake and vocabulary the engine runs.
const (
	SubprotocolLegacy   = "graphql-ws"
	SubprotocolStandard = "graphql-transport-ws"
)

// Variant identifies one of the two supported wire dialects.
type Variant int

const (
	VariantLegacy Variant = iota
	VariantStandard
)

func (v Variant) String() string {
	if v == VariantLegacy {
		return "legacy"
	}
	return "standard"
}

// Subprotocol returns the upgrade token the variant answers to.
func (v Variant) Subprotocol() string {
	if v == VariantLegacy {
		return SubprotocolLegacy
	}
	return SubprotocolStandard
}

// SelectVariant maps a negotiated subprotocol token to a variant. The second
// result is false for unrecognized tokens; callers degrade to the standard
// variant in that case.
func SelectVariant(negotiated string) (Variant, bool) {
	switch negotiated {
	case SubprotocolLegacy:
		return VariantLegacy, true
	case SubprotocolStandard:
		return VariantStandard, true
	}
	return VariantStandard, false
}

// Kind tags an inbound frame with its protocol-independent meaning.
type Kind int

const (
	KindUnknown Kind = iota
	KindConnectionAck
	KindConnectionError
	KindKeepAlive // legacy ka: ignored
	KindPing      // standard ping: requires an immediate pong
	KindPong
	KindData // legacy data, standard next
	KindError
	KindComplete
)

func (k Kind) String() string {
	switch k {
	case KindConnectionAck:
		return "connection_ack"
	case KindConnectionError:
		return "connection_error"
	case KindKeepAlive:
		return "keepalive"
	case KindPing:
		return "ping"
	case KindPong:
		return "pong"
	case KindData:
		return "data"
	case KindError:
		return "error"
	case KindComplete:
		return "complete"
	}
	return "unknown"
}

// Inbound vocabularies are closed: a type absent from the table classifies as
// KindUnknown rather than guessing across variants.
var legacyKinds = map[string]Kind{
	"connection_ack":   KindConnectionAck,
	"connection_error": KindConnectionError,
	"ka":               KindKeepAlive,
	"data":             KindData,
	"error":            KindError,
	"complete":         KindComplete,
}

var standardKinds = map[string]Kind{
	"connection_ack": KindConnectionAck,
	"ping":           KindPing,
	"pong":           KindPong,
	"next":           KindData,
	"error":          KindError,
	"complete":       KindComplete,
}

// Classify resolves a wire type string against the variant's vocabulary.
func (v Variant) Classify(frameType string) Kind {
	var k Kind
	var ok bool
	if v == VariantLegacy {
		k, ok = legacyKinds[frameType]
	} else {
		k, ok = standardKinds[frameType]
	}
	if !ok {
		return KindUnknown
	}
	return k
}

// Outbound type names. connection_init is shared; the subscribe request and
// the termination sequence differ per variant.
const (
	TypeConnectionInit      = "connection_init"
	TypeLegacyStart         = "start"
	TypeLegacyStop          = "stop"
	TypeConnectionTerminate = "connection_terminate"
	TypeStandardSubscribe   = "subscribe"
	TypeStandardComplete    = "complete"
	TypePong                = "pong"
)

// SubscribeType is the outbound frame type that opens a subscription.
func (v Variant) SubscribeType() string {
	if v == VariantLegacy {
		return TypeLegacyStart
	}
	return TypeStandardSubscribe
}

// TerminationTypes is the outbound sequence that closes a subscription: the
// legacy dialect pairs a stop with a connection_terminate, the standard one
// sends a single complete.
func (v Variant) TerminationTypes() []string {
	if v == VariantLegacy {
		return []string{TypeLegacyStop, TypeConnectionTerminate}
	}
	return []string{TypeStandardComplete}
}

// TerminationCarriesID reports whether a termination frame type carries the
// subscription id. connection_terminate is connection-scoped and sends none.
func TerminationCarriesID(frameType string) bool {
	return frameType != TypeConnectionTerminate
}
