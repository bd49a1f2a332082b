package oracle

import "fmt"

// EventKind tags an entry of the event log.
type EventKind uint8

const (
	EventRequest  EventKind = iota + 1 // EventRequest records an accepted request
	EventResponse                      // EventResponse records one authority contribution
	EventFulfill                       // EventFulfill records final randomness
	EventReset                         // EventReset records cleared contributions
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventRequest:
		return "Request"
	case EventResponse:
		return "Response"
	case EventFulfill:
		return "Fulfill"
	case EventReset:
		return "Reset"
	default:
		return fmt.Sprintf("EventKind(%d)", uint8(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *EventKind) UnmarshalText(text []byte) error {
	for kind := EventRequest; kind <= EventReset; kind++ {
		if kind.String() == string(text) {
			*k = kind
			return nil
		}
	}

	return fmt.Errorf("unknown event kind %q", text)
}

// Event is an append-only fact emitted by a successful mutation.
// Fields not used by a kind are zero.
type Event struct {
	Index      uint64    `json:"index"`      // Index is the position in the event log
	Kind       EventKind `json:"kind"`       // Kind selects which fields are set
	Seed       Seed      `json:"seed"`       // Seed is set for every kind
	Client     Identity  `json:"client"`     // Client is set for Request
	Num        uint64    `json:"num"`        // Num is set for Request
	Authority  Identity  `json:"authority"`  // Authority is set for Response
	Randomness Bytes64   `json:"randomness"` // Randomness is set for Response and Fulfill
}

// String renders the event the way operators read it in logs.
func (e Event) String() string {
	switch e.Kind {
	case EventRequest:
		return fmt.Sprintf("Request: no=%d, seed=%s, client=%s", e.Num, e.Seed, e.Client)
	case EventResponse:
		return fmt.Sprintf("Response: seed=%s, authority=%s, randomness=%s", e.Seed, e.Authority, e.Randomness)
	case EventFulfill:
		return fmt.Sprintf("Fulfill: seed=%s, randomness=%s", e.Seed, e.Randomness)
	case EventReset:
		return fmt.Sprintf("Reset: seed=%s", e.Seed)
	default:
		return e.Kind.String()
	}
}
