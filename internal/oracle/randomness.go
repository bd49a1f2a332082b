package oracle

import (
	"fmt"
	"sort"
)

// State is the lifecycle state of a request's randomness.
type State uint8

const (
	// Unfulfilled requests are still collecting contributions.
	Unfulfilled State = iota
	// Fulfilled requests carry final randomness and never change again.
	Fulfilled
)

// String returns the state name.
func (s State) String() string {
	if s == Fulfilled {
		return "fulfilled"
	}
	return "unfulfilled"
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "unfulfilled":
		*s = Unfulfilled
	case "fulfilled":
		*s = Fulfilled
	default:
		return fmt.Errorf("unknown state %q", text)
	}
	return nil
}

// Contribution is one authority's signed share of a request's randomness.
type Contribution struct {
	Authority Identity `json:"authority"` // Authority is the contributing fulfillment authority
	Slot      uint32   `json:"slot"`      // Slot is the authority's index in the configured set
	Value     Bytes64  `json:"value"`     // Value is the authority's signature over the seed
}

// Randomness is a request together with the state of its randomness.
type Randomness struct {
	Seed          Seed           `json:"seed"`          // Seed is the request key
	Client        Identity       `json:"client"`        // Client is the requesting identity
	Num           uint64         `json:"num"`           // Num is the request sequence number
	State         State          `json:"state"`         // State is unfulfilled or fulfilled
	Value         Bytes64        `json:"randomness"`    // Value is the final randomness once fulfilled
	Contributions []Contribution `json:"contributions"` // Contributions are kept in slot order
}

// Keys returns the authorities that contributed, in slot order.
// For a fulfilled request this is the attestation record.
func (r *Randomness) Keys() []Identity {
	keys := make([]Identity, len(r.Contributions))
	for i, c := range r.Contributions {
		keys[i] = c.Authority
	}
	return keys
}

// HasContribution reports whether id already contributed.
func (r *Randomness) HasContribution(id Identity) bool {
	for _, c := range r.Contributions {
		if c.Authority == id {
			return true
		}
	}
	return false
}

// clone returns a deep copy safe to mutate.
func (r *Randomness) clone() *Randomness {
	next := *r
	next.Contributions = append([]Contribution(nil), r.Contributions...)
	return &next
}

// addContribution inserts c keeping slot order.
func (r *Randomness) addContribution(c Contribution) {
	r.Contributions = append(r.Contributions, c)
	sortBySlot(r.Contributions)
}

// String summarizes the request for logs.
func (r *Randomness) String() string {
	if r.State == Fulfilled {
		return fmt.Sprintf("no=%d seed=%s fulfilled randomness=%s", r.Num, r.Seed, r.Value)
	}
	return fmt.Sprintf("no=%d seed=%s unfulfilled contributions=%d", r.Num, r.Seed, len(r.Contributions))
}

func sortBySlot(cs []Contribution) {
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].Slot < cs[j].Slot })
}
