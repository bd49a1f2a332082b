package oracle

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFulfillSingleAuthorityScenario(t *testing.T) {
	f := newFixture(t, 1)
	auth := f.authorities[0]
	seed := seedOf(0x01)

	if num := f.request(t, seed); num != 0 {
		t.Fatalf("sequence = %d, want 0", num)
	}

	rec, err := f.l.Fulfill(auth.id, seed, auth.sign(seed))
	if err != nil {
		t.Fatalf("fulfill: %v", err)
	}

	if rec.State != Fulfilled {
		t.Fatalf("state = %v, want fulfilled", rec.State)
	}

	want := Combine(seed, []Bytes64{auth.sign(seed)})
	if rec.Value != want {
		t.Errorf("randomness = %s, want %s", rec.Value, want)
	}

	if diff := cmp.Diff([]Identity{auth.id}, rec.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}

	_, err = f.l.Fulfill(auth.id, seed, auth.sign(seed))
	if !errors.Is(err, ErrFulfilled) {
		t.Fatalf("second fulfill: got %v, want ErrFulfilled", err)
	}
}

func TestFulfillUnknownRequest(t *testing.T) {
	f := newFixture(t, 1)
	auth := f.authorities[0]

	_, err := f.l.Fulfill(auth.id, seedOf(7), auth.sign(seedOf(7)))
	if !errors.Is(err, ErrUnknownRequest) {
		t.Fatalf("got %v, want ErrUnknownRequest", err)
	}
}

func TestFulfillNotConfiguredAuthority(t *testing.T) {
	f := newFixture(t, 1)
	seed := seedOf(1)
	f.request(t, seed)

	outsider := newTestAuthority(t)

	_, err := f.l.Fulfill(outsider.id, seed, outsider.sign(seed))
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("got %v, want ErrNotAuthorized", err)
	}
}

func TestFulfillInvalidSignature(t *testing.T) {
	f := newFixture(t, 1)
	auth := f.authorities[0]
	seed := seedOf(1)
	f.request(t, seed)

	// Signed over the wrong seed.
	_, err := f.l.Fulfill(auth.id, seed, auth.sign(seedOf(2)))
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("wrong message: got %v, want ErrInvalidResponse", err)
	}

	// Signed by another key.
	other := newTestAuthority(t)
	_, err = f.l.Fulfill(auth.id, seed, other.sign(seed))
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("wrong key: got %v, want ErrInvalidResponse", err)
	}

	rec, _ := f.l.GetRequestBySeed(seed)
	if len(rec.Contributions) != 0 {
		t.Errorf("rejected responses recorded: %d", len(rec.Contributions))
	}
}

func TestFulfillContractIdentityNeverVerifies(t *testing.T) {
	f := newFixture(t, 1)
	seed := seedOf(1)
	f.request(t, seed)

	auth := f.authorities[0]
	contract := ContractID(auth.id.Value)

	_, err := f.l.Fulfill(contract, seed, auth.sign(seed))
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("got %v, want ErrInvalidResponse", err)
	}
}

func TestFulfillMultipleAuthorities(t *testing.T) {
	f := newFixture(t, 3)
	seed := seedOf(1)
	f.request(t, seed)

	// Contribute out of slot order.
	order := []int{2, 0}
	for _, i := range order {
		a := f.authorities[i]

		rec, err := f.l.Fulfill(a.id, seed, a.sign(seed))
		if err != nil {
			t.Fatalf("fulfill by slot %d: %v", i, err)
		}

		if rec.State != Unfulfilled {
			t.Fatalf("fulfilled after slot %d with %d contributions", i, len(rec.Contributions))
		}
	}

	// The same authority cannot contribute twice.
	dup := f.authorities[2]
	if _, err := f.l.Fulfill(dup.id, seed, dup.sign(seed)); !errors.Is(err, ErrResponded) {
		t.Fatalf("duplicate response: got %v, want ErrResponded", err)
	}

	pending, _ := f.l.GetRequestBySeed(seed)
	if pending.Contributions[0].Slot != 0 || pending.Contributions[1].Slot != 2 {
		t.Errorf("contributions not in slot order: %+v", pending.Contributions)
	}

	last := f.authorities[1]
	rec, err := f.l.Fulfill(last.id, seed, last.sign(seed))
	if err != nil {
		t.Fatalf("final fulfill: %v", err)
	}

	if rec.State != Fulfilled {
		t.Fatal("request should be fulfilled once every authority responded")
	}

	values := make([]Bytes64, len(f.authorities))
	keys := make([]Identity, len(f.authorities))
	for i, a := range f.authorities {
		values[i] = a.sign(seed)
		keys[i] = a.id
	}

	if rec.Value != Combine(seed, values) {
		t.Error("randomness does not combine contributions in slot order")
	}

	if diff := cmp.Diff(keys, rec.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}

	for _, a := range f.authorities {
		if _, err := f.l.Fulfill(a.id, seed, a.sign(seed)); !errors.Is(err, ErrFulfilled) {
			t.Errorf("fulfill after completion: got %v, want ErrFulfilled", err)
		}
	}
}

func TestFulfillEmitsEvents(t *testing.T) {
	f := newFixture(t, 1)
	auth := f.authorities[0]
	seed := seedOf(3)
	num := f.request(t, seed)

	rec, err := f.l.Fulfill(auth.id, seed, auth.sign(seed))
	if err != nil {
		t.Fatalf("fulfill: %v", err)
	}

	events, err := f.l.GetEvents(0, 10)
	if err != nil {
		t.Fatalf("GetEvents: %v", err)
	}

	want := []Event{
		{Index: 0, Kind: EventRequest, Seed: seed, Client: client(), Num: num},
		{Index: 1, Kind: EventResponse, Seed: seed, Authority: auth.id, Randomness: auth.sign(seed)},
		{Index: 2, Kind: EventFulfill, Seed: seed, Randomness: rec.Value},
	}

	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestReset(t *testing.T) {
	f := newFixture(t, 2)
	seed := seedOf(1)
	f.request(t, seed)

	a := f.authorities[0]
	if _, err := f.l.Fulfill(a.id, seed, a.sign(seed)); err != nil {
		t.Fatalf("fulfill: %v", err)
	}

	if err := f.l.Reset(client(), seed); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("reset by non-authority: got %v, want ErrNotAuthorized", err)
	}

	if err := f.l.Reset(f.owner, seedOf(9)); !errors.Is(err, ErrUnknownRequest) {
		t.Fatalf("reset unknown: got %v, want ErrUnknownRequest", err)
	}

	// Nothing to clear: no commit, no event.
	f.request(t, seedOf(2))
	events, rev := f.l.GetNumEvents(), f.l.Revision()

	if err := f.l.Reset(f.owner, seedOf(2)); err != nil {
		t.Fatalf("reset unanswered: %v", err)
	}

	if f.l.GetNumEvents() != events || f.l.Revision() != rev {
		t.Error("reset of an unanswered request was committed")
	}

	if err := f.l.Reset(f.owner, seed); err != nil {
		t.Fatalf("reset: %v", err)
	}

	rec, _ := f.l.GetRequestBySeed(seed)
	if len(rec.Contributions) != 0 || rec.State != Unfulfilled {
		t.Fatalf("reset left %d contributions, state %v", len(rec.Contributions), rec.State)
	}

	// The same authority may respond again after a reset.
	for _, a := range f.authorities {
		if _, err := f.l.Fulfill(a.id, seed, a.sign(seed)); err != nil {
			t.Fatalf("fulfill after reset: %v", err)
		}
	}

	if err := f.l.Reset(f.owner, seed); !errors.Is(err, ErrFulfilled) {
		t.Fatalf("reset fulfilled: got %v, want ErrFulfilled", err)
	}

	events, _ := f.l.GetEvents(0, MaxPageSize)
	resets := 0
	for _, e := range events {
		if e.Kind == EventReset {
			resets++
		}
	}

	if resets != 1 {
		t.Errorf("reset events = %d, want 1", resets)
	}
}

func TestFulfillAfterAuthoritySetChange(t *testing.T) {
	f := newFixture(t, 2)
	seed := seedOf(1)
	f.request(t, seed)

	stale := f.authorities[0]
	if _, err := f.l.Fulfill(stale.id, seed, stale.sign(seed)); err != nil {
		t.Fatalf("fulfill: %v", err)
	}

	// Swap the first authority for a new one.
	fresh := newTestAuthority(t)
	kept := f.authorities[1]
	if err := f.l.Configure(f.owner, f.owner, 100, []Identity{fresh.id, kept.id}); err != nil {
		t.Fatalf("reconfigure: %v", err)
	}

	if _, err := f.l.Fulfill(kept.id, seed, kept.sign(seed)); err != nil {
		t.Fatalf("fulfill kept: %v", err)
	}

	rec, err := f.l.Fulfill(fresh.id, seed, fresh.sign(seed))
	if err != nil {
		t.Fatalf("fulfill fresh: %v", err)
	}

	if rec.State != Fulfilled {
		t.Fatal("request should be fulfilled by the current set")
	}

	if diff := cmp.Diff([]Identity{fresh.id, kept.id}, rec.Keys()); diff != "" {
		t.Errorf("stale contribution kept (-want +got):\n%s", diff)
	}
}

func TestShrinkingAuthoritySetCompletesPending(t *testing.T) {
	f := newFixture(t, 2)
	kept, dropped := f.authorities[0], f.authorities[1]

	done, pending := seedOf(1), seedOf(2)
	f.request(t, done)
	f.request(t, pending)

	if _, err := f.l.Fulfill(kept.id, done, kept.sign(done)); err != nil {
		t.Fatalf("fulfill: %v", err)
	}

	// Only the dropped authority answered this one.
	if _, err := f.l.Fulfill(dropped.id, pending, dropped.sign(pending)); err != nil {
		t.Fatalf("fulfill: %v", err)
	}

	before := f.l.GetNumEvents()

	if err := f.l.Configure(f.owner, f.owner, 100, []Identity{kept.id}); err != nil {
		t.Fatalf("shrink: %v", err)
	}

	rec, _ := f.l.GetRequestBySeed(done)
	if rec.State != Fulfilled {
		t.Fatal("request covered by the remaining set stayed unfulfilled")
	}

	if rec.Value != Combine(done, []Bytes64{kept.sign(done)}) {
		t.Error("randomness does not combine the remaining contribution")
	}

	if diff := cmp.Diff([]Identity{kept.id}, rec.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}

	if _, err := f.l.Fulfill(kept.id, done, kept.sign(done)); !errors.Is(err, ErrFulfilled) {
		t.Errorf("fulfill after completion: got %v, want ErrFulfilled", err)
	}

	events, _ := f.l.GetEvents(before, MaxPageSize)
	want := []Event{{Index: before, Kind: EventFulfill, Seed: done, Randomness: rec.Value}}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}

	other, _ := f.l.GetRequestBySeed(pending)
	if other.State != Unfulfilled {
		t.Fatal("request without a current authority's contribution was fulfilled")
	}

	if _, err := f.l.Fulfill(kept.id, pending, kept.sign(pending)); err != nil {
		t.Fatalf("fulfill pending: %v", err)
	}

	other, _ = f.l.GetRequestBySeed(pending)
	if other.State != Fulfilled {
		t.Error("pending request not fulfilled by the remaining authority")
	}
}
