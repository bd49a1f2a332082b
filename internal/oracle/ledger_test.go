package oracle

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"VRFOracle/internal/storage"
)

// testAuthority is a fulfillment authority with its signing key.
type testAuthority struct {
	id  Identity
	key ed25519.PrivateKey
}

func newTestAuthority(t *testing.T) testAuthority {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	return testAuthority{id: AccountFromKey(pub), key: priv}
}

func (a testAuthority) sign(seed Seed) Bytes64 {
	return SignSeed(a.key, seed)
}

// openTestStorage opens a Pebble store in a per-test temp directory.
func openTestStorage(t *testing.T, dir string) *storage.Storage {
	t.Helper()

	db, err := storage.Open(filepath.Join(dir, "db"), storage.Options{SyncWrites: true})
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}

	return db
}

// newTestLedger returns an unconfigured ledger.
func newTestLedger(t *testing.T, opts Options) *Ledger {
	t.Helper()

	db := openTestStorage(t, t.TempDir())
	t.Cleanup(func() { db.Close() })

	l, err := New(db, opts)
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}

	return l
}

// fixture is a configured ledger: authority A, base fee 100, additional
// asset X with fee 100, and the given fulfillment authorities.
type fixture struct {
	l           *Ledger
	owner       Identity
	assetX      AssetID
	authorities []testAuthority
}

func newFixture(t *testing.T, numAuthorities int) *fixture {
	t.Helper()

	f := &fixture{
		l:      newTestLedger(t, Options{}),
		owner:  AccountID(bytes32(0xA0)),
		assetX: AssetID(bytes32(0x58)),
	}

	ids := make([]Identity, numAuthorities)
	for i := range ids {
		a := newTestAuthority(t)
		f.authorities = append(f.authorities, a)
		ids[i] = a.id
	}

	if err := f.l.Configure(f.owner, f.owner, 100, ids); err != nil {
		t.Fatalf("configure: %v", err)
	}

	if err := f.l.ConfigureAsset(f.owner, f.assetX, 100); err != nil {
		t.Fatalf("configure asset: %v", err)
	}

	return f
}

func (f *fixture) request(t *testing.T, seed Seed) uint64 {
	t.Helper()

	num, err := f.l.Request(client(), seed, Payment{Asset: f.assetX, Amount: 100})
	if err != nil {
		t.Fatalf("request %s: %v", seed, err)
	}

	return num
}

func bytes32(b byte) [32]byte {
	var out [32]byte
	for i := range out {
		out[i] = b
	}
	return out
}

func seedOf(b byte) Seed {
	return Seed(bytes32(b))
}

func client() Identity {
	return ContractID(bytes32(0xC1))
}

func TestRequestBeforeConfigure(t *testing.T) {
	l := newTestLedger(t, Options{})

	_, err := l.Request(client(), seedOf(1), Payment{Asset: BaseAsset, Amount: 100})
	if !errors.Is(err, ErrContractNotConfigured) {
		t.Fatalf("got %v, want ErrContractNotConfigured", err)
	}
}

func TestRequestTwiceSeedInUse(t *testing.T) {
	f := newFixture(t, 1)

	f.request(t, seedOf(1))

	_, err := f.l.Request(client(), seedOf(1), Payment{Asset: f.assetX, Amount: 100})
	if !errors.Is(err, ErrSeedInUse) {
		t.Fatalf("second request: got %v, want ErrSeedInUse", err)
	}

	if n := f.l.GetNumRequests(); n != 1 {
		t.Errorf("num requests = %d, want 1", n)
	}
}

func TestRequestPaymentChecks(t *testing.T) {
	f := newFixture(t, 1)

	cases := []struct {
		name    string
		payment Payment
		want    error
	}{
		{"no fee", Payment{Asset: f.assetX, Amount: 0}, ErrNoFeePaid},
		{"underpaid", Payment{Asset: f.assetX, Amount: 99}, ErrWrongFeePaid},
		{"overpaid", Payment{Asset: f.assetX, Amount: 101}, ErrWrongFeePaid},
		{"unknown asset", Payment{Asset: AssetID(bytes32(0x77)), Amount: 100}, ErrAssetNotConfigured},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := f.l.Request(client(), seedOf(9), Payment{Asset: c.payment.Asset, Amount: c.payment.Amount})
			if !errors.Is(err, c.want) {
				t.Fatalf("got %v, want %v", err, c.want)
			}
		})
	}

	if n := f.l.GetNumRequests(); n != 0 {
		t.Errorf("rejected requests changed counter to %d", n)
	}

	if bal, _ := f.l.GetBalance(f.assetX); bal != 0 {
		t.Errorf("rejected requests credited balance %d", bal)
	}
}

func TestRequestWithDisabledAsset(t *testing.T) {
	f := newFixture(t, 1)

	if err := f.l.ConfigureAsset(f.owner, f.assetX, 0); err != nil {
		t.Fatalf("disable asset: %v", err)
	}

	_, err := f.l.Request(client(), seedOf(1), Payment{Asset: f.assetX, Amount: 100})
	if !errors.Is(err, ErrAssetNotConfigured) {
		t.Fatalf("got %v, want ErrAssetNotConfigured", err)
	}

	// The base asset keeps working.
	if _, err := f.l.Request(client(), seedOf(1), Payment{Asset: BaseAsset, Amount: 100}); err != nil {
		t.Fatalf("base asset request: %v", err)
	}
}

func TestRequestCreatesUnfulfilledRecord(t *testing.T) {
	f := newFixture(t, 2)

	before := f.l.GetNumRequests()
	num := f.request(t, seedOf(1))

	if got := f.l.GetNumRequests(); got != before+1 {
		t.Errorf("num requests = %d, want %d", got, before+1)
	}

	rec, err := f.l.GetRequestBySeed(seedOf(1))
	if err != nil || rec == nil {
		t.Fatalf("GetRequestBySeed: rec=%v err=%v", rec, err)
	}

	want := &Randomness{Seed: seedOf(1), Client: client(), Num: num, State: Unfulfilled}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}

	byNum, err := f.l.GetRequestByNum(num)
	if err != nil {
		t.Fatalf("GetRequestByNum: %v", err)
	}

	if diff := cmp.Diff(rec, byNum); diff != "" {
		t.Errorf("by-num record differs (-seed +num):\n%s", diff)
	}
}

func TestSequenceNumbersStrictlyIncreasing(t *testing.T) {
	f := newFixture(t, 1)

	var last uint64
	for i := 0; i < 5; i++ {
		num := f.request(t, seedOf(byte(i+1)))

		// A rejected request in between must not consume a number.
		_, _ = f.l.Request(client(), seedOf(byte(i+1)), Payment{Asset: f.assetX, Amount: 100})

		if i == 0 && num != 0 {
			t.Fatalf("first sequence number = %d, want 0", num)
		}

		if i > 0 && num != last+1 {
			t.Fatalf("sequence number %d after %d", num, last)
		}

		last = num
	}
}

func TestRequestCreditsEscrow(t *testing.T) {
	f := newFixture(t, 1)

	f.request(t, seedOf(1))
	f.request(t, seedOf(2))

	bal, err := f.l.GetBalance(f.assetX)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}

	if bal != 200 {
		t.Errorf("balance = %d, want 200", bal)
	}

	if base, _ := f.l.GetBalance(BaseAsset); base != 0 {
		t.Errorf("base balance = %d, want 0", base)
	}
}

func TestGetRequestsPagination(t *testing.T) {
	f := newFixture(t, 1)

	for i := 0; i < 3; i++ {
		f.request(t, seedOf(byte(i+1)))
	}

	page, err := f.l.GetRequests(1, 4)
	if err != nil {
		t.Fatalf("GetRequests: %v", err)
	}

	if len(page) != 4 {
		t.Fatalf("page length = %d, want 4", len(page))
	}

	if page[0] == nil || page[0].Num != 1 || page[1] == nil || page[1].Num != 2 {
		t.Errorf("unexpected page head: %v, %v", page[0], page[1])
	}

	if page[2] != nil || page[3] != nil {
		t.Errorf("slots past the end should be absent, got %v, %v", page[2], page[3])
	}

	capped, _ := f.l.GetRequests(0, MaxPageSize+50)
	if len(capped) != MaxPageSize {
		t.Errorf("page not capped: %d", len(capped))
	}
}

func TestAbsentLookups(t *testing.T) {
	f := newFixture(t, 1)

	if rec, err := f.l.GetRequestBySeed(seedOf(42)); rec != nil || err != nil {
		t.Errorf("GetRequestBySeed unknown = %v, %v", rec, err)
	}

	if rec, err := f.l.GetRequestByNum(42); rec != nil || err != nil {
		t.Errorf("GetRequestByNum unknown = %v, %v", rec, err)
	}
}

func TestLedgerReopen(t *testing.T) {
	dir := t.TempDir()
	owner := AccountID(bytes32(0xA0))
	auth := newTestAuthority(t)

	db := openTestStorage(t, dir)

	l, err := New(db, Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := l.Configure(owner, owner, 5, []Identity{auth.id}); err != nil {
		t.Fatalf("configure: %v", err)
	}

	if _, err := l.Request(client(), seedOf(1), Payment{Asset: BaseAsset, Amount: 5}); err != nil {
		t.Fatalf("request: %v", err)
	}

	if _, err := l.Fulfill(auth.id, seedOf(1), auth.sign(seedOf(1))); err != nil {
		t.Fatalf("fulfill: %v", err)
	}

	want, _ := l.GetRequestBySeed(seedOf(1))
	db.Close()

	db = openTestStorage(t, dir)
	defer db.Close()

	l, err = New(db, Options{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}

	if got := l.GetNumRequests(); got != 1 {
		t.Errorf("num requests after reopen = %d, want 1", got)
	}

	if got := l.GetAuthority(); got != (Owner{State: OwnerInitialized, Identity: owner}) {
		t.Errorf("authority after reopen = %+v", got)
	}

	if bal, _ := l.GetBalance(BaseAsset); bal != 5 {
		t.Errorf("balance after reopen = %d, want 5", bal)
	}

	if n := l.GetNumEvents(); n != 3 {
		t.Errorf("events after reopen = %d, want 3", n)
	}

	got, err := l.GetRequestBySeed(seedOf(1))
	if err != nil {
		t.Fatalf("GetRequestBySeed: %v", err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("record changed across reopen (-want +got):\n%s", diff)
	}
}
