package oracle

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseIdentity(t *testing.T) {
	hexVal := strings.Repeat("ab", 32)

	cases := []struct {
		in      string
		want    Identity
		wantErr bool
	}{
		{"account:" + hexVal, AccountID(bytes32(0xAB)), false},
		{"contract:0x" + hexVal, ContractID(bytes32(0xAB)), false},
		{hexVal, AccountID(bytes32(0xAB)), false},
		{"wallet:" + hexVal, Identity{}, true},
		{"account:abcd", Identity{}, true},
		{"account:zz", Identity{}, true},
	}

	for _, c := range cases {
		got, err := ParseIdentity(c.in)
		if (err != nil) != c.wantErr {
			t.Errorf("ParseIdentity(%q) error = %v, wantErr %v", c.in, err, c.wantErr)
			continue
		}

		if !c.wantErr && got != c.want {
			t.Errorf("ParseIdentity(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestIdentityJSON(t *testing.T) {
	in := struct {
		Who  Identity `json:"who"`
		Seed Seed     `json:"seed"`
		Sig  Bytes64  `json:"sig"`
	}{
		Who:  ContractID(bytes32(7)),
		Seed: seedOf(8),
		Sig:  Bytes64{1, 2},
	}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if !strings.Contains(string(data), `"contract:0707`) {
		t.Errorf("identity not text-encoded: %s", data)
	}

	out := in
	out.Who, out.Seed, out.Sig = Identity{}, Seed{}, Bytes64{}

	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if out != in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestOwnerIs(t *testing.T) {
	id := AccountID(bytes32(1))

	if !(Owner{State: OwnerInitialized, Identity: id}).Is(id) {
		t.Error("initialized owner should match its identity")
	}

	if (Owner{State: OwnerRevoked, Identity: id}).Is(id) {
		t.Error("revoked owner matches nobody")
	}
}

func TestBytes64Halves(t *testing.T) {
	var b Bytes64
	b[0], b[32] = 1, 2

	fst, snd := b.Halves()
	if fst[0] != 1 || snd[0] != 2 {
		t.Errorf("halves = %x / %x", fst[:1], snd[:1])
	}
}
