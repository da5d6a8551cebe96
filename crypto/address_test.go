package crypto

import (
	"testing"

	fuzz "github.com/google/gofuzz"
)

func TestHexToBase36(t *testing.T) {
	tests := []struct {
		in   byte
		want byte
	}{
		{0, '0'},
		{6, '0'},
		{7, '1'},
		{13, '1'},
		{63, '9'},
		{69, '9'},
		{70, 'a'},
		{76, 'a'},
		{77, 'b'},
		{245, 'z'},
		{251, 'z'},
		{252, 'e'},
		{255, 'e'},
	}
	for _, tt := range tests {
		if got := hexToBase36(tt.in); got != tt.want {
			t.Errorf("hexToBase36(%d) = %c, want %c", tt.in, got, tt.want)
		}
	}
}

func TestMakeV2Address(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"a", "t8juvewcui"},
		{"hello", "tuf03bap3u"},
		{"tenebra is the best", "t4k6ha0hlw"},
		{"00000000", "tb1ag7z3qg"},
		{"pw123", "tv0r7bk67m"},
	}
	for _, tt := range tests {
		if got := MakeV2Address(tt.key, "t"); got != tt.want {
			t.Errorf("MakeV2Address(%q) = %s, want %s", tt.key, got, tt.want)
		}
	}
}

func TestMakeV2AddressShape(t *testing.T) {
	f := fuzz.New().NilChance(0)
	for i := 0; i < 500; i++ {
		var key string
		f.Fuzz(&key)
		if key == "" {
			continue
		}
		addr := MakeV2Address(key, "t")
		if !IsValidV2Address("t", addr) {
			t.Fatalf("derived address %q for key %q fails validation", addr, key)
		}
		if again := MakeV2Address(key, "t"); again != addr {
			t.Fatalf("derivation not deterministic: %q vs %q", addr, again)
		}
	}
}

func TestMakeV2AddressPrefix(t *testing.T) {
	if got := MakeV2Address("hello", "k"); got != "kuf03bap3u" {
		t.Errorf("prefix substitution broke the digest chain: %s", got)
	}
}
