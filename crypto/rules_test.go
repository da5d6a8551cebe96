package crypto

import (
	"strings"
	"testing"
)

func TestIsValidAddress(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"t8juvewcui", true},
		{"tuf03bap3u", true},
		{"0000000000", true}, // first generation hex form
		{"a094627fe3", true},
		{"t8juvewcu", false},   // too short
		{"t8juvewcuii", false}, // too long
		{"k8juvewcui", false},  // wrong prefix, not hex either
		{"t8juvewcU1", false},  // uppercase
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValidAddress("t", tt.addr); got != tt.want {
			t.Errorf("IsValidAddress(%q) = %v, want %v", tt.addr, got, tt.want)
		}
	}
}

func TestIsValidName(t *testing.T) {
	if !IsValidName("example") || !IsValidName("a") || !IsValidName(strings.Repeat("x", 64)) {
		t.Error("rejected valid names")
	}
	for _, bad := range []string{"", "Example", "ex.ample", strings.Repeat("x", 65), "xn--punycode"} {
		if IsValidName(bad) {
			t.Errorf("accepted invalid name %q", bad)
		}
	}
	if !IsValidFetchName("xn--punycode") {
		t.Error("fetch form must accept punycode prefix")
	}
}

func TestIsValidMetadata(t *testing.T) {
	if !IsValidMetadata("Hello=World;ref=123", 255) {
		t.Error("rejected plain metadata")
	}
	if !IsValidMetadata("line1\nline2", 255) {
		t.Error("rejected newline metadata")
	}
	if IsValidMetadata("café", 255) {
		t.Error("accepted non ASCII metadata")
	}
	if IsValidMetadata(strings.Repeat("a", 256), 255) {
		t.Error("accepted oversize metadata")
	}
}

func TestIsValidARecord(t *testing.T) {
	for _, ok := range []string{"tenebra.example.org", "example.com/path", "a1"} {
		if !IsValidARecord(ok, 255) {
			t.Errorf("rejected valid record %q", ok)
		}
	}
	for _, bad := range []string{".dotfirst", "?query", "#frag", " space", "a", "sp ace.com"} {
		if IsValidARecord(bad, 255) {
			t.Errorf("accepted invalid record %q", bad)
		}
	}
}

func TestCleanName(t *testing.T) {
	if got := CleanName("Example.TST", "tst"); got != "example" {
		t.Errorf("CleanName = %q", got)
	}
	if got := CleanName("plain", "tst"); got != "plain" {
		t.Errorf("CleanName = %q", got)
	}
}
