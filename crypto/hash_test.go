package crypto

import "testing"

func TestSha256Hex(t *testing.T) {
	if got := Sha256HexString(""); got != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("empty digest mismatch: %s", got)
	}
	if got := Sha256HexString("abc"); got != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Errorf("abc digest mismatch: %s", got)
	}
	// Concatenation of parts must equal hashing the joined input.
	joined := Sha256Hex([]byte("ab"), []byte("c"))
	if joined != Sha256HexString("abc") {
		t.Errorf("part concatenation mismatch: %s", joined)
	}
}

func TestDoubleSha256Hex(t *testing.T) {
	// The second round hashes the hex digest string, not the raw bytes.
	if got := DoubleSha256Hex("abc"); got != "dfe7a23fefeea519e9bbfdd1a6be94c4b2e4529dd6b7cbea83f9959c2621b13c" {
		t.Errorf("double digest mismatch: %s", got)
	}
}

func TestAuthDigest(t *testing.T) {
	if got := AuthDigest("taddress1", "abc"); got != "d6663d7403d8a425a35e61ae6c7b331516071b8d54785441ee828897a57f9896" {
		t.Errorf("auth digest mismatch: %s", got)
	}
}
