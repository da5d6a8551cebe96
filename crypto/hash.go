// Package crypto implements the hashing and address derivation rules of
// the tenebra ledger. Every hash in the protocol is a lowercase hex
// encoded sha256: block solutions, authentication digests and the
// address derivation chain all operate on hex strings, not raw digests.
package crypto

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashSize is the length of a hex encoded sha256 digest.
const HashSize = 64

// Sha256Hex hashes the concatenation of the given byte slices and
// returns the lowercase hex digest.
func Sha256Hex(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Sha256HexString hashes a single string.
func Sha256HexString(s string) string {
	return Sha256Hex([]byte(s))
}

// DoubleSha256Hex hashes a string twice, re-hashing the intermediate
// hex digest rather than the raw bytes.
func DoubleSha256Hex(s string) string {
	return Sha256HexString(Sha256HexString(s))
}

// AuthDigest returns the stored authentication digest for an address
// and private key pair.
func AuthDigest(address, privatekey string) string {
	return Sha256HexString(address + privatekey)
}
