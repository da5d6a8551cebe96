// Package address fuzzes the v2 address derivation chain: output
// shape, validity and determinism over arbitrary private keys.
package address

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	fuzz "github.com/google/gofuzz"
	"github.com/tenebra-network/gtenebra/crypto"
)

var prefixes = []string{"t", "k"}

// Fuzz implements a go-fuzz fuzzer method deriving addresses from
// arbitrary private keys.
func Fuzz(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	prefix := prefixes[int(data[0])%len(prefixes)]

	var key string
	fuzz.NewFromGoFuzz(data[1:]).Fuzz(&key)
	if key == "" {
		return 0
	}

	addr := crypto.MakeV2Address(key, prefix)
	if len(addr) != len(prefix)+9 {
		panic(fmt.Sprintf("bad address length %d: %s", len(addr), spew.Sdump(key, addr)))
	}
	if !crypto.IsValidV2Address(prefix, addr) {
		panic(fmt.Sprintf("derived address invalid: %s", spew.Sdump(key, addr)))
	}
	if again := crypto.MakeV2Address(key, prefix); again != addr {
		panic(fmt.Sprintf("derivation not deterministic: %s", spew.Sdump(key, addr, again)))
	}

	digest := crypto.AuthDigest(addr, key)
	if len(digest) != crypto.HashSize {
		panic(fmt.Sprintf("bad auth digest length %d: %s", len(digest), spew.Sdump(key, digest)))
	}
	return 1
}
