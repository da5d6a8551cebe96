// Package rules fuzzes the name validation rules: the suffix round
// trip and the agreement between cleaning and validation.
package rules

import (
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"
	fuzz "github.com/google/gofuzz"
	"github.com/tenebra-network/gtenebra/crypto"
)

const suffix = "tst"

// Fuzz implements a go-fuzz fuzzer method for the name rules.
func Fuzz(data []byte) int {
	var s string
	fuzz.NewFromGoFuzz(data).Fuzz(&s)

	cleaned := crypto.CleanName(s, suffix)
	if round := crypto.CleanName(cleaned+"."+suffix, suffix); round != cleaned {
		panic(fmt.Sprintf("suffix round trip broken: %s", spew.Sdump(s, cleaned, round)))
	}
	if crypto.IsValidName(s) {
		// Valid names are already registrable: lowercase, no suffix.
		if cleaned != s {
			panic(fmt.Sprintf("valid name changed by cleaning: %s", spew.Sdump(s, cleaned)))
		}
		if len(s) > 64 || strings.ContainsAny(s, ".@ ") {
			panic(fmt.Sprintf("validator accepted malformed name: %s", spew.Sdump(s)))
		}
	}
	if crypto.IsValidMetadata(s, 255) && len(s) > 255 {
		panic(fmt.Sprintf("metadata length bound broken: %s", spew.Sdump(s)))
	}
	return 1
}
