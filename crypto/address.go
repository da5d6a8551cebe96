package crypto

import (
	"strconv"
)

// hexToBase36 maps a byte to the address alphabet. The byte range is
// folded into 0-9 then a-z in runs of seven, with the final four values
// collapsing onto 'e'.
func hexToBase36(b byte) byte {
	if b <= 69 {
		return '0' + b/7
	}
	if b <= 251 {
		return 'a' + (b-70)/7
	}
	return 'e'
}

// MakeV2Address derives the v2 address of a private key. The key is any
// non-empty string; derivation walks a chain of double sha256 digests
// over hex strings, picking nine protein bytes and emitting them in an
// order driven by later digests in the chain.
func MakeV2Address(key, prefix string) string {
	var protein [9]string
	stick := DoubleSha256Hex(key)

	for i := 0; i < 9; i++ {
		protein[i] = stick[:2]
		stick = DoubleSha256Hex(stick)
	}

	address := []byte(prefix)
	for i := 0; i < 9; {
		link, _ := strconv.ParseUint(stick[2*i:2*i+2], 16, 8)
		link %= 9
		if protein[link] != "" {
			b, _ := strconv.ParseUint(protein[link], 16, 8)
			address = append(address, hexToBase36(byte(b)))
			protein[link] = ""
			i++
		} else {
			stick = Sha256HexString(stick)
		}
	}
	return string(address)
}
