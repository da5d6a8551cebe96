// gen_dev_wallets generates throwaway wallet fixtures for development
// networks: a random private key, the address it derives to and the
// authentication digest the ledger will bind on first use.
//
// Usage:
//
//	go run ./scripts/gen_dev_wallets/main.go [count] [prefix]
//
// Arguments:
//
//	count    number of wallets to generate (default 3)
//	prefix   address prefix, "t" unless given
//
// Output:
//
//	JSON array ready to paste into test fixtures or seed scripts.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/tenebra-network/gtenebra/crypto"
	"github.com/tenebra-network/gtenebra/params"
)

type wallet struct {
	PrivateKey string `json:"privatekey"`
	Address    string `json:"address"`
	AuthDigest string `json:"authdigest"`
}

func main() {
	count := 3
	prefix := params.MainnetChainConfig.AddressPrefix
	if len(os.Args) >= 2 {
		n, err := strconv.Atoi(os.Args[1])
		if err != nil || n < 1 {
			fmt.Fprintf(os.Stderr, "usage: gen_dev_wallets [count] [prefix]\n")
			os.Exit(1)
		}
		count = n
	}
	if len(os.Args) >= 3 {
		prefix = os.Args[2]
	}

	out := make([]wallet, count)
	for i := range out {
		var buf [32]byte
		if _, err := rand.Read(buf[:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: reading randomness: %v\n", err)
			os.Exit(1)
		}
		key := hex.EncodeToString(buf[:])
		address := crypto.MakeV2Address(key, prefix)
		out[i] = wallet{
			PrivateKey: key,
			Address:    address,
			AuthDigest: crypto.AuthDigest(address, key),
		}
	}

	enc, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(enc))
}
