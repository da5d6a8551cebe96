// Command hasher measures the protocol's hot hash paths on the local
// machine: the mining solution check, address derivation and the
// authentication digest. Miners use the solution figure to size
// hardware.
package main

import (
	"flag"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/tenebra-network/gtenebra/crypto"
	"github.com/tenebra-network/gtenebra/params"
)

type result struct {
	name  string
	perUS float64
	perS  float64
}

func bench(n int, fn func(i int)) time.Duration {
	start := time.Now()
	for i := 0; i < n; i++ {
		fn(i)
	}
	return time.Since(start)
}

func perOpUS(d time.Duration, n int) float64 {
	return float64(d.Microseconds()) / float64(n)
}

func perSecOps(d time.Duration, n int) float64 {
	return float64(n) / d.Seconds()
}

func main() {
	ops := flag.Int("ops", 500000, "operations per benchmark")
	flag.Parse()
	if *ops <= 0 {
		panic("ops must be > 0")
	}

	cfg := params.MainnetChainConfig
	address := crypto.MakeV2Address("benchmark key", cfg.AddressPrefix)
	lastShort := "0123456789ab"
	out := make([]result, 0, 4)

	// The miner inner loop: hash the candidate and compare its leading
	// digits against the work target.
	{
		work := uint64(cfg.MaxWork)
		found := 0
		d := bench(*ops, func(i int) {
			nonce := strconv.Itoa(i)
			hash := crypto.Sha256Hex([]byte(address), []byte(lastShort), []byte(nonce))
			v, err := strconv.ParseUint(hash[:12], 16, 64)
			if err != nil {
				panic(err)
			}
			if v <= work {
				found++
			}
		})
		out = append(out, result{"solution", perOpUS(d, *ops), perSecOps(d, *ops)})
		fmt.Printf("solution check: %d of %d candidates under max work\n", found, *ops)
	}

	// Address derivation, the cost of a cold login.
	{
		d := bench(*ops, func(i int) {
			crypto.MakeV2Address("benchmark key "+strconv.Itoa(i), cfg.AddressPrefix)
		})
		out = append(out, result{"address", perOpUS(d, *ops), perSecOps(d, *ops)})
	}

	// Authentication digest, the cost of a warm login.
	{
		d := bench(*ops, func(i int) {
			crypto.AuthDigest(address, "benchmark key")
		})
		out = append(out, result{"authdigest", perOpUS(d, *ops), perSecOps(d, *ops)})
	}

	// The double hash used by the legacy derivation rounds.
	{
		d := bench(*ops, func(i int) {
			crypto.DoubleSha256Hex("benchmark key")
		})
		out = append(out, result{"double", perOpUS(d, *ops), perSecOps(d, *ops)})
	}

	fmt.Printf("\nHash benchmark on this machine (ops=%d)\n", *ops)
	fmt.Println("- Raw hashing only; no network or database overhead")
	fmt.Printf("%-12s %10s %14s\n", "Path", "op us", "ops/s")
	for _, r := range out {
		fmt.Printf("%-12s %10.3f %14.0f\n", r.name, r.perUS, r.perS)
	}

	ranked := append([]result(nil), out...)
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].perUS < ranked[j].perUS })
	fmt.Print("\nSpeed rank (fast -> slow): ")
	for i, r := range ranked {
		if i > 0 {
			fmt.Print(" > ")
		}
		fmt.Print(r.name)
	}
	fmt.Println()
}
