package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/fatih/color"
	"github.com/tenebra-network/gtenebra/cmd/utils"
	"github.com/tenebra-network/gtenebra/crypto"
	"github.com/tenebra-network/gtenebra/params"
	"github.com/urfave/cli/v2"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/text/unicode/norm"
)

const (
	defaultKeySalt       = "tenebra"
	defaultKeyIterations = 262144
)

type outputFromPass struct {
	Address    string
	PrivateKey string
}

var (
	saltFlag = &cli.StringFlag{
		Name:  "salt",
		Usage: "salt mixed into the passphrase derivation",
		Value: defaultKeySalt,
	}
	iterationsFlag = &cli.IntFlag{
		Name:  "iterations",
		Usage: "PBKDF2 rounds of the passphrase derivation",
		Value: defaultKeyIterations,
	}
)

var commandFromPass = &cli.Command{
	Name:      "frompass",
	Usage:     "derive a private key from a passphrase",
	ArgsUsage: " ",
	Description: `
Derive a deterministic private key from a passphrase.

The passphrase is unicode-normalized (NFKD) and stretched with
PBKDF2-SHA256, so the same passphrase and salt always produce the same
wallet on any machine. The passphrase is read from --passwordfile when
given, otherwise prompted for twice.`,
	Flags: []cli.Flag{
		passphraseFlag,
		saltFlag,
		iterationsFlag,
		jsonFlag,
	},
	Action: func(ctx *cli.Context) error {
		passphrase := getPassphrase(ctx, true)
		if passphrase == "" {
			utils.Fatalf("Empty passphrase")
		}

		key := deriveKeyFromPass(passphrase, ctx.String(saltFlag.Name), ctx.Int(iterationsFlag.Name))
		address := crypto.MakeV2Address(key, params.MainnetChainConfig.AddressPrefix)

		out := outputFromPass{
			Address:    address,
			PrivateKey: key,
		}
		if ctx.Bool(jsonFlag.Name) {
			mustPrintJSON(out)
		} else {
			fmt.Println("Address:       ", out.Address)
			fmt.Println("Private key:   ", out.PrivateKey)
			color.Yellow("The same passphrase and salt always yield this wallet. Pick a strong passphrase.")
		}
		return nil
	},
}

// deriveKeyFromPass stretches a passphrase into a private key. NFKD
// normalization keeps visually identical passphrases byte-identical
// across input methods.
func deriveKeyFromPass(passphrase, salt string, iterations int) string {
	normalized := norm.NFKD.String(passphrase)
	blob := pbkdf2.Key([]byte(normalized), []byte(salt), iterations, 32, sha256.New)
	return hex.EncodeToString(blob)
}
