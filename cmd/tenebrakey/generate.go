package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/tenebra-network/gtenebra/cmd/utils"
	"github.com/tenebra-network/gtenebra/crypto"
	"github.com/tenebra-network/gtenebra/params"
	"github.com/tyler-smith/go-bip39"
	"github.com/urfave/cli/v2"
)

const defaultMnemonicBits = 128

type outputGenerate struct {
	Address string
	Path    string
}

var (
	mnemonicFlag = &cli.BoolFlag{
		Name:  "mnemonic",
		Usage: "generate a BIP-39 word sequence as the private key",
	}
	mnemonicBitsFlag = &cli.IntFlag{
		Name:  "mnemonic.bits",
		Usage: "entropy of the generated word sequence",
		Value: defaultMnemonicBits,
	}
)

var commandGenerate = &cli.Command{
	Name:      "generate",
	Usage:     "generate a new keyfile",
	ArgsUsage: "[<keyfile>]",
	Description: `
Generate a new private key and save it to the keyfile.

A tenebra private key is an arbitrary secret string; the wallet address
is derived from it by hashing. The default key is 32 random bytes in
hex. With --mnemonic the key is a BIP-39 word sequence instead, which
can be written down and re-entered anywhere the sentence is accepted as
the raw private key.`,
	Flags: []cli.Flag{
		jsonFlag,
		mnemonicFlag,
		mnemonicBitsFlag,
	},
	Action: func(ctx *cli.Context) error {
		// Check if keyfile path given and make sure it doesn't already exist.
		keyfilepath := ctx.Args().First()
		if keyfilepath == "" {
			keyfilepath = defaultKeyfileName
		}
		if _, err := os.Stat(keyfilepath); err == nil {
			utils.Fatalf("Keyfile already exists at %s.", keyfilepath)
		} else if !os.IsNotExist(err) {
			utils.Fatalf("Error checking if keyfile exists: %v", err)
		}

		var key string
		if ctx.Bool(mnemonicFlag.Name) {
			var err error
			key, err = generateMnemonic(ctx.Int(mnemonicBitsFlag.Name))
			if err != nil {
				utils.Fatalf("Failed to generate mnemonic: %v", err)
			}
		} else {
			key = randomKey()
		}
		address := crypto.MakeV2Address(key, params.MainnetChainConfig.AddressPrefix)

		// Store the key into the keyfile, readable by the owner only.
		if err := os.MkdirAll(filepath.Dir(keyfilepath), 0700); err != nil {
			utils.Fatalf("Could not create directory %s", filepath.Dir(keyfilepath))
		}
		if err := os.WriteFile(keyfilepath, []byte(key+"\n"), 0600); err != nil {
			utils.Fatalf("Failed to write keyfile to %s: %v", keyfilepath, err)
		}

		out := outputGenerate{
			Address: address,
			Path:    keyfilepath,
		}
		if ctx.Bool(jsonFlag.Name) {
			mustPrintJSON(out)
		} else {
			fmt.Println("Address:", out.Address)
			fmt.Println("Keyfile:", out.Path)
			color.Yellow("Anyone holding the keyfile content controls the wallet. Back it up and keep it secret.")
		}
		return nil
	},
}

// randomKey returns a fresh private key: 32 bytes of system entropy in hex.
func randomKey() string {
	blob := make([]byte, 32)
	if _, err := rand.Read(blob); err != nil {
		utils.Fatalf("Failed to gather entropy: %v", err)
	}
	return hex.EncodeToString(blob)
}

// generateMnemonic returns a BIP-39 sentence with the given entropy.
func generateMnemonic(bits int) (string, error) {
	if err := validateMnemonicBits(bits); err != nil {
		return "", err
	}
	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

func validateMnemonicBits(bits int) error {
	switch bits {
	case 128, 160, 192, 224, 256:
		return nil
	default:
		return fmt.Errorf("invalid mnemonic bits %d (allowed: 128,160,192,224,256)", bits)
	}
}
