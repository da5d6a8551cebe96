package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/tenebra-network/gtenebra/cmd/utils"
	"github.com/tenebra-network/gtenebra/crypto"
	"github.com/tenebra-network/gtenebra/params"
	"github.com/urfave/cli/v2"
)

type outputInspect struct {
	Address    string
	AuthDigest string
	PrivateKey string `json:",omitempty"`
}

var privateFlag = &cli.BoolFlag{
	Name:  "private",
	Usage: "include the private key in the output",
}

var commandInspect = &cli.Command{
	Name:      "inspect",
	Usage:     "inspect a keyfile",
	ArgsUsage: "<keyfile>",
	Description: `
Print the wallet address derived from the keyfile, along with the
authentication digest the node records on first login.

Private key information can be printed by using the --private flag;
make sure to use this feature with great caution!`,
	Flags: []cli.Flag{
		jsonFlag,
		privateFlag,
	},
	Action: func(ctx *cli.Context) error {
		keyfilepath := ctx.Args().First()

		// Read key from file.
		blob, err := os.ReadFile(keyfilepath)
		if err != nil {
			utils.Fatalf("Failed to read the keyfile at '%s': %v", keyfilepath, err)
		}
		key := strings.TrimRight(string(blob), "\r\n")
		if key == "" {
			utils.Fatalf("Keyfile at '%s' is empty", keyfilepath)
		}

		address := crypto.MakeV2Address(key, params.MainnetChainConfig.AddressPrefix)
		out := outputInspect{
			Address:    address,
			AuthDigest: crypto.AuthDigest(address, key),
		}
		showPrivate := ctx.Bool(privateFlag.Name)
		if showPrivate {
			out.PrivateKey = key
		}

		if ctx.Bool(jsonFlag.Name) {
			mustPrintJSON(out)
		} else {
			fmt.Println("Address:       ", out.Address)
			fmt.Println("Auth digest:   ", out.AuthDigest)
			if showPrivate {
				fmt.Println("Private key:   ", out.PrivateKey)
				color.Red("Do not share the private key. Whoever knows it owns the wallet.")
			}
		}
		return nil
	},
}
