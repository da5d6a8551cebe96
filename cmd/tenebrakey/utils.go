package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tenebra-network/gtenebra/cmd/utils"
	"github.com/urfave/cli/v2"
)

// getPassphrase obtains a passphrase given by the user. It first checks
// the --passwordfile command line flag and ultimately prompts the user
// for a passphrase.
func getPassphrase(ctx *cli.Context, confirmation bool) string {
	passphraseFile := ctx.String(passphraseFlag.Name)
	if passphraseFile != "" {
		content, err := os.ReadFile(passphraseFile)
		if err != nil {
			utils.Fatalf("Failed to read password file '%s': %v", passphraseFile, err)
		}
		return strings.TrimRight(string(content), "\r\n")
	}

	// Otherwise prompt the user for the passphrase.
	return utils.GetPassPhrase("", confirmation)
}

// mustPrintJSON prints the JSON encoding of the given object and
// exits the program with an error message when the marshaling fails.
func mustPrintJSON(jsonObject interface{}) {
	str, err := json.MarshalIndent(jsonObject, "", "  ")
	if err != nil {
		utils.Fatalf("Failed to marshal JSON object: %v", err)
	}
	fmt.Println(string(str))
}
