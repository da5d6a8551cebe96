package core

import (
	"strings"
	"time"

	"github.com/tenebra-network/gtenebra/crypto"
	"github.com/tenebra-network/gtenebra/params"
	"github.com/tenebra-network/gtenebra/types"
)

// GenesisAddress receives the genesis value. It is a v1-style address
// no private key maps to.
const GenesisAddress = "0000000000"

// genesisBlock builds block 1. Its all-zero hash is what the first real
// solution hashes against.
func genesisBlock(cfg *params.ChainConfig, now time.Time) *types.Block {
	return &types.Block{
		Height:     1,
		Address:    GenesisAddress,
		Hash:       strings.Repeat("0", crypto.HashSize),
		Value:      cfg.GenesisValue,
		Time:       now,
		Difficulty: cfg.MaxWork,
	}
}
