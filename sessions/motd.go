package sessions

import (
	"time"

	"github.com/tenebra-network/gtenebra/core"
	"github.com/tenebra-network/gtenebra/params"
)

// MOTD builds the aggregated node status payload. The motd endpoint
// serves it and every new websocket session receives it as the hello
// message, so wallets learn the chain constants either way.
func MOTD(c *core.Core, publicURL string, now time.Time) map[string]interface{} {
	cfg := c.Config()
	fast := c.Fast()
	msg, set := fast.MOTD()

	payload := map[string]interface{}{
		"server_time":     now,
		"motd":            msg,
		"public_url":      publicURL,
		"debug_mode":      c.Env() != core.EnvProduction,
		"work":            c.CurrentWork(),
		"mining_enabled":  fast.MiningEnabled(),
		"staking_enabled": fast.StakingEnabled(),
		"package": map[string]interface{}{
			"name":       "gtenebra",
			"version":    params.VersionWithMeta,
			"repository": "https://github.com/tenebra-network/gtenebra",
		},
		"constants": map[string]interface{}{
			"wallet_version":    cfg.WalletVersion,
			"nonce_max_size":    cfg.NonceMaxSize,
			"name_cost":         cfg.NameCost,
			"min_work":          cfg.MinWork,
			"max_work":          cfg.MaxWork,
			"work_factor":       cfg.WorkFactor,
			"seconds_per_block": cfg.SecondsPerBlock,
			"validator_penalty": cfg.ValidatorPenalty,
			"address_prefix":    cfg.AddressPrefix,
			"name_suffix":       cfg.NameSuffix,
		},
		"currency": map[string]interface{}{
			"address_prefix":  cfg.AddressPrefix,
			"name_suffix":     cfg.NameSuffix,
			"currency_name":   "Tenebra",
			"currency_symbol": "TST",
		},
	}
	if !set.IsZero() {
		payload["motd_set"] = set
	}
	if last, err := c.GetLastBlock(); err == nil {
		payload["last_block"] = last.View()
	}
	return payload
}
