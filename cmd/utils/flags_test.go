// Package utils contains internal helper functions for gtenebra commands.
package utils

import (
	"flag"
	"reflect"
	"testing"

	"github.com/tenebra-network/gtenebra/node"
	"github.com/tenebra-network/gtenebra/params"
	"github.com/urfave/cli/v2"
)

func Test_SplitTagsFlag(t *testing.T) {
	tests := []struct {
		name string
		args string
		want map[string]string
	}{
		{
			"2 tags case",
			"host=localhost,bzzkey=123",
			map[string]string{
				"host":   "localhost",
				"bzzkey": "123",
			},
		},
		{
			"1 tag case",
			"host=localhost123",
			map[string]string{
				"host": "localhost123",
			},
		},
		{
			"empty case",
			"",
			map[string]string{},
		},
		{
			"garbage",
			"smth=smthelse=123",
			map[string]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitTagsFlag(tt.args); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitTagsFlag() = %v, want %v", got, tt.want)
			}
		})
	}
}

// parseContext runs the given arguments through a fresh flag set so
// tests can exercise the config setters.
func parseContext(t *testing.T, cliFlags []cli.Flag, args []string) *cli.Context {
	t.Helper()

	app := cli.NewApp()
	app.Flags = cliFlags

	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range app.Flags {
		if err := f.Apply(set); err != nil {
			t.Fatalf("apply flag: %v", err)
		}
	}
	if err := set.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cli.NewContext(app, set, nil)
}

func TestNetworkFlagsIncludeTestnet(t *testing.T) {
	foundMainnet := false
	foundTestnet := false
	for _, f := range NetworkFlags {
		names := f.Names()
		if len(names) == 0 {
			continue
		}
		switch names[0] {
		case MainnetFlag.Name:
			foundMainnet = true
		case TestnetFlag.Name:
			foundTestnet = true
		}
	}
	if !foundMainnet || !foundTestnet {
		t.Fatalf("network flags missing built-ins: mainnet=%v testnet=%v", foundMainnet, foundTestnet)
	}
}

func TestMakeChainConfigTestnet(t *testing.T) {
	ctx := parseContext(t, NetworkFlags, []string{"--testnet"})

	chain := MakeChainConfig(ctx)
	if chain != params.TestnetChainConfig {
		t.Fatal("expected testnet chain parameters for --testnet")
	}
	if chain.SecondsPerBlock >= params.MainnetChainConfig.SecondsPerBlock {
		t.Fatalf("testnet block clock not faster than mainnet: have %d want < %d",
			chain.SecondsPerBlock, params.MainnetChainConfig.SecondsPerBlock)
	}
}

func TestSetNodeConfig(t *testing.T) {
	cliFlags := append([]cli.Flag{
		StakingEnabledFlag, MiningEnabledFlag, HTTPPortFlag, PublicURLFlag, GenGenesisFlag,
	}, NetworkFlags...)
	ctx := parseContext(t, cliFlags, []string{
		"--staking", "--mining=false", "--http.port=9090", "--http.publicurl=https://tenebra.example.com",
	})

	cfg := node.DefaultConfig
	SetNodeConfig(ctx, &cfg)

	if !cfg.StakingEnabled {
		t.Error("staking not enabled by --staking")
	}
	if cfg.MiningEnabled {
		t.Error("mining not disabled by --mining=false")
	}
	if cfg.HTTPPort != 9090 {
		t.Errorf("http port = %d, want 9090", cfg.HTTPPort)
	}
	if cfg.PublicURL != "https://tenebra.example.com" {
		t.Errorf("public url = %q", cfg.PublicURL)
	}
	// Unset flags leave the config alone.
	if cfg.GenGenesis {
		t.Error("genesis flag leaked into config")
	}
	if cfg.Chain != params.MainnetChainConfig {
		t.Error("expected mainnet chain parameters by default")
	}
}

func TestSetNodeConfigDeveloper(t *testing.T) {
	cliFlags := append([]cli.Flag{DeveloperFlag, DataDirFlag, EnvFlag}, NetworkFlags...)
	ctx := parseContext(t, cliFlags, []string{"--dev"})

	cfg := node.DefaultConfig
	cfg.DataDir = node.DefaultDataDir()
	SetNodeConfig(ctx, &cfg)

	if cfg.DataDir != "" {
		t.Errorf("dev mode kept a data directory: %q", cfg.DataDir)
	}
	if !cfg.GenGenesis || !cfg.FreeNonce {
		t.Errorf("dev mode incomplete: genesis=%v freenonce=%v", cfg.GenGenesis, cfg.FreeNonce)
	}
	if cfg.Env != "development" {
		t.Errorf("dev mode env = %q, want development", cfg.Env)
	}
}
