package node

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tenebra-network/gtenebra/api"
	"github.com/tenebra-network/gtenebra/metrics"
	"github.com/tenebra-network/gtenebra/params"
)

const (
	// DefaultHTTPHost is the interface the HTTP server binds to.
	DefaultHTTPHost = "127.0.0.1"

	// DefaultHTTPPort is the TCP port the HTTP server binds to.
	DefaultHTTPPort = 8080

	datadirChainData = "chaindata"
)

// Config collects everything needed to assemble and boot a node. Field
// defaults come from DefaultConfig; the classic environment variables
// override on top via ApplyEnv.
type Config struct {
	// DataDir is the root directory for the chain database. An empty
	// value runs the node on an in-memory store that vanishes on exit.
	DataDir string

	// HTTPHost and HTTPPort describe the listening endpoint of the
	// HTTP and websocket surface.
	HTTPHost string
	HTTPPort int

	// PublicURL is the origin clients are told to reach the node on.
	// Defaults to the listening endpoint when unset.
	PublicURL string `toml:",omitempty"`

	// Env names the runtime environment. "production" hardens the node:
	// debug affordances such as the free nonce flag are refused.
	Env string `toml:",omitempty"`

	// MiningEnabled accepts proof of work submissions. StakingEnabled
	// accepts proof of stake submissions and runs the validator
	// elections. The two are mutually exclusive; mining wins.
	MiningEnabled  bool `toml:",omitempty"`
	StakingEnabled bool `toml:",omitempty"`

	// GenGenesis creates the genesis block on an empty database.
	GenGenesis bool `toml:",omitempty"`

	// FreeNonce accepts any nonce as a valid solution. Debug only.
	FreeNonce bool `toml:",omitempty"`

	// MOTD seeds the message of the day shown on the root endpoint.
	MOTD string `toml:",omitempty"`

	// RateLimit is the sustained per client request rate in requests
	// per second; RateBurst the bucket size. Zero disables limiting.
	RateLimit float64 `toml:",omitempty"`
	RateBurst int     `toml:",omitempty"`

	// DatabaseCache and DatabaseHandles size the backing leveldb
	// instance (megabytes of cache, open file handles).
	DatabaseCache   int `toml:",omitempty"`
	DatabaseHandles int `toml:",omitempty"`

	// Chain overrides the chain parameters. Nil selects mainnet.
	Chain *params.ChainConfig `toml:"-"`

	Metrics metrics.Config
}

// DefaultConfig contains the settings a plain `gtenebra` run uses.
var DefaultConfig = Config{
	HTTPHost:        DefaultHTTPHost,
	HTTPPort:        DefaultHTTPPort,
	Env:             "development",
	MiningEnabled:   true,
	RateLimit:       api.DefaultConfig.RateLimit,
	RateBurst:       api.DefaultConfig.RateBurst,
	DatabaseCache:   128,
	DatabaseHandles: 256,
	Metrics:         metrics.DefaultConfig,
}

// ApplyEnv folds the environment variables the original deployments
// configure themselves with over the config. Unset variables leave the
// config untouched.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("PUBLIC_URL"); v != "" {
		c.PublicURL = v
	}
	if v := os.Getenv("NODE_ENV"); v != "" {
		c.Env = v
	}
	if v, ok := envBool("MINING_ENABLED"); ok {
		c.MiningEnabled = v
	}
	if v, ok := envBool("STAKING_ENABLED"); ok {
		c.StakingEnabled = v
	}
	if v, ok := envBool("GEN_GENESIS"); ok {
		c.GenGenesis = v
	}
}

func envBool(key string) (value, ok bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return false, false
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true, true
	default:
		return false, true
	}
}

// HTTPEndpoint returns the host:port the HTTP server binds to.
func (c *Config) HTTPEndpoint() string {
	return net.JoinHostPort(c.HTTPHost, strconv.Itoa(c.HTTPPort))
}

// publicURL returns the advertised origin, falling back to the
// listening endpoint.
func (c *Config) publicURL() string {
	if c.PublicURL != "" {
		return c.PublicURL
	}
	return fmt.Sprintf("http://%s", c.HTTPEndpoint())
}

// ChainDataDir returns the database path under the data directory.
func (c *Config) ChainDataDir() string {
	return filepath.Join(c.DataDir, datadirChainData)
}
