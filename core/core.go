// Package core implements the ledger engines: the address ledger and
// its authentication contract, the transfer log, the block chain with
// its work retargeting, and the shared fast-path caches. The name
// registry and staking engine build on the primitives exported here.
package core

import (
	"sync"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	lru "github.com/hashicorp/golang-lru"
	bloomfilter "github.com/holiman/bloomfilter/v2"
	"github.com/tenebra-network/gtenebra/core/rawdb"
	"github.com/tenebra-network/gtenebra/kvstore"
	"github.com/tenebra-network/gtenebra/log"
	"github.com/tenebra-network/gtenebra/params"
	"github.com/tenebra-network/gtenebra/tenebradb"
)

const (
	// solutionBloomBits sizes the seen-solution filter. False positives
	// only cost a database read.
	solutionBloomBits   = 1 << 23
	solutionBloomHashes = 4

	// nameOwnerCacheBytes sizes the name resolution cache.
	nameOwnerCacheBytes = 8 * 1024 * 1024

	// authDedupEntries bounds the auth log suppression cache.
	authDedupEntries = 8192
)

// EnvProduction is the NODE_ENV value that hardens the node: debug
// affordances like the free nonce flag are refused.
const EnvProduction = "production"

// RequestMeta carries the client context a mutating request is logged
// and recorded with.
type RequestMeta struct {
	IP        string
	UserAgent string
	Origin    string
}

// Core ties the durable store, the fast state and the event bus
// together and owns every chain mutation.
type Core struct {
	cfg  *params.ChainConfig
	db   tenebradb.Database
	fast *kvstore.Store
	env  string

	// submitMu serialises block submission end to end: the work gate,
	// the database transaction and the fast state update happen under
	// one holder. Other mutations only rely on the database's exclusive
	// transaction.
	submitMu sync.Mutex

	busMu sync.RWMutex
	bus   Broadcaster

	solutions  *bloomfilter.Filter
	nameOwners *fastcache.Cache
	authDedup  *lru.Cache

	now func() time.Time
}

// New wires a core around a database and fast state store. Call Setup
// before serving.
func New(cfg *params.ChainConfig, db tenebradb.Database, fast *kvstore.Store, env string) (*Core, error) {
	solutions, err := bloomfilter.New(solutionBloomBits, solutionBloomHashes)
	if err != nil {
		return nil, err
	}
	authDedup, err := lru.New(authDedupEntries)
	if err != nil {
		return nil, err
	}
	return &Core{
		cfg:        cfg,
		db:         db,
		fast:       fast,
		env:        env,
		bus:        NopBroadcaster,
		solutions:  solutions,
		nameOwners: fastcache.New(nameOwnerCacheBytes),
		authDedup:  authDedup,
		now:        time.Now,
	}, nil
}

// Config returns the chain parameters the core runs under.
func (c *Core) Config() *params.ChainConfig {
	return c.cfg
}

// DB exposes the backing store for read paths and the sibling engines.
func (c *Core) DB() tenebradb.Database {
	return c.db
}

// Fast exposes the fast state store.
func (c *Core) Fast() *kvstore.Store {
	return c.fast
}

// Env returns the configured node environment.
func (c *Core) Env() string {
	return c.env
}

// SetBroadcaster installs the event bus implementation. Events emitted
// before this are discarded.
func (c *Core) SetBroadcaster(bus Broadcaster) {
	c.busMu.Lock()
	defer c.busMu.Unlock()
	if bus == nil {
		bus = NopBroadcaster
	}
	c.bus = bus
}

// Broadcast emits a post-commit event through the installed bus. The
// sibling engines publish their events through the same path.
func (c *Core) Broadcast(ev Event) {
	c.busMu.RLock()
	bus := c.bus
	c.busMu.RUnlock()
	bus.Broadcast(ev)
}

// Now returns the core's notion of the current time. Engines use it so
// tests can pin the clock.
func (c *Core) Now() time.Time {
	return c.now()
}

// Setup prepares the node for serving: verifies the schema, creates
// the genesis block if asked to, seeds the fast state and warms the
// solution filter. It also enforces the startup invariants on the
// production flags.
func (c *Core) Setup(genGenesis bool) error {
	if err := rawdb.CheckSchemaVersion(c.db); err != nil {
		return err
	}

	last, err := rawdb.ReadLastBlockHeight(c.db)
	if err != nil {
		return err
	}
	if last == 0 && genGenesis {
		if err := c.createGenesis(); err != nil {
			return err
		}
		c.fast.SetBool(kvstore.KeyGenesisGenned, true)
		log.Info("Created genesis block", "value", c.cfg.GenesisValue)
	}

	// Fast state starts from scratch on every boot.
	c.fast.SetWork(c.cfg.MaxWork)
	c.fast.SetValidator("")

	// Mining and staking are mutually exclusive; mining wins.
	if c.fast.MiningEnabled() && c.fast.StakingEnabled() {
		log.Warn("Mining and staking both enabled, disabling staking")
		c.fast.SetStakingEnabled(false)
	}
	if c.env == EnvProduction && c.fast.FreeNonce() {
		log.Warn("Refusing free nonce submission on a production node")
		c.fast.SetFreeNonce(false)
	}

	warmed := 0
	err = rawdb.ForEachBlockHash(c.db, func(hash string) error {
		c.addSolution(hash)
		warmed++
		return nil
	})
	if err != nil {
		return err
	}
	if warmed > 0 {
		log.Info("Warmed solution filter", "hashes", warmed)
	}
	return nil
}

// createGenesis writes block 1: the all-zero hash mined by the all-zero
// address. It anchors the short hash chain every solution builds on.
func (c *Core) createGenesis() error {
	dbtx, err := c.db.OpenTransaction()
	if err != nil {
		return err
	}
	defer dbtx.Discard()

	genesis := genesisBlock(c.cfg, c.now())
	if err := rawdb.WriteBlock(dbtx, genesis); err != nil {
		return err
	}
	if _, err := CreditAddress(dbtx, genesis.Address, genesis.Value, genesis.Time); err != nil {
		return err
	}
	if err := rawdb.AdjustSupply(dbtx, int64(genesis.Value)); err != nil {
		return err
	}
	return dbtx.Commit()
}
