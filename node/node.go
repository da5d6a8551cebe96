// Package node assembles the engines over one database, runs their
// schedulers and serves the HTTP and websocket surface.
package node

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tenebra-network/gtenebra/api"
	"github.com/tenebra-network/gtenebra/core"
	"github.com/tenebra-network/gtenebra/kvstore"
	"github.com/tenebra-network/gtenebra/log"
	"github.com/tenebra-network/gtenebra/metrics"
	"github.com/tenebra-network/gtenebra/names"
	"github.com/tenebra-network/gtenebra/params"
	"github.com/tenebra-network/gtenebra/sessions"
	"github.com/tenebra-network/gtenebra/staking"
	"github.com/tenebra-network/gtenebra/tenebradb"
	"github.com/tenebra-network/gtenebra/tenebradb/leveldb"
	"github.com/tenebra-network/gtenebra/tenebradb/memorydb"
)

var (
	// ErrNodeRunning is returned when a node is started twice.
	ErrNodeRunning = errors.New("node already running")

	// ErrNodeStopped is returned when an operation needs a started node.
	ErrNodeStopped = errors.New("node not started")
)

const (
	// workSampleInterval is how often the current work is pushed into
	// the work-over-time ring.
	workSampleInterval = time.Minute

	// authLogPruneInterval is how often expired auth log rows are
	// deleted.
	authLogPruneInterval = time.Hour

	// gaugeRefreshInterval is how often the chain gauges are refreshed
	// when metrics are enabled.
	gaugeRefreshInterval = 15 * time.Second

	// shutdownTimeout bounds the graceful HTTP shutdown on Close.
	shutdownTimeout = 5 * time.Second
)

// Node is a running ledger node: the engines, their schedulers and the
// HTTP server, all sharing one database.
type Node struct {
	config *Config

	db      tenebradb.Database
	fast    *kvstore.Store
	core    *core.Core
	names   *names.Registry
	staking *staking.Engine
	hub     *sessions.Hub
	api     *api.API

	server   *http.Server
	listener net.Listener

	lock    sync.Mutex
	started bool
	closed  bool
	stop    chan struct{}
	group   *errgroup.Group
}

// New assembles a node from its config: it opens the database, wires
// the engines together and prepares the HTTP server. Start brings the
// node online.
func New(conf *Config) (*Node, error) {
	// Copy the config so later caller mutations don't reach in.
	if conf == nil {
		conf = new(Config)
		*conf = DefaultConfig
	} else {
		copied := *conf
		conf = &copied
	}
	chain := conf.Chain
	if chain == nil {
		chain = params.MainnetChainConfig
	}

	var (
		db  tenebradb.Database
		err error
	)
	if conf.DataDir == "" {
		db = memorydb.New()
		log.Warn("Running with an in-memory database, chain state will not persist")
	} else {
		db, err = leveldb.New(conf.ChainDataDir(), conf.DatabaseCache, conf.DatabaseHandles, false)
		if err != nil {
			return nil, err
		}
	}

	fast := kvstore.New()
	fast.SetMiningEnabled(conf.MiningEnabled)
	fast.SetStakingEnabled(conf.StakingEnabled)
	fast.SetFreeNonce(conf.FreeNonce)
	if conf.MOTD != "" {
		fast.SetMOTD(conf.MOTD)
	}

	c, err := core.New(chain, db, fast, conf.Env)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := c.Setup(conf.GenGenesis); err != nil {
		db.Close()
		return nil, err
	}

	reg := names.NewRegistry(c)
	st := staking.NewEngine(c)
	hub, err := sessions.NewHub(c, st, conf.publicURL())
	if err != nil {
		db.Close()
		return nil, err
	}
	c.SetBroadcaster(hub)

	a, err := api.New(api.Config{
		PublicURL: conf.publicURL(),
		RateLimit: conf.RateLimit,
		RateBurst: conf.RateBurst,
	}, c, reg, st, hub)
	if err != nil {
		db.Close()
		return nil, err
	}

	n := &Node{
		config:  conf,
		db:      db,
		fast:    fast,
		core:    c,
		names:   reg,
		staking: st,
		hub:     hub,
		api:     a,
		stop:    make(chan struct{}),
	}
	n.server = &http.Server{
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return n, nil
}

// Start binds the HTTP listener and launches the schedulers.
func (n *Node) Start() error {
	n.lock.Lock()
	defer n.lock.Unlock()
	if n.closed {
		return ErrNodeStopped
	}
	if n.started {
		return ErrNodeRunning
	}

	listener, err := net.Listen("tcp", n.config.HTTPEndpoint())
	if err != nil {
		return err
	}
	n.listener = listener
	n.started = true

	n.group = new(errgroup.Group)
	n.group.Go(func() error {
		if err := n.server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	n.group.Go(func() error { n.runWorkSampler(); return nil })
	n.group.Go(func() error { n.runAuthLogPruner(); return nil })
	n.group.Go(func() error { n.runElections(); return nil })
	if metrics.Enabled {
		n.group.Go(func() error { n.runChainGauges(); return nil })
	}

	log.Info("HTTP server started", "endpoint", "http://"+listener.Addr().String(),
		"mining", n.fast.MiningEnabled(), "staking", n.fast.StakingEnabled())
	return nil
}

// Close stops the schedulers, drains the HTTP server and closes the
// database. It is safe to call on a node that never started.
func (n *Node) Close() error {
	n.lock.Lock()
	defer n.lock.Unlock()
	if n.closed {
		return ErrNodeStopped
	}
	n.closed = true
	close(n.stop)

	if !n.started {
		return n.db.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := n.server.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := n.group.Wait(); err != nil {
		errs = append(errs, err)
	}
	if err := n.db.Close(); err != nil {
		errs = append(errs, err)
	}
	log.Info("Node stopped")

	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return errors.Join(errs...)
	}
}

// Wait blocks until the node is closed.
func (n *Node) Wait() {
	<-n.stop
}

// Core returns the chain core.
func (n *Node) Core() *core.Core {
	return n.core
}

// Names returns the name registry.
func (n *Node) Names() *names.Registry {
	return n.names
}

// Staking returns the staking engine.
func (n *Node) Staking() *staking.Engine {
	return n.staking
}

// Hub returns the websocket session hub.
func (n *Node) Hub() *sessions.Hub {
	return n.hub
}

// HTTPEndpoint returns the address the HTTP server is bound to, empty
// before Start.
func (n *Node) HTTPEndpoint() string {
	n.lock.Lock()
	defer n.lock.Unlock()
	if n.listener == nil {
		return ""
	}
	return n.listener.Addr().String()
}

// runWorkSampler pushes the current work into the work-over-time ring
// once a minute.
func (n *Node) runWorkSampler() {
	ticker := time.NewTicker(workSampleInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			n.core.SampleWork()
		case <-n.stop:
			return
		}
	}
}

// runAuthLogPruner deletes expired auth log rows once an hour.
func (n *Node) runAuthLogPruner() {
	ticker := time.NewTicker(authLogPruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			pruned, err := n.core.PruneAuthLog()
			if err != nil {
				log.Warn("Auth log prune failed", "err", err)
			} else if pruned > 0 {
				log.Debug("Pruned auth log", "entries", pruned)
			}
		case <-n.stop:
			return
		}
	}
}

// runElections drives the validator lottery every block interval while
// staking is enabled. The flag is rechecked per tick so toggling it
// does not need a restart.
func (n *Node) runElections() {
	interval := time.Duration(n.core.Config().SecondsPerBlock) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if !n.fast.StakingEnabled() {
				continue
			}
			if err := n.staking.Tick(); err != nil {
				log.Warn("Validator election failed", "err", err)
			}
		case <-n.stop:
			return
		}
	}
}

// runChainGauges refreshes the chain metrics while metrics collection
// is enabled.
func (n *Node) runChainGauges() {
	var (
		heightGauge   = metrics.GetOrRegisterGauge("chain/height", nil)
		supplyGauge   = metrics.GetOrRegisterGauge("chain/supply", nil)
		workGauge     = metrics.GetOrRegisterGauge("chain/work", nil)
		sessionGauge  = metrics.GetOrRegisterGauge("sessions/connected", nil)
		unpaidGauge   = metrics.GetOrRegisterGauge("names/unpaid", nil)
		validatorFlag = metrics.GetOrRegisterGauge("staking/validator", nil)
	)
	ticker := time.NewTicker(gaugeRefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if last, err := n.core.GetLastBlock(); err == nil {
				heightGauge.Update(int64(last.Height))
			}
			if supply, err := n.core.Supply(); err == nil {
				supplyGauge.Update(int64(supply))
			}
			if bonus, err := n.names.Bonus(); err == nil {
				unpaidGauge.Update(int64(bonus))
			}
			workGauge.Update(int64(n.fast.Work()))
			sessionGauge.Update(int64(n.hub.Count()))
			if n.fast.Validator() != "" {
				validatorFlag.Update(1)
			} else {
				validatorFlag.Update(0)
			}
		case <-n.stop:
			return
		}
	}
}
