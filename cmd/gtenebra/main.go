// gtenebra runs a full tenebra currency node.
package main

import (
	"fmt"
	"math"
	"os"
	godebug "runtime/debug"
	"sort"
	"strconv"

	gopsutil "github.com/shirou/gopsutil/mem"
	"github.com/tenebra-network/gtenebra/cmd/utils"
	"github.com/tenebra-network/gtenebra/internal/debug"
	"github.com/tenebra-network/gtenebra/internal/flags"
	"github.com/tenebra-network/gtenebra/log"
	"github.com/tenebra-network/gtenebra/node"
	"github.com/urfave/cli/v2"
)

const clientIdentifier = "gtenebra" // Client identifier advertised on the MOTD

var (
	// Git SHA1 commit hash and date of the release (set via linker flags)
	gitCommit = ""
	gitDate   = ""

	// The app that holds all commands and flags.
	app = flags.NewApp(gitCommit, gitDate, "the gtenebra command line interface")

	// flags that configure the node
	nodeFlags = flags.Merge([]cli.Flag{
		utils.DataDirFlag,
		utils.EnvFlag,
		utils.CacheFlag,
		utils.DeveloperFlag,
		utils.GenGenesisFlag,
		utils.MiningEnabledFlag,
		utils.StakingEnabledFlag,
		utils.FreeNonceFlag,
		configFileFlag,
	}, utils.NetworkFlags)

	apiFlags = []cli.Flag{
		utils.HTTPListenAddrFlag,
		utils.HTTPPortFlag,
		utils.PublicURLFlag,
		utils.RateLimitFlag,
		utils.RateBurstFlag,
		utils.MOTDFlag,
	}

	metricsFlags = []cli.Flag{
		utils.MetricsEnabledFlag,
		utils.MetricsEnableInfluxDBFlag,
		utils.MetricsInfluxDBEndpointFlag,
		utils.MetricsInfluxDBDatabaseFlag,
		utils.MetricsInfluxDBUsernameFlag,
		utils.MetricsInfluxDBPasswordFlag,
		utils.MetricsInfluxDBTagsFlag,
		utils.MetricsEnableInfluxDBV2Flag,
		utils.MetricsInfluxDBTokenFlag,
		utils.MetricsInfluxDBBucketFlag,
		utils.MetricsInfluxDBOrganizationFlag,
	}
)

func init() {
	// Initialize the CLI app and start gtenebra
	app.Action = gtenebra
	app.HideVersion = true // we have a command to print the version
	app.Commands = []*cli.Command{
		// See chaincmd.go:
		dbCommand,
		// See misccmd.go:
		versionCommand,
		licenseCommand,
		// See config.go:
		dumpConfigCommand,
	}
	sort.Sort(cli.CommandsByName(app.Commands))

	app.Flags = flags.Merge(
		nodeFlags,
		apiFlags,
		metricsFlags,
		debug.Flags,
	)

	app.Before = func(ctx *cli.Context) error {
		flags.MigrateGlobalFlags(ctx)
		return debug.Setup(ctx)
	}
	app.After = func(ctx *cli.Context) error {
		debug.Exit()
		return nil
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// prepare manipulates memory cache allowance and sets up the metric
// system. This function should be called before launching the node.
func prepare(ctx *cli.Context) {
	// If we're running a known preset, log it for convenience.
	switch {
	case ctx.IsSet(utils.TestnetFlag.Name):
		log.Info("Starting gtenebra on the Tenebra test network...")
	case ctx.IsSet(utils.DeveloperFlag.Name):
		log.Info("Starting gtenebra in ephemeral dev mode...")
	default:
		log.Info("Starting gtenebra on the Tenebra mainnet...")
	}

	// Cap the cache allowance and tune the garbage collector
	mem, err := gopsutil.VirtualMemory()
	if err == nil {
		if 32<<(^uintptr(0)>>63) == 32 && mem.Total > 2*1024*1024*1024 {
			log.Warn("Lowering memory allowance on 32bit arch", "available", mem.Total/1024/1024, "addressable", 2*1024)
			mem.Total = 2 * 1024 * 1024 * 1024
		}
		allowance := int(mem.Total / 1024 / 1024 / 3)
		if cache := ctx.Int(utils.CacheFlag.Name); cache > allowance {
			log.Warn("Sanitizing cache to Go's GC limits", "provided", cache, "updated", allowance)
			ctx.Set(utils.CacheFlag.Name, strconv.Itoa(allowance))
		}
	}
	// Ensure Go's GC ignores the database cache for trigger percentage
	cache := ctx.Int(utils.CacheFlag.Name)
	gogc := math.Max(20, math.Min(100, 100/(float64(cache)/1024)))

	log.Debug("Sanitizing Go's GC trigger", "percent", int(gogc))
	godebug.SetGCPercent(int(gogc))

	// Start metrics export if enabled
	utils.SetupMetrics(ctx)
}

// gtenebra is the main entry point into the system if no special
// subcommand is run. It boots a default node from the command line
// arguments and blocks until it is shut down.
func gtenebra(ctx *cli.Context) error {
	if args := ctx.Args().Slice(); len(args) > 0 {
		return fmt.Errorf("invalid command: %q", args[0])
	}

	prepare(ctx)
	stack := makeFullNode(ctx)
	defer stack.Close()

	startNode(ctx, stack)
	stack.Wait()
	return nil
}

// startNode boots up the node itself and registers it with the memory
// profiler.
func startNode(ctx *cli.Context, stack *node.Node) {
	utils.StartNode(stack)
	debug.Memsize.Add("node", stack)
}
