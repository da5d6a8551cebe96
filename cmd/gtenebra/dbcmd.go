package main

import (
	"fmt"
	"os"
	"time"

	"github.com/tenebra-network/gtenebra/cmd/utils"
	"github.com/tenebra-network/gtenebra/core/rawdb"
	"github.com/tenebra-network/gtenebra/internal/flags"
	"github.com/tenebra-network/gtenebra/log"
	"github.com/tenebra-network/gtenebra/tenebradb"
	"github.com/tenebra-network/gtenebra/tenebradb/leveldb"
	"github.com/urfave/cli/v2"
)

var (
	dbCommand = &cli.Command{
		Name:      "db",
		Usage:     "Low level database operations",
		ArgsUsage: "",
		Subcommands: []*cli.Command{
			dbInspectCmd,
			dbStatCmd,
			dbCompactCmd,
		},
	}
	dbInspectCmd = &cli.Command{
		Action:    inspectDB,
		Name:      "inspect",
		ArgsUsage: " ",
		Flags:     flags.Merge([]cli.Flag{utils.DataDirFlag}, utils.NetworkFlags),
		Usage:     "Inspect the storage size for each type of data in the database",
	}
	dbStatCmd = &cli.Command{
		Action: dbStats,
		Name:   "stats",
		Usage:  "Print leveldb statistics",
		Flags:  flags.Merge([]cli.Flag{utils.DataDirFlag}, utils.NetworkFlags),
	}
	dbCompactCmd = &cli.Command{
		Action: dbCompact,
		Name:   "compact",
		Usage:  "Compact leveldb database. WARNING: May take a very long time",
		Flags:  flags.Merge([]cli.Flag{utils.DataDirFlag, utils.CacheFlag}, utils.NetworkFlags),
		Description: `This command performs a database compaction.
WARNING: This operation may take a very long time to finish, and may cause database
corruption if it is aborted during execution'!`,
	}
)

// makeChainDatabase opens the chain database under the data directory.
// Database commands never run against the in-memory store.
func makeChainDatabase(ctx *cli.Context, readonly bool) tenebradb.Database {
	cfg := makeNodeConfig(ctx)
	if cfg.DataDir == "" {
		utils.Fatalf("Database commands need --datadir")
	}
	db, err := leveldb.New(cfg.ChainDataDir(), cfg.DatabaseCache, cfg.DatabaseHandles, readonly)
	if err != nil {
		utils.Fatalf("Could not open database: %v", err)
	}
	return db
}

func inspectDB(ctx *cli.Context) error {
	db := makeChainDatabase(ctx, true)
	defer db.Close()

	return rawdb.InspectDatabase(db, os.Stdout)
}

func showLeveldbStats(db tenebradb.Stater) {
	if stats, err := db.Stat("leveldb.stats"); err != nil {
		log.Warn("Failed to read database stats", "error", err)
	} else {
		fmt.Println(stats)
	}
	if ioStats, err := db.Stat("leveldb.iostats"); err != nil {
		log.Warn("Failed to read database iostats", "error", err)
	} else {
		fmt.Println(ioStats)
	}
}

func dbStats(ctx *cli.Context) error {
	db := makeChainDatabase(ctx, true)
	defer db.Close()

	showLeveldbStats(db)
	return nil
}

func dbCompact(ctx *cli.Context) error {
	db := makeChainDatabase(ctx, false)
	defer db.Close()

	log.Info("Stats before compaction")
	showLeveldbStats(db)

	log.Info("Triggering compaction")
	start := time.Now()
	if err := db.Compact(nil, nil); err != nil {
		log.Error("Database compaction failed", "err", err)
		return err
	}
	log.Info("Compaction done", "elapsed", time.Since(start))

	log.Info("Stats after compaction")
	showLeveldbStats(db)
	return nil
}
