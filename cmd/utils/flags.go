// Package utils contains internal helper functions for gtenebra commands.
package utils

import (
	"strings"
	"time"

	"github.com/tenebra-network/gtenebra/internal/flags"
	"github.com/tenebra-network/gtenebra/log"
	"github.com/tenebra-network/gtenebra/metrics"
	"github.com/tenebra-network/gtenebra/metrics/influxdb"
	"github.com/tenebra-network/gtenebra/node"
	"github.com/tenebra-network/gtenebra/params"
	"github.com/urfave/cli/v2"
)

var (
	// General settings
	DataDirFlag = &flags.DirectoryFlag{
		Name:     "datadir",
		Usage:    "Data directory for the chain database",
		Value:    flags.DirectoryString(node.DefaultDataDir()),
		Category: flags.NodeCategory,
	}
	EnvFlag = &cli.StringFlag{
		Name:     "env",
		Usage:    `Runtime environment name ("production" refuses debug affordances)`,
		Value:    node.DefaultConfig.Env,
		Category: flags.NodeCategory,
	}
	CacheFlag = &cli.IntFlag{
		Name:     "cache",
		Usage:    "Megabytes of memory allocated to database caching",
		Value:    node.DefaultConfig.DatabaseCache,
		Category: flags.NodeCategory,
	}

	// Chain settings
	MainnetFlag = &cli.BoolFlag{
		Name:     "mainnet",
		Usage:    "Tenebra mainnet",
		Category: flags.ChainCategory,
	}
	TestnetFlag = &cli.BoolFlag{
		Name:     "testnet",
		Usage:    "Tenebra test network: mainnet economics on a faster block clock",
		Category: flags.ChainCategory,
	}
	DeveloperFlag = &cli.BoolFlag{
		Name:     "dev",
		Usage:    "Ephemeral node with a fresh genesis and free nonces, for client development",
		Category: flags.ChainCategory,
	}
	GenGenesisFlag = &cli.BoolFlag{
		Name:     "genesis",
		Usage:    "Create the genesis block when the chain database is empty",
		Category: flags.ChainCategory,
	}
	MiningEnabledFlag = &cli.BoolFlag{
		Name:     "mining",
		Usage:    "Accept proof of work block submissions",
		Value:    node.DefaultConfig.MiningEnabled,
		Category: flags.ChainCategory,
	}
	StakingEnabledFlag = &cli.BoolFlag{
		Name:     "staking",
		Usage:    "Accept proof of stake submissions and run validator elections (mining wins when both are set)",
		Category: flags.ChainCategory,
	}
	FreeNonceFlag = &cli.BoolFlag{
		Name:     "free-nonce",
		Usage:    "Accept any nonce as a valid block solution (refused in production)",
		Category: flags.ChainCategory,
	}

	// API settings
	HTTPListenAddrFlag = &cli.StringFlag{
		Name:     "http.addr",
		Usage:    "HTTP and websocket listening interface",
		Value:    node.DefaultHTTPHost,
		Category: flags.APICategory,
	}
	HTTPPortFlag = &cli.IntFlag{
		Name:     "http.port",
		Usage:    "HTTP and websocket listening port",
		Value:    node.DefaultHTTPPort,
		Category: flags.APICategory,
	}
	PublicURLFlag = &cli.StringFlag{
		Name:     "http.publicurl",
		Usage:    "Public origin advertised to clients, e.g. https://tenebra.example.com",
		Category: flags.APICategory,
	}
	RateLimitFlag = &cli.Float64Flag{
		Name:     "http.ratelimit",
		Usage:    "Sustained requests per second allowed per client address (0 = unlimited)",
		Value:    node.DefaultConfig.RateLimit,
		Category: flags.APICategory,
	}
	RateBurstFlag = &cli.IntFlag{
		Name:     "http.rateburst",
		Usage:    "Request burst allowed per client address on top of the sustained rate",
		Value:    node.DefaultConfig.RateBurst,
		Category: flags.APICategory,
	}
	MOTDFlag = &cli.StringFlag{
		Name:     "motd",
		Usage:    "Message of the day served on the root endpoint",
		Category: flags.APICategory,
	}

	// Metrics flags
	MetricsEnabledFlag = &cli.BoolFlag{
		Name:     "metrics",
		Usage:    "Enable metrics collection and reporting",
		Category: flags.MetricsCategory,
	}
	MetricsEnableInfluxDBFlag = &cli.BoolFlag{
		Name:     "metrics.influxdb",
		Usage:    "Enable metrics export/push to an external InfluxDB database",
		Category: flags.MetricsCategory,
	}
	MetricsInfluxDBEndpointFlag = &cli.StringFlag{
		Name:     "metrics.influxdb.endpoint",
		Usage:    "InfluxDB API endpoint to report metrics to",
		Value:    metrics.DefaultConfig.InfluxDBEndpoint,
		Category: flags.MetricsCategory,
	}
	MetricsInfluxDBDatabaseFlag = &cli.StringFlag{
		Name:     "metrics.influxdb.database",
		Usage:    "InfluxDB database name to push reported metrics to",
		Value:    metrics.DefaultConfig.InfluxDBDatabase,
		Category: flags.MetricsCategory,
	}
	MetricsInfluxDBUsernameFlag = &cli.StringFlag{
		Name:     "metrics.influxdb.username",
		Usage:    "Username to authorize access to the database",
		Value:    metrics.DefaultConfig.InfluxDBUsername,
		Category: flags.MetricsCategory,
	}
	MetricsInfluxDBPasswordFlag = &cli.StringFlag{
		Name:     "metrics.influxdb.password",
		Usage:    "Password to authorize access to the database",
		Value:    metrics.DefaultConfig.InfluxDBPassword,
		Category: flags.MetricsCategory,
	}
	// Tags are part of every measurement sent to InfluxDB. Queries on
	// tags are faster in InfluxDB.
	MetricsInfluxDBTagsFlag = &cli.StringFlag{
		Name:     "metrics.influxdb.tags",
		Usage:    "Comma-separated InfluxDB tags (key/values) attached to all measurements",
		Value:    metrics.DefaultConfig.InfluxDBTags,
		Category: flags.MetricsCategory,
	}
	MetricsEnableInfluxDBV2Flag = &cli.BoolFlag{
		Name:     "metrics.influxdbv2",
		Usage:    "Enable metrics export/push to an external InfluxDB v2 database",
		Category: flags.MetricsCategory,
	}
	MetricsInfluxDBTokenFlag = &cli.StringFlag{
		Name:     "metrics.influxdb.token",
		Usage:    "Token to authorize access to the database (v2 only)",
		Value:    metrics.DefaultConfig.InfluxDBToken,
		Category: flags.MetricsCategory,
	}
	MetricsInfluxDBBucketFlag = &cli.StringFlag{
		Name:     "metrics.influxdb.bucket",
		Usage:    "InfluxDB bucket name to push reported metrics to (v2 only)",
		Value:    metrics.DefaultConfig.InfluxDBBucket,
		Category: flags.MetricsCategory,
	}
	MetricsInfluxDBOrganizationFlag = &cli.StringFlag{
		Name:     "metrics.influxdb.organization",
		Usage:    "InfluxDB organization name (v2 only)",
		Value:    metrics.DefaultConfig.InfluxDBOrganization,
		Category: flags.MetricsCategory,
	}
)

// NetworkFlags is the flag group of the chain selectors.
var NetworkFlags = []cli.Flag{
	MainnetFlag,
	TestnetFlag,
}

// MakeChainConfig picks the chain parameters from the network flags.
func MakeChainConfig(ctx *cli.Context) *params.ChainConfig {
	CheckExclusive(ctx, MainnetFlag, TestnetFlag)
	if ctx.Bool(TestnetFlag.Name) {
		return params.TestnetChainConfig
	}
	return params.MainnetChainConfig
}

// SetNodeConfig applies command line flags over the node configuration.
// Only flags the user actually set override, so values loaded from a
// config file or the environment survive.
func SetNodeConfig(ctx *cli.Context, cfg *node.Config) {
	cfg.Chain = MakeChainConfig(ctx)

	if ctx.IsSet(DataDirFlag.Name) {
		cfg.DataDir = ctx.String(DataDirFlag.Name)
	}
	if ctx.IsSet(EnvFlag.Name) {
		cfg.Env = ctx.String(EnvFlag.Name)
	}
	if ctx.IsSet(CacheFlag.Name) {
		cfg.DatabaseCache = ctx.Int(CacheFlag.Name)
	}
	if ctx.IsSet(GenGenesisFlag.Name) {
		cfg.GenGenesis = ctx.Bool(GenGenesisFlag.Name)
	}
	if ctx.IsSet(MiningEnabledFlag.Name) {
		cfg.MiningEnabled = ctx.Bool(MiningEnabledFlag.Name)
	}
	if ctx.IsSet(StakingEnabledFlag.Name) {
		cfg.StakingEnabled = ctx.Bool(StakingEnabledFlag.Name)
	}
	if ctx.IsSet(FreeNonceFlag.Name) {
		cfg.FreeNonce = ctx.Bool(FreeNonceFlag.Name)
	}
	if ctx.IsSet(HTTPListenAddrFlag.Name) {
		cfg.HTTPHost = ctx.String(HTTPListenAddrFlag.Name)
	}
	if ctx.IsSet(HTTPPortFlag.Name) {
		cfg.HTTPPort = ctx.Int(HTTPPortFlag.Name)
	}
	if ctx.IsSet(PublicURLFlag.Name) {
		cfg.PublicURL = ctx.String(PublicURLFlag.Name)
	}
	if ctx.IsSet(RateLimitFlag.Name) {
		cfg.RateLimit = ctx.Float64(RateLimitFlag.Name)
	}
	if ctx.IsSet(RateBurstFlag.Name) {
		cfg.RateBurst = ctx.Int(RateBurstFlag.Name)
	}
	if ctx.IsSet(MOTDFlag.Name) {
		cfg.MOTD = ctx.String(MOTDFlag.Name)
	}
	if ctx.Bool(DeveloperFlag.Name) {
		setDeveloper(ctx, cfg)
	}
	setMetricsConfig(ctx, &cfg.Metrics)
}

// setDeveloper shapes the config for client development: an in-memory
// database with a fresh genesis, and any nonce accepted as a solution.
func setDeveloper(ctx *cli.Context, cfg *node.Config) {
	if ctx.IsSet(DataDirFlag.Name) {
		Fatalf("Flags --datadir and --dev can't be used at the same time")
	}
	cfg.DataDir = ""
	cfg.GenGenesis = true
	cfg.FreeNonce = true
	if !ctx.IsSet(EnvFlag.Name) {
		cfg.Env = "development"
	}
}

func setMetricsConfig(ctx *cli.Context, cfg *metrics.Config) {
	if ctx.IsSet(MetricsEnabledFlag.Name) {
		cfg.Enabled = ctx.Bool(MetricsEnabledFlag.Name)
	}
	if ctx.IsSet(MetricsEnableInfluxDBFlag.Name) {
		cfg.EnableInfluxDB = ctx.Bool(MetricsEnableInfluxDBFlag.Name)
	}
	if ctx.IsSet(MetricsInfluxDBEndpointFlag.Name) {
		cfg.InfluxDBEndpoint = ctx.String(MetricsInfluxDBEndpointFlag.Name)
	}
	if ctx.IsSet(MetricsInfluxDBDatabaseFlag.Name) {
		cfg.InfluxDBDatabase = ctx.String(MetricsInfluxDBDatabaseFlag.Name)
	}
	if ctx.IsSet(MetricsInfluxDBUsernameFlag.Name) {
		cfg.InfluxDBUsername = ctx.String(MetricsInfluxDBUsernameFlag.Name)
	}
	if ctx.IsSet(MetricsInfluxDBPasswordFlag.Name) {
		cfg.InfluxDBPassword = ctx.String(MetricsInfluxDBPasswordFlag.Name)
	}
	if ctx.IsSet(MetricsInfluxDBTagsFlag.Name) {
		cfg.InfluxDBTags = ctx.String(MetricsInfluxDBTagsFlag.Name)
	}
	if ctx.IsSet(MetricsEnableInfluxDBV2Flag.Name) {
		cfg.EnableInfluxDBV2 = ctx.Bool(MetricsEnableInfluxDBV2Flag.Name)
	}
	if ctx.IsSet(MetricsInfluxDBTokenFlag.Name) {
		cfg.InfluxDBToken = ctx.String(MetricsInfluxDBTokenFlag.Name)
	}
	if ctx.IsSet(MetricsInfluxDBBucketFlag.Name) {
		cfg.InfluxDBBucket = ctx.String(MetricsInfluxDBBucketFlag.Name)
	}
	if ctx.IsSet(MetricsInfluxDBOrganizationFlag.Name) {
		cfg.InfluxDBOrganization = ctx.String(MetricsInfluxDBOrganizationFlag.Name)
	}
}

// SetupMetrics starts the process collector and the exporters selected
// on the command line. Collection itself is gated by the --metrics
// flag, which the metrics package picks up during startup.
func SetupMetrics(ctx *cli.Context) {
	if !metrics.Enabled {
		return
	}
	log.Info("Enabling metrics collection")
	go metrics.CollectProcessMetrics(3 * time.Second)

	var (
		enableExport   = ctx.Bool(MetricsEnableInfluxDBFlag.Name)
		enableExportV2 = ctx.Bool(MetricsEnableInfluxDBV2Flag.Name)
	)
	if enableExport || enableExportV2 {
		CheckExclusive(ctx, MetricsEnableInfluxDBFlag, MetricsEnableInfluxDBV2Flag)

		v1FlagIsSet := ctx.IsSet(MetricsInfluxDBUsernameFlag.Name) ||
			ctx.IsSet(MetricsInfluxDBPasswordFlag.Name)
		v2FlagIsSet := ctx.IsSet(MetricsInfluxDBTokenFlag.Name) ||
			ctx.IsSet(MetricsInfluxDBOrganizationFlag.Name) ||
			ctx.IsSet(MetricsInfluxDBBucketFlag.Name)

		if enableExport && v2FlagIsSet {
			Fatalf("Flags --metrics.influxdb.organization, --metrics.influxdb.token, --metrics.influxdb.bucket are only available for influxdb-v2")
		} else if enableExportV2 && v1FlagIsSet {
			Fatalf("Flags --metrics.influxdb.username, --metrics.influxdb.password are only available for influxdb-v1")
		}
	}

	var (
		endpoint = ctx.String(MetricsInfluxDBEndpointFlag.Name)
		database = ctx.String(MetricsInfluxDBDatabaseFlag.Name)
		username = ctx.String(MetricsInfluxDBUsernameFlag.Name)
		password = ctx.String(MetricsInfluxDBPasswordFlag.Name)

		token        = ctx.String(MetricsInfluxDBTokenFlag.Name)
		bucket       = ctx.String(MetricsInfluxDBBucketFlag.Name)
		organization = ctx.String(MetricsInfluxDBOrganizationFlag.Name)
	)
	if enableExport {
		tagsMap := SplitTagsFlag(ctx.String(MetricsInfluxDBTagsFlag.Name))

		log.Info("Enabling metrics export to InfluxDB")

		go influxdb.InfluxDBWithTags(metrics.DefaultRegistry, 10*time.Second, endpoint, database, username, password, "gtenebra.", tagsMap)
	} else if enableExportV2 {
		tagsMap := SplitTagsFlag(ctx.String(MetricsInfluxDBTagsFlag.Name))

		log.Info("Enabling metrics export to InfluxDB (v2)")

		go influxdb.InfluxDBV2WithTags(metrics.DefaultRegistry, 10*time.Second, endpoint, token, bucket, organization, "gtenebra.", tagsMap)
	}
}

// SplitTagsFlag parses a comma separated list of key=value pairs into a
// tag map. Malformed pairs are dropped.
func SplitTagsFlag(tagsFlag string) map[string]string {
	tags := strings.Split(tagsFlag, ",")
	tagsMap := map[string]string{}

	for _, t := range tags {
		if t != "" {
			kv := strings.Split(t, "=")

			if len(kv) == 2 {
				tagsMap[kv[0]] = kv[1]
			}
		}
	}
	return tagsMap
}
