package params

// ChainConfig holds the economic and consensus parameters of a tenebra
// network. The node treats it as read-only after startup; every engine
// receives the same instance.
type ChainConfig struct {
	// AddressPrefix is the single letter v2 addresses start with.
	AddressPrefix string `toml:",omitempty"`

	// NameSuffix is the top-level suffix names resolve under, without
	// the leading dot.
	NameSuffix string `toml:",omitempty"`

	// WalletVersion is advertised to clients so wallets can detect
	// incompatible address formats.
	WalletVersion uint `toml:",omitempty"`

	// NonceMaxSize bounds the byte length of submitted block nonces.
	NonceMaxSize int `toml:",omitempty"`

	// NameCost is the amount burned when purchasing a name. The same
	// amount is re-minted one unit per block through the unpaid counter.
	NameCost uint64 `toml:",omitempty"`

	// MinWork and MaxWork clamp the difficulty retarget. Lower work
	// means a harder target.
	MinWork uint64 `toml:",omitempty"`
	MaxWork uint64 `toml:",omitempty"`

	// WorkFactor damps each retarget step, as a fraction of the distance
	// between the current work and the ideal work for the observed block
	// time.
	WorkFactor float64 `toml:",omitempty"`

	// SecondsPerBlock is the block time the retarget aims for. It is
	// also the validator rotation period when staking is enabled.
	SecondsPerBlock int `toml:",omitempty"`

	// ValidatorPenalty is deducted from a validator's stake when it
	// misses its slot.
	ValidatorPenalty uint64 `toml:",omitempty"`

	// RewardCliff is the block height at which the base block reward
	// drops from InitialReward to 1.
	RewardCliff   uint64 `toml:",omitempty"`
	InitialReward uint64 `toml:",omitempty"`

	// GenesisValue is the value recorded on the genesis block.
	GenesisValue uint64 `toml:",omitempty"`

	// MaxMetadataSize bounds transaction metadata and name data records,
	// in bytes.
	MaxMetadataSize int `toml:",omitempty"`
}

var (
	// MainnetChainConfig is the chain parameters of the public tenebra
	// network.
	MainnetChainConfig = &ChainConfig{
		AddressPrefix:    "t",
		NameSuffix:       "tst",
		WalletVersion:    16,
		NonceMaxSize:     24,
		NameCost:         500,
		MinWork:          100,
		MaxWork:          100000,
		WorkFactor:       0.025,
		SecondsPerBlock:  60,
		ValidatorPenalty: 500,
		RewardCliff:      325,
		InitialReward:    25,
		GenesisValue:     50,
		MaxMetadataSize:  255,
	}

	// TestnetChainConfig is the chain parameters of the public test
	// network. Economics match mainnet, blocks come twice as fast.
	TestnetChainConfig = &ChainConfig{
		AddressPrefix:    "t",
		NameSuffix:       "tst",
		WalletVersion:    16,
		NonceMaxSize:     24,
		NameCost:         500,
		MinWork:          100,
		MaxWork:          100000,
		WorkFactor:       0.025,
		SecondsPerBlock:  30,
		ValidatorPenalty: 500,
		RewardCliff:      325,
		InitialReward:    25,
		GenesisValue:     50,
		MaxMetadataSize:  255,
	}

	// TestChainConfig is a copy of the mainnet parameters for unit
	// tests. Tests that need different economics mutate their own copy.
	TestChainConfig = &ChainConfig{
		AddressPrefix:    "t",
		NameSuffix:       "tst",
		WalletVersion:    16,
		NonceMaxSize:     24,
		NameCost:         500,
		MinWork:          100,
		MaxWork:          100000,
		WorkFactor:       0.025,
		SecondsPerBlock:  60,
		ValidatorPenalty: 500,
		RewardCliff:      325,
		InitialReward:    25,
		GenesisValue:     50,
		MaxMetadataSize:  255,
	}
)

// BaseBlockValue returns the base reward of the block following height
// last, before name and penalty bonuses.
func (c *ChainConfig) BaseBlockValue(last uint64) uint64 {
	if last < c.RewardCliff {
		return c.InitialReward
	}
	return 1
}

// ClampWork bounds a retargeted work value to [MinWork, MaxWork].
func (c *ChainConfig) ClampWork(w uint64) uint64 {
	if w < c.MinWork {
		return c.MinWork
	}
	if w > c.MaxWork {
		return c.MaxWork
	}
	return w
}

// Copy returns a deep copy of the config, for tests that mutate
// parameters.
func (c *ChainConfig) Copy() *ChainConfig {
	cpy := *c
	return &cpy
}
