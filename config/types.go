package config

// Gateway locates the external services the engine dispatches effects to.
// Empty URLs disable the corresponding collaborator.
type Gateway struct {
	CollateralBankURL    string `toml:"CollateralBankURL"`
	SwapRouterURL        string `toml:"SwapRouterURL"`
	RequestTimeoutMillis uint64 `toml:"RequestTimeoutMillis"`
}

// Quota configures the per-address throttling applied on mutating RPC calls.
// Zero limits disable the corresponding check.
type Quota struct {
	MaxRequestsPerMin uint32 `toml:"MaxRequestsPerMin"`
	MaxValuePerEpoch  uint64 `toml:"MaxValuePerEpoch"`
	EpochSeconds      uint32 `toml:"EpochSeconds"`
}
