package cdp

import (
	"math/big"
	"sort"

	"nusdcore/crypto"
)

// Storage abstracts the subset of state-manager functionality the accounting
// core requires. Implementations must make every Put/Delete durable before
// returning so each public operation commits as a unit.
type Storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
	KVAppend(key []byte, value []byte) error
	KVGetList(key []byte, out interface{}) error
}

// Store wraps raw key-value storage with typed accessors for the protocol's
// records. All keys are namespaced under "cdp/".
type Store struct {
	kv Storage
}

// NewStore constructs a Store backed by the provided storage.
func NewStore(kv Storage) *Store {
	return &Store{kv: kv}
}

// CollateralConfig returns the registered config for asset, or nil when the
// asset is unknown.
func (s *Store) CollateralConfig(asset string) (*CollateralConfig, error) {
	cfg := new(CollateralConfig)
	ok, err := s.kv.KVGet(collateralConfigKey(normaliseAsset(asset)), cfg)
	if err != nil || !ok {
		return nil, err
	}
	if cfg.DebtCeiling == nil {
		cfg.DebtCeiling = big.NewInt(0)
	}
	return cfg, nil
}

// PutCollateralConfig stores the config and records the asset in the
// collateral index.
func (s *Store) PutCollateralConfig(asset string, cfg *CollateralConfig) error {
	normalised := normaliseAsset(asset)
	if err := s.kv.KVPut(collateralConfigKey(normalised), cfg); err != nil {
		return err
	}
	return s.kv.KVAppend(collateralIndexKey, []byte(normalised))
}

// CollateralAssets lists every registered collateral asset in sorted order.
func (s *Store) CollateralAssets() ([]string, error) {
	return s.assetIndex(collateralIndexKey)
}

// PriceFeed returns the latest submitted feed for asset, nil when none exists.
func (s *Store) PriceFeed(asset string) (*PriceFeed, error) {
	feed := new(PriceFeed)
	ok, err := s.kv.KVGet(priceFeedKey(normaliseAsset(asset)), feed)
	if err != nil || !ok {
		return nil, err
	}
	if feed.Price == nil {
		feed.Price = big.NewInt(0)
	}
	return feed, nil
}

// PutPriceFeed overwrites the feed for asset.
func (s *Store) PutPriceFeed(asset string, feed *PriceFeed) error {
	return s.kv.KVPut(priceFeedKey(normaliseAsset(asset)), feed)
}

// Trove returns the position for (owner, asset), nil when absent.
func (s *Store) Trove(owner crypto.Address, asset string) (*Trove, error) {
	trove := new(Trove)
	ok, err := s.kv.KVGet(troveKey(owner, normaliseAsset(asset)), trove)
	if err != nil || !ok {
		return nil, err
	}
	if trove.Collateral == nil {
		trove.Collateral = big.NewInt(0)
	}
	if trove.Debt == nil {
		trove.Debt = big.NewInt(0)
	}
	return trove, nil
}

// PutTrove stores the position for (owner, asset).
func (s *Store) PutTrove(owner crypto.Address, asset string, trove *Trove) error {
	return s.kv.KVPut(troveKey(owner, normaliseAsset(asset)), trove)
}

// DeleteTrove removes the position for (owner, asset).
func (s *Store) DeleteTrove(owner crypto.Address, asset string) error {
	return s.kv.KVDelete(troveKey(owner, normaliseAsset(asset)))
}

// TotalDebt returns the aggregate debt issued against asset. A missing record
// reads as zero.
func (s *Store) TotalDebt(asset string) (*big.Int, error) {
	total := new(big.Int)
	ok, err := s.kv.KVGet(totalDebtKey(normaliseAsset(asset)), total)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return total, nil
}

// PutTotalDebt stores the aggregate debt for asset. Zero totals are removed
// rather than stored, to bound storage.
func (s *Store) PutTotalDebt(asset string, total *big.Int) error {
	key := totalDebtKey(normaliseAsset(asset))
	if total == nil || total.Sign() == 0 {
		return s.kv.KVDelete(key)
	}
	return s.kv.KVPut(key, total)
}

// StabilityDeposit returns the pool deposit record for account, nil when the
// account has never deposited.
func (s *Store) StabilityDeposit(account crypto.Address) (*StabilityDeposit, error) {
	deposit := new(StabilityDeposit)
	ok, err := s.kv.KVGet(depositKey(account), deposit)
	if err != nil || !ok {
		return nil, err
	}
	if deposit.Shares == nil {
		deposit.Shares = big.NewInt(0)
	}
	return deposit, nil
}

// PutStabilityDeposit stores the pool deposit record for account.
func (s *Store) PutStabilityDeposit(account crypto.Address, deposit *StabilityDeposit) error {
	return s.kv.KVPut(depositKey(account), deposit)
}

// PoolState returns the stability pool's global record, a zeroed record when
// the pool has never been touched.
func (s *Store) PoolState() (*PoolState, error) {
	pool := new(PoolState)
	ok, err := s.kv.KVGet(poolStateKey, pool)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &PoolState{TotalShares: big.NewInt(0), TotalPooled: big.NewInt(0)}, nil
	}
	if pool.TotalShares == nil {
		pool.TotalShares = big.NewInt(0)
	}
	if pool.TotalPooled == nil {
		pool.TotalPooled = big.NewInt(0)
	}
	return pool, nil
}

// PutPoolState stores the stability pool's global record.
func (s *Store) PutPoolState(pool *PoolState) error {
	return s.kv.KVPut(poolStateKey, pool)
}

// RewardPerShare returns the cumulative collateral-per-share accumulator for
// asset, zero when no reward has ever been distributed.
func (s *Store) RewardPerShare(asset string) (*big.Int, error) {
	value := new(big.Int)
	ok, err := s.kv.KVGet(rewardPerShareKey(normaliseAsset(asset)), value)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return value, nil
}

// PutRewardPerShare stores the accumulator for asset and records the asset in
// the reward index used by settlement.
func (s *Store) PutRewardPerShare(asset string, value *big.Int) error {
	normalised := normaliseAsset(asset)
	if err := s.kv.KVPut(rewardPerShareKey(normalised), value); err != nil {
		return err
	}
	return s.kv.KVAppend(rewardAssetIndexKey, []byte(normalised))
}

// RewardAssets lists every asset the accumulator has ever been advanced for,
// in sorted order.
func (s *Store) RewardAssets() ([]string, error) {
	return s.assetIndex(rewardAssetIndexKey)
}

// ClaimableReward returns the claimable collateral balance for
// (account, asset). A missing record reads as zero.
func (s *Store) ClaimableReward(account crypto.Address, asset string) (*big.Int, error) {
	value := new(big.Int)
	ok, err := s.kv.KVGet(claimableKey(account, normaliseAsset(asset)), value)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return value, nil
}

// PutClaimableReward stores the claimable balance, removing the entry when it
// reaches zero.
func (s *Store) PutClaimableReward(account crypto.Address, asset string, value *big.Int) error {
	key := claimableKey(account, normaliseAsset(asset))
	if value == nil || value.Sign() == 0 {
		return s.kv.KVDelete(key)
	}
	return s.kv.KVPut(key, value)
}

func (s *Store) assetIndex(key []byte) ([]string, error) {
	var raw [][]byte
	if err := s.kv.KVGetList(key, &raw); err != nil {
		return nil, err
	}
	assets := make([]string, 0, len(raw))
	for _, entry := range raw {
		assets = append(assets, string(entry))
	}
	sort.Strings(assets)
	return assets, nil
}
