package cdp

import (
	"math/big"

	"nusdcore/crypto"
)

// CollateralAssets lists every registered collateral asset.
func (e *Engine) CollateralAssets() ([]string, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.store.CollateralAssets()
}

// GetCollateralConfig returns the registered config for asset, nil when the
// asset is unknown.
func (e *Engine) GetCollateralConfig(asset string) (*CollateralConfig, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	cfg, err := e.store.CollateralConfig(asset)
	if err != nil || cfg == nil {
		return nil, err
	}
	return cfg.Clone(), nil
}

// GetPrice returns the latest price feed for asset, nil when none was ever
// submitted.
func (e *Engine) GetPrice(asset string) (*PriceFeed, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	feed, err := e.store.PriceFeed(asset)
	if err != nil || feed == nil {
		return nil, err
	}
	return feed.Clone(), nil
}

// GetTrove returns the position for (owner, asset), nil when absent.
func (e *Engine) GetTrove(owner crypto.Address, asset string) (*Trove, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	trove, err := e.store.Trove(owner, asset)
	if err != nil || trove == nil {
		return nil, err
	}
	return trove.Clone(), nil
}

// GetTotalDebt returns the aggregate nUSD debt issued against asset.
func (e *Engine) GetTotalDebt(asset string) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.store.TotalDebt(asset)
}

// StabilityPoolBalance returns the pooled nUSD backing the stability pool.
func (e *Engine) StabilityPoolBalance() (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	pool, err := e.store.PoolState()
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(pool.TotalPooled), nil
}

// StabilityPoolEpoch reports the pool's current generation counter.
func (e *Engine) StabilityPoolEpoch() (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	pool, err := e.store.PoolState()
	if err != nil {
		return 0, err
	}
	return pool.Epoch, nil
}

// StabilityPoolDeposit reports the account's pool position in nUSD amount
// form. Deposits stranded in a drained epoch read as zero.
func (e *Engine) StabilityPoolDeposit(account crypto.Address) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	pool, err := e.store.PoolState()
	if err != nil {
		return nil, err
	}
	deposit, err := e.store.StabilityDeposit(account)
	if err != nil {
		return nil, err
	}
	if deposit == nil || deposit.Epoch != pool.Epoch {
		return big.NewInt(0), nil
	}
	return deposit.Amount(pool.TotalPooled, pool.TotalShares), nil
}

// ClaimableCollateralReward reports the account's claimable collateral for
// asset, including its pending but not yet settled stability-pool share.
func (e *Engine) ClaimableCollateralReward(account crypto.Address, asset string) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	total, err := e.store.ClaimableReward(account, asset)
	if err != nil {
		return nil, err
	}
	deposit, err := e.store.StabilityDeposit(account)
	if err != nil {
		return nil, err
	}
	if deposit == nil || deposit.Shares == nil || deposit.Shares.Sign() == 0 {
		return total, nil
	}
	global, err := e.store.RewardPerShare(asset)
	if err != nil {
		return nil, err
	}
	paid := deposit.rewardDebtFor(asset)
	if global.Cmp(paid) <= 0 {
		return total, nil
	}
	pending, err := mulChecked(deposit.Shares, new(big.Int).Sub(global, paid))
	if err != nil {
		return nil, err
	}
	pending.Quo(pending, rewardScale)
	return addChecked(total, pending)
}
