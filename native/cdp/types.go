package cdp

import (
	"math/big"
	"sort"
)

// StabilityPoolMode selects how liquidated debt for a collateral asset is
// absorbed. Dedicated pools are the only mode currently implemented; Shared is
// reserved for configurations where several assets drain one pool.
type StabilityPoolMode uint8

const (
	StabilityPoolDedicated StabilityPoolMode = iota
	StabilityPoolShared
)

// CollateralConfig holds the per-asset risk parameters fixed at registration.
// Amount values are expressed as big integers bounded to 128 bits to match the
// precision the protocol accounts in.
type CollateralConfig struct {
	// OraclePriceID names the upstream feed identifier for this asset.
	OraclePriceID string
	// MinCollateralRatioBps is the minimum collateralization ratio a trove
	// must satisfy after any debt-increasing or collateral-decreasing
	// mutation, expressed in basis points. Never below 1100.
	MinCollateralRatioBps uint16
	// RecoveryCollateralRatioBps marks the system-wide recovery threshold.
	// Always at least MinCollateralRatioBps.
	RecoveryCollateralRatioBps uint16
	// DebtCeiling caps the aggregate nUSD debt issued against this asset.
	DebtCeiling *big.Int
	// LiquidationPenaltyBps is the share of seized collateral diverted to
	// the protocol owner on liquidation.
	LiquidationPenaltyBps uint16
	// StabilityPoolMode records which pool absorbs this asset's bad debt.
	StabilityPoolMode StabilityPoolMode
}

// Clone returns a deep copy of the config.
func (c *CollateralConfig) Clone() *CollateralConfig {
	if c == nil {
		return nil
	}
	clone := *c
	if c.DebtCeiling != nil {
		clone.DebtCeiling = new(big.Int).Set(c.DebtCeiling)
	}
	return &clone
}

// PriceFeed is the latest oracle submission for a collateral asset. Each
// submission overwrites the previous one wholesale; no history is retained.
type PriceFeed struct {
	Price     *big.Int
	Decimals  uint8
	UpdatedAt uint64
}

// Clone returns a deep copy of the feed.
func (p *PriceFeed) Clone() *PriceFeed {
	if p == nil {
		return nil
	}
	clone := *p
	if p.Price != nil {
		clone.Price = new(big.Int).Set(p.Price)
	}
	return &clone
}

// Trove is a single borrower's position for one collateral asset. The
// (owner, asset) identity lives in the storage key, not the record. A trove is
// created lazily on the first collateral deposit and removed once both fields
// reach zero.
type Trove struct {
	Collateral *big.Int
	Debt       *big.Int
	UpdatedAt  uint64
}

// Clone returns a deep copy of the trove.
func (t *Trove) Clone() *Trove {
	if t == nil {
		return nil
	}
	clone := &Trove{UpdatedAt: t.UpdatedAt}
	if t.Collateral != nil {
		clone.Collateral = new(big.Int).Set(t.Collateral)
	}
	if t.Debt != nil {
		clone.Debt = new(big.Int).Set(t.Debt)
	}
	return clone
}

// RewardSnapshot records the reward-per-share accumulator value a deposit has
// already been charged against for one collateral asset.
type RewardSnapshot struct {
	Asset string
	Value *big.Int
}

// StabilityDeposit tracks one account's proportional ownership of the
// stability pool. Shares are a pool-internal unit distinct from nUSD amounts;
// Epoch tags the pool generation the shares belong to, so that deposits
// surviving a full pool depletion can be invalidated lazily.
type StabilityDeposit struct {
	Shares     *big.Int
	RewardDebt []RewardSnapshot
	Epoch      uint64
}

// NewStabilityDeposit returns an empty deposit bound to the given pool epoch.
func NewStabilityDeposit(epoch uint64) *StabilityDeposit {
	return &StabilityDeposit{Shares: big.NewInt(0), Epoch: epoch}
}

// rewardDebtFor returns the snapshotted accumulator value for asset, zero when
// the deposit has never been charged against it.
func (d *StabilityDeposit) rewardDebtFor(asset string) *big.Int {
	for i := range d.RewardDebt {
		if d.RewardDebt[i].Asset == asset {
			if d.RewardDebt[i].Value == nil {
				return big.NewInt(0)
			}
			return new(big.Int).Set(d.RewardDebt[i].Value)
		}
	}
	return big.NewInt(0)
}

// setRewardDebt advances the snapshot for asset, keeping entries sorted so the
// persisted encoding stays deterministic.
func (d *StabilityDeposit) setRewardDebt(asset string, value *big.Int) {
	for i := range d.RewardDebt {
		if d.RewardDebt[i].Asset == asset {
			d.RewardDebt[i].Value = new(big.Int).Set(value)
			return
		}
	}
	d.RewardDebt = append(d.RewardDebt, RewardSnapshot{Asset: asset, Value: new(big.Int).Set(value)})
	sort.Slice(d.RewardDebt, func(i, j int) bool {
		return d.RewardDebt[i].Asset < d.RewardDebt[j].Asset
	})
}

// Amount converts the deposit's shares into the nUSD amount they currently
// redeem for given the pool totals.
func (d *StabilityDeposit) Amount(totalPooled, totalShares *big.Int) *big.Int {
	if d == nil || d.Shares == nil || d.Shares.Sign() == 0 {
		return big.NewInt(0)
	}
	if totalShares == nil || totalShares.Sign() == 0 || totalPooled == nil || totalPooled.Sign() == 0 {
		return big.NewInt(0)
	}
	amount := new(big.Int).Mul(d.Shares, totalPooled)
	return amount.Quo(amount, totalShares)
}

// Clone returns a deep copy of the deposit.
func (d *StabilityDeposit) Clone() *StabilityDeposit {
	if d == nil {
		return nil
	}
	clone := &StabilityDeposit{Epoch: d.Epoch}
	if d.Shares != nil {
		clone.Shares = new(big.Int).Set(d.Shares)
	}
	if len(d.RewardDebt) > 0 {
		clone.RewardDebt = make([]RewardSnapshot, len(d.RewardDebt))
		for i, entry := range d.RewardDebt {
			clone.RewardDebt[i] = RewardSnapshot{Asset: entry.Asset}
			if entry.Value != nil {
				clone.RewardDebt[i].Value = new(big.Int).Set(entry.Value)
			}
		}
	}
	return clone
}

// PoolState is the stability pool's global accounting record. Epoch increments
// whenever a liquidation drains the pooled balance to exactly zero, wiping the
// share base.
type PoolState struct {
	TotalShares *big.Int
	TotalPooled *big.Int
	Epoch       uint64
}

// Clone returns a deep copy of the pool state.
func (p *PoolState) Clone() *PoolState {
	if p == nil {
		return nil
	}
	clone := &PoolState{Epoch: p.Epoch}
	if p.TotalShares != nil {
		clone.TotalShares = new(big.Int).Set(p.TotalShares)
	}
	if p.TotalPooled != nil {
		clone.TotalPooled = new(big.Int).Set(p.TotalPooled)
	}
	return clone
}
