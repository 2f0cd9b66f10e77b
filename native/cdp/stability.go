package cdp

import (
	"math/big"

	"nusdcore/crypto"
	nativecommon "nusdcore/native/common"
)

// sharesFromAmount prices shares against the pool's current backing. An empty
// pool bootstraps at one share per nUSD unit; afterwards the share price
// tracks the backing, so liquidation burns dilute every holder pro-rata
// without touching share counts.
func sharesFromAmount(pool *PoolState, amount *big.Int) (*big.Int, error) {
	if pool.TotalShares.Sign() == 0 || pool.TotalPooled.Sign() == 0 {
		return new(big.Int).Set(amount), nil
	}
	shares, err := mulChecked(amount, pool.TotalShares)
	if err != nil {
		return nil, err
	}
	return shares.Quo(shares, pool.TotalPooled), nil
}

// ensureDepositEpoch invalidates a deposit left over from a drained pool
// generation. Shares from the stale epoch first settle their pending rewards
// up to the depletion point, then reset to zero so the account cannot carry a
// share basis that no longer exists.
func (e *Engine) ensureDepositEpoch(account crypto.Address, deposit *StabilityDeposit, pool *PoolState) error {
	if deposit.Epoch == pool.Epoch {
		return nil
	}
	if deposit.Shares.Sign() > 0 {
		assets, err := e.store.RewardAssets()
		if err != nil {
			return err
		}
		for _, asset := range assets {
			if err := e.settleAssetReward(account, deposit, asset); err != nil {
				return err
			}
		}
	}
	deposit.RewardDebt = nil
	deposit.Shares = big.NewInt(0)
	deposit.Epoch = pool.Epoch
	return nil
}

// settleAssetReward credits the deposit's pending reward for one asset to its
// claimable balance without advancing the snapshot.
func (e *Engine) settleAssetReward(account crypto.Address, deposit *StabilityDeposit, asset string) error {
	global, err := e.store.RewardPerShare(asset)
	if err != nil {
		return err
	}
	paid := deposit.rewardDebtFor(asset)
	if global.Cmp(paid) <= 0 {
		return nil
	}
	delta := new(big.Int).Sub(global, paid)
	pending, err := mulChecked(deposit.Shares, delta)
	if err != nil {
		return err
	}
	pending.Quo(pending, rewardScale)
	if pending.Sign() == 0 {
		return nil
	}
	return e.enqueueCollateralReward(account, asset, pending)
}

// settleStabilityRewards lazily credits every pending reward the account has
// accrued, advances its snapshots to the current accumulator values and
// returns the refreshed deposit. Settlement is idempotent: a second call with
// no intervening distribution credits nothing.
func (e *Engine) settleStabilityRewards(account crypto.Address, pool *PoolState) (*StabilityDeposit, error) {
	deposit, err := e.store.StabilityDeposit(account)
	if err != nil {
		return nil, err
	}
	if deposit == nil {
		deposit = NewStabilityDeposit(pool.Epoch)
	}
	if err := e.ensureDepositEpoch(account, deposit, pool); err != nil {
		return nil, err
	}
	if deposit.Shares.Sign() == 0 || pool.TotalShares.Sign() == 0 {
		return deposit, e.store.PutStabilityDeposit(account, deposit)
	}
	assets, err := e.store.RewardAssets()
	if err != nil {
		return nil, err
	}
	for _, asset := range assets {
		if err := e.settleAssetReward(account, deposit, asset); err != nil {
			return nil, err
		}
		global, err := e.store.RewardPerShare(asset)
		if err != nil {
			return nil, err
		}
		deposit.setRewardDebt(asset, global)
	}
	return deposit, e.store.PutStabilityDeposit(account, deposit)
}

// syncRewardDebtSnapshot pins the deposit to the current accumulator values so
// it owes nothing for rewards distributed before it existed.
func (e *Engine) syncRewardDebtSnapshot(deposit *StabilityDeposit) error {
	assets, err := e.store.RewardAssets()
	if err != nil {
		return err
	}
	for _, asset := range assets {
		global, err := e.store.RewardPerShare(asset)
		if err != nil {
			return err
		}
		deposit.setRewardDebt(asset, global)
	}
	return nil
}

// DepositToStabilityPool moves nUSD from the account into the pool's custody
// and mints shares at the current pool price. The fresh shares snapshot the
// reward accumulators immediately, so the deposit cannot retroactively receive
// rewards from liquidations that predate it.
func (e *Engine) DepositToStabilityPool(account crypto.Address, amount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if err := validateAmount(amount); err != nil {
		return err
	}
	pool, err := e.store.PoolState()
	if err != nil {
		return err
	}
	deposit, err := e.settleStabilityRewards(account, pool)
	if err != nil {
		return err
	}
	shares, err := sharesFromAmount(pool, amount)
	if err != nil {
		return err
	}
	if shares.Sign() == 0 {
		return ErrDustShares
	}
	newShares, err := addChecked(deposit.Shares, shares)
	if err != nil {
		return err
	}
	newTotalShares, err := addChecked(pool.TotalShares, shares)
	if err != nil {
		return err
	}
	newTotalPooled, err := addChecked(pool.TotalPooled, amount)
	if err != nil {
		return err
	}
	// Custody takes the nUSD before any share or pool record commits, so a
	// depositor without the balance cannot leave phantom pool backing.
	if err := e.ledger.Transfer(account, e.module, amount); err != nil {
		return err
	}
	deposit.Shares = newShares
	pool.TotalShares = newTotalShares
	pool.TotalPooled = newTotalPooled
	if err := e.syncRewardDebtSnapshot(deposit); err != nil {
		return err
	}
	if err := e.store.PutStabilityDeposit(account, deposit); err != nil {
		return err
	}
	return e.store.PutPoolState(pool)
}

// WithdrawFromStabilityPool converts shares back to nUSD at the current pool
// price and returns them to the account. A nil amount withdraws the full
// available balance.
func (e *Engine) WithdrawFromStabilityPool(account crypto.Address, amount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	pool, err := e.store.PoolState()
	if err != nil {
		return err
	}
	deposit, err := e.settleStabilityRewards(account, pool)
	if err != nil {
		return err
	}
	if deposit.Shares.Sign() == 0 {
		return ErrNothingDeposited
	}
	available := deposit.Amount(pool.TotalPooled, pool.TotalShares)
	if available.Sign() == 0 {
		return ErrPoolDepleted
	}
	requested := available
	if amount != nil {
		if err := validateAmount(amount); err != nil {
			return err
		}
		if amount.Cmp(available) > 0 {
			return ErrInsufficientDeposit
		}
		requested = new(big.Int).Set(amount)
	}
	shares, err := sharesFromAmount(pool, requested)
	if err != nil {
		return err
	}
	if shares.Sign() == 0 {
		return ErrDustShares
	}
	if deposit.Shares.Cmp(shares) < 0 {
		return ErrInsufficientDeposit
	}
	if pool.TotalShares.Cmp(shares) < 0 || pool.TotalPooled.Cmp(requested) < 0 {
		return ErrPoolDepleted
	}
	deposit.Shares = new(big.Int).Sub(deposit.Shares, shares)
	pool.TotalShares = new(big.Int).Sub(pool.TotalShares, shares)
	pool.TotalPooled = new(big.Int).Sub(pool.TotalPooled, requested)
	if err := e.store.PutStabilityDeposit(account, deposit); err != nil {
		return err
	}
	if err := e.store.PutPoolState(pool); err != nil {
		return err
	}
	return e.ledger.Transfer(e.module, account, requested)
}

// accrueRewardPerShare distributes seized collateral to the pool's current
// shareholders by advancing the per-share accumulator. With no depositors at
// all the reward falls through to the protocol owner instead of being lost.
func (e *Engine) accrueRewardPerShare(asset string, amount *big.Int, pool *PoolState) error {
	if amount.Sign() == 0 {
		return nil
	}
	if pool.TotalShares.Sign() == 0 {
		return e.enqueueCollateralReward(e.owner, asset, amount)
	}
	accrued, err := e.store.RewardPerShare(asset)
	if err != nil {
		return err
	}
	scaled, err := mulChecked(amount, rewardScale)
	if err != nil {
		return err
	}
	scaled.Quo(scaled, pool.TotalShares)
	accrued, err = addChecked(accrued, scaled)
	if err != nil {
		return err
	}
	return e.store.PutRewardPerShare(asset, accrued)
}

// burnFromStabilityPool destroys pooled nUSD absorbed by a liquidation. When
// the burn drains the pool to exactly zero the share base is wiped and the
// epoch advances, invalidating every outstanding deposit record lazily.
func (e *Engine) burnFromStabilityPool(amount *big.Int, pool *PoolState) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if pool.TotalPooled.Cmp(amount) < 0 {
		return ErrPoolDepleted
	}
	pool.TotalPooled = new(big.Int).Sub(pool.TotalPooled, amount)
	if err := e.ledger.Burn(e.module, amount); err != nil {
		return err
	}
	if pool.TotalPooled.Sign() == 0 {
		pool.TotalShares = big.NewInt(0)
		pool.Epoch++
	}
	return e.store.PutPoolState(pool)
}
