package cdp

import (
	"math/big"

	"nusdcore/crypto"
	nativecommon "nusdcore/native/common"
)

// Liquidate processes a batch of candidate trove owners for one collateral
// asset and returns how many troves were actually liquidated. Owners without
// a trove, with zero debt, above the minimum ratio, or whose debt the
// stability pool cannot fully cover are skipped, not errors; an owner listed
// twice is processed at most once because the first pass removes the trove.
//
// Per liquidated trove: the penalty share of the collateral goes to the
// protocol owner's claimable balance, the remainder is distributed to pool
// shareholders through the reward accumulator, the trove's full debt is
// burned from the pool, the asset's total debt decreases and the trove is
// removed as an indivisible unit.
func (e *Engine) Liquidate(asset string, owners []crypto.Address) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return 0, err
	}
	if len(owners) == 0 {
		return 0, ErrInvalidAmount
	}
	cfg, err := e.expectConfig(asset)
	if err != nil {
		return 0, err
	}
	feed, err := e.expectPrice(asset)
	if err != nil {
		return 0, err
	}
	pool, err := e.store.PoolState()
	if err != nil {
		return 0, err
	}

	minRatio := new(big.Int).SetUint64(uint64(cfg.MinCollateralRatioBps))
	var processed uint64
	for _, owner := range owners {
		trove, err := e.store.Trove(owner, asset)
		if err != nil {
			return processed, err
		}
		if trove == nil || trove.Debt.Sign() == 0 {
			continue
		}
		ratio, err := collateralRatio(trove.Collateral, trove.Debt, feed)
		if err != nil {
			return processed, err
		}
		if ratio.Cmp(minRatio) >= 0 {
			continue
		}
		// All-or-nothing per trove: a pool that cannot absorb the full
		// debt leaves the trove standing until topped up.
		if pool.TotalPooled.Cmp(trove.Debt) < 0 {
			continue
		}

		penalty, err := bpsShare(trove.Collateral, cfg.LiquidationPenaltyBps)
		if err != nil {
			return processed, err
		}
		distributable := new(big.Int).Sub(trove.Collateral, penalty)

		if err := e.accrueRewardPerShare(asset, distributable, pool); err != nil {
			return processed, err
		}
		if err := e.enqueueCollateralReward(e.owner, asset, penalty); err != nil {
			return processed, err
		}
		if err := e.burnFromStabilityPool(trove.Debt, pool); err != nil {
			return processed, err
		}
		if err := e.adjustTotalDebt(asset, new(big.Int).Neg(trove.Debt)); err != nil {
			return processed, err
		}
		if err := e.store.DeleteTrove(owner, asset); err != nil {
			return processed, err
		}
		processed++
	}
	return processed, nil
}
