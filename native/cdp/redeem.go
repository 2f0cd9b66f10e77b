package cdp

import (
	"math/big"

	"nusdcore/crypto"
	nativecommon "nusdcore/native/common"
)

// Redeem burns nUSD from the redeemer in exchange for collateral seized from
// the targeted trove at the oracle price, regardless of that trove's health.
// The seized collateral is credited to the redeemer's claimable balance, not
// transferred immediately, decoupling the burn from external delivery
// failures. A trove fully drained by the redemption is removed.
func (e *Engine) Redeem(redeemer crypto.Address, asset string, troveOwner crypto.Address, amount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if err := validateAmount(amount); err != nil {
		return err
	}
	trove, err := e.expectTrove(troveOwner, asset)
	if err != nil {
		return err
	}
	if trove.Debt.Cmp(amount) < 0 {
		return ErrRedeemExceedsDebt
	}
	feed, err := e.expectPrice(asset)
	if err != nil {
		return err
	}
	collateralOut, err := mulChecked(amount, decimalsFactor(feed.Decimals))
	if err != nil {
		return err
	}
	collateralOut.Quo(collateralOut, feed.Price)
	if collateralOut.Sign() == 0 {
		return ErrRedeemTooSmall
	}
	if trove.Collateral.Cmp(collateralOut) < 0 {
		return ErrRedeemExceedsCollateral
	}

	if err := e.ledger.Burn(redeemer, amount); err != nil {
		return err
	}
	trove.Debt = new(big.Int).Sub(trove.Debt, amount)
	trove.Collateral = new(big.Int).Sub(trove.Collateral, collateralOut)
	trove.UpdatedAt = e.nowMilli()
	if trove.Debt.Sign() == 0 && trove.Collateral.Sign() == 0 {
		if err := e.store.DeleteTrove(troveOwner, asset); err != nil {
			return err
		}
	} else {
		if err := e.store.PutTrove(troveOwner, asset, trove); err != nil {
			return err
		}
	}
	if err := e.adjustTotalDebt(asset, new(big.Int).Neg(amount)); err != nil {
		return err
	}
	return e.enqueueCollateralReward(redeemer, asset, collateralOut)
}
