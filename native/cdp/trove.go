package cdp

import (
	"math/big"

	"nusdcore/crypto"
	nativecommon "nusdcore/native/common"
)

// DepositCollateral credits collateral into the owner's trove for the given
// asset, creating the trove on first use. Adding collateral cannot worsen a
// position's health, so no ratio check applies. The collateral tokens are
// assumed to have been delivered to the protocol by the calling transport
// before this is invoked.
func (e *Engine) DepositCollateral(owner crypto.Address, asset string, amount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if err := validateAmount(amount); err != nil {
		return err
	}
	if _, err := e.expectConfig(asset); err != nil {
		return err
	}
	trove, err := e.store.Trove(owner, asset)
	if err != nil {
		return err
	}
	if trove == nil {
		trove = &Trove{Collateral: big.NewInt(0), Debt: big.NewInt(0)}
	}
	collateral, err := addChecked(trove.Collateral, amount)
	if err != nil {
		return err
	}
	trove.Collateral = collateral
	trove.UpdatedAt = e.nowMilli()
	return e.store.PutTrove(owner, asset, trove)
}

// Borrow issues nUSD debt against the caller's trove. The new debt must stay
// under the asset's ceiling and the trove must meet the asset's minimum
// collateralization ratio at the current price; on success the ledger mints
// the borrowed amount to the caller.
func (e *Engine) Borrow(caller crypto.Address, asset string, amount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if err := validateAmount(amount); err != nil {
		return err
	}
	trove, err := e.expectTrove(caller, asset)
	if err != nil {
		return err
	}
	cfg, err := e.expectConfig(asset)
	if err != nil {
		return err
	}
	feed, err := e.expectPrice(asset)
	if err != nil {
		return err
	}

	newDebt, err := addChecked(trove.Debt, amount)
	if err != nil {
		return err
	}
	ratio, err := collateralRatio(trove.Collateral, newDebt, feed)
	if err != nil {
		return err
	}
	if ratio.Cmp(new(big.Int).SetUint64(uint64(cfg.MinCollateralRatioBps))) < 0 {
		return ErrBelowMinimumRatio
	}
	// adjustTotalDebt enforces the ceiling on the prospective total.
	if err := e.adjustTotalDebt(asset, amount); err != nil {
		return err
	}

	trove.Debt = newDebt
	trove.UpdatedAt = e.nowMilli()
	if err := e.store.PutTrove(caller, asset, trove); err != nil {
		return err
	}
	return e.ledger.Mint(caller, amount)
}

// Repay burns nUSD from the caller and reduces their trove's debt. The amount
// must not exceed the outstanding debt.
func (e *Engine) Repay(caller crypto.Address, asset string, amount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if err := validateAmount(amount); err != nil {
		return err
	}
	trove, err := e.expectTrove(caller, asset)
	if err != nil {
		return err
	}
	if amount.Cmp(trove.Debt) > 0 {
		return ErrRepayExceedsDebt
	}
	if err := e.ledger.Burn(caller, amount); err != nil {
		return err
	}
	trove.Debt = new(big.Int).Sub(trove.Debt, amount)
	trove.UpdatedAt = e.nowMilli()
	if err := e.store.PutTrove(caller, asset, trove); err != nil {
		return err
	}
	return e.adjustTotalDebt(asset, new(big.Int).Neg(amount))
}

// WithdrawCollateral releases collateral from the caller's trove to the
// receiver (the caller when receiver is nil). While debt remains outstanding
// the reduced position must still meet the asset's minimum ratio. Delivery is
// requested after the state change commits and is not rolled back on failure.
func (e *Engine) WithdrawCollateral(caller crypto.Address, asset string, amount *big.Int, receiver *crypto.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if err := validateAmount(amount); err != nil {
		return err
	}
	if e.bank == nil {
		return ErrBankNotConfigured
	}
	trove, err := e.expectTrove(caller, asset)
	if err != nil {
		return err
	}
	if trove.Collateral.Cmp(amount) < 0 {
		return ErrInsufficientCollateral
	}
	remaining := new(big.Int).Sub(trove.Collateral, amount)
	if trove.Debt.Sign() > 0 {
		cfg, err := e.expectConfig(asset)
		if err != nil {
			return err
		}
		feed, err := e.expectPrice(asset)
		if err != nil {
			return err
		}
		ratio, err := collateralRatio(remaining, trove.Debt, feed)
		if err != nil {
			return err
		}
		if ratio.Cmp(new(big.Int).SetUint64(uint64(cfg.MinCollateralRatioBps))) < 0 {
			return ErrBelowMinimumRatio
		}
	}
	trove.Collateral = remaining
	trove.UpdatedAt = e.nowMilli()
	if err := e.store.PutTrove(caller, asset, trove); err != nil {
		return err
	}
	to := caller
	if receiver != nil {
		to = *receiver
	}
	return e.bank.Transfer(asset, to, amount)
}

// CloseTrove removes a debt-free trove and requests delivery of its full
// collateral balance to the owner. A trove with zero collateral and zero debt
// should not exist, so a collateral-less close is an error.
func (e *Engine) CloseTrove(caller crypto.Address, asset string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if e.bank == nil {
		return ErrBankNotConfigured
	}
	trove, err := e.expectTrove(caller, asset)
	if err != nil {
		return err
	}
	if trove.Debt.Sign() != 0 {
		return ErrOutstandingDebt
	}
	if trove.Collateral.Sign() == 0 {
		return ErrNoCollateral
	}
	if err := e.store.DeleteTrove(caller, asset); err != nil {
		return err
	}
	return e.bank.Transfer(asset, caller, trove.Collateral)
}
