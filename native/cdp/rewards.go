package cdp

import (
	"math/big"

	"nusdcore/crypto"
	nativecommon "nusdcore/native/common"
)

// enqueueCollateralReward adds collateral units to an account's claimable
// balance. Claimable balances are additive, survive pool epochs and are
// independent of share ownership.
func (e *Engine) enqueueCollateralReward(account crypto.Address, asset string, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	current, err := e.store.ClaimableReward(account, asset)
	if err != nil {
		return err
	}
	current, err = addChecked(current, amount)
	if err != nil {
		return err
	}
	return e.store.PutClaimableReward(account, asset, current)
}

// ClaimCollateralReward settles the account's pending stability rewards, then
// pays out up to the claimable balance for the asset. A nil amount claims
// everything. The balance is decremented before delivery is requested, so a
// failed delivery does not restore it; recovering stuck balances is the
// operator's concern, not the core's.
func (e *Engine) ClaimCollateralReward(account crypto.Address, asset string, amount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if e.bank == nil {
		return ErrBankNotConfigured
	}
	pool, err := e.store.PoolState()
	if err != nil {
		return err
	}
	if _, err := e.settleStabilityRewards(account, pool); err != nil {
		return err
	}
	claimable, err := e.store.ClaimableReward(account, asset)
	if err != nil {
		return err
	}
	if claimable.Sign() == 0 {
		return ErrNothingToClaim
	}
	toClaim := claimable
	if amount != nil {
		if err := validateAmount(amount); err != nil {
			return err
		}
		if amount.Cmp(claimable) > 0 {
			return ErrClaimExceedsBalance
		}
		toClaim = new(big.Int).Set(amount)
	}
	remaining := new(big.Int).Sub(claimable, toClaim)
	if err := e.store.PutClaimableReward(account, asset, remaining); err != nil {
		return err
	}
	return e.bank.Transfer(asset, account, toClaim)
}
