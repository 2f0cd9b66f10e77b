package cdp

import "math/big"

// checkCeiling rejects a prospective total debt above the asset's registered
// ceiling.
func (e *Engine) checkCeiling(asset string, prospectiveTotal *big.Int) error {
	cfg, err := e.expectConfig(asset)
	if err != nil {
		return err
	}
	if prospectiveTotal.Cmp(cfg.DebtCeiling) > 0 {
		return ErrCeilingExceeded
	}
	return nil
}

// adjustTotalDebt is the single mutation point for an asset's running debt
// total. Increases enforce the debt ceiling, decreases fail on underflow, and
// a total that reaches zero is removed rather than stored.
func (e *Engine) adjustTotalDebt(asset string, delta *big.Int) error {
	total, err := e.store.TotalDebt(asset)
	if err != nil {
		return err
	}
	if delta.Sign() >= 0 {
		increased, err := addChecked(total, delta)
		if err != nil {
			return err
		}
		if err := e.checkCeiling(asset, increased); err != nil {
			return err
		}
		total = increased
	} else {
		reduction := new(big.Int).Neg(delta)
		if total.Cmp(reduction) < 0 {
			return ErrDebtUnderflow
		}
		total = new(big.Int).Sub(total, reduction)
	}
	return e.store.PutTotalDebt(asset, total)
}
