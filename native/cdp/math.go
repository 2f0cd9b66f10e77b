package cdp

import "math/big"

var (
	basisPoints = big.NewInt(10_000)
	// rewardScale is the fixed-point base for the reward-per-share
	// accumulator. Large enough that per-liquidation truncation loss is
	// economically negligible at realistic share magnitudes.
	rewardScale = mustBigInt("1000000000000000000000000") // 1e24
	// maxAmount bounds every balance, price and intermediate product to the
	// 128-bit range the protocol accounts in. Products exceeding it abort
	// the call instead of silently wrapping.
	maxAmount = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	// infiniteRatio is the sentinel returned for troves with zero debt.
	infiniteRatio = new(big.Int).Set(maxAmount)
)

func mustBigInt(value string) *big.Int {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		panic("invalid big integer constant")
	}
	return v
}

// checkRange rejects nil, negative, and beyond-128-bit values.
func checkRange(v *big.Int) error {
	if v == nil || v.Sign() < 0 || v.Cmp(maxAmount) > 0 {
		return ErrAmountRange
	}
	return nil
}

// mulChecked multiplies a*b with the same semantics as a checked u128
// multiply: the product must stay within the 128-bit amount range.
func mulChecked(a, b *big.Int) (*big.Int, error) {
	if a == nil || b == nil {
		return nil, ErrAmountRange
	}
	product := new(big.Int).Mul(a, b)
	if err := checkRange(product); err != nil {
		return nil, err
	}
	return product, nil
}

// addChecked adds a+b within the 128-bit amount range.
func addChecked(a, b *big.Int) (*big.Int, error) {
	if a == nil || b == nil {
		return nil, ErrAmountRange
	}
	sum := new(big.Int).Add(a, b)
	if err := checkRange(sum); err != nil {
		return nil, err
	}
	return sum, nil
}

// decimalsFactor returns 10^decimals. Decimals above 18 are rejected at price
// submission time, never here.
func decimalsFactor(decimals uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}

// collateralRatio converts a position and price into a basis-point
// collateralization ratio using truncating integer division. A zero-debt
// position reports the infinite sentinel: it is always safe.
func collateralRatio(collateral, debt *big.Int, feed *PriceFeed) (*big.Int, error) {
	if debt == nil || debt.Sign() == 0 {
		return new(big.Int).Set(infiniteRatio), nil
	}
	value, err := mulChecked(collateral, feed.Price)
	if err != nil {
		return nil, err
	}
	value.Quo(value, decimalsFactor(feed.Decimals))
	ratio, err := mulChecked(value, basisPoints)
	if err != nil {
		return nil, err
	}
	return ratio.Quo(ratio, debt), nil
}

// bpsShare returns amount * bps / 10000, truncating.
func bpsShare(amount *big.Int, bps uint16) (*big.Int, error) {
	share, err := mulChecked(amount, new(big.Int).SetUint64(uint64(bps)))
	if err != nil {
		return nil, err
	}
	return share.Quo(share, basisPoints), nil
}
