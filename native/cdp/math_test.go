package cdp

import (
	"errors"
	"math/big"
	"testing"
)

func TestCollateralRatio(t *testing.T) {
	feed := &PriceFeed{Price: big.NewInt(20000), Decimals: 2}

	ratio, err := collateralRatio(big.NewInt(100), big.NewInt(10000), feed)
	if err != nil {
		t.Fatalf("ratio: %v", err)
	}
	mustBigEq(t, ratio, 20000, "ratio")

	// Division truncates toward zero.
	ratio, err = collateralRatio(big.NewInt(100), big.NewInt(13333), feed)
	if err != nil {
		t.Fatalf("ratio: %v", err)
	}
	mustBigEq(t, ratio, 15000, "truncated ratio")

	ratio, err = collateralRatio(big.NewInt(100), big.NewInt(0), feed)
	if err != nil {
		t.Fatalf("ratio: %v", err)
	}
	if ratio.Cmp(infiniteRatio) != 0 {
		t.Fatalf("expected infinite sentinel for zero debt, got %s", ratio)
	}
}

func TestBpsShare(t *testing.T) {
	share, err := bpsShare(big.NewInt(10000), 50)
	if err != nil {
		t.Fatalf("share: %v", err)
	}
	mustBigEq(t, share, 50, "penalty share")

	share, err = bpsShare(big.NewInt(199), 50)
	if err != nil {
		t.Fatalf("share: %v", err)
	}
	mustBigEq(t, share, 0, "truncated share")
}

func TestCheckedArithmeticBounds(t *testing.T) {
	if err := checkRange(nil); !errors.Is(err, ErrAmountRange) {
		t.Fatalf("expected ErrAmountRange for nil, got %v", err)
	}
	if err := checkRange(big.NewInt(-1)); !errors.Is(err, ErrAmountRange) {
		t.Fatalf("expected ErrAmountRange for negative, got %v", err)
	}
	if err := checkRange(new(big.Int).Set(maxAmount)); err != nil {
		t.Fatalf("max amount should pass: %v", err)
	}
	over := new(big.Int).Add(maxAmount, big.NewInt(1))
	if err := checkRange(over); !errors.Is(err, ErrAmountRange) {
		t.Fatalf("expected ErrAmountRange above 2^128-1, got %v", err)
	}

	if _, err := mulChecked(maxAmount, big.NewInt(2)); !errors.Is(err, ErrAmountRange) {
		t.Fatalf("expected ErrAmountRange from mul overflow, got %v", err)
	}
	if _, err := addChecked(maxAmount, big.NewInt(1)); !errors.Is(err, ErrAmountRange) {
		t.Fatalf("expected ErrAmountRange from add overflow, got %v", err)
	}

	product, err := mulChecked(big.NewInt(6), big.NewInt(7))
	if err != nil {
		t.Fatalf("mul: %v", err)
	}
	mustBigEq(t, product, 42, "product")
}
