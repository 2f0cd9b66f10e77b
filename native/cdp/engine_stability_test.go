package cdp

import (
	"errors"
	"math/big"
	"testing"

	"nusdcore/crypto"
)

func TestStabilityDepositBootstrapsShares(t *testing.T) {
	env := newTestEnv(t)
	alice := makeAddress(0x10)

	env.poolDeposit(t, alice, 1000)

	pool, err := env.store.PoolState()
	if err != nil {
		t.Fatalf("pool state: %v", err)
	}
	mustBigEq(t, pool.TotalShares, 1000, "total shares")
	mustBigEq(t, pool.TotalPooled, 1000, "total pooled")

	deposit, err := env.store.StabilityDeposit(alice)
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	mustBigEq(t, deposit.Shares, 1000, "deposit shares")

	mustBigEq(t, env.ledger.balance(alice), 0, "depositor balance")
	mustBigEq(t, env.ledger.balance(env.vault), 1000, "pool custody balance")

	available, err := env.engine.StabilityPoolDeposit(alice)
	if err != nil {
		t.Fatalf("pool deposit view: %v", err)
	}
	mustBigEq(t, available, 1000, "available")
}

func TestStabilityDepositWithoutFundsLeavesNoState(t *testing.T) {
	env := newTestEnv(t)
	alice := makeAddress(0x10)

	if err := env.engine.DepositToStabilityPool(alice, big.NewInt(1000)); err == nil {
		t.Fatalf("expected unfunded deposit to fail")
	}

	pool, err := env.store.PoolState()
	if err != nil {
		t.Fatalf("pool state: %v", err)
	}
	mustBigEq(t, pool.TotalShares, 0, "total shares")
	mustBigEq(t, pool.TotalPooled, 0, "total pooled")

	deposit, err := env.store.StabilityDeposit(alice)
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if deposit != nil && deposit.Shares.Sign() != 0 {
		t.Fatalf("expected no shares recorded, got %s", deposit.Shares)
	}
	mustBigEq(t, env.ledger.balance(env.vault), 0, "pool custody balance")

	// Partial funding fails the same way.
	env.ledger.setBalance(alice, big.NewInt(999))
	if err := env.engine.DepositToStabilityPool(alice, big.NewInt(1000)); err == nil {
		t.Fatalf("expected underfunded deposit to fail")
	}
	pool, err = env.store.PoolState()
	if err != nil {
		t.Fatalf("pool state: %v", err)
	}
	mustBigEq(t, pool.TotalPooled, 0, "total pooled after retry")
	mustBigEq(t, env.ledger.balance(alice), 999, "alice balance intact")
}

func TestStabilityRewardSplit(t *testing.T) {
	env := newTestEnv(t)
	env.registerAsset(t, "ATOM", 15000, 0, 100_000_000)
	env.submitPrice(t, "ATOM", 30000, 2)

	victim := makeAddress(0x20)
	env.openTrove(t, victim, "ATOM", 10000, 2_000_000)

	alice := makeAddress(0x10)
	bob := makeAddress(0x11)
	env.poolDeposit(t, alice, 1_000_000)
	env.poolDeposit(t, bob, 3_000_000)

	env.submitPrice(t, "ATOM", 20000, 2)
	processed, err := env.engine.Liquidate("ATOM", []crypto.Address{victim})
	if err != nil {
		t.Fatalf("liquidate: %v", err)
	}
	if processed != 1 {
		t.Fatalf("expected 1 liquidation, got %d", processed)
	}

	// The seized 10000 collateral splits 1:3 across the share base.
	aliceReward, err := env.engine.ClaimableCollateralReward(alice, "ATOM")
	if err != nil {
		t.Fatalf("alice reward: %v", err)
	}
	mustBigEq(t, aliceReward, 2500, "alice reward")
	bobReward, err := env.engine.ClaimableCollateralReward(bob, "ATOM")
	if err != nil {
		t.Fatalf("bob reward: %v", err)
	}
	mustBigEq(t, bobReward, 7500, "bob reward")
}

func TestStabilityLateDepositorEarnsNothing(t *testing.T) {
	env := newTestEnv(t)
	env.registerAsset(t, "ATOM", 15000, 0, 100_000_000)
	env.submitPrice(t, "ATOM", 30000, 2)

	victim := makeAddress(0x20)
	env.openTrove(t, victim, "ATOM", 10000, 2_000_000)

	alice := makeAddress(0x10)
	env.poolDeposit(t, alice, 4_000_000)

	env.submitPrice(t, "ATOM", 20000, 2)
	if _, err := env.engine.Liquidate("ATOM", []crypto.Address{victim}); err != nil {
		t.Fatalf("liquidate: %v", err)
	}

	// Carol joins the still-live pool after the seizure. Her snapshot pins
	// the accumulator at its current value, so the 10000 already distributed
	// stays with alice.
	carol := makeAddress(0x12)
	env.poolDeposit(t, carol, 1_000_000)

	carolReward, err := env.engine.ClaimableCollateralReward(carol, "ATOM")
	if err != nil {
		t.Fatalf("carol reward: %v", err)
	}
	mustBigEq(t, carolReward, 0, "carol reward")

	aliceReward, err := env.engine.ClaimableCollateralReward(alice, "ATOM")
	if err != nil {
		t.Fatalf("alice reward: %v", err)
	}
	mustBigEq(t, aliceReward, 10000, "alice reward")

	// Carol's principal is intact at the post-burn share price.
	carolAvailable, err := env.engine.StabilityPoolDeposit(carol)
	if err != nil {
		t.Fatalf("carol deposit view: %v", err)
	}
	mustBigEq(t, carolAvailable, 1_000_000, "carol available")
}

func TestStabilityWithdrawAfterBurnDilution(t *testing.T) {
	env := newTestEnv(t)
	env.registerAsset(t, "ATOM", 15000, 0, 100_000_000)
	env.submitPrice(t, "ATOM", 30000, 2)

	victim := makeAddress(0x20)
	env.openTrove(t, victim, "ATOM", 10000, 2_000_000)

	alice := makeAddress(0x10)
	bob := makeAddress(0x11)
	env.poolDeposit(t, alice, 1_000_000)
	env.poolDeposit(t, bob, 3_000_000)

	env.submitPrice(t, "ATOM", 20000, 2)
	if _, err := env.engine.Liquidate("ATOM", []crypto.Address{victim}); err != nil {
		t.Fatalf("liquidate: %v", err)
	}

	// Burning 2m from a 4m pool halves the backing per share.
	available, err := env.engine.StabilityPoolDeposit(alice)
	if err != nil {
		t.Fatalf("deposit view: %v", err)
	}
	mustBigEq(t, available, 500_000, "alice available")

	if err := env.engine.WithdrawFromStabilityPool(alice, big.NewInt(500_001)); !errors.Is(err, ErrInsufficientDeposit) {
		t.Fatalf("expected ErrInsufficientDeposit, got %v", err)
	}
	if err := env.engine.WithdrawFromStabilityPool(alice, nil); err != nil {
		t.Fatalf("withdraw all: %v", err)
	}
	mustBigEq(t, env.ledger.balance(alice), 500_000, "alice balance")

	if err := env.engine.WithdrawFromStabilityPool(alice, nil); !errors.Is(err, ErrNothingDeposited) {
		t.Fatalf("expected ErrNothingDeposited, got %v", err)
	}

	pool, err := env.store.PoolState()
	if err != nil {
		t.Fatalf("pool state: %v", err)
	}
	mustBigEq(t, pool.TotalShares, 3_000_000, "remaining shares")
	mustBigEq(t, pool.TotalPooled, 1_500_000, "remaining pooled")
}

func TestStabilityPartialWithdraw(t *testing.T) {
	env := newTestEnv(t)
	alice := makeAddress(0x10)
	env.poolDeposit(t, alice, 1000)

	if err := env.engine.WithdrawFromStabilityPool(alice, big.NewInt(400)); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	mustBigEq(t, env.ledger.balance(alice), 400, "alice balance")

	available, err := env.engine.StabilityPoolDeposit(alice)
	if err != nil {
		t.Fatalf("deposit view: %v", err)
	}
	mustBigEq(t, available, 600, "remaining available")
}

func TestStabilityWithdrawValidation(t *testing.T) {
	env := newTestEnv(t)
	alice := makeAddress(0x10)

	if err := env.engine.WithdrawFromStabilityPool(alice, nil); !errors.Is(err, ErrNothingDeposited) {
		t.Fatalf("expected ErrNothingDeposited, got %v", err)
	}

	env.poolDeposit(t, alice, 1000)
	if err := env.engine.WithdrawFromStabilityPool(alice, big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if err := env.engine.DepositToStabilityPool(alice, big.NewInt(-1)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative deposit, got %v", err)
	}
}

func TestStabilityEpochInvalidation(t *testing.T) {
	env := newTestEnv(t)
	env.registerAsset(t, "ATOM", 15000, 0, 100_000_000)
	env.submitPrice(t, "ATOM", 30000, 2)

	victim := makeAddress(0x20)
	env.openTrove(t, victim, "ATOM", 10000, 2_000_000)

	alice := makeAddress(0x10)
	env.poolDeposit(t, alice, 2_000_000)

	env.submitPrice(t, "ATOM", 20000, 2)
	if _, err := env.engine.Liquidate("ATOM", []crypto.Address{victim}); err != nil {
		t.Fatalf("liquidate: %v", err)
	}

	// The burn drained the pool to zero, so the epoch advanced and every
	// outstanding share basis is void.
	pool, err := env.store.PoolState()
	if err != nil {
		t.Fatalf("pool state: %v", err)
	}
	if pool.Epoch != 1 {
		t.Fatalf("expected epoch 1, got %d", pool.Epoch)
	}
	mustBigEq(t, pool.TotalShares, 0, "total shares")
	mustBigEq(t, pool.TotalPooled, 0, "total pooled")

	available, err := env.engine.StabilityPoolDeposit(alice)
	if err != nil {
		t.Fatalf("deposit view: %v", err)
	}
	mustBigEq(t, available, 0, "stale deposit reads zero")

	// The seized collateral is still hers, settled lazily on the next touch.
	reward, err := env.engine.ClaimableCollateralReward(alice, "ATOM")
	if err != nil {
		t.Fatalf("claimable: %v", err)
	}
	mustBigEq(t, reward, 10000, "claimable after drain")

	if err := env.engine.WithdrawFromStabilityPool(alice, nil); !errors.Is(err, ErrNothingDeposited) {
		t.Fatalf("expected ErrNothingDeposited, got %v", err)
	}
	stored, err := env.store.ClaimableReward(alice, "ATOM")
	if err != nil {
		t.Fatalf("stored claimable: %v", err)
	}
	mustBigEq(t, stored, 10000, "settled claimable")

	// A fresh deposit re-enters the new epoch at the bootstrap share price.
	env.poolDeposit(t, alice, 500)
	deposit, err := env.store.StabilityDeposit(alice)
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if deposit.Epoch != 1 {
		t.Fatalf("expected deposit epoch 1, got %d", deposit.Epoch)
	}
	mustBigEq(t, deposit.Shares, 500, "fresh shares")
}

func TestStabilityRewardFallsToOwnerWithoutShareholders(t *testing.T) {
	env := newTestEnv(t)
	env.registerAsset(t, "ATOM", 15000, 0, 100_000_000)

	pool, err := env.store.PoolState()
	if err != nil {
		t.Fatalf("pool state: %v", err)
	}
	if err := env.engine.accrueRewardPerShare("ATOM", big.NewInt(750), pool); err != nil {
		t.Fatalf("accrue: %v", err)
	}

	reward, err := env.engine.ClaimableCollateralReward(env.owner, "ATOM")
	if err != nil {
		t.Fatalf("owner reward: %v", err)
	}
	mustBigEq(t, reward, 750, "owner fallback reward")
}
