package cdp

import (
	"bytes"
	"errors"
	"log/slog"
	"math/big"
	"time"

	"nusdcore/crypto"
	nativecommon "nusdcore/native/common"
)

var (
	ErrNilState                = errors.New("cdp engine: state not configured")
	ErrInvalidAmount           = errors.New("cdp engine: amount must be positive")
	ErrAmountRange             = errors.New("cdp engine: amount outside 128-bit range")
	ErrUnauthorized            = errors.New("cdp engine: caller not authorized")
	ErrNotSupported            = errors.New("cdp engine: collateral not supported")
	ErrInvalidConfig           = errors.New("cdp engine: invalid collateral config")
	ErrInvalidDecimals         = errors.New("cdp engine: decimals must be <= 18")
	ErrNoPrice                 = errors.New("cdp engine: price not available")
	ErrTroveNotFound           = errors.New("cdp engine: trove not found")
	ErrCeilingExceeded         = errors.New("cdp engine: collateral debt ceiling reached")
	ErrBelowMinimumRatio       = errors.New("cdp engine: insufficient collateral ratio")
	ErrRepayExceedsDebt        = errors.New("cdp engine: repay exceeds debt")
	ErrInsufficientCollateral  = errors.New("cdp engine: not enough collateral")
	ErrOutstandingDebt         = errors.New("cdp engine: outstanding debt")
	ErrNoCollateral            = errors.New("cdp engine: no collateral to withdraw")
	ErrDebtUnderflow           = errors.New("cdp engine: total debt underflow")
	ErrNothingDeposited        = errors.New("cdp engine: nothing deposited")
	ErrPoolDepleted            = errors.New("cdp engine: stability pool depleted")
	ErrInsufficientDeposit     = errors.New("cdp engine: insufficient pool balance")
	ErrDustShares              = errors.New("cdp engine: amount too small to convert to shares")
	ErrNothingToClaim          = errors.New("cdp engine: nothing to claim")
	ErrClaimExceedsBalance     = errors.New("cdp engine: claim exceeds claimable balance")
	ErrRedeemExceedsDebt       = errors.New("cdp engine: redemption exceeds trove debt")
	ErrRedeemTooSmall          = errors.New("cdp engine: redemption amount too small")
	ErrRedeemExceedsCollateral = errors.New("cdp engine: redemption exceeds collateral")
	ErrRouterNotConfigured     = errors.New("cdp engine: swap router not configured")
	ErrBankNotConfigured       = errors.New("cdp engine: collateral bank not configured")
)

const moduleName = "cdp"

// minCollateralRatioFloorBps is the lowest MCR any collateral may register
// with: 110%.
const minCollateralRatioFloorBps = 1100

// maxPriceDecimals bounds oracle submissions; enforced at submission, never in
// the ratio math.
const maxPriceDecimals = 18

// TokenLedger is the fungible-ledger collaborator tracking nUSD balances and
// total supply. The engine only drives supply changes and custodial moves;
// transfer/approval semantics and account registration belong to the ledger.
type TokenLedger interface {
	Mint(account crypto.Address, amount *big.Int) error
	Burn(account crypto.Address, amount *big.Int) error
	Transfer(from, to crypto.Address, amount *big.Int) error
	BalanceOf(account crypto.Address) (*big.Int, error)
}

// CollateralBank delivers collateral tokens to recipients. Requests are
// fire-and-forget: the engine commits state before asking for delivery and a
// failed delivery never restores the committed state. An error from Transfer
// means the request could not be issued at all.
type CollateralBank interface {
	Transfer(asset string, to crypto.Address, amount *big.Int) error
}

// Engine orchestrates every state transition of the stablecoin accounting
// core: trove mutations, stability pool accounting, liquidations, redemptions
// and reward claims. Operations are all-or-nothing; a violated precondition
// leaves no partial state behind.
type Engine struct {
	store  *Store
	ledger TokenLedger
	bank   CollateralBank
	router SwapRouter
	pauses nativecommon.PauseView
	owner  crypto.Address
	oracle crypto.Address
	// module is the custody account holding pooled stability deposits.
	module crypto.Address
	clock  func() time.Time
	log    *slog.Logger
}

// NewEngine constructs an engine bound to its store, token ledger and the
// protocol owner, oracle and custody accounts.
func NewEngine(store *Store, ledger TokenLedger, owner, oracle, module crypto.Address) *Engine {
	return &Engine{
		store:  store,
		ledger: ledger,
		owner:  owner,
		oracle: oracle,
		module: module,
		clock:  time.Now,
		log:    slog.Default(),
	}
}

// SetCollateralBank wires the value-transfer collaborator used for collateral
// deliveries.
func (e *Engine) SetCollateralBank(bank CollateralBank) {
	if e == nil {
		return
	}
	e.bank = bank
}

// SetSwapRouter wires the external swap facility used by TriggerSwap.
func (e *Engine) SetSwapRouter(router SwapRouter) {
	if e == nil {
		return
	}
	e.router = router
}

// SetPauses wires the module pause switchboard.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetClock overrides the time source for deterministic testing.
func (e *Engine) SetClock(clock func() time.Time) {
	if e == nil || clock == nil {
		return
	}
	e.clock = clock
}

// SetLogger overrides the logger used for out-of-band effect reporting.
func (e *Engine) SetLogger(log *slog.Logger) {
	if e == nil || log == nil {
		return
	}
	e.log = log
}

// Owner returns the protocol owner account.
func (e *Engine) Owner() crypto.Address {
	return e.owner
}

func (e *Engine) nowMilli() uint64 {
	return uint64(e.clock().UnixMilli())
}

func addressesEqual(a, b crypto.Address) bool {
	return bytes.Equal(a.Bytes(), b.Bytes())
}

func (e *Engine) ready() error {
	if e == nil || e.store == nil || e.ledger == nil {
		return ErrNilState
	}
	return nil
}

// RegisterCollateral records the risk parameters for a collateral asset.
// Owner only. Re-registering an asset overwrites its config; configs are
// never deleted while troves reference them.
func (e *Engine) RegisterCollateral(caller crypto.Address, asset string, cfg CollateralConfig) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if !addressesEqual(caller, e.owner) {
		return ErrUnauthorized
	}
	if cfg.MinCollateralRatioBps < minCollateralRatioFloorBps {
		return ErrInvalidConfig
	}
	if cfg.RecoveryCollateralRatioBps < cfg.MinCollateralRatioBps {
		return ErrInvalidConfig
	}
	if err := checkRange(cfg.DebtCeiling); err != nil {
		return err
	}
	return e.store.PutCollateralConfig(asset, cfg.Clone())
}

// SubmitPrice records the latest oracle price for a collateral asset,
// overwriting any previous feed. Oracle only. Price submission stays open
// while the module is paused: feeds must not go stale during an incident, or
// every ratio computed after resume would be against a frozen price.
func (e *Engine) SubmitPrice(caller crypto.Address, asset string, price *big.Int, decimals uint8) error {
	if err := e.ready(); err != nil {
		return err
	}
	if !addressesEqual(caller, e.oracle) {
		return ErrUnauthorized
	}
	if decimals > maxPriceDecimals {
		return ErrInvalidDecimals
	}
	if price == nil || price.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if err := checkRange(price); err != nil {
		return err
	}
	feed := &PriceFeed{
		Price:     new(big.Int).Set(price),
		Decimals:  decimals,
		UpdatedAt: e.nowMilli(),
	}
	return e.store.PutPriceFeed(asset, feed)
}

func (e *Engine) expectConfig(asset string) (*CollateralConfig, error) {
	cfg, err := e.store.CollateralConfig(asset)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, ErrNotSupported
	}
	return cfg, nil
}

func (e *Engine) expectPrice(asset string) (*PriceFeed, error) {
	feed, err := e.store.PriceFeed(asset)
	if err != nil {
		return nil, err
	}
	if feed == nil {
		return nil, ErrNoPrice
	}
	return feed, nil
}

func (e *Engine) expectTrove(owner crypto.Address, asset string) (*Trove, error) {
	trove, err := e.store.Trove(owner, asset)
	if err != nil {
		return nil, err
	}
	if trove == nil {
		return nil, ErrTroveNotFound
	}
	return trove, nil
}

func validateAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return checkRange(amount)
}
