package cdp

import (
	"context"
	"math/big"

	"nusdcore/crypto"
	nativecommon "nusdcore/native/common"
)

// SwapRequest describes an asset rebalancing order handed to the external
// routing facility.
type SwapRequest struct {
	RequestID   string
	Caller      crypto.Address
	InputToken  string
	OutputToken string
	AmountIn    *big.Int
	MinOut      *big.Int
	RoutingHint string
}

// SwapResult is the out-of-band completion report for a previously issued
// swap request.
type SwapResult struct {
	RequestID  string
	Caller     crypto.Address
	InputToken string
	AmountIn   *big.Int
	Success    bool
	Detail     string
}

// SwapRouter executes swaps asynchronously. ExecuteSwap returns once the
// request is accepted for routing; the outcome arrives later through
// OnSwapComplete.
type SwapRouter interface {
	ExecuteSwap(ctx context.Context, req SwapRequest) error
}

// TriggerSwap asks the external router to rebalance protocol assets. Owner
// only. The call is fire-and-forget: no engine state changes here, and the
// eventual completion report is consumed by OnSwapComplete for logging only.
func (e *Engine) TriggerSwap(ctx context.Context, caller crypto.Address, inputToken, outputToken string, amountIn, minOut *big.Int, routingHint string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if !addressesEqual(caller, e.owner) {
		return ErrUnauthorized
	}
	if e.router == nil {
		return ErrRouterNotConfigured
	}
	if err := validateAmount(amountIn); err != nil {
		return err
	}
	return e.router.ExecuteSwap(ctx, SwapRequest{
		Caller:      caller,
		InputToken:  inputToken,
		OutputToken: outputToken,
		AmountIn:    amountIn,
		MinOut:      minOut,
		RoutingHint: routingHint,
	})
}

// OnSwapComplete consumes a router completion report. State committed before
// the swap was issued is final; the report is bookkeeping only.
func (e *Engine) OnSwapComplete(result SwapResult) {
	if e == nil {
		return
	}
	amount := ""
	if result.AmountIn != nil {
		amount = result.AmountIn.String()
	}
	if result.Success {
		e.log.Info("swap completed",
			"requestId", result.RequestID,
			"caller", result.Caller.String(),
			"token", result.InputToken,
			"amountIn", amount)
		return
	}
	e.log.Warn("swap failed",
		"requestId", result.RequestID,
		"caller", result.Caller.String(),
		"token", result.InputToken,
		"amountIn", amount,
		"detail", result.Detail)
}
