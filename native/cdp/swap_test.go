package cdp

import (
	"context"
	"errors"
	"math/big"
	"testing"
)

type mockRouter struct {
	requests []SwapRequest
	fail     error
}

func (r *mockRouter) ExecuteSwap(ctx context.Context, req SwapRequest) error {
	if r.fail != nil {
		return r.fail
	}
	r.requests = append(r.requests, req)
	return nil
}

func TestTriggerSwapDispatchesRequest(t *testing.T) {
	env := newTestEnv(t)
	router := &mockRouter{}
	env.engine.SetSwapRouter(router)

	err := env.engine.TriggerSwap(context.Background(), env.owner, "ATOM", "NUSD", big.NewInt(5000), big.NewInt(4900), "spot")
	if err != nil {
		t.Fatalf("trigger swap: %v", err)
	}
	if len(router.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(router.requests))
	}
	req := router.requests[0]
	if req.InputToken != "ATOM" || req.OutputToken != "NUSD" || req.RoutingHint != "spot" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.AmountIn.Cmp(big.NewInt(5000)) != 0 || req.MinOut.Cmp(big.NewInt(4900)) != 0 {
		t.Fatalf("unexpected amounts: %+v", req)
	}
	if !addressesEqual(req.Caller, env.owner) {
		t.Fatalf("unexpected caller")
	}
}

func TestTriggerSwapValidation(t *testing.T) {
	env := newTestEnv(t)

	err := env.engine.TriggerSwap(context.Background(), env.owner, "ATOM", "NUSD", big.NewInt(1), nil, "")
	if !errors.Is(err, ErrRouterNotConfigured) {
		t.Fatalf("expected ErrRouterNotConfigured, got %v", err)
	}

	env.engine.SetSwapRouter(&mockRouter{})
	err = env.engine.TriggerSwap(context.Background(), makeAddress(0x99), "ATOM", "NUSD", big.NewInt(1), nil, "")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	err = env.engine.TriggerSwap(context.Background(), env.owner, "ATOM", "NUSD", big.NewInt(0), nil, "")
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestOnSwapCompleteHandlesAnyReport(t *testing.T) {
	env := newTestEnv(t)

	env.engine.OnSwapComplete(SwapResult{RequestID: "r1", Caller: env.owner, InputToken: "ATOM", AmountIn: big.NewInt(10), Success: true})
	env.engine.OnSwapComplete(SwapResult{RequestID: "r2", Caller: env.owner, InputToken: "ATOM", Success: false, Detail: "slippage"})

	var nilEngine *Engine
	nilEngine.OnSwapComplete(SwapResult{})
}
