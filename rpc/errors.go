package rpc

import (
	"errors"
	"net/http"

	"nusdcore/core/state"
	"nusdcore/native/cdp"
	nativecommon "nusdcore/native/common"
)

// engineError maps engine sentinel errors onto JSON-RPC error codes and HTTP
// statuses. Unknown errors are reported as opaque server failures.
func engineError(err error) (int, *RPCError) {
	switch {
	case err == nil:
		return http.StatusOK, nil
	case errors.Is(err, cdp.ErrUnauthorized):
		return http.StatusForbidden, &RPCError{Code: codeUnauthorized, Message: err.Error()}
	case errors.Is(err, nativecommon.ErrModulePaused):
		return http.StatusServiceUnavailable, &RPCError{Code: codeModulePaused, Message: err.Error()}
	case errors.Is(err, cdp.ErrInvalidAmount),
		errors.Is(err, cdp.ErrAmountRange),
		errors.Is(err, cdp.ErrInvalidConfig),
		errors.Is(err, cdp.ErrInvalidDecimals),
		errors.Is(err, cdp.ErrRedeemTooSmall),
		errors.Is(err, cdp.ErrDustShares):
		return http.StatusBadRequest, &RPCError{Code: codeInvalidParams, Message: err.Error()}
	case errors.Is(err, cdp.ErrNotSupported),
		errors.Is(err, cdp.ErrNoPrice),
		errors.Is(err, cdp.ErrTroveNotFound):
		return http.StatusNotFound, &RPCError{Code: codeNotFound, Message: err.Error()}
	case errors.Is(err, cdp.ErrCeilingExceeded),
		errors.Is(err, cdp.ErrBelowMinimumRatio),
		errors.Is(err, cdp.ErrRepayExceedsDebt),
		errors.Is(err, cdp.ErrInsufficientCollateral),
		errors.Is(err, cdp.ErrOutstandingDebt),
		errors.Is(err, cdp.ErrNoCollateral),
		errors.Is(err, cdp.ErrNothingDeposited),
		errors.Is(err, cdp.ErrPoolDepleted),
		errors.Is(err, cdp.ErrInsufficientDeposit),
		errors.Is(err, cdp.ErrNothingToClaim),
		errors.Is(err, cdp.ErrClaimExceedsBalance),
		errors.Is(err, cdp.ErrRedeemExceedsDebt),
		errors.Is(err, cdp.ErrRedeemExceedsCollateral),
		errors.Is(err, state.ErrInsufficientBalance):
		return http.StatusConflict, &RPCError{Code: codeStateConflict, Message: err.Error()}
	case errors.Is(err, cdp.ErrRouterNotConfigured),
		errors.Is(err, cdp.ErrBankNotConfigured):
		return http.StatusNotImplemented, &RPCError{Code: codeServerError, Message: err.Error()}
	default:
		return http.StatusInternalServerError, &RPCError{Code: codeServerError, Message: "internal error", Data: err.Error()}
	}
}
