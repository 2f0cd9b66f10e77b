package rpc

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"nusdcore/crypto"
	"nusdcore/native/cdp"
)

type registerCollateralParams struct {
	Caller string `json:"caller"`
	Asset  string `json:"asset"`
	Config struct {
		OraclePriceID              string `json:"oraclePriceId"`
		MinCollateralRatioBps      uint16 `json:"minCollateralRatioBps"`
		RecoveryCollateralRatioBps uint16 `json:"recoveryCollateralRatioBps"`
		DebtCeiling                string `json:"debtCeiling"`
		LiquidationPenaltyBps      uint16 `json:"liquidationPenaltyBps"`
		StabilityPoolMode          string `json:"stabilityPoolMode,omitempty"`
	} `json:"config"`
}

type submitPriceParams struct {
	Caller   string `json:"caller"`
	Asset    string `json:"asset"`
	Price    string `json:"price"`
	Decimals uint8  `json:"decimals"`
}

type troveMutationParams struct {
	Caller string `json:"caller"`
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

type withdrawCollateralParams struct {
	Caller   string `json:"caller"`
	Asset    string `json:"asset"`
	Amount   string `json:"amount"`
	Receiver string `json:"receiver,omitempty"`
}

type closeTroveParams struct {
	Caller string `json:"caller"`
	Asset  string `json:"asset"`
}

type stabilityParams struct {
	Account string `json:"account"`
	Amount  string `json:"amount,omitempty"`
}

type liquidateParams struct {
	Asset  string   `json:"asset"`
	Owners []string `json:"owners"`
}

type redeemParams struct {
	Redeemer string `json:"redeemer"`
	Asset    string `json:"asset"`
	Owner    string `json:"owner"`
	Amount   string `json:"amount"`
}

type claimRewardParams struct {
	Account string `json:"account"`
	Asset   string `json:"asset"`
	Amount  string `json:"amount,omitempty"`
}

type triggerSwapParams struct {
	Caller      string `json:"caller"`
	InputToken  string `json:"inputToken"`
	OutputToken string `json:"outputToken"`
	AmountIn    string `json:"amountIn"`
	MinOut      string `json:"minOut,omitempty"`
	RoutingHint string `json:"routingHint,omitempty"`
}

type swapCallbackParams struct {
	RequestID  string `json:"requestId"`
	Caller     string `json:"caller"`
	InputToken string `json:"inputToken"`
	AmountIn   string `json:"amountIn"`
	Success    bool   `json:"success"`
	Detail     string `json:"detail,omitempty"`
}

type assetParams struct {
	Asset string `json:"asset"`
}

type accountAssetParams struct {
	Account string `json:"account"`
	Asset   string `json:"asset,omitempty"`
}

type accountParams struct {
	Account string `json:"account"`
}

type troveQueryParams struct {
	Owner string `json:"owner"`
	Asset string `json:"asset"`
}

type ackResult struct {
	OK bool `json:"ok"`
}

type liquidateResult struct {
	Liquidated uint64 `json:"liquidated"`
}

type collateralConfigResult struct {
	Asset                      string `json:"asset"`
	OraclePriceID              string `json:"oraclePriceId"`
	MinCollateralRatioBps      uint16 `json:"minCollateralRatioBps"`
	RecoveryCollateralRatioBps uint16 `json:"recoveryCollateralRatioBps"`
	DebtCeiling                string `json:"debtCeiling"`
	LiquidationPenaltyBps      uint16 `json:"liquidationPenaltyBps"`
	StabilityPoolMode          string `json:"stabilityPoolMode"`
}

type priceResult struct {
	Asset     string `json:"asset"`
	Price     string `json:"price"`
	Decimals  uint8  `json:"decimals"`
	UpdatedAt uint64 `json:"updatedAt"`
}

type troveResult struct {
	Owner      string `json:"owner"`
	Asset      string `json:"asset"`
	Collateral string `json:"collateral"`
	Debt       string `json:"debt"`
	UpdatedAt  uint64 `json:"updatedAt"`
}

type amountResult struct {
	Amount string `json:"amount"`
}

func decodeParams(req *RPCRequest, out interface{}) *RPCError {
	if len(req.Params) != 1 {
		return &RPCError{Code: codeInvalidParams, Message: "expected one parameter object"}
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		return &RPCError{Code: codeInvalidParams, Message: "invalid parameter object", Data: err.Error()}
	}
	return nil
}

func parseAddress(field, value string) (crypto.Address, *RPCError) {
	addr, err := crypto.DecodeAddress(strings.TrimSpace(value))
	if err != nil {
		return crypto.Address{}, &RPCError{Code: codeInvalidParams, Message: fmt.Sprintf("invalid %s address", field), Data: err.Error()}
	}
	return addr, nil
}

func parseAmount(field, value string) (*big.Int, *RPCError) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, &RPCError{Code: codeInvalidParams, Message: fmt.Sprintf("%s required", field)}
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok || amount.Sign() < 0 {
		return nil, &RPCError{Code: codeInvalidParams, Message: fmt.Sprintf("invalid %s", field), Data: value}
	}
	return amount, nil
}

// parseOptionalAmount treats an empty string as "not supplied", which several
// operations interpret as the caller's full balance.
func parseOptionalAmount(field, value string) (*big.Int, *RPCError) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	return parseAmount(field, value)
}

func bigString(value *big.Int) string {
	if value == nil {
		return "0"
	}
	return value.String()
}

func (s *Server) writeEngineError(w http.ResponseWriter, id interface{}, err error) *RPCError {
	status, rpcErr := engineError(err)
	writeError(w, status, id, rpcErr.Code, rpcErr.Message, rpcErr.Data)
	return rpcErr
}

// refreshPoolMetrics mirrors the stability pool's balance and epoch into the
// exported gauges after a pool-touching mutation. Best effort only.
func (s *Server) refreshPoolMetrics() {
	if s.metrics == nil {
		return
	}
	balance, err := s.engine.StabilityPoolBalance()
	if err != nil {
		return
	}
	size, _ := new(big.Float).SetInt(balance).Float64()
	s.metrics.SetPoolSize(size)
	epoch, err := s.engine.StabilityPoolEpoch()
	if err != nil {
		return
	}
	s.metrics.SetPoolEpoch(epoch)
}

func (s *Server) handleRegisterCollateral(w http.ResponseWriter, _ *http.Request, req *RPCRequest) *RPCError {
	var params registerCollateralParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	caller, rpcErr := parseAddress("caller", params.Caller)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	ceiling, rpcErr := parseAmount("debtCeiling", params.Config.DebtCeiling)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	mode := cdp.StabilityPoolDedicated
	switch strings.ToLower(strings.TrimSpace(params.Config.StabilityPoolMode)) {
	case "", "dedicated":
	case "shared":
		mode = cdp.StabilityPoolShared
	default:
		rpcErr = &RPCError{Code: codeInvalidParams, Message: "invalid stabilityPoolMode", Data: params.Config.StabilityPoolMode}
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	cfg := cdp.CollateralConfig{
		OraclePriceID:              params.Config.OraclePriceID,
		MinCollateralRatioBps:      params.Config.MinCollateralRatioBps,
		RecoveryCollateralRatioBps: params.Config.RecoveryCollateralRatioBps,
		DebtCeiling:                ceiling,
		LiquidationPenaltyBps:      params.Config.LiquidationPenaltyBps,
		StabilityPoolMode:          mode,
	}
	if err := s.engine.RegisterCollateral(caller, params.Asset, cfg); err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	writeResult(w, req.ID, ackResult{OK: true})
	return nil
}

func (s *Server) handleSubmitPrice(w http.ResponseWriter, _ *http.Request, req *RPCRequest) *RPCError {
	var params submitPriceParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	caller, rpcErr := parseAddress("caller", params.Caller)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	price, rpcErr := parseAmount("price", params.Price)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	if err := s.engine.SubmitPrice(caller, params.Asset, price, params.Decimals); err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	writeResult(w, req.ID, ackResult{OK: true})
	return nil
}

func (s *Server) handleDepositCollateral(w http.ResponseWriter, _ *http.Request, req *RPCRequest) *RPCError {
	return s.handleTroveMutation(w, req, s.engine.DepositCollateral)
}

func (s *Server) handleBorrow(w http.ResponseWriter, _ *http.Request, req *RPCRequest) *RPCError {
	return s.handleTroveMutation(w, req, s.engine.Borrow)
}

func (s *Server) handleRepay(w http.ResponseWriter, _ *http.Request, req *RPCRequest) *RPCError {
	return s.handleTroveMutation(w, req, s.engine.Repay)
}

func (s *Server) handleTroveMutation(w http.ResponseWriter, req *RPCRequest, op func(crypto.Address, string, *big.Int) error) *RPCError {
	var params troveMutationParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	caller, rpcErr := parseAddress("caller", params.Caller)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	amount, rpcErr := parseAmount("amount", params.Amount)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	if err := op(caller, params.Asset, amount); err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	writeResult(w, req.ID, ackResult{OK: true})
	return nil
}

func (s *Server) handleWithdrawCollateral(w http.ResponseWriter, _ *http.Request, req *RPCRequest) *RPCError {
	var params withdrawCollateralParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	caller, rpcErr := parseAddress("caller", params.Caller)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	amount, rpcErr := parseAmount("amount", params.Amount)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	var receiver *crypto.Address
	if strings.TrimSpace(params.Receiver) != "" {
		addr, rpcErr := parseAddress("receiver", params.Receiver)
		if rpcErr != nil {
			writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
			return rpcErr
		}
		receiver = &addr
	}
	if err := s.engine.WithdrawCollateral(caller, params.Asset, amount, receiver); err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	writeResult(w, req.ID, ackResult{OK: true})
	return nil
}

func (s *Server) handleCloseTrove(w http.ResponseWriter, _ *http.Request, req *RPCRequest) *RPCError {
	var params closeTroveParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	caller, rpcErr := parseAddress("caller", params.Caller)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	if err := s.engine.CloseTrove(caller, params.Asset); err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	writeResult(w, req.ID, ackResult{OK: true})
	return nil
}

func (s *Server) handleStabilityDeposit(w http.ResponseWriter, _ *http.Request, req *RPCRequest) *RPCError {
	var params stabilityParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	account, rpcErr := parseAddress("account", params.Account)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	amount, rpcErr := parseAmount("amount", params.Amount)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	if err := s.engine.DepositToStabilityPool(account, amount); err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	s.refreshPoolMetrics()
	writeResult(w, req.ID, ackResult{OK: true})
	return nil
}

func (s *Server) handleStabilityWithdraw(w http.ResponseWriter, _ *http.Request, req *RPCRequest) *RPCError {
	var params stabilityParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	account, rpcErr := parseAddress("account", params.Account)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	amount, rpcErr := parseOptionalAmount("amount", params.Amount)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	if err := s.engine.WithdrawFromStabilityPool(account, amount); err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	s.refreshPoolMetrics()
	writeResult(w, req.ID, ackResult{OK: true})
	return nil
}

func (s *Server) handleLiquidate(w http.ResponseWriter, _ *http.Request, req *RPCRequest) *RPCError {
	var params liquidateParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	owners := make([]crypto.Address, 0, len(params.Owners))
	for _, raw := range params.Owners {
		owner, rpcErr := parseAddress("owner", raw)
		if rpcErr != nil {
			writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
			return rpcErr
		}
		owners = append(owners, owner)
	}
	liquidated, err := s.engine.Liquidate(params.Asset, owners)
	if err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	if liquidated > 0 {
		s.refreshPoolMetrics()
	}
	writeResult(w, req.ID, liquidateResult{Liquidated: liquidated})
	return nil
}

func (s *Server) handleRedeem(w http.ResponseWriter, _ *http.Request, req *RPCRequest) *RPCError {
	var params redeemParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	redeemer, rpcErr := parseAddress("redeemer", params.Redeemer)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	owner, rpcErr := parseAddress("owner", params.Owner)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	amount, rpcErr := parseAmount("amount", params.Amount)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	if err := s.engine.Redeem(redeemer, params.Asset, owner, amount); err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	writeResult(w, req.ID, ackResult{OK: true})
	return nil
}

func (s *Server) handleClaimReward(w http.ResponseWriter, _ *http.Request, req *RPCRequest) *RPCError {
	var params claimRewardParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	account, rpcErr := parseAddress("account", params.Account)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	amount, rpcErr := parseOptionalAmount("amount", params.Amount)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	if err := s.engine.ClaimCollateralReward(account, params.Asset, amount); err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	writeResult(w, req.ID, ackResult{OK: true})
	return nil
}

func (s *Server) handleTriggerSwap(w http.ResponseWriter, r *http.Request, req *RPCRequest) *RPCError {
	var params triggerSwapParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	caller, rpcErr := parseAddress("caller", params.Caller)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	amountIn, rpcErr := parseAmount("amountIn", params.AmountIn)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	minOut, rpcErr := parseOptionalAmount("minOut", params.MinOut)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	if err := s.engine.TriggerSwap(r.Context(), caller, params.InputToken, params.OutputToken, amountIn, minOut, params.RoutingHint); err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	writeResult(w, req.ID, ackResult{OK: true})
	return nil
}

func (s *Server) handleSwapCallback(w http.ResponseWriter, _ *http.Request, req *RPCRequest) *RPCError {
	var params swapCallbackParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	caller, rpcErr := parseAddress("caller", params.Caller)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	amountIn, rpcErr := parseOptionalAmount("amountIn", params.AmountIn)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	s.engine.OnSwapComplete(cdp.SwapResult{
		RequestID:  params.RequestID,
		Caller:     caller,
		InputToken: params.InputToken,
		AmountIn:   amountIn,
		Success:    params.Success,
		Detail:     params.Detail,
	})
	writeResult(w, req.ID, ackResult{OK: true})
	return nil
}

func (s *Server) handleGetCollateralAssets(w http.ResponseWriter, _ *http.Request, req *RPCRequest) *RPCError {
	if len(req.Params) != 0 {
		rpcErr := &RPCError{Code: codeInvalidParams, Message: "no parameters expected"}
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, nil)
		return rpcErr
	}
	assets, err := s.engine.CollateralAssets()
	if err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	if assets == nil {
		assets = []string{}
	}
	writeResult(w, req.ID, assets)
	return nil
}

func (s *Server) handleGetCollateralConfig(w http.ResponseWriter, _ *http.Request, req *RPCRequest) *RPCError {
	var params assetParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	cfg, err := s.engine.GetCollateralConfig(params.Asset)
	if err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	if cfg == nil {
		return s.writeEngineError(w, req.ID, cdp.ErrNotSupported)
	}
	mode := "dedicated"
	if cfg.StabilityPoolMode == cdp.StabilityPoolShared {
		mode = "shared"
	}
	writeResult(w, req.ID, collateralConfigResult{
		Asset:                      params.Asset,
		OraclePriceID:              cfg.OraclePriceID,
		MinCollateralRatioBps:      cfg.MinCollateralRatioBps,
		RecoveryCollateralRatioBps: cfg.RecoveryCollateralRatioBps,
		DebtCeiling:                bigString(cfg.DebtCeiling),
		LiquidationPenaltyBps:      cfg.LiquidationPenaltyBps,
		StabilityPoolMode:          mode,
	})
	return nil
}

func (s *Server) handleGetPrice(w http.ResponseWriter, _ *http.Request, req *RPCRequest) *RPCError {
	var params assetParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	feed, err := s.engine.GetPrice(params.Asset)
	if err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	if feed == nil {
		return s.writeEngineError(w, req.ID, cdp.ErrNoPrice)
	}
	writeResult(w, req.ID, priceResult{
		Asset:     params.Asset,
		Price:     bigString(feed.Price),
		Decimals:  feed.Decimals,
		UpdatedAt: feed.UpdatedAt,
	})
	return nil
}

func (s *Server) handleGetTrove(w http.ResponseWriter, _ *http.Request, req *RPCRequest) *RPCError {
	var params troveQueryParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	owner, rpcErr := parseAddress("owner", params.Owner)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	trove, err := s.engine.GetTrove(owner, params.Asset)
	if err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	if trove == nil {
		return s.writeEngineError(w, req.ID, cdp.ErrTroveNotFound)
	}
	writeResult(w, req.ID, troveResult{
		Owner:      params.Owner,
		Asset:      params.Asset,
		Collateral: bigString(trove.Collateral),
		Debt:       bigString(trove.Debt),
		UpdatedAt:  trove.UpdatedAt,
	})
	return nil
}

func (s *Server) handleGetTotalDebt(w http.ResponseWriter, _ *http.Request, req *RPCRequest) *RPCError {
	var params assetParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	total, err := s.engine.GetTotalDebt(params.Asset)
	if err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	writeResult(w, req.ID, amountResult{Amount: bigString(total)})
	return nil
}

func (s *Server) handleGetStabilityPool(w http.ResponseWriter, _ *http.Request, req *RPCRequest) *RPCError {
	if len(req.Params) != 0 {
		rpcErr := &RPCError{Code: codeInvalidParams, Message: "no parameters expected"}
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, nil)
		return rpcErr
	}
	balance, err := s.engine.StabilityPoolBalance()
	if err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	writeResult(w, req.ID, amountResult{Amount: bigString(balance)})
	return nil
}

func (s *Server) handleGetStabilityDeposit(w http.ResponseWriter, _ *http.Request, req *RPCRequest) *RPCError {
	var params accountParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	account, rpcErr := parseAddress("account", params.Account)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	amount, err := s.engine.StabilityPoolDeposit(account)
	if err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	writeResult(w, req.ID, amountResult{Amount: bigString(amount)})
	return nil
}

func (s *Server) handleGetClaimableReward(w http.ResponseWriter, _ *http.Request, req *RPCRequest) *RPCError {
	var params accountAssetParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	account, rpcErr := parseAddress("account", params.Account)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	amount, err := s.engine.ClaimableCollateralReward(account, params.Asset)
	if err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	writeResult(w, req.ID, amountResult{Amount: bigString(amount)})
	return nil
}

func (s *Server) handleGetBalance(w http.ResponseWriter, _ *http.Request, req *RPCRequest) *RPCError {
	var params accountParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	account, rpcErr := parseAddress("account", params.Account)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return rpcErr
	}
	balance, err := s.supply.BalanceOf(account)
	if err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	writeResult(w, req.ID, amountResult{Amount: bigString(balance)})
	return nil
}

func (s *Server) handleGetSupply(w http.ResponseWriter, _ *http.Request, req *RPCRequest) *RPCError {
	if len(req.Params) != 0 {
		rpcErr := &RPCError{Code: codeInvalidParams, Message: "no parameters expected"}
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, nil)
		return rpcErr
	}
	supply, err := s.supply.TotalSupply()
	if err != nil {
		return s.writeEngineError(w, req.ID, err)
	}
	writeResult(w, req.ID, amountResult{Amount: bigString(supply)})
	return nil
}
