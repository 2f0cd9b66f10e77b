package rpc

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nusdcore/crypto"
	"nusdcore/native/cdp"
	nativecommon "nusdcore/native/common"
	"nusdcore/observability"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeNotFound       = -32040
	codeStateConflict  = -32050
	codeModulePaused   = -32030
	codeRateLimited    = -32020
)

// SupplyView exposes the nUSD supply counters the query surface reports.
type SupplyView interface {
	TotalSupply() (*big.Int, error)
	BalanceOf(account crypto.Address) (*big.Int, error)
}

// Server serves the JSON-RPC surface over the stablecoin engine. Mutating
// methods require a bearer token and are throttled per remote address.
type Server struct {
	engine *cdp.Engine
	supply SupplyView

	authToken string
	quota     nativecommon.Quota

	mu    sync.Mutex
	usage map[string]nativecommon.QuotaNow

	log     *slog.Logger
	metrics *observability.CDPMetrics
	clock   func() time.Time
}

// NewServer builds a server around the engine. The mutation auth token is
// read from the environment variable named by tokenEnv; an empty variable
// leaves mutations open, which is only sensible for local development.
func NewServer(engine *cdp.Engine, supply SupplyView, tokenEnv string, quota nativecommon.Quota, log *slog.Logger) *Server {
	token := ""
	if strings.TrimSpace(tokenEnv) != "" {
		token = strings.TrimSpace(os.Getenv(tokenEnv))
	}
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		engine:    engine,
		supply:    supply,
		authToken: token,
		quota:     quota,
		usage:     make(map[string]nativecommon.QuotaNow),
		log:       log.With("component", "rpc"),
		metrics:   observability.CDP(),
		clock:     time.Now,
	}
}

// Router assembles the HTTP mux: the JSON-RPC endpoint at /, a liveness
// probe, and the Prometheus scrape endpoint.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Post("/", s.handle)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

// Start blocks serving the router on addr.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.log.Info("starting JSON-RPC server", "addr", addr)
	return srv.ListenAndServe()
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// handle is the main request handler that routes to specific handlers.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	handler, mutating := s.route(req.Method)
	if handler == nil {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found", req.Method)
		return
	}
	if mutating {
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		if limitErr := s.throttle(r, requestValue(req)); limitErr != nil {
			writeError(w, http.StatusTooManyRequests, req.ID, limitErr.Code, limitErr.Message, limitErr.Data)
			return
		}
	}

	start := s.clock()
	rpcErr := handler(w, r, req)
	if s.metrics != nil {
		var errForMetrics error
		if rpcErr != nil {
			errForMetrics = errors.New(rpcErr.Message)
		}
		s.metrics.Observe(req.Method, s.clock().Sub(start), errForMetrics)
	}
}

type handlerFunc func(w http.ResponseWriter, r *http.Request, req *RPCRequest) *RPCError

func (s *Server) route(method string) (handlerFunc, bool) {
	switch method {
	case "cdp_registerCollateral":
		return s.handleRegisterCollateral, true
	case "cdp_submitPrice":
		return s.handleSubmitPrice, true
	case "cdp_depositCollateral":
		return s.handleDepositCollateral, true
	case "cdp_borrow":
		return s.handleBorrow, true
	case "cdp_repay":
		return s.handleRepay, true
	case "cdp_withdrawCollateral":
		return s.handleWithdrawCollateral, true
	case "cdp_closeTrove":
		return s.handleCloseTrove, true
	case "cdp_stabilityDeposit":
		return s.handleStabilityDeposit, true
	case "cdp_stabilityWithdraw":
		return s.handleStabilityWithdraw, true
	case "cdp_liquidate":
		return s.handleLiquidate, true
	case "cdp_redeem":
		return s.handleRedeem, true
	case "cdp_claimReward":
		return s.handleClaimReward, true
	case "cdp_triggerSwap":
		return s.handleTriggerSwap, true
	case "cdp_swapCallback":
		return s.handleSwapCallback, true
	case "cdp_getCollateralAssets":
		return s.handleGetCollateralAssets, false
	case "cdp_getCollateralConfig":
		return s.handleGetCollateralConfig, false
	case "cdp_getPrice":
		return s.handleGetPrice, false
	case "cdp_getTrove":
		return s.handleGetTrove, false
	case "cdp_getTotalDebt":
		return s.handleGetTotalDebt, false
	case "cdp_getStabilityPool":
		return s.handleGetStabilityPool, false
	case "cdp_getStabilityDeposit":
		return s.handleGetStabilityDeposit, false
	case "cdp_getClaimableReward":
		return s.handleGetClaimableReward, false
	case "nusd_getBalance":
		return s.handleGetBalance, false
	case "nusd_getSupply":
		return s.handleGetSupply, false
	}
	return nil, false
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return nil
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return &RPCError{Code: codeUnauthorized, Message: "authorization required"}
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid token"}
	}
	return nil
}

func (s *Server) throttle(r *http.Request, value uint64) *RPCError {
	if s.quota.MaxRequestsPerMin == 0 && s.quota.MaxValuePerEpoch == 0 {
		return nil
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	epochSeconds := uint64(s.quota.EpochSeconds)
	if epochSeconds == 0 {
		epochSeconds = 60
	}
	nowEpoch := uint64(s.clock().Unix()) / epochSeconds

	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := nativecommon.CheckQuota(s.quota, nowEpoch, s.usage[host], 1, value)
	if err != nil {
		return &RPCError{Code: codeRateLimited, Message: "rate limit exceeded", Data: err.Error()}
	}
	s.usage[host] = next
	return nil
}

// requestValue extracts the notional amount a mutation moves so the per-epoch
// value cap can meter it. Methods without an amount field, withdraw-all style
// empty amounts, and malformed params count as zero; the handler rejects the
// latter with a proper error after the throttle check. Amounts beyond 64 bits
// saturate, which can only over-charge the quota, never under-charge it.
func requestValue(req *RPCRequest) uint64 {
	if req == nil || len(req.Params) != 1 {
		return 0
	}
	var params struct {
		Amount string `json:"amount"`
	}
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		return 0
	}
	raw := strings.TrimSpace(params.Amount)
	if raw == "" {
		return 0
	}
	value, ok := new(big.Int).SetString(raw, 10)
	if !ok || value.Sign() <= 0 {
		return 0
	}
	if !value.IsUint64() {
		return ^uint64(0)
	}
	return value.Uint64()
}
