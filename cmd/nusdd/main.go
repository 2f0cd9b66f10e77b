package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nusdcore/cmd/internal/passphrase"
	"nusdcore/config"
	"nusdcore/core/state"
	"nusdcore/crypto"
	"nusdcore/gateway/collateral"
	"nusdcore/gateway/intents"
	"nusdcore/native/cdp"
	nativecommon "nusdcore/native/common"
	"nusdcore/observability/logging"
	"nusdcore/rpc"
	"nusdcore/storage"
)

const (
	defaultOperatorPassEnv = "NUSD_OPERATOR_PASS"
	gatewayTokenEnv        = "NUSD_GATEWAY_TOKEN"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("NUSD_ENV"))
	logger := logging.Setup("nusdd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if env == "" {
		env = cfg.Env
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	passEnv := cfg.OperatorPassphraseEnv
	if passEnv == "" {
		passEnv = defaultOperatorPassEnv
	}
	passSource := passphrase.NewSource(passEnv)

	operatorKey, err := loadOperatorKey(cfg, passSource.Get)
	if err != nil {
		panic(fmt.Sprintf("Failed to load operator key: %v", err))
	}
	operatorAddr := operatorKey.PubKey().Address()

	owner := resolveAddress(logger, "owner", cfg.OwnerAddress, operatorAddr)
	oracle := resolveAddress(logger, "oracle", cfg.OracleAddress, owner)
	vault := resolveAddress(logger, "vault", cfg.VaultAddress, owner)

	manager := state.NewManager(db)
	engine := cdp.NewEngine(cdp.NewStore(manager), manager, owner, oracle, vault)
	engine.SetLogger(logger)
	engine.SetPauses(nativecommon.NewPauseSet(cfg.Paused...))

	timeout := time.Duration(cfg.Gateway.RequestTimeoutMillis) * time.Millisecond
	gatewayToken := strings.TrimSpace(os.Getenv(gatewayTokenEnv))
	if url := strings.TrimSpace(cfg.Gateway.CollateralBankURL); url != "" {
		engine.SetCollateralBank(collateral.NewDispatcher(url, gatewayToken, timeout, logger))
	}
	if url := strings.TrimSpace(cfg.Gateway.SwapRouterURL); url != "" {
		engine.SetSwapRouter(intents.NewClient(url, gatewayToken, timeout, logger))
	}

	if addr := strings.TrimSpace(cfg.MetricsAddress); addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Error("metrics server stopped", slog.Any("error", err))
			}
		}()
	}

	quota := nativecommon.Quota{
		MaxRequestsPerMin: cfg.Quota.MaxRequestsPerMin,
		MaxValuePerEpoch:  cfg.Quota.MaxValuePerEpoch,
		EpochSeconds:      cfg.Quota.EpochSeconds,
	}
	server := rpc.NewServer(engine, manager, cfg.RPCAuthTokenEnv, quota, logger)

	logger.Info("nusdd starting",
		"env", env,
		"operator", operatorAddr.String(),
		"owner", owner.String(),
		"rpc", cfg.RPCAddress,
		logging.MaskField("keystore", cfg.OperatorKeystorePath))

	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("RPC server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func loadOperatorKey(cfg *config.Config, pass func() (string, error)) (*crypto.PrivateKey, error) {
	path := strings.TrimSpace(cfg.OperatorKeystorePath)
	if path == "" {
		return nil, fmt.Errorf("OperatorKeystorePath not configured")
	}
	passphraseValue, err := pass()
	if err != nil {
		return nil, err
	}
	return crypto.LoadFromKeystore(path, passphraseValue)
}

func resolveAddress(logger *slog.Logger, role, value string, fallback crypto.Address) crypto.Address {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		logger.Warn("address not configured, using fallback", "role", role, "fallback", fallback.String())
		return fallback
	}
	addr, err := crypto.DecodeAddress(trimmed)
	if err != nil {
		panic(fmt.Sprintf("Failed to decode %s address: %v", role, err))
	}
	return addr
}
