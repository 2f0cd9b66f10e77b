package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadParsesSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `RPCAddress = "0.0.0.0:9000"
MetricsAddress = ":9100"
DataDir = "./data"
Env = "testnet"
OperatorPassphraseEnv = "NUSD_OPERATOR_PASSPHRASE"
RPCAuthTokenEnv = "NUSD_RPC_TOKEN"
Paused = ["cdp"]

[gateway]
CollateralBankURL = "http://127.0.0.1:7200"
SwapRouterURL = "http://127.0.0.1:7300"
RequestTimeoutMillis = 2500

[quota]
MaxRequestsPerMin = 30
MaxValuePerEpoch = 1000000
EpochSeconds = 60
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.RPCAddress != "0.0.0.0:9000" {
		t.Fatalf("unexpected rpc address: %q", cfg.RPCAddress)
	}
	if cfg.MetricsAddress != ":9100" {
		t.Fatalf("unexpected metrics address: %q", cfg.MetricsAddress)
	}
	if cfg.Env != "testnet" {
		t.Fatalf("unexpected env: %q", cfg.Env)
	}
	if cfg.Gateway.CollateralBankURL != "http://127.0.0.1:7200" {
		t.Fatalf("unexpected bank url: %q", cfg.Gateway.CollateralBankURL)
	}
	if cfg.Gateway.RequestTimeoutMillis != 2500 {
		t.Fatalf("unexpected gateway timeout: %d", cfg.Gateway.RequestTimeoutMillis)
	}
	if cfg.Quota.MaxRequestsPerMin != 30 || cfg.Quota.MaxValuePerEpoch != 1000000 {
		t.Fatalf("unexpected quota: %+v", cfg.Quota)
	}
	if len(cfg.Paused) != 1 || cfg.Paused[0] != "cdp" {
		t.Fatalf("unexpected paused modules: %v", cfg.Paused)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `OperatorPassphraseEnv = "NUSD_OPERATOR_PASSPHRASE"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.RPCAddress != ":8080" {
		t.Fatalf("unexpected default rpc address: %q", cfg.RPCAddress)
	}
	if cfg.DataDir != "./nusd-data" {
		t.Fatalf("unexpected default data dir: %q", cfg.DataDir)
	}
	if cfg.Env != "local" {
		t.Fatalf("unexpected default env: %q", cfg.Env)
	}
	if cfg.Quota.EpochSeconds != 60 {
		t.Fatalf("unexpected default quota epoch: %d", cfg.Quota.EpochSeconds)
	}
	if cfg.Paused == nil {
		t.Fatalf("expected paused list to be initialised")
	}
}

func TestLoadCreatesDefaultConfigAndKeystore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.OperatorKeystorePath == "" {
		t.Fatalf("expected keystore path to be set")
	}
	if _, err := os.Stat(cfg.OperatorKeystorePath); err != nil {
		t.Fatalf("expected keystore file: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file to be written: %v", err)
	}
	if cfg.OwnerAddress == "" {
		t.Fatalf("expected owner address derived from generated key")
	}
}

func TestLoadRejectsInvalidAddress(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := fmt.Sprintf(`OperatorPassphraseEnv = "NUSD_OPERATOR_PASSPHRASE"
OwnerAddress = %q
`, "not-a-bech32-address")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatalf("expected invalid owner address to fail validation")
	}
}
