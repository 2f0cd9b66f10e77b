package config

import (
	"os"
	"path/filepath"
	"strings"

	"nusdcore/crypto"

	"github.com/BurntSushi/toml"
)

// Config is the on-disk service configuration. Addresses are bech32 encoded
// and validated on load.
type Config struct {
	RPCAddress            string `toml:"RPCAddress"`
	MetricsAddress        string `toml:"MetricsAddress"`
	DataDir               string `toml:"DataDir"`
	Env                   string `toml:"Env"`
	OperatorKeystorePath  string `toml:"OperatorKeystorePath"`
	OperatorPassphraseEnv string `toml:"OperatorPassphraseEnv"`
	RPCAuthTokenEnv       string `toml:"RPCAuthTokenEnv"`

	OwnerAddress  string `toml:"OwnerAddress"`
	OracleAddress string `toml:"OracleAddress"`
	VaultAddress  string `toml:"VaultAddress"`

	Gateway Gateway  `toml:"gateway"`
	Quota   Quota    `toml:"quota"`
	Paused  []string `toml:"Paused"`
}

// Load reads the configuration at the given path, creating a default file
// (including a fresh operator keystore) when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	if cfg.OperatorPassphraseEnv == "" {
		if err := ensureKeystore(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = ":8080"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./nusd-data"
	}
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "local"
	}
	if cfg.Quota.EpochSeconds == 0 {
		cfg.Quota.EpochSeconds = 60
	}
	if cfg.Gateway.RequestTimeoutMillis == 0 {
		cfg.Gateway.RequestTimeoutMillis = 5000
	}
	if cfg.Paused == nil {
		cfg.Paused = []string{}
	}
}

func ensureKeystore(configPath string, cfg *Config) error {
	keystorePath := cfg.OperatorKeystorePath
	if keystorePath == "" {
		keystorePath = defaultKeystorePath(configPath)
	}

	if _, err := os.Stat(keystorePath); os.IsNotExist(err) {
		key, genErr := crypto.GeneratePrivateKey()
		if genErr != nil {
			return genErr
		}
		if err := crypto.SaveToKeystore(keystorePath, key, ""); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if cfg.OperatorKeystorePath != keystorePath {
		cfg.OperatorKeystorePath = keystorePath
		return persist(configPath, cfg)
	}

	return nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}

	keystorePath := defaultKeystorePath(path)
	if err := crypto.SaveToKeystore(keystorePath, key, ""); err != nil {
		return nil, err
	}

	owner := key.PubKey().Address().String()

	cfg := &Config{
		RPCAddress:           ":8080",
		MetricsAddress:       ":9090",
		DataDir:              "./nusd-data",
		Env:                  "local",
		OperatorKeystorePath: keystorePath,
		OwnerAddress:         owner,
		OracleAddress:        owner,
		VaultAddress:         owner,
		Paused:               []string{},
	}
	applyDefaults(cfg)

	if err := persist(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

func defaultKeystorePath(configPath string) string {
	dir := filepath.Dir(configPath)
	if dir == "." || dir == "" {
		dir = ""
	}
	return filepath.Join(dir, "operator.keystore")
}
