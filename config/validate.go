package config

import (
	"fmt"
	"strings"

	"nusdcore/crypto"
)

// Validate checks the loaded configuration for values the daemon cannot start
// with. Optional fields are only validated when set.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil configuration")
	}
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		return fmt.Errorf("config: RPCAddress must not be empty")
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return fmt.Errorf("config: DataDir must not be empty")
	}
	for _, field := range []struct {
		name  string
		value string
	}{
		{"OwnerAddress", cfg.OwnerAddress},
		{"OracleAddress", cfg.OracleAddress},
		{"VaultAddress", cfg.VaultAddress},
	} {
		if strings.TrimSpace(field.value) == "" {
			continue
		}
		if _, err := crypto.DecodeAddress(field.value); err != nil {
			return fmt.Errorf("config: invalid %s: %w", field.name, err)
		}
	}
	if cfg.Quota.EpochSeconds == 0 && cfg.Quota.MaxValuePerEpoch > 0 {
		return fmt.Errorf("config: quota EpochSeconds required when MaxValuePerEpoch is set")
	}
	return nil
}
