package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"fundchain/native/contest"
	"fundchain/native/settlement"
)

// GenesisAccount allocates an initial token balance when the database is
// created for the first time.
type GenesisAccount struct {
	Address string `toml:"Address"`
	Amount  string `toml:"Amount"`
}

type Config struct {
	RPCAddress      string           `toml:"RPCAddress"`
	DataDir         string           `toml:"DataDir"`
	NetworkName     string           `toml:"NetworkName"`
	LogEnv          string           `toml:"LogEnv"`
	LogFile         string           `toml:"LogFile"`
	SettlementToken string           `toml:"SettlementToken"`
	ContestProfile  string           `toml:"ContestProfile"`
	AuthSecretEnv   string           `toml:"AuthSecretEnv"`
	AuthIssuer      string           `toml:"AuthIssuer"`
	AuthAudience    string           `toml:"AuthAudience"`
	OtelEndpoint    string           `toml:"OtelEndpoint"`
	OtelInsecure    bool             `toml:"OtelInsecure"`
	GenesisAccounts []GenesisAccount `toml:"GenesisAccount"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the daemon cannot start with.
func (c *Config) Validate() error {
	if _, err := settlement.NormalizeToken(c.SettlementToken); err != nil {
		return fmt.Errorf("config: invalid SettlementToken: %w", err)
	}
	if _, err := contest.ProfileByName(c.ContestProfile); err != nil {
		return fmt.Errorf("config: invalid ContestProfile: %w", err)
	}
	for _, account := range c.GenesisAccounts {
		addr := strings.TrimPrefix(strings.TrimSpace(account.Address), "0x")
		if len(addr) != 40 {
			return fmt.Errorf("config: invalid genesis address %q", account.Address)
		}
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = ":8645"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./fundchain-data"
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "fundchain-local"
	}
	if strings.TrimSpace(cfg.SettlementToken) == "" {
		cfg.SettlementToken = "FUND"
	}
	if strings.TrimSpace(cfg.ContestProfile) == "" {
		cfg.ContestProfile = contest.ProfileArcade
	}
	if strings.TrimSpace(cfg.AuthSecretEnv) == "" {
		cfg.AuthSecretEnv = "FUNDCHAIN_AUTH_SECRET"
	}
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
