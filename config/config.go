package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"settlr/program"
)

// Config - Service configuration loaded from TOML
type Config struct {
	RPCURL       string `toml:"rpc_url"`
	Network      string `toml:"network"` // "devnet", "mainnet", "localhost"
	ProgramID    string `toml:"program_id"`
	USDCMint     string `toml:"usdc_mint"` // empty: selected by network
	ListenPort   string `toml:"listen_port"`
	DatabasePath string `toml:"database_path"`
}

// Default returns the devnet defaults used when no config file is present
func Default() Config {
	return Config{
		RPCURL:       program.RPCURLDevnet,
		Network:      "devnet",
		ProgramID:    program.SettlementProgramID,
		ListenPort:   "8080",
		DatabasePath: "settlr.db",
	}
}

// Load reads a TOML config file, falling back to defaults when the path is
// empty or the file does not exist. PORT overrides the listen port either way.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("failed to load config %q: %w", path, err)
			}
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.ListenPort = port
	}

	if cfg.Network != "devnet" && cfg.Network != "mainnet" && cfg.Network != "localhost" {
		return Config{}, fmt.Errorf("invalid network %q: must be devnet, mainnet, or localhost", cfg.Network)
	}

	return cfg, nil
}
