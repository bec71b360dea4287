package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/LayerTwo-Labs/orchard-sandbox/logx"
)

// LoadEngineConfig reads and parses an engine.yml file, filling defaults for
// anything the file leaves out
func LoadEngineConfig(path string) (*EngineConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		logx.Error("CONFIG", fmt.Sprintf("Failed to open config file %s: %v", path, err))
		return nil, err
	}
	defer file.Close()

	var cfgFile ConfigFile
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfgFile); err != nil {
		logx.Error("CONFIG", fmt.Sprintf("Failed to decode YAML from %s: %v", path, err))
		return nil, err
	}

	cfg := cfgFile.Config
	applyDefaults(&cfg)
	logx.Info("CONFIG", fmt.Sprintf("Loaded config | data_dir=%s | db_file=%s | proof_mode=%s | deposit_ceiling=%d",
		cfg.Storage.DataDir, cfg.Storage.DBFile, cfg.Proof.Mode, cfg.Ledger.DepositCeiling))
	return &cfg, nil
}

// DefaultEngineConfig returns a config usable without any file on disk
func DefaultEngineConfig() *EngineConfig {
	cfg := &EngineConfig{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *EngineConfig) {
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = DefaultDataDir
	}
	if cfg.Storage.DBFile == "" {
		cfg.Storage.DBFile = DefaultDBFile
	}
	if cfg.Proof.Mode == "" {
		cfg.Proof.Mode = ProofModeStatic
	}
	if cfg.Ledger.DepositCeiling == 0 {
		cfg.Ledger.DepositCeiling = DefaultDepositCeiling
	}
}

// DBPath joins the configured data directory and database file name
func (cfg *EngineConfig) DBPath() string {
	return filepath.Join(cfg.Storage.DataDir, cfg.Storage.DBFile)
}
