package config

// StorageConfig locates the engine's database file
type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
	DBFile  string `yaml:"db_file"`
}

// ProofConfig selects the proof oracle and its verifying key
type ProofConfig struct {
	Mode             string `yaml:"mode"` // "groth16" or "static"
	VerifyingKeyPath string `yaml:"verifying_key_path"`
}

// LedgerConfig holds the consensus-facing knobs
type LedgerConfig struct {
	DepositCeiling uint64 `yaml:"deposit_ceiling"`
}

// EngineConfig holds the configuration from engine.yml
type EngineConfig struct {
	Storage StorageConfig `yaml:"storage"`
	Proof   ProofConfig   `yaml:"proof"`
	Ledger  LedgerConfig  `yaml:"ledger"`
}

// ConfigFile is the top-level structure for engine.yml
type ConfigFile struct {
	Config EngineConfig `yaml:"config"`
}
