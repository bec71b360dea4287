package config

const (
	DefaultDataDir = "./data"
	DefaultDBFile  = "ledger.db"

	// DefaultDepositCeiling caps the value a single deposit may mint.
	DefaultDepositCeiling = 21_000_000

	ProofModeGroth16 = "groth16"
	ProofModeStatic  = "static"
)
