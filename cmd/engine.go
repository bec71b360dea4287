package cmd

import (
	"os"

	"github.com/LayerTwo-Labs/orchard-sandbox/config"
	"github.com/LayerTwo-Labs/orchard-sandbox/db"
	"github.com/LayerTwo-Labs/orchard-sandbox/events"
	"github.com/LayerTwo-Labs/orchard-sandbox/ledger"
	"github.com/LayerTwo-Labs/orchard-sandbox/wallet"
	"github.com/LayerTwo-Labs/orchard-sandbox/zkverify"
)

// engine bundles everything a subcommand needs against one database.
type engine struct {
	cfg      *config.EngineConfig
	provider db.Provider
	ledger   *ledger.Ledger
	wallet   *wallet.Wallet
}

func openEngine() (*engine, error) {
	var cfg *config.EngineConfig
	var err error
	if configPath != "" {
		cfg, err = config.LoadEngineConfig(configPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.DefaultEngineConfig()
	}

	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		return nil, err
	}
	provider, err := db.NewBoltProvider(cfg.DBPath())
	if err != nil {
		return nil, err
	}

	var verifier zkverify.Verifier
	if cfg.Proof.Mode == config.ProofModeGroth16 {
		verifier = zkverify.NewZkVerify(cfg.Proof.VerifyingKeyPath)
	} else {
		verifier = zkverify.NewStaticVerifier()
	}

	return &engine{
		cfg:      cfg,
		provider: provider,
		ledger:   ledger.NewLedger(provider, verifier, cfg.Ledger.DepositCeiling, events.NewEventBus()),
		wallet:   wallet.NewWallet(provider),
	}, nil
}

func (e *engine) Close() {
	_ = e.provider.Close()
}
