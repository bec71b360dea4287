package cmd

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/LayerTwo-Labs/orchard-sandbox/db"
	"github.com/LayerTwo-Labs/orchard-sandbox/events"
	"github.com/LayerTwo-Labs/orchard-sandbox/ledger"
	"github.com/LayerTwo-Labs/orchard-sandbox/logx"
	"github.com/LayerTwo-Labs/orchard-sandbox/types"
	"github.com/LayerTwo-Labs/orchard-sandbox/wallet"
	"github.com/LayerTwo-Labs/orchard-sandbox/zkverify"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the five-step shielding walkthrough against a throwaway database",
	Long: `Runs one block per step against a temporary database:
deposit to A, transfer A to B, shield B to X, move X to Y inside the pool,
deshield Y back to A. Prints balances and the pool root after every block.
`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runDemo(); err != nil {
			logx.Error("DEMO CLI", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

func runDemo() error {
	dir, err := os.MkdirTemp("", "orchard-demo-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	provider, err := db.NewBoltProvider(filepath.Join(dir, "demo.db"))
	if err != nil {
		return err
	}
	defer provider.Close()

	ld := ledger.NewLedger(provider, zkverify.NewStaticVerifier(), 1_000_000, events.NewEventBus())
	w := wallet.NewWallet(provider)

	keyA, err := w.GenerateKey(types.KeyKindTransparent)
	if err != nil {
		return err
	}
	keyB, err := w.GenerateKey(types.KeyKindTransparent)
	if err != nil {
		return err
	}
	keyX, err := w.GenerateKey(types.KeyKindShielded)
	if err != nil {
		return err
	}
	keyY, err := w.GenerateKey(types.KeyKindShielded)
	if err != nil {
		return err
	}
	addrA, err := w.DeriveAddress(keyA.ID, types.AddrKindTransparent)
	if err != nil {
		return err
	}
	addrB, err := w.DeriveAddress(keyB.ID, types.AddrKindTransparent)
	if err != nil {
		return err
	}
	addrX, err := w.DeriveAddress(keyX.ID, types.AddrKindShielded)
	if err != nil {
		return err
	}
	addrY, err := w.DeriveAddress(keyY.ID, types.AddrKindShielded)
	if err != nil {
		return err
	}

	connect := func(label string, txs ...*types.Transaction) (*types.Block, error) {
		b, err := ld.Propose(txs)
		if err != nil {
			return nil, err
		}
		if err := ld.Connect(b); err != nil {
			return nil, err
		}
		balA, err := ld.BalanceOf(addrA.Encoded)
		if err != nil {
			return nil, err
		}
		balB, err := ld.BalanceOf(addrB.Encoded)
		if err != nil {
			return nil, err
		}
		fmt.Printf("%-16s height=%d A=%s B=%s root=%s\n", label, b.Height, balA.Dec(), balB.Dec(), hex.EncodeToString(b.TreeRoot))
		return b, nil
	}

	// Block 0: mint 100 to A.
	deposit := &types.Transaction{
		Kind:               types.TxDeposit,
		TransparentOutputs: []types.TransparentOutput{{Address: addrA.Encoded, Amount: 100}},
		Timestamp:          time.Now().UnixNano(),
	}
	if _, err := connect("deposit", deposit); err != nil {
		return err
	}
	depositOut := types.OutputID(deposit.Hash(), 0)

	// Block 1: transfer the full 100 from A to B.
	transfer := &types.Transaction{
		Kind:               types.TxTransparent,
		TransparentInputs:  []types.TransparentInput{{OutputID: depositOut, Address: addrA.Encoded, Amount: 100}},
		TransparentOutputs: []types.TransparentOutput{{Address: addrB.Encoded, Amount: 100}},
		Timestamp:          time.Now().UnixNano(),
	}
	if err := wallet.SignInputs(transfer, keyA); err != nil {
		return err
	}
	if _, err := connect("transfer", transfer); err != nil {
		return err
	}
	transferOut := types.OutputID(transfer.Hash(), 0)

	// Block 2: shield B's 100 into a note for X.
	noteX, _, err := wallet.NewNote(addrX.Encoded, 100, nil)
	if err != nil {
		return err
	}
	shield := &types.Transaction{
		Kind:              types.TxShield,
		TransparentInputs: []types.TransparentInput{{OutputID: transferOut, Address: addrB.Encoded, Amount: 100}},
		ShieldedOutputs:   []types.OutputNote{*noteX},
		Proof:             []byte{0x01},
		Timestamp:         time.Now().UnixNano(),
	}
	if err := wallet.SignInputs(shield, keyB); err != nil {
		return err
	}
	if _, err := connect("shield", shield); err != nil {
		return err
	}

	// Block 3: spend X's note inside the pool, creating a note for Y.
	noteY, _, err := wallet.NewNote(addrY.Encoded, 100, nil)
	if err != nil {
		return err
	}
	moveNote := &types.Transaction{
		Kind:            types.TxShieldToShield,
		ShieldedInputs:  [][]byte{noteX.Commitment},
		Nullifiers:      [][]byte{wallet.Nullifier(keyX.PrivateKey, noteX.Commitment)},
		ShieldedOutputs: []types.OutputNote{*noteY},
		Proof:           []byte{0x01},
		Timestamp:       time.Now().UnixNano(),
	}
	if _, err := connect("shield-to-shield", moveNote); err != nil {
		return err
	}

	// Block 4: deshield Y's 100 back to A.
	deshield := &types.Transaction{
		Kind:               types.TxDeshield,
		ShieldedInputs:     [][]byte{noteY.Commitment},
		Nullifiers:         [][]byte{wallet.Nullifier(keyY.PrivateKey, noteY.Commitment)},
		TransparentOutputs: []types.TransparentOutput{{Address: addrA.Encoded, Amount: 100}},
		Proof:              []byte{0x01},
		Timestamp:          time.Now().UnixNano(),
	}
	if _, err := connect("deshield", deshield); err != nil {
		return err
	}

	size, err := ld.PoolSize()
	if err != nil {
		return err
	}
	fmt.Printf("notes ever created: %d\n", size)
	return nil
}
