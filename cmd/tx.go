package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LayerTwo-Labs/orchard-sandbox/logx"
	"github.com/LayerTwo-Labs/orchard-sandbox/types"
)

var txHash string

var txCmd = &cobra.Command{
	Use:   "tx [flags]",
	Short: "Show a connected transaction by hash",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runTx(); err != nil {
			logx.Error("TX CLI", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(txCmd)
	txCmd.Flags().StringVarP(&txHash, "hash", "x", "", "transaction hash to look up")
	_ = txCmd.MarkFlagRequired("hash")
}

func runTx() error {
	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	rec, err := e.ledger.Transaction(txHash)
	if err != nil {
		return err
	}
	if rec == nil {
		fmt.Println("tx: <not on the active chain>")
		return nil
	}
	t, err := types.ParseTx(rec.Raw)
	if err != nil {
		return err
	}

	fmt.Printf("hash:    %s\n", rec.TxHash)
	fmt.Printf("height:  %d\n", rec.Height)
	fmt.Printf("kind:    %s\n", rec.Kind)
	fmt.Printf("fee:     %d\n", t.Fee)
	fmt.Printf("inputs:  %d transparent, %d shielded\n", len(t.TransparentInputs), len(t.ShieldedInputs))
	fmt.Printf("outputs: %d transparent, %d shielded\n", len(t.TransparentOutputs), len(t.ShieldedOutputs))
	return nil
}
