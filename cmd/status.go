package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LayerTwo-Labs/orchard-sandbox/logx"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the chain tip and shielded pool state",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runStatus(); err != nil {
			logx.Error("STATUS CLI", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus() error {
	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	tip, err := e.ledger.Tip()
	if err != nil {
		return err
	}
	root, err := e.ledger.PoolRoot()
	if err != nil {
		return err
	}
	size, err := e.ledger.PoolSize()
	if err != nil {
		return err
	}

	if tip == nil {
		fmt.Println("tip:       <empty chain>")
	} else {
		fmt.Printf("tip:       height=%d hash=%s\n", tip.Height, tip.Hash)
	}
	fmt.Printf("pool_root: %s\n", hex.EncodeToString(root))
	fmt.Printf("pool_size: %d\n", size)
	return nil
}
