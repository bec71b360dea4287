package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LayerTwo-Labs/orchard-sandbox/logx"
	"github.com/LayerTwo-Labs/orchard-sandbox/types"
)

var (
	blockHeight uint64
	blockHash   string
)

var blockCmd = &cobra.Command{
	Use:   "block [flags]",
	Short: "Show a recorded block by height or hash",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runBlock(cmd); err != nil {
			logx.Error("BLOCK CLI", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(blockCmd)
	blockCmd.Flags().Uint64VarP(&blockHeight, "height", "n", 0, "active-chain height to look up")
	blockCmd.Flags().StringVarP(&blockHash, "hash", "x", "", "block hash to look up (active or orphaned)")
}

func runBlock(cmd *cobra.Command) error {
	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	var b *types.Block
	if blockHash != "" {
		b, err = e.ledger.Block(blockHash)
	} else if cmd.Flags().Changed("height") {
		b, err = e.ledger.BlockAtHeight(blockHeight)
	} else {
		return fmt.Errorf("either --height or --hash is required")
	}
	if err != nil {
		return err
	}
	if b == nil {
		fmt.Println("block: <not found>")
		return nil
	}

	fmt.Printf("height:    %d\n", b.Height)
	fmt.Printf("hash:      %s\n", b.Hash)
	fmt.Printf("parent:    %s\n", b.ParentHash)
	fmt.Printf("status:    %s\n", b.Status)
	fmt.Printf("tree_root: %s\n", hex.EncodeToString(b.TreeRoot))
	fmt.Printf("txs:       %d\n", len(b.Transactions))
	for _, t := range b.Transactions {
		fmt.Printf("  %s %s\n", t.Hash(), t.Kind)
	}
	return nil
}
