package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LayerTwo-Labs/orchard-sandbox/logx"
)

var balanceAddress string

var balanceCmd = &cobra.Command{
	Use:   "balance [flags]",
	Short: "Show the transparent balance of an address",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runBalance(); err != nil {
			logx.Error("BALANCE CLI", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().StringVarP(&balanceAddress, "address", "a", "", "transparent address to query")
	_ = balanceCmd.MarkFlagRequired("address")
}

func runBalance() error {
	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	balance, err := e.ledger.BalanceOf(balanceAddress)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", balanceAddress, balance.Dec())
	return nil
}
