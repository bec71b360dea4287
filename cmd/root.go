package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/LayerTwo-Labs/orchard-sandbox/logx"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "orchard-sandbox",
	Short: "Dual-model ledger engine CLI",
	Long:  "Command line interface for a ledger engine combining a transparent output set with a shielded note commitment pool.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logx.Error("CMD", "Command execution failed:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to engine.yml (defaults apply when omitted)")
}
