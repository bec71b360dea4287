package cmd

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/LayerTwo-Labs/orchard-sandbox/exception"
	"github.com/LayerTwo-Labs/orchard-sandbox/logx"
	"github.com/LayerTwo-Labs/orchard-sandbox/monitoring"
)

var serveListenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve [flags]",
	Short: "Expose engine metrics over HTTP until interrupted",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServe(); err != nil {
			logx.Error("SERVE CLI", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveListenAddr, "listen", "l", ":9100", "metrics listen address")
}

func runServe() error {
	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	// Seed the gauges from the stored state so a freshly started process
	// reports the chain it reopened, not zeros.
	tip, err := e.ledger.Tip()
	if err != nil {
		return err
	}
	if tip != nil {
		monitoring.SetBlockHeight(tip.Height)
	}
	size, err := e.ledger.PoolSize()
	if err != nil {
		return err
	}
	monitoring.SetPoolSize(size)

	mux := http.NewServeMux()
	monitoring.RegisterMetrics(mux)
	exception.SafeGoWithPanic("metrics-server", func() {
		logx.Info("SERVE CLI", "Serving metrics on", serveListenAddr)
		if err := http.ListenAndServe(serveListenAddr, mux); err != nil {
			logx.Error("SERVE CLI", "Metrics server stopped:", err)
		}
	})

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logx.Info("SERVE CLI", "Shutting down")
	return nil
}
