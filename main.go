package main

import (
	"os"
	"runtime/debug"

	"github.com/LayerTwo-Labs/orchard-sandbox/cmd"
	"github.com/LayerTwo-Labs/orchard-sandbox/logx"
	"github.com/LayerTwo-Labs/orchard-sandbox/monitoring"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			_ = logx.Errorf("ENGINE CRASHED: %v\n%s", r, debug.Stack())
			os.Exit(1)
		}
	}()

	monitoring.InitMetrics()
	cmd.Execute()
}
