// cybercraft-launcher/cmd/launcher-ui/main.go
//
// launcher-ui runs only the terminal front end against a host that is
// already serving the gateway, e.g. while working on the UI:
//
//	CYBERCRAFT_GATEWAY_URL=ws://127.0.0.1:41234/ws CYBERCRAFT_GATEWAY_TOKEN=... launcher-ui
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"cybercraft-launcher/config"
	"cybercraft-launcher/logs"
	"cybercraft-launcher/tui"
)

func main() {
	logPath := flag.String("log", "launcher-ui.log", "log file; the terminal belongs to the UI")
	flag.Parse()

	level := os.Getenv(config.EnvLogLevel)
	if level == "" {
		level = "info"
	}
	logger, err := logs.New(level, *logPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := tui.RunFromEnv(ctx, logger.Named("ui")); err != nil {
		logger.Error("ui stopped", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
