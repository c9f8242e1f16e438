// cybercraft-launcher/tui/bootstrap.go
package tui

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"cybercraft-launcher/backend"
	"cybercraft-launcher/config"
	"cybercraft-launcher/controller"
	"cybercraft-launcher/gateway"
)

// RunFromEnv is the UI process entry point. It reaches the host only
// through the gateway named by CYBERCRAFT_GATEWAY_URL.
func RunFromEnv(ctx context.Context, logger *zap.Logger) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	gatewayURL := os.Getenv(config.EnvGatewayURL)
	if gatewayURL == "" {
		return fmt.Errorf("%s is not set; start the launcher instead of the UI", config.EnvGatewayURL)
	}

	gw, err := gateway.Dial(ctx, gatewayURL, os.Getenv(config.EnvGatewayToken), logger.Named("gateway"))
	if err != nil {
		return err
	}
	defer gw.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-gw.Done():
			logger.Info("host closed the gateway")
			cancel()
		case <-ctx.Done():
		}
	}()

	be := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, logger.Named("backend"))
	ctrl := controller.New(gw, be, cfg.Links, logger.Named("controller"))
	return NewApp(ctrl, logger).Run(ctx)
}
