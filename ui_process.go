// cybercraft-launcher/ui_process.go
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"

	"go.uber.org/zap"

	"cybercraft-launcher/config"
)

const uiStopTimeout = 3 * time.Second

func uiEnv(cfg config.Data, gatewayURL, token string) []string {
	return append(os.Environ(),
		config.EnvUIMode+"=1",
		config.EnvGatewayURL+"="+gatewayURL,
		config.EnvGatewayToken+"="+token,
		config.EnvBackendURL+"="+cfg.Backend.BaseURL,
		config.EnvBackendTimeout+"="+cfg.Backend.Timeout.String(),
		config.EnvLogLevel+"="+cfg.LogLevel,
	)
}

// runUIProcess starts this executable in the UI role on the current
// terminal and blocks until it exits. Cancelling ctx asks it to stop.
func runUIProcess(ctx context.Context, env []string, logger *zap.Logger) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	cmd := exec.CommandContext(ctx, exe)
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Cancel = func() error {
		if runtime.GOOS == "windows" {
			return cmd.Process.Kill()
		}
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = uiStopTimeout

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("ui stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ui process: %w", err)
	}
	logger.Info("ui process started", zap.Int("pid", cmd.Process.Pid))

	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		logger.Info("ui", zap.String("line", scanner.Text()))
	}

	err = cmd.Wait()
	logger.Info("ui process exited", zap.Error(err))
	if err != nil {
		return fmt.Errorf("ui process: %w", err)
	}
	return nil
}
