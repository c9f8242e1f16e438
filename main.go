// cybercraft-launcher/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/faiface/mainthread"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cybercraft-launcher/backend"
	"cybercraft-launcher/config"
	"cybercraft-launcher/game"
	"cybercraft-launcher/gateway"
	"cybercraft-launcher/logs"
	"cybercraft-launcher/selfupdate"
	"cybercraft-launcher/store"
	"cybercraft-launcher/tui"
	"cybercraft-launcher/ui"
)

const logFileName = "launcher.log"

func main() {
	if os.Getenv(config.EnvUIMode) == "1" {
		os.Exit(runUI())
	}
	code := 0
	mainthread.Run(func() {
		if err := runHost(); err != nil {
			fmt.Fprintln(os.Stderr, "cybercraft-launcher:", err)
			code = 1
		}
	})
	os.Exit(code)
}

// runUI is the child role. Its stderr is collected into the host log.
func runUI() int {
	level := os.Getenv(config.EnvLogLevel)
	if level == "" {
		level = "info"
	}
	logger, err := logs.New(level, "")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := tui.RunFromEnv(ctx, logger); err != nil {
		logger.Error("ui stopped", zap.Error(err))
		return 1
	}
	return 0
}

func runHost() error {
	dataDir, err := config.DataDir()
	if err != nil {
		return err
	}
	cfg, cfgErr := config.Load(dataDir)
	if cfgErr != nil {
		cfg = config.Default()
	}

	logger, err := logs.New(cfg.LogLevel, filepath.Join(dataDir, logFileName))
	if err != nil {
		return err
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	if cfgErr != nil {
		logger.Warn("configuration ignored, using defaults", zap.Error(cfgErr))
	}
	logger.Info("launcher starting",
		zap.String("version", selfupdate.Version),
		zap.String("build", selfupdate.BuildNumber),
		zap.String("data_dir", dataDir),
	)

	st, err := store.New(dataDir, logger.Named("store"))
	if err != nil {
		return err
	}

	watcher, err := config.NewWatcher(dataDir, cfg, logger.Named("config"))
	if err != nil {
		return err
	}
	defer watcher.Close()
	profile := func() config.Launch { return watcher.Get().Launch }

	dialogs := ui.NewDialogs("Select game folder", logger.Named("ui"))
	dialogsReady := make(chan struct{})
	go dialogs.Manage(dialogsReady)
	<-dialogsReady
	defer dialogs.Close()

	be := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, logger.Named("backend"))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	gw := gateway.New(gateway.Deps{
		Store:    st,
		Host:     ui.NewHost(dialogs, logger.Named("host")),
		Launcher: game.NewDelegate(game.NewProcessClient(profile, logger.Named("game")), profile, logger.Named("game")),
		Updater:  selfupdate.New(be, logger.Named("selfupdate")),
		Metrics:  gateway.NewMetrics(registry),
		Logger:   logger.Named("gateway"),
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("listen gateway: %w", err)
	}
	token := uuid.NewString()
	server := gateway.NewServer(gw, token, registry, logger.Named("gateway"))
	gatewayURL := fmt.Sprintf("ws://%s/ws", ln.Addr())
	logger.Info("gateway listening", zap.String("addr", ln.Addr().String()))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Serve(gctx, ln)
	})
	g.Go(func() error {
		watcher.Run(gctx)
		return nil
	})
	g.Go(func() error {
		defer cancel()
		err := runUIProcess(gctx, uiEnv(cfg, gatewayURL, token), logger.Named("ui-process"))
		if err != nil && gctx.Err() == nil {
			return err
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-gw.Done():
			logger.Info("UI asked to close")
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	logger.Info("launcher stopped", zap.Error(err))
	return err
}
