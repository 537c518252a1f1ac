// Command weexbot runs the WEEX derivatives scalping bot: it loads
// configuration and credentials, wires the exchange gateway, risk governor,
// position manager and strategy engine, and serves Prometheus metrics until
// interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	ossignal "os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/srllamadev/protocol-14-weex/config"
	"github.com/srllamadev/protocol-14-weex/engine"
	"github.com/srllamadev/protocol-14-weex/exchange"
	"github.com/srllamadev/protocol-14-weex/intel"
	"github.com/srllamadev/protocol-14-weex/journal"
	"github.com/srllamadev/protocol-14-weex/logger"
	"github.com/srllamadev/protocol-14-weex/position"
	"github.com/srllamadev/protocol-14-weex/risk"
	"github.com/srllamadev/protocol-14-weex/signal"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "weexbot:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	creds, err := config.LoadCredentials()
	if err != nil {
		return err
	}

	log, err := logger.NewAtLevel(cfg.App.LogLevel)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	ctx, stop := signalContext()
	defer stop()

	go serveMetrics(cfg.App.MetricsAddr, log)

	jrnl := journal.NewWriter(cfg.App.JournalDir, log)
	defer jrnl.Close()

	state := risk.NewState()
	statePath := filepath.Join(cfg.App.JournalDir, "state.json")
	if err := state.Restore(statePath); err != nil {
		log.Warn("risk state restore failed, starting fresh", logger.Err(err))
	}

	gateway := exchange.NewClient(creds, log)
	market := intel.NewFeed(cfg.Safety, log)
	governor := risk.NewGovernor(cfg.Limits, market, state)
	manager := position.NewManager(gateway, cfg.Profile, state, jrnl, log)
	generator := signal.New(cfg.Profile)

	bot := engine.New(cfg, gateway, generator, governor, manager, jrnl, log)
	runErr := bot.Run(ctx)

	if err := state.Save(statePath); err != nil {
		log.Error("risk state save failed", logger.Err(err))
	}
	return runErr
}

// loadConfig falls back to the built-in defaults when no config file exists,
// so the bot can start from a bare checkout plus a .env file.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := config.Default()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return config.Load(path)
}

func signalContext() (context.Context, context.CancelFunc) {
	return ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func serveMetrics(addr string, log logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("metrics server stopped", logger.Err(err))
	}
}
