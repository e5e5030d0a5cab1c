// Command depthengine connects to an exchange's incremental depth feed over
// N redundant websocket connections, reconciles it against a REST snapshot,
// and keeps an in-memory L2 order book up to date for a single symbol.
//
// https://developers.binance.com/docs/binance-spot-api-docs/web-socket-streams
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/BullionBear/sequex/internal/config"
	"github.com/BullionBear/sequex/internal/depthengine"
	"github.com/BullionBear/sequex/pkg/logger"
)

func main() {
	logger.InitLogger(os.Getenv("DEBUG_MODE") == "true")
	log := logger.Get()

	configPath := os.Getenv("DEPTHENGINE_CONFIG")
	if configPath == "" {
		configPath = "config.json"
	}

	cfg, err := config.LoadDepthEngineConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	watchdogTimeout, err := cfg.WatchdogTimeoutDuration()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid watchdog timeout")
	}

	engine := depthengine.NewEngine(depthengine.Config{
		Symbol:          cfg.Symbol,
		DepthStreamURL:  cfg.DepthStreamURL,
		SnapshotURL:     cfg.SnapshotURL,
		Connections:     cfg.Connections,
		WatchdogTimeout: watchdogTimeout,
	}, *log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info().
		Str("symbol", cfg.Symbol).
		Int("connections", cfg.Connections).
		Dur("watchdog_timeout", watchdogTimeout).
		Msg("starting depth reconciliation engine")

	engine.Run(ctx)

	log.Info().Msg("depth reconciliation engine stopped")
}
