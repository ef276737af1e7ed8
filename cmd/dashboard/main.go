package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"citywatch/aggregator"
	"citywatch/config"

	"github.com/apex/log"
	"github.com/joho/godotenv"
)

// Headless dashboard aggregator: polls the report service and logs the
// derived view state. The same aggregator package backs operator UIs.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Warnf(".env file not found, using system environment variables")
	}

	cfg := config.Load()
	if cfg.LogLevel == "debug" {
		log.SetLevel(log.DebugLevel)
	}

	client := aggregator.NewClient(cfg.APIBaseURL, cfg.APIToken, cfg.HTTPTimeout)
	agg := aggregator.New(client, cfg.PollInterval, func(message string) {
		log.Warnf("%s", message)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	agg.Start(ctx)
	defer agg.Stop()

	log.Infof("Dashboard aggregator polling %s every %v", cfg.APIBaseURL, cfg.PollInterval)

	render := time.NewTicker(cfg.PollInterval)
	defer render.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-quit:
			log.Infof("Dashboard aggregator stopped")
			return
		case <-render.C:
			snapshot, ok := agg.Snapshot()
			if !ok {
				log.Infof("Waiting for first successful fetch...")
				continue
			}
			log.Infof("reports=%d markers=%d active=%d critical=%d pending=%d resolved_today=%d",
				len(snapshot.Reports), len(snapshot.Markers),
				snapshot.Stats.Active, snapshot.Stats.Critical,
				snapshot.Stats.Pending, snapshot.Stats.ResolvedToday)
		}
	}
}
