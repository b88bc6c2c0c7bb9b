package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/acahill/boxdbot/internal/bot"
	"github.com/acahill/boxdbot/internal/config"
	"github.com/acahill/boxdbot/internal/letterboxd"
	"github.com/acahill/boxdbot/internal/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	client := letterboxd.NewClient(*cfg)

	b, err := bot.New(*cfg, client, logger)
	if err != nil {
		log.Fatalf("failed to initialize bot: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := b.Start(ctx); err != nil {
		log.Fatalf("failed to start bot: %v", err)
	}

	var metricsSrv *http.Server
	if cfg.Metrics.Addr != "" {
		metricsSrv = metrics.NewServer(cfg.Metrics.Addr, logger)
		go func() {
			log.Printf("metrics listening on %s", cfg.Metrics.Addr)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("metrics server error: %v", err)
			}
		}()
	}

	<-ctx.Done()
	log.Println("shutdown signal received")

	if metricsSrv != nil {
		timeoutCtx, cancel := context.WithTimeout(context.Background(), cfg.Metrics.ShutdownTimeout)
		defer cancel()
		if err := metricsSrv.Shutdown(timeoutCtx); err != nil {
			log.Printf("metrics shutdown did not complete cleanly: %v", err)
		}
	}

	b.Stop()
	log.Println("bot stopped")
}
