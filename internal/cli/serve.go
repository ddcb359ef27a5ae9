package cli

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gruppe-adler/demcache/internal/server"
)

// Version is reported by the health endpoint.
var Version = "dev"

// Serve runs the HTTP API until SIGINT or SIGTERM.
func Serve(flagSet *flag.FlagSet) {
	configPtr := configFlag(flagSet)
	addrPtr := flagSet.String("addr", "", "Listen address (default: server.addr from config)")

	flagSet.Parse(os.Args[2:])

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, p := mustPipeline(ctx, *configPtr)

	addr := cfg.Server.Addr
	if *addrPtr != "" {
		addr = *addrPtr
	}

	app := server.NewApp(&server.Dependencies{DEM: p, Version: Version})

	// Graceful shutdown
	go func() {
		slog.Info("API server starting", "addr", addr, "cache", p.Store().Root())
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
