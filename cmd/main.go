package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/joho/godotenv"

	"cipher-relay/crypto"
	"cipher-relay/infrastructure/web"
	"cipher-relay/infrastructure/ws"
	"cipher-relay/internal"
	"cipher-relay/runtime"
	"cipher-relay/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the relay together and owns the server lifecycle, so deferred
// cleanup always executes and main stays trivially testable.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := internal.NewLogger(config.LogLevel)

	// 2. Crypto engine
	rootKey, err := config.RootKey()
	if err != nil {
		return err
	}
	engine, err := crypto.NewEngine(rootKey, config.MaxMessageBytes)
	if err != nil {
		return err
	}

	// 3. Relay core
	registry := runtime.NewRegistry()
	dispatcher := runtime.NewDispatcher(log, engine, registry)
	relay := services.NewRelayService(dispatcher)

	// 4. HTTP surface: websocket gateway, demo pages, monitoring
	startedAt := time.Now().UTC()
	mux := http.NewServeMux()
	mux.Handle("/ws", ws.NewServer(log, relay, config.ConnectionBufferSize, config.SinkTimeout))
	web.NewHandler(log, engine).Routes(mux)
	mux.Handle("GET /healthz", internal.HealthzHandler())
	mux.Handle("GET /stats", internal.StatsHandler(func() map[string]any {
		stats := dispatcher.Stats()
		stats["uptime"] = time.Since(startedAt).Round(time.Second).String()
		return stats
	}))

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: mux}

	errChan := make(chan error, 1)
	go func() {
		color.Greenp("🔐 cipher-relay listening at http://")
		color.Greenln(address)
		log.Info("server starting", "address", address, "at", startedAt)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 6. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	log.Info("Program stopped cleanly")

	return nil
}
