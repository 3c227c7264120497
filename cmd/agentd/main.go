package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Moka-cat/AI-Email-Agent/internal/agent"
	"github.com/Moka-cat/AI-Email-Agent/internal/config"
	"github.com/Moka-cat/AI-Email-Agent/internal/knowledge"
	"github.com/Moka-cat/AI-Email-Agent/internal/logging"
	"github.com/Moka-cat/AI-Email-Agent/internal/oracle"
	"github.com/Moka-cat/AI-Email-Agent/internal/server"
)

const shutdownGrace = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Log.Fatalf("Error reading configuration file: %v", err)
	}

	oracleClient := oracle.NewClient(cfg.Oracle.ClassifyURL, cfg.Oracle.DraftURL, cfg.Oracle.Timeout)
	retriever := knowledge.NewClient(cfg.Knowledge.SearchURL, cfg.Knowledge.Timeout)
	engine := agent.NewEngine(oracleClient, retriever, oracleClient)

	srv := &http.Server{
		Addr:    cfg.Server.Listen,
		Handler: server.New(engine).Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Log.Errorf("Error shutting down server: %v", err)
		}
	}()

	logging.Log.Infof("Triage service listening on %s", cfg.Server.Listen)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Log.Fatalf("Server error: %v", err)
	}
}
