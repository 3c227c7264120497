package main

import (
	"context"
	"errors"
	"flag"
	"os/signal"
	"syscall"

	"github.com/Moka-cat/AI-Email-Agent/internal/config"
	"github.com/Moka-cat/AI-Email-Agent/internal/dispatch"
	imapadapter "github.com/Moka-cat/AI-Email-Agent/internal/imap"
	"github.com/Moka-cat/AI-Email-Agent/internal/logging"
	"github.com/Moka-cat/AI-Email-Agent/internal/poller"
	"github.com/Moka-cat/AI-Email-Agent/internal/triage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Log.Fatalf("Error reading configuration file: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	triageClient := triage.NewClient(cfg.Triage.Endpoint, cfg.Triage.Timeout)
	dispatcher := dispatch.New(cfg.Folders.Trash, cfg.Folders.Drafts, cfg.Email.FromAddress)

	p := poller.New(cfg,
		func() imapadapter.Session { return imapadapter.NewStandardSession() },
		triageClient,
		dispatcher,
	)

	if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Log.Fatalf("Poller stopped: %v", err)
	}
}
