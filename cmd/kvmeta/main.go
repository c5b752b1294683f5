package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"kvmeta/internal/catalog"
	"kvmeta/internal/client"
	"kvmeta/internal/config"
	"kvmeta/internal/coordinator"
	"kvmeta/internal/service"
	"kvmeta/internal/transport"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		nodeID     = flag.String("node-id", "", "node identifier used in logs")
		listen     = flag.String("listen", "", "HTTP listen address")
		dataDir    = flag.String("data", "", "catalog data directory (empty: in-memory)")
		upstream   = flag.String("upstream", "", "proxy mode: base URL of the upstream kvmeta node")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *nodeID != "" {
		cfg.NodeID = *nodeID
	}
	if *listen != "" {
		cfg.ListenAddr = *listen
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *upstream != "" {
		cfg.UpstreamURL = *upstream
	}
	if cfg.NodeID == "" {
		host, err := os.Hostname()
		if err != nil {
			host = "kvmeta"
		}
		cfg.NodeID = host
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	var dispatcher service.Dispatcher
	switch {
	case cfg.UpstreamURL != "":
		log.Printf("[%s] proxying to %s", cfg.NodeID, cfg.UpstreamURL)
		dispatcher = client.New(cfg.UpstreamURL)
	default:
		store, err := openStore(cfg)
		if err != nil {
			log.Fatalf("open catalog: %v", err)
		}
		defer store.Close()

		coord := coordinator.New(coordinator.Config{
			NodeID:      cfg.NodeID,
			DefaultWait: cfg.DefaultWait(),
			QueueSize:   cfg.QueueSize,
		}, store)
		defer coord.Close()
		dispatcher = coord
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           transport.NewServer(cfg.NodeID, service.New(dispatcher)).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("[%s] listening on %s", cfg.NodeID, cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[%s] shutdown: %v", cfg.NodeID, err)
	}
	log.Printf("[%s] stopped", cfg.NodeID)
}

func openStore(cfg config.Config) (catalog.Store, error) {
	if cfg.DataDir == "" {
		log.Printf("[%s] no data dir configured, catalog is in-memory", cfg.NodeID)
		return catalog.NewInMemoryStore(), nil
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}
	return catalog.OpenBoltStore(filepath.Join(cfg.DataDir, "catalog.db"))
}
