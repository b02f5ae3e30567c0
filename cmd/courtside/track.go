package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/courtside/tracker/internal/config"
	"github.com/courtside/tracker/internal/events"
	"github.com/courtside/tracker/internal/session"
	"github.com/courtside/tracker/internal/storage"
	"github.com/courtside/tracker/internal/storage/repository"
	courtsync "github.com/courtside/tracker/internal/sync"
	"github.com/courtside/tracker/internal/tracker"
)

func runTrackCommand(args []string) {
	fs := flag.NewFlagSet("track", flag.ExitOnError)
	eventID := fs.String("event-id", "", "Calendar event id for this game (required)")
	opponent := fs.String("opponent", "Opponent", "Opponent team name")
	resume := fs.Bool("resume", false, "Resume an existing session instead of starting fresh")
	rosterPath := fs.String("roster", "", "Path to the roster JSON file (default: <config dir>/roster.json)")
	verbose := fs.Bool("v", false, "Log every dispatched engine event")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *eventID == "" {
		fmt.Fprintln(os.Stderr, "track: --event-id is required")
		fs.Usage()
		os.Exit(1)
	}

	cfg := loadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	roster, err := loadRoster(*rosterPath)
	if err != nil {
		log.Fatalf("Error loading roster: %v", err)
	}

	dbCfg := storage.DefaultConfig(dbPath(cfg))
	dbCfg.AutoMigrate = true
	db, err := storage.Open(dbCfg)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	dispatcher := events.NewDispatcher()
	if *verbose {
		dispatcher.Register(events.NewLoggingObserver(true))
	}

	var metrics *courtsync.Metrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		metrics = courtsync.NewMetrics(reg)
		go serveMetrics(cfg.Metrics.Listen, reg)
	}

	// The manager's session store and the outbox mirror are the same
	// backend: the remote API when configured, the local sqlite mirror
	// otherwise. Either way the tracker records locally first and the
	// outbox delivers appends in order.
	var store session.Store = repository.NewSessionRepository(db)
	var feed *courtsync.Feed
	if cfg.Remote.BaseURL != "" {
		timeout, _ := cfg.RemoteTimeout()
		clientCfg := courtsync.DefaultClientConfig(cfg.Remote.BaseURL)
		clientCfg.Timeout = timeout
		store = courtsync.NewClient(clientCfg)

		if cfg.Remote.FeedEnabled {
			feed = courtsync.NewFeed(feedURL(cfg.Remote.BaseURL), dispatcher)
		}
	}

	outboxCfg := courtsync.DefaultOutboxConfig()
	outboxCfg.RetryPerSec = cfg.Remote.RetryPerSec
	outbox := courtsync.NewOutbox(store, outboxCfg, dispatcher, metrics)

	gameRepo := repository.NewGameRepository(db)
	manager := session.NewManager(store, gameRepo)

	var enc *storage.EncryptionConfig
	if cfg.Storage.EncryptSnapshots {
		pass := os.Getenv(cfg.Storage.SnapshotPassEnv)
		if pass == "" {
			log.Fatalf("Snapshot encryption enabled but %s is not set", cfg.Storage.SnapshotPassEnv)
		}
		enc = storage.DefaultEncryptionConfig(pass)
	}
	snapshots := repository.NewSnapshotRepository(db, enc)

	deps := tracker.Deps{
		Config:     cfg,
		Roster:     roster,
		Manager:    manager,
		Cache:      snapshots,
		Mirror:     outbox,
		Dispatcher: dispatcher,
	}
	if metrics != nil {
		deps.AggregationTimer = metrics.AggregationDuration
	}
	trk, err := tracker.New(deps)
	if err != nil {
		log.Fatalf("Error creating tracker: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *resume {
		err = trk.ResumeSession(ctx, *eventID, *opponent)
	} else {
		err = trk.StartSession(ctx, *eventID, *opponent)
	}
	if err != nil {
		log.Fatalf("Error opening session: %v", err)
	}

	outbox.Start()
	defer outbox.Stop()
	if feed != nil {
		feed.Start()
		defer feed.Stop()
	}

	scheduler, err := tracker.NewScheduler(trk)
	if err != nil {
		log.Fatalf("Error creating checkpoint scheduler: %v", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	// Reload policy and behavior settings live when the config file changes.
	if path, perr := config.Path(); perr == nil {
		watcher, werr := config.Watch(path, func(updated *config.Config) {
			if err := trk.SetConfig(updated); err != nil {
				log.Printf("config reload rejected: %v", err)
			}
		})
		if werr != nil {
			log.Printf("config watch unavailable: %v", werr)
		} else {
			defer watcher.Close()
		}
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Println("\nShutting down, checkpointing...")
		cancel()
	}()

	console := newConsole(trk, *opponent)
	console.run(ctx)

	// Final checkpoint regardless of how the loop exited.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := trk.Checkpoint(shutdownCtx); err != nil {
		log.Printf("Final checkpoint: %v", err)
	}
}

func serveMetrics(listen string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(listen, mux); err != nil {
		log.Printf("metrics endpoint: %v", err)
	}
}

// feedURL derives the websocket feed URL from the API base URL.
func feedURL(baseURL string) string {
	url := strings.TrimSuffix(baseURL, "/")
	url = strings.Replace(url, "https://", "wss://", 1)
	url = strings.Replace(url, "http://", "ws://", 1)
	return url + "/feed"
}
