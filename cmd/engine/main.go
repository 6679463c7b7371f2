package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"leadscout-engine/internal/bus"
	"leadscout-engine/internal/cache"
	"leadscout-engine/internal/config"
	"leadscout-engine/internal/dedupe"
	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/email"
	"leadscout-engine/internal/events"
	"leadscout-engine/internal/httpapi"
	"leadscout-engine/internal/job"
	"leadscout-engine/internal/quota"
	"leadscout-engine/internal/ratelimit"
	"leadscout-engine/internal/scheduler"
	"leadscout-engine/internal/secrets"
	"leadscout-engine/internal/source"
	"leadscout-engine/internal/source/localdir"
	"leadscout-engine/internal/source/places"
	"leadscout-engine/internal/source/webscrape"
	"leadscout-engine/internal/store"
	"leadscout-engine/internal/stream"
)

func main() {
	// Engine data dir: use env if provided, else local folder.
	dataDir := os.Getenv("LEADSCOUT_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	// One engine per data dir: the bus's single consumer is what guarantees
	// at-most-one worker per job, so a second process must not start.
	lock := flock.New(filepath.Join(dataDir, "engine.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatalf("engine lock: %v", err)
	}
	if !locked {
		log.Fatalf("another engine instance holds %s", lock.Path())
	}
	defer func() { _ = lock.Unlock() }()

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}

	// Load config and keep it reloadable
	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		raw, err := config.Load(userCfgPath)
		if err != nil {
			return raw, err
		}
		norm, vr := config.NormalizeAndValidate(raw)
		for _, warn := range vr.Warnings {
			log.Printf("[config] warning: %s", warn)
		}
		if !vr.OK() {
			log.Printf("[config] errors: %v", vr.Errors)
		}
		return norm, nil
	}
	cfg, err := loadCfg()
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	cfgVal.Store(cfg)

	dbPath := filepath.Join(dataDir, "leadscout.db")
	db, err := store.Open(dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := store.Migrate(db.Pool); err != nil {
		log.Fatal(err)
	}

	hub := events.NewHub()
	registry := quota.NewRegistry(cfg.Sources.Providers)
	limiter := ratelimit.NewHostLimiter(cfg.Sources.Scrape.RequestsPerSec, cfg.Sources.Scrape.Burst)

	// Structured providers: only those with a key in the keychain are wired.
	var providers []source.Provider
	for _, p := range cfg.Sources.Providers {
		if !p.Enabled {
			continue
		}
		key, err := secrets.GetProviderKey(p.Name)
		if err != nil {
			log.Printf("[main] provider %s has no api key, skipping: %v", p.Name, err)
			registry.MarkUnavailable(p.Name)
			continue
		}
		switch p.Name {
		case "places":
			providers = append(providers, places.New(places.Config{BaseURL: p.BaseURL, APIKey: key}))
		case "localdir":
			providers = append(providers, localdir.New(localdir.Config{BaseURL: p.BaseURL, APIKey: key}))
		case "contactlookup":
			// email lookup provider, wired below
		default:
			log.Printf("[main] unknown provider %q in config, ignoring", p.Name)
		}
	}

	scraper := webscrape.New(webscrape.Config{FanOut: cfg.Sources.Scrape.FanOut}, limiter)
	router := source.NewRouter(registry, providers, scraper, cfg.Sources.PreferAPIs)

	var lookup email.Lookup
	if cfg.Email.LookupAPI {
		for _, p := range cfg.Sources.Providers {
			if p.Name != "contactlookup" || !p.Enabled {
				continue
			}
			if key, err := secrets.GetProviderKey(p.Name); err == nil {
				lookup = email.NewLookupClient(p.BaseURL, key)
			} else {
				log.Printf("[main] contact lookup has no api key, disabled: %v", err)
			}
		}
	}
	discoverer := email.NewDiscoverer(db.Pool, limiter, registry, lookup)

	cacheLayer := cache.New(
		db.Pool,
		time.Duration(cfg.Cache.TTLHours)*time.Hour,
		cfg.Cache.PopularMinRepeats,
		cfg.Cache.WarmQueries,
	)

	worker := &job.Worker{
		DB:               db.Pool,
		Router:           router,
		Enricher:         discoverer,
		Cache:            cacheLayer,
		Hub:              hub,
		EmailConcurrency: cfg.Email.Concurrency,
	}

	manager := &job.Manager{DB: db.Pool, Hub: hub, Cache: cacheLayer}
	dispatcher := bus.New(
		worker.Run,
		manager.MarkFailed,
		cfg.Worker.MaxAttempts,
		time.Duration(cfg.Worker.BackoffBaseMS)*time.Millisecond,
	)
	manager.Bus = dispatcher

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dispatcher.Start(ctx)

	// Periodic cache sweep
	maintEvery := time.Duration(cfg.Cache.MaintenanceMinutes) * time.Minute
	if maintEvery <= 0 {
		maintEvery = time.Hour
	}
	go scheduler.Every(ctx, maintEvery, "cache-maintain", func(ctx context.Context) error {
		evicted, err := cacheLayer.Maintain(ctx)
		if err == nil && evicted > 0 {
			log.Printf("[cache-maintain] evicted=%d", evicted)
		}
		return err
	})

	// runSearch drives cache warming through the full pipeline.
	runSearch := func(ctx context.Context, query, location string) ([]domain.Business, error) {
		engine := dedupe.NewEngine()
		listings, _, err := router.Fetch(ctx, query, location, 25)
		if err != nil {
			return nil, err
		}
		for _, b := range listings {
			engine.Add(b)
		}
		records := engine.Records()
		discoverer.DiscoverBatch(ctx, records, cfg.Email.Concurrency, nil)
		return records, nil
	}

	streamer := stream.New(db.Pool, time.Duration(cfg.Stream.PollIntervalMS)*time.Millisecond)

	mux := httpapi.NewMux(httpapi.Deps{
		DB:          db.Pool,
		Hub:         hub,
		Jobs:        manager,
		Streamer:    streamer,
		Cache:       cacheLayer,
		Registry:    registry,
		CfgVal:      &cfgVal,
		UserCfgPath: userCfgPath,
		LoadCfg:     loadCfg,
		RunSearch:   runSearch,
	})

	handler := httpapi.Chain(mux,
		httpapi.RequestID,
		httpapi.Recover,
		httpapi.AccessLog,
		httpapi.Cors,
	)

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(cfg.App.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("engine listening on http://%s (db=%s)", addr, dbPath)

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Fatal(srv.Serve(ln))
}
