package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"geocache/internal/cache"
	"geocache/internal/config"
	"geocache/internal/jobs"
	"geocache/internal/provider"
	"geocache/internal/resolver"
	"geocache/internal/server"
	"geocache/internal/stats"
	"geocache/internal/store"
	"geocache/internal/validation"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ycfg, err := config.LoadYAMLConfig()
	if err != nil {
		log.Fatalf("Failed to load provider config: %v", err)
	}
	if ycfg == nil {
		ycfg = config.DefaultYAMLConfig()
	}

	// Fallback file store; must exist before the database is even tried.
	fileStore, err := store.NewFile(cfg.FallbackPath, cfg.StoreTTL)
	if err != nil {
		log.Fatalf("Failed to initialize fallback store: %v", err)
	}

	// Primary store is optional: the engine degrades to the file store
	// when the database is unreachable or unconfigured.
	var primary store.Store
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgres(ctx, cfg.DatabaseURL, cfg.StoreTTL)
		if err != nil {
			log.Printf("Warning: database unreachable, running on file fallback: %v", err)
		} else {
			if err := pg.RunMigrations(cfg.DatabaseURL); err != nil {
				log.Fatalf("Failed to run migrations: %v", err)
			}
			log.Println("Migrations completed successfully")
			primary = pg
		}
	} else {
		log.Println("DATABASE_URL not set; persistent tier uses the file fallback only")
	}

	adapter := store.NewAdapter(primary, fileStore)
	defer adapter.Close()

	queue := store.NewQueue(adapter, cfg.BatchSize, cfg.BatchDebounce)
	memCache := cache.New(cfg.CacheSize, cfg.CacheTTL)

	// Provider chain in configured order
	var providers []provider.Provider
	for _, pc := range ycfg.EnabledProviders() {
		timeout, err := pc.TimeoutOrDefault(cfg.ProviderTimeout)
		if err != nil {
			log.Fatalf("Invalid provider config: %v", err)
		}
		p, err := provider.New(pc.Name, timeout)
		if err != nil {
			log.Fatalf("Invalid provider config: %v", err)
		}
		providers = append(providers, p)
	}
	if len(providers) == 0 {
		log.Fatal("No providers configured")
	}
	chain := provider.NewChain(providers...)

	allow, err := validation.ParseAllowList(ycfg.AllowList)
	if err != nil {
		log.Fatalf("Invalid allow-list: %v", err)
	}

	statsCollector := stats.New(512)
	stats.Register(statsCollector)

	res := resolver.New(memCache, adapter, queue, chain, allow, statsCollector, resolver.Config{
		MaxConcurrent: int64(cfg.MaxConcurrent),
		RetryAttempts: cfg.RetryAttempts,
		RetryDelay:    cfg.RetryDelay,
		Coalesce:      cfg.Coalesce,
	})

	// Background maintenance
	janitor := jobs.NewJanitor(memCache, adapter, cfg.SweepInterval, cfg.GCInterval)
	jobCtx, cancelJobs := context.WithCancel(ctx)
	go janitor.Start(jobCtx)

	srv := server.New(cfg)
	srv.RegisterRoutes(res, adapter)

	go func() {
		if err := srv.App.Listen(cfg.ServerAddr); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("Server started on %s (providers: %d)", cfg.ServerAddr, chain.Len())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	cancelJobs()
	if err := srv.App.Shutdown(); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Pending resolutions must reach durable storage before exit.
	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := res.Flush(flushCtx); err != nil {
		log.Printf("Failed to flush write queue: %v", err)
	}
	log.Println("Server exited")
}
