package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/IBM07/HireWire/internal/cache"
	"github.com/IBM07/HireWire/internal/config"
	"github.com/IBM07/HireWire/internal/extraction"
	"github.com/IBM07/HireWire/internal/llm"
	"github.com/IBM07/HireWire/internal/server"
	"github.com/IBM07/HireWire/internal/server/ratelimit"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the job search API server",
	Long: `Start an HTTP server exposing the ranked job search, its auxiliary endpoints and,
when a JWT secret is configured, the admin endpoints. With an LLM API key the
extraction worker also runs on its schedule.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	_ = v.BindPFlag("port", serveCmd.Flags().Lookup("port"))
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	responseCache, closeCache, err := newResponseCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	srvCfg := server.Config{
		Port:            cfg.Port,
		DefaultPageSize: cfg.Search.DefaultPageSize,
		MaxPageSize:     cfg.Search.MaxPageSize,
		FiltersTTL:      cfg.Cache.FiltersTTL,
		StatsTTL:        cfg.Cache.StatsTTL,
		PostingTTL:      cfg.Cache.PostingTTL,
		RateLimit:       ratelimit.LoadConfig(),
	}
	if cfg.AdminEnabled() {
		if srvCfg.JWT, err = cfg.JWT(); err != nil {
			return fmt.Errorf("invalid auth configuration: %w", err)
		}
	}
	srv := server.New(srvCfg, store, responseCache, logger.Named("server"))

	var scheduler *extraction.Scheduler
	if cfg.LLM.APIKey != "" {
		client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.LLM.APIKey)
		if err != nil {
			return fmt.Errorf("failed to create LLM client: %w", err)
		}
		defer func() { _ = client.Close() }()

		worker := newWorker(cfg, store, client, responseCache, logger)
		scheduler = extraction.NewScheduler(worker, cfg.Extraction.Schedule, logger.Named("scheduler"))
	} else {
		logger.Warn("no LLM API key configured, extraction worker disabled")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})
	if scheduler != nil {
		if err := scheduler.Start(gctx); err != nil {
			stop()
			_ = g.Wait()
			return err
		}
		g.Go(func() error {
			<-gctx.Done()
			scheduler.Stop()
			return nil
		})
	}

	return g.Wait()
}

// newResponseCache builds the response cache with its Redis tier when a
// Redis URL is configured. The returned func releases both tiers.
func newResponseCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*cache.Cache, func(), error) {
	opts := []cache.Option{
		cache.WithMaxEntries(cfg.Cache.MaxEntries),
		cache.WithCleanupInterval(cfg.Cache.CleanupInterval),
		cache.WithLogger(logger.Named("cache")),
	}
	if cfg.Redis.URL != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, cache.WithRedis(rdb))
		logger.Info("redis cache tier enabled")

		c := cache.New(opts...)
		return c, func() {
			c.Close()
			_ = rdb.Close()
		}, nil
	}
	c := cache.New(opts...)
	return c, c.Close, nil
}

// newWorker wires the extraction worker to the store and the cache prefixes
// that depend on extracted fields.
func newWorker(cfg *config.Config, queue extraction.Queue, client llm.Client, c *cache.Cache, logger *zap.Logger) *extraction.Worker {
	extractor := extraction.NewLLMExtractor(client, logger.Named("extractor"))
	opts := []extraction.WorkerOption{
		extraction.WithBatchSize(cfg.Extraction.BatchSize),
		extraction.WithWorkerLogger(logger.Named("extraction")),
	}
	if c != nil {
		opts = append(opts, extraction.WithInvalidation(c, server.CacheFilters, server.CacheStats, server.CachePosting))
	}
	return extraction.NewWorker(queue, extractor, opts...)
}
