package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/medapp/medicine-catalog/internal/adapters/database"
	"github.com/medapp/medicine-catalog/internal/adapters/events"
	"github.com/medapp/medicine-catalog/internal/adapters/search"
	"github.com/medapp/medicine-catalog/internal/application/services"
	"github.com/medapp/medicine-catalog/internal/infrastructure/clients/postgres"
	redisclient "github.com/medapp/medicine-catalog/internal/infrastructure/clients/redis"
	"github.com/medapp/medicine-catalog/internal/infrastructure/clients/typesense"
	"github.com/medapp/medicine-catalog/internal/infrastructure/observability"
	"github.com/medapp/medicine-catalog/pkg/classifier"
	"github.com/medapp/medicine-catalog/pkg/config"
)

type indexOptions struct {
	reset    bool
	follow   bool
	interval time.Duration
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &indexOptions{}
	var intervalFlag string

	cmd := &cobra.Command{
		Use:          "indexer",
		Short:        "Push classified medicines into the Typesense medicines collection",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			interval, err := parseInterval(intervalFlag, os.Getenv("REINDEX_INTERVAL"))
			if err != nil {
				return err
			}
			opts.interval = interval

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			observability.InitLogger("medicine-indexer", cfg.Env)

			return run(cmd.Context(), cfg, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.reset, "reset", false, "delete the existing collection before reindexing")
	cmd.Flags().BoolVar(&opts.follow, "follow", false, "after reindexing, keep the index in step with category change events")
	cmd.Flags().StringVar(&intervalFlag, "interval", "", "repeat interval for full reindexing, e.g. 6h (default $REINDEX_INTERVAL)")

	return cmd
}

func parseInterval(flagValue, envValue string) (time.Duration, error) {
	value := strings.TrimSpace(flagValue)
	if value == "" {
		value = strings.TrimSpace(envValue)
	}
	if value == "" {
		return 0, nil
	}

	interval, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q: %w", value, err)
	}
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be greater than zero")
	}
	return interval, nil
}

func run(ctx context.Context, cfg *config.Config, opts *indexOptions) error {
	catalog, err := classifier.LoadCatalog(cfg.Classifier.CatalogPath)
	if err != nil {
		return err
	}
	clf, err := classifier.New(catalog, classifier.WithNameBonus(cfg.Classifier.NameBonus))
	if err != nil {
		return err
	}

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
	if err != nil {
		return err
	}
	index := search.NewTypesenseAdapter(tsClient)
	medicineRepo := database.NewMedicineAdapter(pgClient)

	var service *services.IndexSyncService
	if opts.follow {
		redisClient, err := redisclient.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()

		bus := events.NewRedisEventBus(redisClient)
		defer bus.Close()

		service = services.NewIndexSyncService(medicineRepo, clf, index, bus, cfg.Classifier.BatchSize)
	} else {
		service = services.NewIndexSyncService(medicineRepo, clf, index, nil, cfg.Classifier.BatchSize)
	}

	if err := reindex(ctx, service, opts.reset); err != nil {
		return err
	}

	if opts.follow {
		if err := service.Start(); err != nil {
			return err
		}
		defer service.Stop()
	}

	if opts.interval <= 0 {
		if opts.follow {
			<-ctx.Done()
		}
		return nil
	}

	ticker := time.NewTicker(opts.interval)
	defer ticker.Stop()
	log.Info().Dur("interval", opts.interval).Msg("Reindex complete, waiting for next run")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Indexer shutting down")
			return nil
		case <-ticker.C:
			if err := reindex(ctx, service, false); err != nil {
				log.Error().Err(err).Msg("Reindex failed")
			}
		}
	}
}

func reindex(ctx context.Context, service *services.IndexSyncService, reset bool) error {
	start := time.Now()
	summary, err := service.ReindexAll(ctx, reset)
	if err != nil {
		return err
	}
	log.Info().
		Int("processed", summary.TotalProcessed).
		Int("indexed", summary.SuccessCount).
		Int("failed", summary.FailureCount).
		Dur("took", time.Since(start)).
		Msg("Indexed medicines")
	return nil
}
