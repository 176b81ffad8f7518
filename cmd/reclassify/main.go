package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/medapp/medicine-catalog/internal/adapters/cache"
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
	apperrors "github.com/medapp/medicine-catalog/pkg/errors"
)

type runOptions struct {
	all            bool
	medicineID     int64
	workers        int
	batchSize      int
	syncCategories bool
	publish        bool
	index          bool
	lock           bool
	dryRun         bool
	schedule       string
	top            int
}

func (o *runOptions) scope() services.ReclassifyScope {
	if o.all {
		return services.ScopeAll
	}
	return services.ScopeUncategorized
}

func (o *runOptions) reclassifyOptions() services.ReclassifyOptions {
	return services.ReclassifyOptions{
		Scope:   o.scope(),
		Publish: o.publish,
		Index:   o.index,
		DryRun:  o.dryRun,
	}
}

func (o *runOptions) validate() error {
	if o.schedule != "" {
		if _, err := cron.ParseStandard(o.schedule); err != nil {
			return apperrors.NewValidationError(fmt.Sprintf("invalid schedule %q: %v", o.schedule, err))
		}
		if o.medicineID > 0 {
			return apperrors.NewValidationError("--medicine cannot be combined with --schedule")
		}
	}
	if o.dryRun && (o.publish || o.index) {
		return apperrors.NewValidationError("--dry-run cannot be combined with --publish or --index")
	}
	return nil
}

// applyConfig fills options the flags left unset.
func (o *runOptions) applyConfig(cmd *cobra.Command, cfg *config.Config) {
	if !cmd.Flags().Changed("workers") {
		o.workers = cfg.Classifier.Workers
	}
	if !cmd.Flags().Changed("batch-size") {
		o.batchSize = cfg.Classifier.BatchSize
	}
	if !cmd.Flags().Changed("schedule") {
		o.schedule = cfg.Classifier.Schedule
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "reclassify",
		Short: "Assign catalog categories to medicines in the database",
		Long: `Reclassify walks the medicines table, classifies each medicine from its name,
generic name, composition, description, symptoms and route, and stores the category when
it changed. By default only medicines without a category or in the fallback category are
visited; --all visits every medicine.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)

			opts.applyConfig(cmd, cfg)
			if err := opts.validate(); err != nil {
				return err
			}

			return run(cmd.Context(), cfg, opts, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.all, "all", false, "reclassify every medicine, not only uncategorized ones")
	flags.Int64Var(&opts.medicineID, "medicine", 0, "reclassify a single medicine by ID")
	flags.IntVar(&opts.workers, "workers", 4, "concurrent workers (default $CLASSIFIER_WORKERS)")
	flags.IntVar(&opts.batchSize, "batch-size", services.DefaultBatchSize, "rows fetched per page (default $CLASSIFIER_BATCH_SIZE)")
	flags.BoolVar(&opts.syncCategories, "sync-categories", false, "upsert catalog categories into the categories table first")
	flags.BoolVar(&opts.publish, "publish", false, "publish category changes to Redis")
	flags.BoolVar(&opts.index, "index", false, "upsert changed medicines into Typesense")
	flags.BoolVar(&opts.lock, "lock", false, "hold a Redis lock so runs on other hosts do not overlap")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "classify and report without writing")
	flags.StringVar(&opts.schedule, "schedule", "", "cron expression to run repeatedly (default $CLASSIFIER_SCHEDULE)")
	flags.IntVar(&opts.top, "top", 0, "print the N most populated categories after each run")

	return cmd
}

type app struct {
	classification *services.ClassificationService
	reports        *services.ReportService
	closers        []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("Shutdown step failed")
		}
	}
}

func run(ctx context.Context, cfg *config.Config, opts *runOptions, out io.Writer) error {
	a, err := newApp(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	if opts.medicineID > 0 {
		outcome, err := a.classification.ReclassifySingle(ctx, opts.medicineID, opts.reclassifyOptions())
		if err != nil {
			return err
		}
		printOutcome(out, outcome)
		return nil
	}

	if opts.schedule == "" {
		return a.runOnce(ctx, opts, out)
	}
	return a.runScheduled(ctx, opts, out)
}

func newApp(ctx context.Context, cfg *config.Config, opts *runOptions) (*app, error) {
	a := &app{}
	svcOpts := []services.ClassificationOption{
		services.WithWorkers(opts.workers),
		services.WithBatchSize(opts.batchSize),
	}

	if cfg.OTEL.Enabled {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to set up OpenTelemetry: %w", err)
		}
		a.closers = append(a.closers, func() error {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return shutdown(shutdownCtx)
		})

		metrics, err := observability.InitMetrics()
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create metrics: %w", err)
		}
		svcOpts = append(svcOpts, services.WithMetrics(metrics))
	}

	catalog, err := classifier.LoadCatalog(cfg.Classifier.CatalogPath)
	if err != nil {
		a.Close()
		return nil, err
	}
	clf, err := classifier.New(catalog, classifier.WithNameBonus(cfg.Classifier.NameBonus))
	if err != nil {
		a.Close()
		return nil, err
	}

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, pgClient.Close)

	categoryRepo := database.NewCategoryAdapter(pgClient)
	medicineRepo := database.NewMedicineAdapter(pgClient)
	syncService := services.NewCatalogSyncService(categoryRepo, catalog)

	var categoryIDs map[string]int64
	if opts.syncCategories && !opts.dryRun {
		categoryIDs, err = syncService.SyncCategories(ctx)
	} else {
		categoryIDs, err = syncService.CategoryIDs(ctx)
	}
	if err != nil {
		a.Close()
		return nil, err
	}

	if opts.publish || opts.lock {
		redisClient, err := redisclient.NewClient(ctx, &cfg.Redis)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, redisClient.Close)

		if opts.publish {
			bus := events.NewRedisEventBus(redisClient)
			a.closers = append(a.closers, bus.Close)
			svcOpts = append(svcOpts, services.WithEventBus(bus))
		}
		if opts.lock {
			svcOpts = append(svcOpts, services.WithRunLock(cache.NewRedisRunLock(redisClient)))
		}
	}

	if opts.index {
		tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
		if err != nil {
			a.Close()
			return nil, err
		}
		index := search.NewTypesenseAdapter(tsClient)
		if err := index.InitSchema(ctx); err != nil {
			a.Close()
			return nil, err
		}
		svcOpts = append(svcOpts, services.WithMedicineIndex(index))
	}

	a.classification, err = services.NewClassificationService(medicineRepo, clf, categoryIDs, svcOpts...)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.reports = services.NewReportService(categoryRepo, catalog)

	return a, nil
}

func (a *app) runOnce(ctx context.Context, opts *runOptions, out io.Writer) error {
	summary, err := a.classification.ReclassifyAll(ctx, opts.reclassifyOptions())
	if err != nil {
		return err
	}
	printSummary(out, summary, opts.dryRun)

	if opts.top > 0 {
		reports, err := a.reports.TopCategories(ctx, opts.top)
		if err != nil {
			return err
		}
		printReport(out, reports)
	}
	return nil
}

// runScheduled runs on the cron schedule until ctx is cancelled. Cron skips
// a tick while the previous run is still going.
func (a *app) runScheduled(ctx context.Context, opts *runOptions, out io.Writer) error {
	schedule, err := cron.ParseStandard(opts.schedule)
	if err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("invalid schedule %q: %v", opts.schedule, err))
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(schedule, cron.FuncJob(func() {
		if err := a.runOnce(ctx, opts, out); err != nil {
			if errors.Is(err, services.ErrRunInProgress) {
				log.Info().Msg("Skipping scheduled run, another run holds the lock")
				return
			}
			log.Error().Err(err).Msg("Scheduled reclassification failed")
		}
	}))

	log.Info().Str("schedule", opts.schedule).Time("next_run", schedule.Next(time.Now())).Msg("Reclassification scheduled")
	c.Start()

	<-ctx.Done()
	log.Info().Msg("Stopping scheduler")
	<-c.Stop().Done()
	return nil
}

func printSummary(out io.Writer, summary *services.ReclassifySummary, dryRun bool) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	if dryRun {
		fmt.Fprintln(w, "DRY RUN: no rows were written")
	}
	fmt.Fprintf(w, "run\t%s\n", summary.RunID)
	fmt.Fprintf(w, "scope\t%s\n", summary.Scope)
	fmt.Fprintf(w, "processed\t%d\n", summary.TotalProcessed)
	fmt.Fprintf(w, "changed\t%d\n", summary.ChangedCount)
	fmt.Fprintf(w, "unchanged\t%d\n", summary.UnchangedCount)
	fmt.Fprintf(w, "failed\t%d\n", summary.FailureCount)
	fmt.Fprintf(w, "duration\t%s\n", summary.Duration.Round(time.Millisecond))

	if len(summary.ByCategory) == 0 {
		return
	}
	fmt.Fprintln(w, "\nCATEGORY\tMEDICINES")
	for _, slug := range sortedByCount(summary.ByCategory) {
		fmt.Fprintf(w, "%s\t%d\n", slug, summary.ByCategory[slug])
	}
}

func printOutcome(out io.Writer, outcome *services.ReclassifyOutcome) {
	status := "unchanged"
	if outcome.Changed {
		status = "changed"
	}
	fmt.Fprintf(out, "medicine %d: %s -> %s (score %d, %s)\n",
		outcome.MedicineID, orNone(outcome.PreviousCategory), outcome.Result.CategorySlug, outcome.Result.Score, status)
}

func printReport(out io.Writer, reports []services.CategoryReport) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "\nTOP CATEGORY\tNAME\tMEDICINES")
	for _, r := range reports {
		fmt.Fprintf(w, "%s\t%s\t%d\n", r.Slug, r.Name, r.MedicineCount)
	}
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
