package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/medapp/medicine-catalog/internal/domain/entities"
	"github.com/medapp/medicine-catalog/internal/domain/providers"
	"github.com/medapp/medicine-catalog/internal/domain/repositories"
	"github.com/medapp/medicine-catalog/internal/infrastructure/observability"
	"github.com/medapp/medicine-catalog/pkg/classifier"
	apperrors "github.com/medapp/medicine-catalog/pkg/errors"
)

const (
	// DefaultBatchSize is the page size used to walk the medicines table
	DefaultBatchSize = 500

	reclassifyLockKey = "reclassify"
	reclassifyLockTTL = time.Hour
)

// ErrRunInProgress is returned when another process holds the reclassify lock
var ErrRunInProgress = errors.New("another reclassification run is in progress")

// ReclassifyScope selects which medicines a run visits
type ReclassifyScope string

const (
	// ScopeAll visits every medicine
	ScopeAll ReclassifyScope = "all"
	// ScopeUncategorized visits medicines with no category or the fallback one
	ScopeUncategorized ReclassifyScope = "uncategorized"
)

// ReclassifyOptions controls the side effects of a run
type ReclassifyOptions struct {
	Scope   ReclassifyScope
	Publish bool
	Index   bool
	// DryRun classifies and counts but writes nothing.
	DryRun bool
}

// ReclassifySummary reports the outcome of a run
type ReclassifySummary struct {
	RunID          string
	Scope          ReclassifyScope
	TotalProcessed int
	ChangedCount   int
	UnchangedCount int
	FailureCount   int
	ByCategory     map[string]int
	Duration       time.Duration
}

// ReclassifyOutcome is the result for one medicine
type ReclassifyOutcome struct {
	MedicineID       int64
	PreviousCategory string
	Result           classifier.Result
	Changed          bool
}

// ClassificationService assigns catalog categories to stored medicines
type ClassificationService struct {
	medicineRepo repositories.MedicineRepository
	classifier   *classifier.Classifier
	categoryIDs  map[string]int64
	eventBus     providers.EventBus
	index        providers.MedicineIndex
	lock         providers.RunLock
	metrics      *observability.Metrics
	workerCount  int
	batchSize    int
	now          func() time.Time
}

// ClassificationOption configures a ClassificationService
type ClassificationOption func(*ClassificationService)

// WithEventBus enables publishing category assignment events
func WithEventBus(bus providers.EventBus) ClassificationOption {
	return func(s *ClassificationService) { s.eventBus = bus }
}

// WithMedicineIndex enables search index upkeep for changed medicines
func WithMedicineIndex(index providers.MedicineIndex) ClassificationOption {
	return func(s *ClassificationService) { s.index = index }
}

// WithRunLock prevents overlapping runs across processes
func WithRunLock(lock providers.RunLock) ClassificationOption {
	return func(s *ClassificationService) { s.lock = lock }
}

// WithMetrics records classification metrics
func WithMetrics(metrics *observability.Metrics) ClassificationOption {
	return func(s *ClassificationService) { s.metrics = metrics }
}

// WithWorkers sets the number of concurrent workers
func WithWorkers(n int) ClassificationOption {
	return func(s *ClassificationService) {
		if n > 0 {
			s.workerCount = n
		}
	}
}

// WithBatchSize sets the page size
func WithBatchSize(n int) ClassificationOption {
	return func(s *ClassificationService) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// NewClassificationService creates a new classification service. categoryIDs
// must map every catalog slug to its categories row.
func NewClassificationService(
	medicineRepo repositories.MedicineRepository,
	clf *classifier.Classifier,
	categoryIDs map[string]int64,
	opts ...ClassificationOption,
) (*ClassificationService, error) {
	for _, slug := range clf.Catalog().Categories() {
		if _, ok := categoryIDs[slug]; !ok {
			return nil, apperrors.NewConfigurationError(fmt.Sprintf("no category row for catalog slug %s", slug), nil)
		}
	}

	s := &ClassificationService{
		medicineRepo: medicineRepo,
		classifier:   clf,
		categoryIDs:  categoryIDs,
		workerCount:  1,
		batchSize:    DefaultBatchSize,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ReclassifyAll walks the medicines in scope with a worker pool and persists
// every category change. Per-medicine failures are counted and logged; a
// listing failure or cancellation aborts the run.
func (s *ClassificationService) ReclassifyAll(ctx context.Context, opts ReclassifyOptions) (*ReclassifySummary, error) {
	if opts.Scope == "" {
		opts.Scope = ScopeAll
	}
	if err := s.checkOptions(opts); err != nil {
		return nil, err
	}

	if s.lock != nil && !opts.DryRun {
		acquired, err := s.lock.Acquire(ctx, reclassifyLockKey, reclassifyLockTTL)
		if err != nil {
			return nil, err
		}
		if !acquired {
			return nil, ErrRunInProgress
		}
		defer s.releaseLock()
	}

	ctx, span := observability.StartSpan(ctx, "classification.reclassify_all")
	defer span.End()

	runID := uuid.NewString()
	span.SetAttributes(attribute.String("run_id", runID), attribute.String("scope", string(opts.Scope)))
	logger := observability.LoggerFromContext(ctx).With().Str("run_id", runID).Str("scope", string(opts.Scope)).Logger()
	logger.Info().Int("workers", s.workerCount).Bool("dry_run", opts.DryRun).Msg("Starting reclassification")

	start := time.Now()
	var processed, changed, unchanged, failure int64
	byCategory := make(map[string]int)
	var mu sync.Mutex

	medicineChan := make(chan *entities.Medicine, s.batchSize)
	var wg sync.WaitGroup

	for i := 0; i < s.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for medicine := range medicineChan {
				outcome, err := s.reclassify(ctx, runID, medicine, opts)
				atomic.AddInt64(&processed, 1)
				if err != nil {
					atomic.AddInt64(&failure, 1)
					logger.Error().Err(err).Int64("medicine_id", medicine.ID).Msg("Failed to reclassify medicine")
					continue
				}
				if outcome.Changed {
					atomic.AddInt64(&changed, 1)
				} else {
					atomic.AddInt64(&unchanged, 1)
				}
				mu.Lock()
				byCategory[outcome.Result.CategorySlug]++
				mu.Unlock()
			}
		}()
	}

	produceErr := s.produce(ctx, opts.Scope, medicineChan)
	close(medicineChan)
	wg.Wait()

	if produceErr != nil {
		observability.RecordError(span, produceErr)
		return nil, produceErr
	}

	summary := &ReclassifySummary{
		RunID:          runID,
		Scope:          opts.Scope,
		TotalProcessed: int(processed),
		ChangedCount:   int(changed),
		UnchangedCount: int(unchanged),
		FailureCount:   int(failure),
		ByCategory:     byCategory,
		Duration:       time.Since(start),
	}
	observability.RecordReclassifyRun(ctx, s.metrics, string(opts.Scope), summary.Duration)

	logger.Info().
		Int("processed", summary.TotalProcessed).
		Int("changed", summary.ChangedCount).
		Int("unchanged", summary.UnchangedCount).
		Int("failed", summary.FailureCount).
		Dur("duration", summary.Duration).
		Msg("Reclassification finished")

	return summary, nil
}

// ReclassifySingle reclassifies one medicine by ID
func (s *ClassificationService) ReclassifySingle(ctx context.Context, medicineID int64, opts ReclassifyOptions) (*ReclassifyOutcome, error) {
	if err := s.checkOptions(opts); err != nil {
		return nil, err
	}

	medicine, err := s.medicineRepo.GetByID(ctx, medicineID)
	if err != nil {
		return nil, fmt.Errorf("failed to get medicine %d: %w", medicineID, err)
	}

	return s.reclassify(ctx, "", medicine, opts)
}

func (s *ClassificationService) checkOptions(opts ReclassifyOptions) error {
	if opts.Publish && s.eventBus == nil {
		return apperrors.NewValidationError("publishing requires an event bus")
	}
	if opts.Index && s.index == nil {
		return apperrors.NewValidationError("indexing requires a medicine index")
	}
	return nil
}

func (s *ClassificationService) produce(ctx context.Context, scope ReclassifyScope, out chan<- *entities.Medicine) error {
	filter := repositories.MedicineFilter{Limit: s.batchSize}
	if scope == ScopeUncategorized {
		filter.UncategorizedOnly = true
		filter.FallbackCategoryID = s.categoryIDs[s.classifier.Catalog().Fallback()]
	}

	for {
		page, err := s.medicineRepo.List(ctx, filter)
		if err != nil {
			return fmt.Errorf("failed to list medicines: %w", err)
		}

		for _, medicine := range page {
			select {
			case out <- medicine:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if len(page) < filter.Limit {
			return nil
		}
		filter.AfterID = page[len(page)-1].ID
	}
}

func (s *ClassificationService) reclassify(ctx context.Context, runID string, medicine *entities.Medicine, opts ReclassifyOptions) (*ReclassifyOutcome, error) {
	result := s.classifier.Classify(medicine.ClassifiableRecord())
	observability.RecordClassification(ctx, s.metrics, result.CategorySlug, result.Score, result.IsFallback())

	outcome := &ReclassifyOutcome{
		MedicineID:       medicine.ID,
		PreviousCategory: medicine.CategorySlug,
		Result:           result,
	}
	if medicine.CategoryID != nil && medicine.CategorySlug == result.CategorySlug {
		return outcome, nil
	}
	outcome.Changed = true
	if opts.DryRun {
		return outcome, nil
	}

	categoryID := s.categoryIDs[result.CategorySlug]
	syncedAt := s.now().UTC()
	if err := s.medicineRepo.UpdateCategory(ctx, medicine.ID, categoryID, syncedAt); err != nil {
		return nil, fmt.Errorf("failed to update category of medicine %d: %w", medicine.ID, err)
	}
	observability.RecordCategoryChange(ctx, s.metrics, medicine.CategorySlug, result.CategorySlug)

	if opts.Publish {
		s.publish(ctx, runID, medicine, result)
	}

	if opts.Index {
		updated := *medicine
		updated.CategoryID = &categoryID
		updated.CategorySlug = result.CategorySlug
		updated.LastSynced = &syncedAt
		if err := s.index.Index(ctx, BuildMedicineDocument(s.classifier.Catalog(), &updated, result)); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Int64("medicine_id", medicine.ID).Msg("Failed to index medicine")
		}
	}

	return outcome, nil
}

// publish sends the event to the global and the per-category channel. The
// database row is already updated, so failures are only logged.
func (s *ClassificationService) publish(ctx context.Context, runID string, medicine *entities.Medicine, result classifier.Result) {
	event := entities.NewCategoryAssignmentEvent(runID, medicine, result.CategorySlug, result.Score, result.MatchedKeywords)

	for _, channel := range []string{providers.EventChannelCategoryUpdates, providers.GetCategoryChannel(result.CategorySlug)} {
		if err := s.eventBus.Publish(ctx, channel, event); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("channel", channel).Int64("medicine_id", medicine.ID).Msg("Failed to publish category assignment")
		}
	}
}

func (s *ClassificationService) releaseLock() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.lock.Release(ctx, reclassifyLockKey); err != nil {
		observability.GetLogger().Warn().Err(err).Msg("Failed to release reclassify lock")
	}
}
