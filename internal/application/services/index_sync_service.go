package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/medapp/medicine-catalog/internal/domain/entities"
	"github.com/medapp/medicine-catalog/internal/domain/providers"
	"github.com/medapp/medicine-catalog/internal/domain/repositories"
	"github.com/medapp/medicine-catalog/internal/infrastructure/observability"
	"github.com/medapp/medicine-catalog/pkg/classifier"
	apperrors "github.com/medapp/medicine-catalog/pkg/errors"
)

// IndexSummary reports the outcome of a full reindex
type IndexSummary struct {
	TotalProcessed int
	SuccessCount   int
	FailureCount   int
}

// IndexSyncService keeps the medicine search index in step with the database,
// either by a full walk or by following category assignment events.
type IndexSyncService struct {
	medicineRepo repositories.MedicineRepository
	classifier   *classifier.Classifier
	index        providers.MedicineIndex
	eventBus     providers.EventBus
	batchSize    int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewIndexSyncService creates a new index sync service. eventBus may be nil
// when only ReindexAll is used.
func NewIndexSyncService(
	medicineRepo repositories.MedicineRepository,
	clf *classifier.Classifier,
	index providers.MedicineIndex,
	eventBus providers.EventBus,
	batchSize int,
) *IndexSyncService {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &IndexSyncService{
		medicineRepo: medicineRepo,
		classifier:   clf,
		index:        index,
		eventBus:     eventBus,
		batchSize:    batchSize,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// ReindexAll pushes every medicine to the index. With reset the collection is
// dropped and recreated first.
func (s *IndexSyncService) ReindexAll(ctx context.Context, reset bool) (*IndexSummary, error) {
	logger := observability.LoggerFromContext(ctx)

	if reset {
		if err := s.index.Reset(ctx); err != nil {
			return nil, fmt.Errorf("failed to reset index: %w", err)
		}
	} else if err := s.index.InitSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to init index schema: %w", err)
	}

	summary := &IndexSummary{}
	filter := repositories.MedicineFilter{Limit: s.batchSize}

	for {
		page, err := s.medicineRepo.List(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to list medicines: %w", err)
		}

		for _, medicine := range page {
			summary.TotalProcessed++
			if err := s.indexMedicine(ctx, medicine); err != nil {
				summary.FailureCount++
				logger.Error().Err(err).Int64("medicine_id", medicine.ID).Msg("Failed to index medicine")
				continue
			}
			summary.SuccessCount++
		}

		if len(page) < filter.Limit {
			break
		}
		filter.AfterID = page[len(page)-1].ID
	}

	logger.Info().
		Int("processed", summary.TotalProcessed).
		Int("indexed", summary.SuccessCount).
		Int("failed", summary.FailureCount).
		Msg("Reindex finished")
	return summary, nil
}

// IndexMedicine loads one medicine and upserts its document. A medicine that
// no longer exists is removed from the index.
func (s *IndexSyncService) IndexMedicine(ctx context.Context, medicineID int64) error {
	medicine, err := s.medicineRepo.GetByID(ctx, medicineID)
	if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		return s.index.Delete(ctx, medicineID)
	}
	if err != nil {
		return fmt.Errorf("failed to get medicine %d: %w", medicineID, err)
	}
	return s.indexMedicine(ctx, medicine)
}

func (s *IndexSyncService) indexMedicine(ctx context.Context, medicine *entities.Medicine) error {
	result := s.classifier.Classify(medicine.ClassifiableRecord())
	return s.index.Index(ctx, BuildMedicineDocument(s.classifier.Catalog(), medicine, result))
}

// Start begins following category assignment events
func (s *IndexSyncService) Start() error {
	if s.eventBus == nil {
		return fmt.Errorf("index sync requires an event bus")
	}

	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelCategoryUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to category updates: %w", err)
	}

	s.wg.Add(1)
	go s.processEvents(eventChan)
	observability.GetLogger().Info().Str("channel", providers.EventChannelCategoryUpdates).Msg("Index sync service started")
	return nil
}

// Stop stops following events and waits for the handler to exit
func (s *IndexSyncService) Stop() {
	s.cancel()
	s.wg.Wait()
	observability.GetLogger().Info().Msg("Index sync service stopped")
}

func (s *IndexSyncService) processEvents(eventChan <-chan *entities.CategoryAssignmentEvent) {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

func (s *IndexSyncService) handleEvent(event *entities.CategoryAssignmentEvent) {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()

	logger := observability.GetLogger()
	if err := s.IndexMedicine(ctx, event.MedicineID); err != nil {
		logger.Warn().Err(err).Str("event_id", event.ID).Int64("medicine_id", event.MedicineID).Msg("Failed to reindex medicine")
		return
	}
	logger.Debug().Int64("medicine_id", event.MedicineID).Str("category", event.NewCategory).Msg("Reindexed medicine")
}
