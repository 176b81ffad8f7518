package services

import (
	"context"
	"fmt"

	"github.com/medapp/medicine-catalog/internal/domain/entities"
	"github.com/medapp/medicine-catalog/internal/domain/repositories"
	"github.com/medapp/medicine-catalog/internal/infrastructure/observability"
	"github.com/medapp/medicine-catalog/pkg/classifier"
	apperrors "github.com/medapp/medicine-catalog/pkg/errors"
)

// CatalogSyncService mirrors the classification catalog into the categories table
type CatalogSyncService struct {
	categoryRepo repositories.CategoryRepository
	catalog      *classifier.Catalog
}

// NewCatalogSyncService creates a new catalog sync service
func NewCatalogSyncService(categoryRepo repositories.CategoryRepository, catalog *classifier.Catalog) *CatalogSyncService {
	return &CatalogSyncService{
		categoryRepo: categoryRepo,
		catalog:      catalog,
	}
}

// SyncCategories upserts every catalog category in declaration order and
// returns the slug to row ID mapping. It fails if the fallback category is
// not readable afterwards.
func (s *CatalogSyncService) SyncCategories(ctx context.Context) (map[string]int64, error) {
	logger := observability.LoggerFromContext(ctx)
	ids := make(map[string]int64, s.catalog.Len())

	for _, slug := range s.catalog.Categories() {
		cat, _ := s.catalog.Category(slug)
		row := &entities.Category{Slug: cat.Slug, Name: cat.Name}
		if err := s.categoryRepo.Upsert(ctx, row); err != nil {
			return nil, fmt.Errorf("failed to sync category %s: %w", slug, err)
		}
		ids[slug] = row.ID
	}

	fallback, err := s.categoryRepo.GetBySlug(ctx, s.catalog.Fallback())
	if err != nil {
		return nil, fmt.Errorf("fallback category %s missing after sync: %w", s.catalog.Fallback(), err)
	}
	if fallback.ID != ids[s.catalog.Fallback()] {
		return nil, apperrors.NewInternalError(fmt.Sprintf("fallback category %s id mismatch: %d != %d", fallback.Slug, fallback.ID, ids[fallback.Slug]), nil)
	}

	logger.Info().Int("categories", len(ids)).Msg("Synced categories")
	return ids, nil
}

// CategoryIDs reads the slug to row ID mapping without writing. Every catalog
// category must already exist.
func (s *CatalogSyncService) CategoryIDs(ctx context.Context) (map[string]int64, error) {
	rows, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	existing := make(map[string]int64, len(rows))
	for _, row := range rows {
		existing[row.Slug] = row.ID
	}

	ids := make(map[string]int64, s.catalog.Len())
	var missing []string
	for _, slug := range s.catalog.Categories() {
		id, ok := existing[slug]
		if !ok {
			missing = append(missing, slug)
			continue
		}
		ids[slug] = id
	}

	if len(missing) > 0 {
		return nil, apperrors.NewConfigurationError(
			fmt.Sprintf("%d catalog categories are not in the database (first: %s); run with --sync-categories", len(missing), missing[0]), nil)
	}

	return ids, nil
}
