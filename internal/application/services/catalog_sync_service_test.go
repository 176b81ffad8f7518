package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/medapp/medicine-catalog/internal/domain/entities"
	apperrors "github.com/medapp/medicine-catalog/pkg/errors"
)

func TestSyncCategories_UpsertsInOrder(t *testing.T) {
	repo := new(MockCategoryRepo)
	catalog := newTestClassifier(t).Catalog()
	service := NewCatalogSyncService(repo, catalog)

	var order []string
	repo.On("Upsert", mock.Anything, mock.AnythingOfType("*entities.Category")).Run(func(args mock.Arguments) {
		cat := args.Get(1).(*entities.Category)
		order = append(order, cat.Slug)
		cat.ID = int64(len(order))
	}).Return(nil).Times(3)
	repo.On("GetBySlug", mock.Anything, "uncategorized").Return(&entities.Category{ID: 3, Slug: "uncategorized"}, nil).Once()

	ids, err := service.SyncCategories(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"beta-blockers", "pain-relief", "uncategorized"}, order)
	assert.Equal(t, testCategoryIDs, ids)
	repo.AssertExpectations(t)
}

func TestSyncCategories_UsesCatalogNames(t *testing.T) {
	repo := new(MockCategoryRepo)
	service := NewCatalogSyncService(repo, newTestClassifier(t).Catalog())

	repo.On("Upsert", mock.Anything, mock.MatchedBy(func(c *entities.Category) bool {
		return c.Slug == "beta-blockers" && c.Name == "Beta Blockers"
	})).Return(nil).Once()
	repo.On("Upsert", mock.Anything, mock.MatchedBy(func(c *entities.Category) bool {
		return c.Slug == "pain-relief" && c.Name == "Pain Relief"
	})).Return(nil).Once()
	repo.On("Upsert", mock.Anything, mock.MatchedBy(func(c *entities.Category) bool {
		return c.Slug == "uncategorized"
	})).Return(nil).Once()
	repo.On("GetBySlug", mock.Anything, "uncategorized").Return(&entities.Category{Slug: "uncategorized"}, nil).Once()

	_, err := service.SyncCategories(context.Background())
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestSyncCategories_UpsertError(t *testing.T) {
	repo := new(MockCategoryRepo)
	service := NewCatalogSyncService(repo, newTestClassifier(t).Catalog())

	repo.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("permission denied")).Once()

	ids, err := service.SyncCategories(context.Background())
	assert.Error(t, err)
	assert.Nil(t, ids)
	repo.AssertNotCalled(t, "GetBySlug", mock.Anything, mock.Anything)
}

func TestSyncCategories_FallbackMissing(t *testing.T) {
	repo := new(MockCategoryRepo)
	service := NewCatalogSyncService(repo, newTestClassifier(t).Catalog())

	repo.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	repo.On("GetBySlug", mock.Anything, "uncategorized").Return(nil, apperrors.NewNotFoundError("category uncategorized not found")).Once()

	_, err := service.SyncCategories(context.Background())
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestCategoryIDs(t *testing.T) {
	repo := new(MockCategoryRepo)
	service := NewCatalogSyncService(repo, newTestClassifier(t).Catalog())

	repo.On("List", mock.Anything).Return([]*entities.Category{
		{ID: 1, Slug: "beta-blockers"},
		{ID: 2, Slug: "pain-relief"},
		{ID: 3, Slug: "uncategorized"},
		{ID: 9, Slug: "retired-category"},
	}, nil).Once()

	ids, err := service.CategoryIDs(context.Background())

	require.NoError(t, err)
	assert.Equal(t, testCategoryIDs, ids)
	repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestCategoryIDs_MissingRows(t *testing.T) {
	repo := new(MockCategoryRepo)
	service := NewCatalogSyncService(repo, newTestClassifier(t).Catalog())

	repo.On("List", mock.Anything).Return([]*entities.Category{{ID: 1, Slug: "beta-blockers"}}, nil).Once()

	_, err := service.CategoryIDs(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfiguration))
	assert.Contains(t, err.Error(), "--sync-categories")
}
