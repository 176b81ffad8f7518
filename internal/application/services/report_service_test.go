package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/medapp/medicine-catalog/internal/domain/entities"
)

func TestTopCategories(t *testing.T) {
	repo := new(MockCategoryRepo)
	service := NewReportService(repo, newTestClassifier(t).Catalog())

	repo.On("TopCategories", mock.Anything, 5).Return([]*entities.Category{
		{ID: 1, Slug: "beta-blockers", Name: "stale name", MedicineCount: 40},
		{ID: 9, Slug: "retired-category", Name: "Retired", MedicineCount: 2},
	}, nil).Once()

	reports, err := service.TopCategories(context.Background(), 5)

	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, CategoryReport{Slug: "beta-blockers", Name: "Beta Blockers", Groups: []string{"heart-care"}, MedicineCount: 40}, reports[0])
	assert.Equal(t, CategoryReport{Slug: "retired-category", Name: "Retired", MedicineCount: 2}, reports[1])
}

func TestTopCategories_DefaultLimit(t *testing.T) {
	repo := new(MockCategoryRepo)
	service := NewReportService(repo, newTestClassifier(t).Catalog())

	repo.On("TopCategories", mock.Anything, 10).Return([]*entities.Category{}, nil).Once()

	reports, err := service.TopCategories(context.Background(), 0)

	require.NoError(t, err)
	assert.Empty(t, reports)
	repo.AssertExpectations(t)
}
