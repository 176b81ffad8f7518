package services

import (
	"context"
	"fmt"

	"github.com/medapp/medicine-catalog/internal/domain/repositories"
	"github.com/medapp/medicine-catalog/pkg/classifier"
)

// CategoryReport is one line of the category distribution report
type CategoryReport struct {
	Slug          string   `json:"slug"`
	Name          string   `json:"name"`
	Groups        []string `json:"groups,omitempty"`
	MedicineCount int      `json:"medicine_count"`
}

// ReportService summarizes how medicines are spread over categories
type ReportService struct {
	categoryRepo repositories.CategoryRepository
	catalog      *classifier.Catalog
}

// NewReportService creates a new report service
func NewReportService(categoryRepo repositories.CategoryRepository, catalog *classifier.Catalog) *ReportService {
	return &ReportService{categoryRepo: categoryRepo, catalog: catalog}
}

// TopCategories returns the most populated categories. Rows no longer in the
// catalog are reported with their stored name and no groups.
func (s *ReportService) TopCategories(ctx context.Context, limit int) ([]CategoryReport, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.categoryRepo.TopCategories(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load top categories: %w", err)
	}

	reports := make([]CategoryReport, 0, len(rows))
	for _, row := range rows {
		report := CategoryReport{
			Slug:          row.Slug,
			Name:          row.Name,
			MedicineCount: row.MedicineCount,
		}
		if cat, ok := s.catalog.Category(row.Slug); ok {
			report.Name = cat.Name
			report.Groups = s.catalog.GroupsOf(row.Slug)
		}
		reports = append(reports, report)
	}

	return reports, nil
}
