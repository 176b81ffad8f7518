package repositories

import (
	"context"
	"time"

	"github.com/medapp/medicine-catalog/internal/domain/entities"
)

// MedicineRepository defines the interface for medicine data operations
type MedicineRepository interface {
	// GetByID retrieves a medicine with its current category slug
	GetByID(ctx context.Context, id int64) (*entities.Medicine, error)

	// List retrieves medicines in ascending ID order
	List(ctx context.Context, filter MedicineFilter) ([]*entities.Medicine, error)

	// UpdateCategory sets the category and last_synced of one medicine
	UpdateCategory(ctx context.Context, id int64, categoryID int64, syncedAt time.Time) error
}

// MedicineFilter defines filters for listing medicines. Paging is keyset
// based on AfterID so rows leaving the filter mid-run do not shift pages.
type MedicineFilter struct {
	// UncategorizedOnly limits to medicines with no category or the fallback one.
	UncategorizedOnly  bool
	FallbackCategoryID int64
	AfterID            int64
	Limit              int
}
