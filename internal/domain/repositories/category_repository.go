package repositories

import (
	"context"

	"github.com/medapp/medicine-catalog/internal/domain/entities"
)

// CategoryRepository defines the interface for category data operations
type CategoryRepository interface {
	// Upsert inserts or renames a category by slug and sets its ID
	Upsert(ctx context.Context, category *entities.Category) error

	// GetBySlug retrieves a category by slug
	GetBySlug(ctx context.Context, slug string) (*entities.Category, error)

	// List retrieves every category
	List(ctx context.Context) ([]*entities.Category, error)

	// TopCategories returns categories by descending medicine count
	TopCategories(ctx context.Context, limit int) ([]*entities.Category, error)
}
