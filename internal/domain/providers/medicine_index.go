package providers

import (
	"context"

	"github.com/medapp/medicine-catalog/internal/domain/entities"
)

// MedicineIndex keeps the medicine search index in step with categories
type MedicineIndex interface {
	// InitSchema creates the collection if it does not exist
	InitSchema(ctx context.Context) error

	// Reset drops and recreates the collection
	Reset(ctx context.Context) error

	// Index upserts one document
	Index(ctx context.Context, doc *entities.MedicineDocument) error

	// Delete removes a medicine from the index
	Delete(ctx context.Context, id int64) error
}
