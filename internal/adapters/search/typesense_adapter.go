package search

import (
	"context"
	"fmt"
	"strconv"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/medapp/medicine-catalog/internal/domain/entities"
	"github.com/medapp/medicine-catalog/internal/domain/providers"
	tsclient "github.com/medapp/medicine-catalog/internal/infrastructure/clients/typesense"
)

// TypesenseAdapter implements MedicineIndex using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ providers.MedicineIndex = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

func medicinesSchema(name string) *api.CollectionSchema {
	return &api.CollectionSchema{
		Name: name,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "name", Type: "string"},
			{Name: "generic", Type: "string", Optional: pointer.True()},
			{Name: "manufacturer", Type: "string", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "category_slug", Type: "string", Facet: pointer.True()},
			{Name: "category_name", Type: "string"},
			{Name: "category_group", Type: "string", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "matched_keywords", Type: "string[]", Optional: pointer.True()},
			{Name: "score", Type: "int32"},
			{Name: "updated_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("updated_at"),
	}
}

// InitSchema ensures the collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	if _, err := a.client.Client().Collection(a.client.Collection()).Retrieve(ctx); err == nil {
		return nil
	}

	if _, err := a.client.Client().Collections().Create(ctx, medicinesSchema(a.client.Collection())); err != nil {
		return fmt.Errorf("failed to create typesense collection: %w", err)
	}
	return nil
}

// Reset drops and recreates the collection
func (a *TypesenseAdapter) Reset(ctx context.Context) error {
	name := a.client.Collection()
	if _, err := a.client.Client().Collection(name).Retrieve(ctx); err == nil {
		if _, err := a.client.Client().Collection(name).Delete(ctx); err != nil {
			return fmt.Errorf("failed to drop typesense collection: %w", err)
		}
	}
	return a.InitSchema(ctx)
}

// Index upserts one medicine document
func (a *TypesenseAdapter) Index(ctx context.Context, doc *entities.MedicineDocument) error {
	_, err := a.client.Client().Collection(a.client.Collection()).Documents().Upsert(ctx, documentFields(doc))
	if err != nil {
		return fmt.Errorf("failed to index medicine %s: %w", doc.ID, err)
	}
	return nil
}

// Delete removes a medicine from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, id int64) error {
	_, err := a.client.Client().Collection(a.client.Collection()).Document(strconv.FormatInt(id, 10)).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete medicine from index: %w", err)
	}
	return nil
}

// documentFields maps a document to Typesense fields, leaving optional
// fields out when empty.
func documentFields(doc *entities.MedicineDocument) map[string]interface{} {
	fields := map[string]interface{}{
		"id":            doc.ID,
		"name":          doc.Name,
		"category_slug": doc.CategorySlug,
		"category_name": doc.CategoryName,
		"score":         doc.Score,
		"updated_at":    doc.UpdatedAt,
	}
	if doc.Generic != "" {
		fields["generic"] = doc.Generic
	}
	if doc.Manufacturer != "" {
		fields["manufacturer"] = doc.Manufacturer
	}
	if doc.CategoryGroup != "" {
		fields["category_group"] = doc.CategoryGroup
	}
	if len(doc.Keywords) > 0 {
		fields["matched_keywords"] = doc.Keywords
	}
	return fields
}
