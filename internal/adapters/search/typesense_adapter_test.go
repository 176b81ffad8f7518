package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/medapp/medicine-catalog/internal/domain/entities"
)

func TestDocumentFields(t *testing.T) {
	doc := &entities.MedicineDocument{
		ID:            "42",
		Name:          "Zyrtec",
		Generic:       "cetirizine",
		CategorySlug:  "antihistamines",
		CategoryName:  "Antihistamines",
		CategoryGroup: "respiratory-care",
		Keywords:      []string{"cetirizine", "zyrtec"},
		Score:         6,
		UpdatedAt:     1700000000,
	}

	fields := documentFields(doc)

	assert.Equal(t, "42", fields["id"])
	assert.Equal(t, "cetirizine", fields["generic"])
	assert.Equal(t, "respiratory-care", fields["category_group"])
	assert.Equal(t, []string{"cetirizine", "zyrtec"}, fields["matched_keywords"])
	assert.NotContains(t, fields, "manufacturer")
}

func TestDocumentFields_Minimal(t *testing.T) {
	fields := documentFields(&entities.MedicineDocument{ID: "1", Name: "Unknown", CategorySlug: "uncategorized", CategoryName: "Uncategorized"})

	assert.Len(t, fields, 6)
	assert.Equal(t, 0, fields["score"])
}

func TestMedicinesSchema(t *testing.T) {
	schema := medicinesSchema("medicines")

	assert.Equal(t, "medicines", schema.Name)
	facets := map[string]bool{}
	for _, f := range schema.Fields {
		if f.Facet != nil && *f.Facet {
			facets[f.Name] = true
		}
	}
	assert.True(t, facets["category_slug"])
	assert.True(t, facets["category_group"])
	assert.Equal(t, "updated_at", *schema.DefaultSortingField)
}
