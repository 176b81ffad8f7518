package entities

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medapp/medicine-catalog/pkg/classifier"
)

func TestMedicine_ClassifiableRecord(t *testing.T) {
	m := &Medicine{
		Name:             "Tenormin",
		Generic:          "atenolol",
		ManufacturerName: "AstraZeneca",
		Composition:      "Atenolol 50mg",
		Description:      "for high blood pressure",
		Symptoms:         "hypertension",
		Route:            "oral",
		Dosage:           "50mg",
	}

	assert.Equal(t, classifier.Record{
		Name:        "Tenormin",
		GenericName: "atenolol",
		Composition: "Atenolol 50mg",
		Description: "for high blood pressure",
		Symptoms:    "hypertension",
		Route:       "oral",
	}, m.ClassifiableRecord())
}

func TestMedicine_IsUncategorized(t *testing.T) {
	id := int64(3)

	assert.True(t, (&Medicine{}).IsUncategorized("uncategorized"))
	assert.True(t, (&Medicine{CategoryID: &id, CategorySlug: "uncategorized"}).IsUncategorized("uncategorized"))
	assert.False(t, (&Medicine{CategoryID: &id, CategorySlug: "nsaids"}).IsUncategorized("uncategorized"))
}

func TestNewCategoryAssignmentEvent(t *testing.T) {
	m := &Medicine{ID: 42, Name: "Advil", CategorySlug: "uncategorized"}

	event := NewCategoryAssignmentEvent("run-1", m, "nsaids", 3, nil)

	_, err := uuid.Parse(event.ID)
	require.NoError(t, err)
	assert.Equal(t, "run-1", event.RunID)
	assert.Equal(t, int64(42), event.MedicineID)
	assert.Equal(t, "uncategorized", event.PreviousCategory)
	assert.Equal(t, "nsaids", event.NewCategory)
	assert.Equal(t, []string{}, event.MatchedKeywords)
	assert.False(t, event.Timestamp.IsZero())
}
