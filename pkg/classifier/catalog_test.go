package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/medapp/medicine-catalog/pkg/errors"
)

func TestNewCatalog_Validation(t *testing.T) {
	tests := []struct {
		name       string
		categories []Category
		fallback   string
		groups     []Group
	}{
		{
			name: "empty catalog",
		},
		{
			name:       "missing fallback",
			categories: []Category{{Slug: "pain", Keywords: []string{"pain"}}},
		},
		{
			name:       "custom fallback missing",
			categories: []Category{{Slug: "uncategorized"}},
			fallback:   "other",
		},
		{
			name:       "empty slug",
			categories: []Category{{Slug: " ", Keywords: []string{"pain"}}, {Slug: "uncategorized"}},
		},
		{
			name: "duplicate slug",
			categories: []Category{
				{Slug: "pain", Keywords: []string{"pain"}},
				{Slug: "pain", Keywords: []string{"ache"}},
				{Slug: "uncategorized"},
			},
		},
		{
			name:       "category without keywords",
			categories: []Category{{Slug: "pain", Keywords: []string{" ", ""}}, {Slug: "uncategorized"}},
		},
		{
			name:       "group with unknown member",
			categories: []Category{{Slug: "pain", Keywords: []string{"pain"}}, {Slug: "uncategorized"}},
			groups:     []Group{{Slug: "pain-care", Categories: []string{"pain", "migraine"}}},
		},
		{
			name:       "duplicate group",
			categories: []Category{{Slug: "pain", Keywords: []string{"pain"}}, {Slug: "uncategorized"}},
			groups:     []Group{{Slug: "pain-care"}, {Slug: "pain-care"}},
		},
		{
			name:       "category references unknown group",
			categories: []Category{{Slug: "pain", Group: "pain-care", Keywords: []string{"pain"}}, {Slug: "uncategorized"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog, err := NewCatalog(tt.categories, tt.fallback, tt.groups...)
			require.Error(t, err)
			assert.Nil(t, catalog)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfiguration))
		})
	}
}

func TestNewCatalog_NormalizesKeywords(t *testing.T) {
	catalog, err := NewCatalog([]Category{
		{Slug: "cough-cold", Keywords: []string{"  Cough ", "COUGH", "Nasal   Congestion"}},
		{Slug: "uncategorized"},
	}, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"cough", "nasal congestion"}, catalog.Keywords("cough-cold"))
	assert.Nil(t, catalog.Keywords("missing"))
	assert.Equal(t, "uncategorized", catalog.Fallback())
	assert.Equal(t, 2, catalog.Len())
	assert.Equal(t, []string{"cough-cold", "uncategorized"}, catalog.Categories())
}

func TestCatalog_CategoryDisplayName(t *testing.T) {
	catalog, err := NewCatalog([]Category{
		{Slug: "cough-cold", Keywords: []string{"cough"}},
		{Slug: "nsaids", Name: "NSAIDs", Keywords: []string{"ibuprofen"}},
		{Slug: "uncategorized"},
	}, "")
	require.NoError(t, err)

	cat, ok := catalog.Category("cough-cold")
	require.True(t, ok)
	assert.Equal(t, "Cough Cold", cat.Name)

	cat, ok = catalog.Category("nsaids")
	require.True(t, ok)
	assert.Equal(t, "NSAIDs", cat.Name)

	// Returned keywords are a copy.
	cat.Keywords[0] = "changed"
	assert.Equal(t, []string{"ibuprofen"}, catalog.Keywords("nsaids"))

	_, ok = catalog.Category("missing")
	assert.False(t, ok)
}

func TestCatalog_Groups(t *testing.T) {
	catalog, err := NewCatalog([]Category{
		{Slug: "insulin", Keywords: []string{"insulin"}},
		{Slug: "antidiabetics", Keywords: []string{"metformin"}},
		{Slug: "diabetic-supplies", Group: "diabetes-care", Keywords: []string{"glucometer"}},
		{Slug: "uncategorized"},
	}, "", Group{Slug: "diabetes-care", Categories: []string{"insulin", "antidiabetics", "insulin"}})
	require.NoError(t, err)

	group, ok := catalog.Group("diabetes-care")
	require.True(t, ok)
	assert.Equal(t, "Diabetes Care", group.Name)
	assert.Equal(t, []string{"insulin", "antidiabetics", "diabetic-supplies"}, group.Categories)

	groups := catalog.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, group, groups[0])

	_, ok = catalog.Group("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"diabetes-care"}, catalog.GroupsOf("diabetic-supplies"))
	assert.Nil(t, catalog.GroupsOf("uncategorized"))
}

func TestCatalog_CustomFallback(t *testing.T) {
	catalog, err := NewCatalog([]Category{
		{Slug: "pain", Keywords: []string{"pain"}},
		{Slug: "other"},
	}, "other")
	require.NoError(t, err)

	c, err := New(catalog)
	require.NoError(t, err)
	assert.Equal(t, "other", c.Classify(Record{Name: "water"}).CategorySlug)
}
