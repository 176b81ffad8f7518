package entities

import (
	"time"

	"github.com/medapp/medicine-catalog/pkg/classifier"
)

// Medicine is a row of the medicines table
type Medicine struct {
	ID               int64      `json:"id" db:"id"`
	Name             string     `json:"name" db:"name"`
	Generic          string     `json:"generic" db:"generic"`
	ManufacturerName string     `json:"manufacturer_name" db:"manufacturer_name"`
	Description      string     `json:"description" db:"description"`
	Symptoms         string     `json:"symptoms" db:"symptoms"`
	Composition      string     `json:"composition" db:"composition"`
	Dosage           string     `json:"dosage" db:"dosage"`
	Route            string     `json:"route" db:"route"`
	ImageURL         string     `json:"image_url" db:"image_url"`
	CategoryID       *int64     `json:"category_id,omitempty" db:"category"`
	CategorySlug     string     `json:"category_slug,omitempty"`
	LastSynced       *time.Time `json:"last_synced,omitempty" db:"last_synced"`
}

// ClassifiableRecord returns the free-text fields the classifier scores.
func (m *Medicine) ClassifiableRecord() classifier.Record {
	return classifier.Record{
		Name:        m.Name,
		GenericName: m.Generic,
		Composition: m.Composition,
		Description: m.Description,
		Symptoms:    m.Symptoms,
		Route:       m.Route,
	}
}

// IsUncategorized reports whether the medicine has no category or sits in the
// fallback category.
func (m *Medicine) IsUncategorized(fallbackSlug string) bool {
	return m.CategoryID == nil || m.CategorySlug == "" || m.CategorySlug == fallbackSlug
}

// MedicineDocument is the search index representation of a classified medicine
type MedicineDocument struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Generic       string   `json:"generic,omitempty"`
	Manufacturer  string   `json:"manufacturer,omitempty"`
	CategorySlug  string   `json:"category_slug"`
	CategoryName  string   `json:"category_name"`
	CategoryGroup string   `json:"category_group,omitempty"`
	Keywords      []string `json:"matched_keywords,omitempty"`
	Score         int      `json:"score"`
	UpdatedAt     int64    `json:"updated_at"`
}
