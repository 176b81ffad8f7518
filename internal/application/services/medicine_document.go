package services

import (
	"strconv"
	"time"

	"github.com/medapp/medicine-catalog/internal/domain/entities"
	"github.com/medapp/medicine-catalog/pkg/classifier"
)

// BuildMedicineDocument builds the search document for a medicine. The
// stored category wins over the fresh result; score and keywords are only
// carried when both agree.
func BuildMedicineDocument(catalog *classifier.Catalog, medicine *entities.Medicine, result classifier.Result) *entities.MedicineDocument {
	slug := medicine.CategorySlug
	if slug == "" {
		slug = result.CategorySlug
	}

	doc := &entities.MedicineDocument{
		ID:           strconv.FormatInt(medicine.ID, 10),
		Name:         medicine.Name,
		Generic:      medicine.Generic,
		Manufacturer: medicine.ManufacturerName,
		CategorySlug: slug,
		UpdatedAt:    time.Now().Unix(),
	}
	if medicine.LastSynced != nil {
		doc.UpdatedAt = medicine.LastSynced.Unix()
	}

	if cat, ok := catalog.Category(slug); ok {
		doc.CategoryName = cat.Name
	} else {
		doc.CategoryName = slug
	}
	if groups := catalog.GroupsOf(slug); len(groups) > 0 {
		doc.CategoryGroup = groups[0]
	}

	if slug == result.CategorySlug {
		doc.Score = result.Score
		doc.Keywords = result.MatchedKeywords
	}

	return doc
}
