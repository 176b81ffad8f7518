package entities

import (
	"time"

	"github.com/google/uuid"
)

// CategoryAssignmentEvent is published when a medicine moves to a new category
type CategoryAssignmentEvent struct {
	ID               string    `json:"id"`
	RunID            string    `json:"run_id,omitempty"`
	MedicineID       int64     `json:"medicine_id"`
	MedicineName     string    `json:"medicine_name"`
	PreviousCategory string    `json:"previous_category,omitempty"`
	NewCategory      string    `json:"new_category"`
	Score            int       `json:"score"`
	MatchedKeywords  []string  `json:"matched_keywords"`
	Timestamp        time.Time `json:"timestamp"`
}

// NewCategoryAssignmentEvent creates an event with a fresh ID
func NewCategoryAssignmentEvent(runID string, medicine *Medicine, newCategory string, score int, matched []string) *CategoryAssignmentEvent {
	if matched == nil {
		matched = []string{}
	}
	return &CategoryAssignmentEvent{
		ID:               uuid.NewString(),
		RunID:            runID,
		MedicineID:       medicine.ID,
		MedicineName:     medicine.Name,
		PreviousCategory: medicine.CategorySlug,
		NewCategory:      newCategory,
		Score:            score,
		MatchedKeywords:  matched,
		Timestamp:        time.Now().UTC(),
	}
}
