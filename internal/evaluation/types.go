package evaluation

import (
	"time"

	"github.com/medapp/medicine-catalog/pkg/classifier"
)

// Difficulty labels how obvious a golden medicine's category is.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"   // brand or generic name is a catalog keyword
	DifficultyMedium Difficulty = "medium" // competing categories also score
	DifficultyHard   Difficulty = "hard"   // only indirect terms, or nothing at all
)

// ValidDifficulties returns all valid difficulty values.
func ValidDifficulties() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}
}

// IsValid checks if the difficulty value is one of the defined constants.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// GoldenMedicine is a labeled medicine with its expected category.
type GoldenMedicine struct {
	ID string `json:"id"`
	classifier.Record
	ExpectedCategory string     `json:"expected_category"`
	Difficulty       Difficulty `json:"difficulty"`
}

// EvalResult holds the evaluation outcome for a single medicine.
type EvalResult struct {
	MedicineID     string
	Expected       string
	Predicted      string
	Score          int
	Correct        bool
	ReciprocalRank float64
	Difficulty     Difficulty
	Latency        time.Duration
}

// EvalSummary holds aggregate metrics across the golden set.
type EvalSummary struct {
	Total        int
	Correct      int
	Accuracy     float64
	MRRAtK       float64
	FallbackRate float64 // share of medicines predicted as the fallback category
	AvgLatency   time.Duration
	ByCategory   map[string]*CategorySummary
	ByDifficulty map[Difficulty]*DifficultySummary
	Misses       []EvalResult
}

// CategorySummary holds per-category precision and recall.
type CategorySummary struct {
	Support       int // golden medicines expecting this category
	Predicted     int
	TruePositives int
	Precision     float64
	Recall        float64
}

// DifficultySummary holds accuracy grouped by difficulty.
type DifficultySummary struct {
	Count    int
	Correct  int
	Accuracy float64
}
