package evaluation

import (
	"context"
	"time"

	"github.com/medapp/medicine-catalog/pkg/classifier"
)

// DefaultK is the rank cutoff for MRR.
const DefaultK = 5

// Runner runs evaluation across a golden medicine set.
type Runner struct {
	classifier *classifier.Classifier
	k          int
}

func NewRunner(clf *classifier.Classifier) *Runner {
	return &Runner{classifier: clf, k: DefaultK}
}

// Run classifies every golden medicine and aggregates the outcome. It stops
// early only when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, items []GoldenMedicine) (*EvalSummary, error) {
	summary := &EvalSummary{
		Total:        len(items),
		ByCategory:   make(map[string]*CategorySummary),
		ByDifficulty: make(map[Difficulty]*DifficultySummary),
	}
	fallback := r.classifier.Catalog().Fallback()
	fallbacks := 0

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		result := r.classifier.Classify(item.Record)
		ranked := r.classifier.Rank(item.Record)
		duration := time.Since(start)

		retrieved := make([]string, 0, len(ranked))
		for _, candidate := range ranked {
			retrieved = append(retrieved, candidate.CategorySlug)
		}
		if len(retrieved) == 0 {
			retrieved = append(retrieved, result.CategorySlug)
		}

		res := EvalResult{
			MedicineID:     item.ID,
			Expected:       item.ExpectedCategory,
			Predicted:      result.CategorySlug,
			Score:          result.Score,
			Correct:        result.CategorySlug == item.ExpectedCategory,
			ReciprocalRank: MRRAtK([]string{item.ExpectedCategory}, retrieved, r.k),
			Difficulty:     item.Difficulty,
			Latency:        duration,
		}
		if res.Predicted == fallback {
			fallbacks++
		}

		r.updateSummary(summary, res)
	}

	r.finalizeSummary(summary, fallbacks)
	return summary, nil
}

func (r *Runner) updateSummary(s *EvalSummary, res EvalResult) {
	s.MRRAtK += res.ReciprocalRank
	s.AvgLatency += res.Latency
	if res.Correct {
		s.Correct++
	} else {
		s.Misses = append(s.Misses, res)
	}

	r.category(s, res.Expected).Support++
	r.category(s, res.Predicted).Predicted++
	if res.Correct {
		r.category(s, res.Expected).TruePositives++
	}

	if _, ok := s.ByDifficulty[res.Difficulty]; !ok {
		s.ByDifficulty[res.Difficulty] = &DifficultySummary{}
	}
	ds := s.ByDifficulty[res.Difficulty]
	ds.Count++
	if res.Correct {
		ds.Correct++
	}
}

func (r *Runner) category(s *EvalSummary, slug string) *CategorySummary {
	cs, ok := s.ByCategory[slug]
	if !ok {
		cs = &CategorySummary{}
		s.ByCategory[slug] = cs
	}
	return cs
}

func (r *Runner) finalizeSummary(s *EvalSummary, fallbacks int) {
	if s.Total > 0 {
		n := float64(s.Total)
		s.Accuracy = float64(s.Correct) / n
		s.MRRAtK /= n
		s.FallbackRate = float64(fallbacks) / n
		s.AvgLatency /= time.Duration(s.Total)
	}

	for _, cs := range s.ByCategory {
		cs.Precision = Precision(cs.TruePositives, cs.Predicted)
		cs.Recall = Recall(cs.TruePositives, cs.Support)
	}

	for _, ds := range s.ByDifficulty {
		ds.Accuracy = ratio(ds.Correct, ds.Count)
	}
}
