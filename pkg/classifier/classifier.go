// Package classifier assigns medicine records to a single category of a fixed
// keyword catalog using weighted whole-phrase matching.
//
// Every keyword found in the record contributes its word count to its
// category's score, plus a bonus when it also appears in the record's name or
// generic name. The highest score wins; ties go to the category declared
// first in the catalog; a record matching nothing lands in the fallback
// category with score 0.
package classifier

import (
	"sort"

	apperrors "github.com/medapp/medicine-catalog/pkg/errors"
)

// DefaultNameBonus is added per keyword that also matches the name or generic name.
const DefaultNameBonus = 2

// Result is the outcome of classifying one record.
type Result struct {
	CategorySlug    string   `json:"category_slug"`
	Score           int      `json:"score"`
	MatchedKeywords []string `json:"matched_keywords"`
}

// IsFallback reports whether nothing in the record matched.
func (r Result) IsFallback() bool {
	return r.Score == 0
}

// Classifier scores records against an immutable Catalog. It holds no mutable
// state and is safe for concurrent use.
type Classifier struct {
	catalog   *Catalog
	nameBonus int
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithNameBonus overrides DefaultNameBonus. Negative values are treated as 0.
func WithNameBonus(bonus int) Option {
	return func(c *Classifier) {
		if bonus < 0 {
			bonus = 0
		}
		c.nameBonus = bonus
	}
}

// New creates a classifier over catalog.
func New(catalog *Catalog, opts ...Option) (*Classifier, error) {
	if catalog == nil {
		return nil, apperrors.NewConfigurationError("classifier requires a catalog", nil)
	}
	c := &Classifier{
		catalog:   catalog,
		nameBonus: DefaultNameBonus,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Catalog returns the catalog the classifier scores against.
func (c *Classifier) Catalog() *Catalog {
	return c.catalog
}

// Classify returns the best category for the record. It never fails.
func (c *Classifier) Classify(record Record) Result {
	prepared := prepare(record)

	best := Result{
		CategorySlug:    c.catalog.fallback,
		MatchedKeywords: []string{},
	}
	if prepared.search == "" {
		return best
	}

	for i := range c.catalog.categories {
		score, matched := c.score(&c.catalog.categories[i], prepared)
		// Strictly greater: the earlier declared category keeps a tie.
		if score > best.Score {
			best = Result{
				CategorySlug:    c.catalog.categories[i].Slug,
				Score:           score,
				MatchedKeywords: matched,
			}
		}
	}

	return best
}

// Rank returns every category with a nonzero score, highest first and in
// declaration order among equals. The first entry, if any, equals Classify.
func (c *Classifier) Rank(record Record) []Result {
	prepared := prepare(record)
	if prepared.search == "" {
		return []Result{}
	}

	ranked := make([]Result, 0)
	for i := range c.catalog.categories {
		score, matched := c.score(&c.catalog.categories[i], prepared)
		if score == 0 {
			continue
		}
		ranked = append(ranked, Result{
			CategorySlug:    c.catalog.categories[i].Slug,
			Score:           score,
			MatchedKeywords: matched,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

func (c *Classifier) score(cat *compiledCategory, record preparedRecord) (int, []string) {
	total := 0
	var matched []string

	for _, kw := range cat.keywords {
		if !kw.pattern.MatchString(record.search) {
			continue
		}
		contribution := kw.weight
		for _, name := range record.names {
			if kw.pattern.MatchString(name) {
				contribution += c.nameBonus
				break
			}
		}
		total += contribution
		matched = append(matched, kw.raw)
	}

	return total, matched
}
