package evaluation

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/medapp/medicine-catalog/pkg/classifier"
)

// LoadGoldenSet reads and parses a golden medicine set from a JSON file.
func LoadGoldenSet(path string) ([]GoldenMedicine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read golden set file: %w", err)
	}

	var items []GoldenMedicine
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse golden set: %w", err)
	}

	return items, nil
}

// ValidateGoldenSet checks that all golden medicines have required fields and
// expect a category the catalog knows.
func ValidateGoldenSet(items []GoldenMedicine, catalog *classifier.Catalog) error {
	seen := make(map[string]struct{}, len(items))

	for i, item := range items {
		if item.ID == "" {
			return fmt.Errorf("medicine at index %d: missing id", i)
		}
		if _, dup := seen[item.ID]; dup {
			return fmt.Errorf("medicine at index %d: duplicate id %q", i, item.ID)
		}
		seen[item.ID] = struct{}{}

		if item.Record.IsEmpty() {
			return fmt.Errorf("medicine %q: no text fields", item.ID)
		}
		if _, ok := catalog.Category(item.ExpectedCategory); !ok {
			return fmt.Errorf("medicine %q: unknown expected category %q", item.ID, item.ExpectedCategory)
		}
		if !item.Difficulty.IsValid() {
			return fmt.Errorf("medicine %q: invalid difficulty %q (must be easy/medium/hard)", item.ID, item.Difficulty)
		}
	}

	return nil
}
