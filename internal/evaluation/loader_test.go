package evaluation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/medapp/medicine-catalog/pkg/classifier"
)

func testCatalog(t *testing.T) *classifier.Catalog {
	t.Helper()
	catalog, err := classifier.NewCatalog([]classifier.Category{
		{Slug: "beta-blockers", Keywords: []string{"atenolol", "high blood pressure"}},
		{Slug: "pain-relief", Keywords: []string{"ibuprofen", "pain"}},
		{Slug: "heart", Keywords: []string{"heart failure", "blood pressure"}},
		{Slug: "uncategorized"},
	}, "")
	if err != nil {
		t.Fatalf("failed to build catalog: %v", err)
	}
	return catalog
}

func TestLoadGoldenSet_ValidFile(t *testing.T) {
	content := `[
		{"id": "g1", "name": "Atenolol 50mg", "description": "for high blood pressure", "expected_category": "beta-blockers", "difficulty": "easy"},
		{"id": "g2", "name": "Saline", "generic_name": "sodium chloride", "expected_category": "uncategorized", "difficulty": "hard"}
	]`
	path := writeTempFile(t, content)

	items, err := LoadGoldenSet(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 medicines, got %d", len(items))
	}
	if items[0].ID != "g1" {
		t.Errorf("expected id g1, got %s", items[0].ID)
	}
	if items[0].Name != "Atenolol 50mg" || items[0].Description != "for high blood pressure" {
		t.Errorf("record fields not decoded: %+v", items[0].Record)
	}
	if items[1].GenericName != "sodium chloride" {
		t.Errorf("expected generic name 'sodium chloride', got %s", items[1].GenericName)
	}
	if items[1].Difficulty != DifficultyHard {
		t.Errorf("expected difficulty hard, got %s", items[1].Difficulty)
	}
}

func TestLoadGoldenSet_ShippedFile(t *testing.T) {
	catalog, err := classifier.LoadCatalog("../../config/medicine_categories.json")
	if err != nil {
		t.Fatalf("failed to load shipped catalog: %v", err)
	}
	items, err := LoadGoldenSet("../../config/golden_medicines.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) == 0 {
		t.Fatal("expected a non-empty golden set")
	}
	if err := ValidateGoldenSet(items, catalog); err != nil {
		t.Errorf("shipped golden set is invalid: %v", err)
	}
}

func TestLoadGoldenSet_InvalidFile(t *testing.T) {
	_, err := LoadGoldenSet("/nonexistent/path.json")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadGoldenSet_InvalidJSON(t *testing.T) {
	path := writeTempFile(t, `not valid json`)
	_, err := LoadGoldenSet(path)
	if err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestDifficultyValidation(t *testing.T) {
	tests := []struct {
		difficulty Difficulty
		valid      bool
	}{
		{DifficultyEasy, true},
		{DifficultyMedium, true},
		{DifficultyHard, true},
		{Difficulty("impossible"), false},
		{Difficulty(""), false},
	}
	for _, tt := range tests {
		got := tt.difficulty.IsValid()
		if got != tt.valid {
			t.Errorf("Difficulty(%q).IsValid() = %v, want %v", tt.difficulty, got, tt.valid)
		}
	}
	if len(ValidDifficulties()) != 3 {
		t.Errorf("expected 3 difficulties, got %d", len(ValidDifficulties()))
	}
}

func TestValidateGoldenSet(t *testing.T) {
	valid := GoldenMedicine{ID: "g1", Record: classifier.Record{Name: "Atenolol"}, ExpectedCategory: "beta-blockers", Difficulty: DifficultyEasy}

	tests := []struct {
		name    string
		items   []GoldenMedicine
		wantErr bool
	}{
		{name: "valid", items: []GoldenMedicine{valid}},
		{name: "missing id", items: []GoldenMedicine{{Record: valid.Record, ExpectedCategory: "beta-blockers", Difficulty: DifficultyEasy}}, wantErr: true},
		{name: "duplicate id", items: []GoldenMedicine{valid, valid}, wantErr: true},
		{name: "empty record", items: []GoldenMedicine{{ID: "g2", ExpectedCategory: "beta-blockers", Difficulty: DifficultyEasy}}, wantErr: true},
		{name: "unknown category", items: []GoldenMedicine{{ID: "g3", Record: valid.Record, ExpectedCategory: "antibiotics", Difficulty: DifficultyEasy}}, wantErr: true},
		{name: "invalid difficulty", items: []GoldenMedicine{{ID: "g4", Record: valid.Record, ExpectedCategory: "beta-blockers", Difficulty: "trivial"}}, wantErr: true},
	}

	catalog := testCatalog(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGoldenSet(tt.items, catalog)
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}
