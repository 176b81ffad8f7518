package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medapp/medicine-catalog/internal/evaluation"
	"github.com/medapp/medicine-catalog/pkg/classifier"
)

const shippedCatalog = "../../config/medicine_categories.json"

func TestRun_ShippedGoldenSet(t *testing.T) {
	var out bytes.Buffer
	opts := &evalOptions{
		catalogPath: shippedCatalog,
		goldenPath:  "../../config/golden_medicines.json",
		guardrails:  evaluation.GuardrailConfig{MinAccuracy: 0.9},
	}

	require.NoError(t, run(context.Background(), opts, classifier.DefaultNameBonus, &out))
	assert.Contains(t, out.String(), "accuracy")
	assert.NotContains(t, out.String(), "MISS")
}

func TestRun_GuardrailFailure(t *testing.T) {
	golden := filepath.Join(t.TempDir(), "golden.json")
	require.NoError(t, os.WriteFile(golden, []byte(`[
		{"id": "g1", "name": "Atenolol", "expected_category": "beta-blockers", "difficulty": "easy"},
		{"id": "g2", "name": "Atenolol", "expected_category": "ace-inhibitors", "difficulty": "hard"}
	]`), 0644))

	var out bytes.Buffer
	opts := &evalOptions{
		catalogPath: shippedCatalog,
		goldenPath:  golden,
		asJSON:      true,
		guardrails:  evaluation.GuardrailConfig{MinAccuracy: 0.9},
	}

	err := run(context.Background(), opts, classifier.DefaultNameBonus, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accuracy 0.500")

	var summary evaluation.EvalSummary
	require.NoError(t, json.Unmarshal(out.Bytes(), &summary))
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Correct)
}

func TestRun_InvalidGoldenSet(t *testing.T) {
	golden := filepath.Join(t.TempDir(), "golden.json")
	require.NoError(t, os.WriteFile(golden, []byte(`[{"id": "g1", "name": "x", "expected_category": "no-such-category", "difficulty": "easy"}]`), 0644))

	err := run(context.Background(), &evalOptions{catalogPath: shippedCatalog, goldenPath: golden}, 2, &bytes.Buffer{})
	assert.Error(t, err)
}
