package evaluation

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestGuardrails_PassingSummary(t *testing.T) {
	g := NewGuardrails(GuardrailConfig{MinAccuracy: 0.9, MinMRR: 0.9, MaxFallbackRate: 0.2})

	summary := &EvalSummary{Accuracy: 0.95, MRRAtK: 0.97, FallbackRate: 0.05}
	assert.Empty(t, g.Violations(summary))
	assert.NoError(t, g.Check(summary))
}

func TestGuardrails_ReportsEveryViolation(t *testing.T) {
	g := NewGuardrails(GuardrailConfig{MinAccuracy: 0.9, MinMRR: 0.9, MaxFallbackRate: 0.2})

	summary := &EvalSummary{Accuracy: 0.5, MRRAtK: 0.6, FallbackRate: 0.4}
	assert.Len(t, g.Violations(summary), 3)

	err := g.Check(summary)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accuracy 0.500 below 0.900")
	assert.Contains(t, err.Error(), "fallback rate 0.400 above 0.200")
}

func TestGuardrails_DefaultFallbackRate(t *testing.T) {
	g := NewGuardrails(GuardrailConfig{})

	assert.NoError(t, g.Check(&EvalSummary{FallbackRate: 1.0}))
}
