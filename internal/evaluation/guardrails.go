package evaluation

import (
	"fmt"
	"strings"
)

// GuardrailConfig sets the minimum quality a catalog change must keep.
type GuardrailConfig struct {
	MinAccuracy     float64
	MinMRR          float64
	MaxFallbackRate float64
}

type Guardrails struct {
	config GuardrailConfig
}

func NewGuardrails(config GuardrailConfig) *Guardrails {
	if config.MaxFallbackRate <= 0 {
		config.MaxFallbackRate = 1.0
	}
	return &Guardrails{config: config}
}

// Violations lists every threshold the summary breaks.
func (g *Guardrails) Violations(s *EvalSummary) []string {
	var violations []string
	if s.Accuracy < g.config.MinAccuracy {
		violations = append(violations, fmt.Sprintf("accuracy %.3f below %.3f", s.Accuracy, g.config.MinAccuracy))
	}
	if s.MRRAtK < g.config.MinMRR {
		violations = append(violations, fmt.Sprintf("MRR %.3f below %.3f", s.MRRAtK, g.config.MinMRR))
	}
	if s.FallbackRate > g.config.MaxFallbackRate {
		violations = append(violations, fmt.Sprintf("fallback rate %.3f above %.3f", s.FallbackRate, g.config.MaxFallbackRate))
	}
	return violations
}

// Check returns an error naming all violations, or nil.
func (g *Guardrails) Check(s *EvalSummary) error {
	if violations := g.Violations(s); len(violations) > 0 {
		return fmt.Errorf("evaluation guardrails failed: %s", strings.Join(violations, "; "))
	}
	return nil
}
