package summarize

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RiskLevel is the coarse risk tier attached to a note.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

func (r RiskLevel) String() string { return string(r) }

// Valid reports whether r is one of the three tiers.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// UnmarshalJSON accepts any risk wording an upstream model may produce and
// stores its normalized tier.
func (r *RiskLevel) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("risk level: %w", err)
	}
	if lvl, ok := NormalizeRiskLevel(raw); ok {
		*r = lvl
		return nil
	}
	*r = ""
	return nil
}

// NormalizeRiskLevel maps free-form risk wording onto low, medium or high.
// It returns false when the input carries no recognizable tier.
func NormalizeRiskLevel(raw string) (RiskLevel, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", false
	}
	switch {
	case strings.Contains(s, "critical"), strings.Contains(s, "severe"),
		strings.Contains(s, "high"), strings.Contains(s, "life-threatening"):
		return RiskHigh, true
	case strings.Contains(s, "moderate"), strings.Contains(s, "medium"),
		strings.Contains(s, "intermediate"):
		return RiskMedium, true
	case strings.Contains(s, "low"), strings.Contains(s, "minimal"),
		strings.Contains(s, "mild"):
		return RiskLow, true
	}
	return "", false
}

// NormalizeRiskPtr normalizes a nullable persisted value.
func NormalizeRiskPtr(raw *string) (RiskLevel, bool) {
	if raw == nil {
		return "", false
	}
	return NormalizeRiskLevel(*raw)
}
