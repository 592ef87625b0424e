package summarize

import "strings"

// FallbackRecommendation is emitted when no keyword rule matches.
const FallbackRecommendation = "Monitor symptoms, document changes, and schedule follow-up if no improvement."

// Rule maps trigger keywords to a recommendation. A rule fires when any
// keyword occurs as a substring of the lower-cased note.
type Rule struct {
	Keywords       []string
	Recommendation string
}

var recommendationRules = []Rule{
	{
		Keywords:       []string{"chest pain", "shortness of breath", "dyspnea"},
		Recommendation: "Obtain ECG/troponin and monitor vitals closely; escalate if pain worsens.",
	},
	{
		Keywords:       []string{"fever", "infection"},
		Recommendation: "Check CBC and cultures if indicated; start antipyretics and hydration.",
	},
	{
		Keywords:       []string{"headache"},
		Recommendation: "Assess neuro status; consider imaging if red flags (sudden/severe, neuro deficits).",
	},
	{
		Keywords:       []string{"mri", "ct"},
		Recommendation: "Confirm imaging order and follow up on results with the patient.",
	},
	{
		Keywords:       []string{"diabetes", "glucose"},
		Recommendation: "Reinforce glucose control, medication adherence, and foot care education.",
	},
	{
		Keywords:       []string{"hypertension", "bp"},
		Recommendation: "Review antihypertensive regimen and home BP logs; adjust if persistently elevated.",
	},
	{
		Keywords:       []string{"asthma", "wheezing"},
		Recommendation: "Assess inhaler technique; ensure rescue inhaler available; monitor for triggers.",
	},
}

var (
	highRiskTerms = []string{"chest pain", "severe", "critical", "dyspnea", "unstable"}
	lowRiskTerms  = []string{"routine", "stable", "well controlled", "improved"}
)

// Rules returns a copy of the recommendation rules in evaluation order.
func Rules() []Rule {
	out := make([]Rule, len(recommendationRules))
	copy(out, recommendationRules)
	return out
}

// Classify derives recommendations and a risk tier from note text.
// Matching is plain substring containment, so "ct" also matches "doctor"
// and "stable" also matches "unstable".
func Classify(text string) ([]string, RiskLevel) {
	lowered := strings.ToLower(text)

	var recs []string
	seen := make(map[string]bool)
	add := func(rec string) {
		if rec == "" || seen[rec] {
			return
		}
		seen[rec] = true
		recs = append(recs, rec)
	}
	for _, rule := range recommendationRules {
		if containsAny(lowered, rule.Keywords) {
			add(rule.Recommendation)
		}
	}
	if len(recs) == 0 {
		add(FallbackRecommendation)
	}

	risk := RiskMedium
	switch {
	case containsAny(lowered, highRiskTerms):
		risk = RiskHigh
	case containsAny(lowered, lowRiskTerms):
		risk = RiskLow
	}
	return recs, risk
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
