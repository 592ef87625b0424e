package ai

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/medinotes/notes-api/internal/platform/summarize"
)

const (
	keywordRiskSummary    = "Risk assessment based on keyword analysis"
	keywordRiskFactor     = "Automated assessment - AI not available"
	keywordRecommendation = "Manual clinical review recommended"

	noEncountersOverview = "No documented encounters yet. Please add clinical notes to enable AI summaries."
	overviewNoteLimit    = 8
	overviewCharLimit    = 400
)

var (
	urgentRiskTerms = []string{"critical", "urgent", "emergency", "severe"}
	calmRiskTerms   = []string{"stable", "normal", "routine"}
)

// Deterministic is the keyword backend. It never fails and never calls out.
type Deterministic struct{}

func NewDeterministic() *Deterministic { return &Deterministic{} }

func (*Deterministic) Name() string { return ProviderDeterministic }

func (*Deterministic) SummarizeNote(_ context.Context, in NoteInput) (*NoteSummary, error) {
	s := deterministicSummary(in.Content, in.NoteType)
	return &s, nil
}

func (*Deterministic) AssessRisk(_ context.Context, in RiskInput) (*RiskAssessment, error) {
	r := keywordRisk(in.Content)
	return &r, nil
}

func (*Deterministic) RecommendTreatment(_ context.Context, _ TreatmentInput) (*TreatmentPlan, error) {
	p := fallbackTreatment()
	return &p, nil
}

func (*Deterministic) PatientOverview(_ context.Context, patientName string, notes []string) (string, error) {
	return overviewFallback(patientName, notes), nil
}

func deterministicSummary(content, noteType string) NoteSummary {
	if noteType == "" {
		noteType = summarize.DefaultNoteType
	}
	st := summarize.Summarize(content, noteType)
	return NoteSummary{
		Summary:         Text(st.Summary),
		KeyFindings:     Text(st.KeyFindings),
		Assessment:      Text(st.Assessment),
		Recommendations: Text(st.Recommendations),
		RiskLevel:       st.RiskLevel,
		AIGenerated:     false,
		Mock:            true,
	}
}

// keywordRisk scores urgency words only.
func keywordRisk(content string) RiskAssessment {
	lowered := strings.ToLower(content)
	level := summarize.RiskMedium
	switch {
	case containsAny(lowered, urgentRiskTerms):
		level = summarize.RiskHigh
	case containsAny(lowered, calmRiskTerms):
		level = summarize.RiskLow
	}
	return RiskAssessment{
		RiskLevel:       level,
		Summary:         keywordRiskSummary,
		RiskFactors:     TextList{keywordRiskFactor},
		Recommendations: TextList{keywordRecommendation},
		AIGenerated:     false,
		Mock:            true,
	}
}

func fallbackTreatment() TreatmentPlan {
	return TreatmentPlan{
		PrimaryTreatment:   "Please consult clinical guidelines",
		Medications:        []Medication{},
		NonPharmacological: TextList{"Lifestyle modifications", "Regular monitoring"},
		FollowUpTimeline:   "As clinically indicated",
		AIGenerated:        false,
		Mock:               true,
	}
}

func overviewFallback(patientName string, notes []string) string {
	if len(notes) == 0 {
		return noEncountersOverview
	}
	joined := joinRecent(notes)
	if utf8.RuneCountInString(joined) > overviewCharLimit {
		joined = string([]rune(joined)[:overviewCharLimit])
	}
	return "Patient overview for " + patientName + ": " + strings.ReplaceAll(joined, "\n", " ") + "..."
}

// joinRecent joins at most the first overviewNoteLimit notes with blank lines.
func joinRecent(notes []string) string {
	if len(notes) > overviewNoteLimit {
		notes = notes[:overviewNoteLimit]
	}
	return strings.Join(notes, "\n\n")
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
