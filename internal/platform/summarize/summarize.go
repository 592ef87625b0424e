// Package summarize is the deterministic clinical note summarizer. It turns
// raw note text into a StructuredSummary using section extraction, a fixed
// label order and keyword rules. Every function is pure and total, so the
// package is safe to call from any goroutine and is used as the fallback
// whenever a model-backed summarizer is unavailable.
package summarize

import "strings"

const (
	// DefaultNoteType is assumed when the caller has no note type.
	DefaultNoteType = "general"

	// AssessmentPlaceholder is used when a note has no assessment section.
	AssessmentPlaceholder = "Manual review required"

	// RecommendationSeparator joins recommendations into one display string.
	RecommendationSeparator = " • "
)

// StructuredSummary is the display-ready result for one note.
type StructuredSummary struct {
	Summary         string    `json:"summary"`
	KeyFindings     string    `json:"key_findings"`
	Assessment      string    `json:"assessment"`
	Recommendations string    `json:"recommendations"`
	RiskLevel       RiskLevel `json:"risk_level"`
	AIGenerated     bool      `json:"ai_generated"`
	Mock            bool      `json:"mock"`
}

// Result carries a StructuredSummary together with the intermediate values
// callers sometimes need (parts, individual recommendations, sections).
type Result struct {
	StructuredSummary
	Parts               []string
	RecommendationItems []string
	Sections            Sections
}

// Summarize builds the structured summary for a note. noteType is accepted
// for parity with model-backed summarizers and does not change the output.
func Summarize(content, noteType string) StructuredSummary {
	return Analyze(content).StructuredSummary
}

// SummarizeNullable treats a nil content pointer as an empty note.
func SummarizeNullable(content *string, noteType string) StructuredSummary {
	if content == nil {
		return Summarize("", noteType)
	}
	return Summarize(*content, noteType)
}

// Analyze runs the full pipeline and keeps the intermediate values.
func Analyze(content string) Result {
	sections := Extract(content)
	summary, parts := Compose(content, sections)
	recs, risk := Classify(content)

	assessment, ok := sections["assessment"]
	if !ok {
		assessment = AssessmentPlaceholder
	}

	return Result{
		StructuredSummary: StructuredSummary{
			Summary:         summary,
			KeyFindings:     KeyFindings(parts),
			Assessment:      assessment,
			Recommendations: strings.Join(recs, RecommendationSeparator),
			RiskLevel:       risk,
			AIGenerated:     false,
			Mock:            true,
		},
		Parts:               parts,
		RecommendationItems: recs,
		Sections:            sections,
	}
}
