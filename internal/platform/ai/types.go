package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/medinotes/notes-api/internal/platform/summarize"
)

// Text is a string field that also accepts the lists and numbers language
// models sometimes return in place of a string.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*t = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(strings.TrimSpace(s))
	case len(b) > 0 && b[0] == '[':
		var items TextList
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		*t = Text(strings.Join(items, "; "))
	default:
		*t = Text(b)
	}
	return nil
}

// TextList is a string list that also accepts a single string.
type TextList []string

func (l *TextList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*l = nil
		return nil
	}
	if len(b) > 0 && b[0] == '[' {
		var raw []json.RawMessage
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		out := make([]string, 0, len(raw))
		for _, r := range raw {
			var t Text
			if err := json.Unmarshal(r, &t); err != nil {
				return err
			}
			if t != "" {
				out = append(out, string(t))
			}
		}
		*l = out
		return nil
	}
	var t Text
	if err := json.Unmarshal(b, &t); err != nil {
		return fmt.Errorf("text list: %w", err)
	}
	if t == "" {
		*l = nil
	} else {
		*l = TextList{string(t)}
	}
	return nil
}

// NoteInput is one note to summarize. History holds earlier notes for the
// same patient, newest last.
type NoteInput struct {
	Content  string
	NoteType string
	History  []string
}

// NoteSummary is the structured summary of one note. The deterministic
// backend fills Summary through RiskLevel; language models may fill the rest.
type NoteSummary struct {
	Summary         Text                `json:"summary"`
	KeyFindings     Text                `json:"key_findings"`
	Assessment      Text                `json:"assessment"`
	Recommendations Text                `json:"recommendations"`
	RiskLevel       summarize.RiskLevel `json:"risk_level"`

	ChiefComplaint Text `json:"chief_complaint,omitempty"`
	VitalSigns     Text `json:"vital_signs,omitempty"`
	Medications    Text `json:"medications,omitempty"`
	TreatmentPlan  Text `json:"treatment_plan,omitempty"`
	FollowUp       Text `json:"follow_up,omitempty"`
	RiskFactors    Text `json:"risk_factors,omitempty"`
	UrgentFlags    Text `json:"urgent_flags,omitempty"`

	AIGenerated bool       `json:"ai_generated"`
	Mock        bool       `json:"mock"`
	Model       string     `json:"model,omitempty"`
	GeneratedAt *time.Time `json:"timestamp,omitempty"`
}

// Structured returns the display subset shared with the deterministic
// summarizer.
func (s *NoteSummary) Structured() summarize.StructuredSummary {
	return summarize.StructuredSummary{
		Summary:         string(s.Summary),
		KeyFindings:     string(s.KeyFindings),
		Assessment:      string(s.Assessment),
		Recommendations: string(s.Recommendations),
		RiskLevel:       s.RiskLevel,
		AIGenerated:     s.AIGenerated,
		Mock:            s.Mock,
	}
}

// RiskInput is the text a risk assessment is based on.
type RiskInput struct {
	Content    string
	History    []string
	VitalSigns map[string]string
}

type RiskAssessment struct {
	RiskLevel               summarize.RiskLevel `json:"risk_level"`
	ConfidenceScore         *float64            `json:"confidence_score,omitempty"`
	Summary                 Text                `json:"summary"`
	RiskFactors             TextList            `json:"risk_factors"`
	ClinicalConcerns        TextList            `json:"clinical_concerns,omitempty"`
	Recommendations         TextList            `json:"recommendations"`
	MonitoringPlan          Text                `json:"monitoring_plan,omitempty"`
	EscalationCriteria      Text                `json:"escalation_criteria,omitempty"`
	RequiresUrgentAttention bool                `json:"requires_urgent_attention"`
	EstimatedSeverity       Text                `json:"estimated_severity,omitempty"`
	AIGenerated             bool                `json:"ai_generated"`
	Mock                    bool                `json:"mock"`
}

type TreatmentInput struct {
	Diagnosis         string
	PatientContext    string
	Contraindications []string
}

type Medication struct {
	Name      Text `json:"name"`
	Dosage    Text `json:"dosage,omitempty"`
	Frequency Text `json:"frequency,omitempty"`
	Duration  Text `json:"duration,omitempty"`
	Rationale Text `json:"rationale,omitempty"`
}

type TreatmentPlan struct {
	PrimaryTreatment       Text         `json:"primary_treatment"`
	Medications            []Medication `json:"medications"`
	NonPharmacological     TextList     `json:"non_pharmacological"`
	MonitoringRequirements Text         `json:"monitoring_requirements,omitempty"`
	PatientEducation       TextList     `json:"patient_education,omitempty"`
	RedFlags               TextList     `json:"red_flags,omitempty"`
	FollowUpTimeline       Text         `json:"follow_up_timeline"`
	AIGenerated            bool         `json:"ai_generated"`
	Mock                   bool         `json:"mock"`
}

type NurseRecommendations struct {
	NursingActions string `json:"nursing_actions"`
	AIGenerated    bool   `json:"ai_generated"`
}
