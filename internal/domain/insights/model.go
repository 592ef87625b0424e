package insights

import (
	"time"

	"github.com/google/uuid"

	"github.com/medinotes/notes-api/internal/platform/ai"
	"github.com/medinotes/notes-api/internal/platform/summarize"
)

// StatusSuccess is reported by completed AI tasks.
const StatusSuccess = "success"

type SummarizeRequest struct {
	NoteID uuid.UUID `json:"note_id"`
}

type SummarizeResult struct {
	Status    string              `json:"status"`
	NoteID    uuid.UUID           `json:"note_id"`
	Summary   string              `json:"summary"`
	RiskLevel summarize.RiskLevel `json:"risk_level"`
}

type RiskRequest struct {
	PatientID uuid.UUID `json:"patient_id"`
}

type RiskResult struct {
	Status          string              `json:"status"`
	PatientID       uuid.UUID           `json:"patient_id"`
	RiskLevel       summarize.RiskLevel `json:"risk_level"`
	RiskFactors     []string            `json:"risk_factors"`
	Recommendations []string            `json:"recommendations"`
}

type Overview struct {
	PatientID   uuid.UUID `json:"patient_id"`
	PatientName string    `json:"patient_name"`
	NoteCount   int       `json:"note_count"`
	Overview    string    `json:"overview"`
	AIGenerated bool      `json:"ai_generated"`
}

type TreatmentRequest struct {
	Diagnosis         string   `json:"diagnosis"`
	PatientContext    string   `json:"patient_context"`
	Contraindications []string `json:"contraindications"`
}

// NoteDigest is one summarized note inside a patient report.
type NoteDigest struct {
	NoteID          uuid.UUID           `json:"note_id"`
	Title           string              `json:"title"`
	NoteType        string              `json:"note_type"`
	CreatedAt       time.Time           `json:"created_at"`
	Summary         string              `json:"summary"`
	KeyFindings     string              `json:"key_findings"`
	RiskLevel       summarize.RiskLevel `json:"risk_level"`
	Recommendations string              `json:"recommendations"`
}

// Report combines per-note digests with a patient-level risk assessment.
type Report struct {
	PatientID   uuid.UUID           `json:"patient_id"`
	PatientName string              `json:"patient_name"`
	GeneratedAt time.Time           `json:"generated_at"`
	HighestRisk summarize.RiskLevel `json:"highest_risk"`
	Notes       []NoteDigest        `json:"notes"`
	Risk        ai.RiskAssessment   `json:"risk_assessment"`
}
