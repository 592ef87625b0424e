package notes

import (
	"time"

	"github.com/google/uuid"

	"github.com/medinotes/notes-api/internal/platform/summarize"
)

// Note types accepted by the notes table.
const (
	TypeDoctorNote = "doctor_note"
	TypeNurseNote  = "nurse_note"
	TypeGeneral    = "general"
	TypeEmergency  = "emergency"
	TypeProgress   = "progress"
	TypeDischarge  = "discharge"
)

// PlaceholderContent is shown in listings for notes saved without content.
const PlaceholderContent = "Clinical note content pending. This placeholder ensures demos never render empty notes."

func ValidType(t string) bool {
	switch t {
	case TypeDoctorNote, TypeNurseNote, TypeGeneral, TypeEmergency, TypeProgress, TypeDischarge:
		return true
	}
	return false
}

// Note maps to the notes table. The AI fields stay nil until a
// summarization task has run.
type Note struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	PatientID       uuid.UUID  `db:"patient_id" json:"patient_id"`
	AuthorID        uuid.UUID  `db:"author_id" json:"author_id"`
	Title           string     `db:"title" json:"title"`
	Content         string     `db:"content" json:"content"`
	NoteType        string     `db:"note_type" json:"note_type"`
	Summary         *string    `db:"summary" json:"summary"`
	RiskLevel       *string    `db:"risk_level" json:"risk_level"`
	Recommendations *string    `db:"recommendations" json:"recommendations"`
	KeyFindings     *string    `db:"key_findings" json:"key_findings"`
	AIProcessedAt   *time.Time `db:"ai_processed_at" json:"ai_processed_at"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// ListedNote is a note joined with its author and patient display names.
type ListedNote struct {
	Note
	AuthorName  string
	PatientName string
}

// NoteUpdate is a partial update; nil fields are left unchanged.
type NoteUpdate struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	NoteType *string `json:"note_type"`
}

// Filter narrows a note listing.
type Filter struct {
	NoteType  string
	PatientID *uuid.UUID
}

// AIResult is the persisted outcome of a summarization run.
type AIResult struct {
	Summary         string
	RiskLevel       summarize.RiskLevel
	Recommendations string
	KeyFindings     string
	ProcessedAt     time.Time
}

// NoteSummary is one row of the notes listing, with display fallbacks
// already applied.
type NoteSummary struct {
	ID              uuid.UUID           `json:"id"`
	PatientID       uuid.UUID           `json:"patient_id"`
	Title           string              `json:"title"`
	NoteType        string              `json:"note_type"`
	Content         string              `json:"content"`
	Summary         string              `json:"summary"`
	RiskLevel       summarize.RiskLevel `json:"risk_level"`
	Recommendations string              `json:"recommendations"`
	CreatedAt       time.Time           `json:"created_at"`
	AuthorName      string              `json:"author_name"`
	PatientName     string              `json:"patient_name"`
}

// SummaryView is the on-demand summary of a single note.
type SummaryView struct {
	NoteID uuid.UUID `json:"note_id"`
	summarize.StructuredSummary
}
