// Package ai summarizes clinical notes and assesses patient risk through a
// pluggable backend: the deterministic keyword summarizer, OpenAI or
// Anthropic. Service wraps a backend with the deterministic fallback.
package ai

import (
	"context"
	"errors"
)

// Provider names accepted by AI_PROVIDER.
const (
	ProviderDeterministic = "deterministic"
	ProviderMock          = "mock"
	ProviderOpenAI        = "openai"
	ProviderAnthropic     = "anthropic"
)

// ErrUnsupported is returned by a backend that does not implement an
// optional operation.
var ErrUnsupported = errors.New("ai: operation not supported by backend")

// ErrUnusable is returned when a backend answered but the answer could not
// be used.
var ErrUnusable = errors.New("ai: unusable model output")

// Summarizer is a note summarization backend.
type Summarizer interface {
	SummarizeNote(ctx context.Context, in NoteInput) (*NoteSummary, error)
	AssessRisk(ctx context.Context, in RiskInput) (*RiskAssessment, error)
	Name() string
}

// TreatmentAdvisor is implemented by backends that can draft treatment plans.
type TreatmentAdvisor interface {
	RecommendTreatment(ctx context.Context, in TreatmentInput) (*TreatmentPlan, error)
}

// OverviewWriter is implemented by backends that can write a short patient
// overview from recent notes.
type OverviewWriter interface {
	PatientOverview(ctx context.Context, patientName string, notes []string) (string, error)
}
