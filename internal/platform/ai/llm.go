package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	analyticTemperature = 0.1
	creativeTemperature = 0.7
	jsonAttempts        = 2
)

// chatModel sends one system + user exchange to a hosted model.
type chatModel interface {
	complete(ctx context.Context, system, user string, temperature float64) (string, error)
	provider() string
	model() string
}

// llmBackend implements every operation on top of a chatModel using JSON
// prompts.
type llmBackend struct {
	chat chatModel
	now  func() time.Time
}

func newLLMBackend(chat chatModel) *llmBackend {
	return &llmBackend{chat: chat, now: time.Now}
}

func (b *llmBackend) Name() string { return b.chat.provider() }

func (b *llmBackend) SummarizeNote(ctx context.Context, in NoteInput) (*NoteSummary, error) {
	var out NoteSummary
	err := b.generateJSON(ctx, summarySystemPrompt, summaryPrompt(in), analyticTemperature, &out, func() error {
		if strings.TrimSpace(string(out.Summary)) == "" {
			return errors.New("summary is empty")
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s summarize: %w", b.Name(), err)
	}
	now := b.now().UTC()
	out.AIGenerated = true
	out.Mock = false
	out.Model = b.chat.model()
	out.GeneratedAt = &now
	return &out, nil
}

func (b *llmBackend) AssessRisk(ctx context.Context, in RiskInput) (*RiskAssessment, error) {
	var out RiskAssessment
	err := b.generateJSON(ctx, riskSystemPrompt, riskPrompt(in), analyticTemperature, &out, func() error {
		if !out.RiskLevel.Valid() {
			return errors.New("risk_level must be one of LOW, MEDIUM, HIGH, CRITICAL")
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s risk: %w", b.Name(), err)
	}
	out.AIGenerated = true
	out.Mock = false
	return &out, nil
}

func (b *llmBackend) RecommendTreatment(ctx context.Context, in TreatmentInput) (*TreatmentPlan, error) {
	var out TreatmentPlan
	err := b.generateJSON(ctx, treatmentSystemPrompt, treatmentPrompt(in), creativeTemperature, &out, func() error {
		if strings.TrimSpace(string(out.PrimaryTreatment)) == "" {
			return errors.New("primary_treatment is empty")
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s treatment: %w", b.Name(), err)
	}
	if out.Medications == nil {
		out.Medications = []Medication{}
	}
	out.AIGenerated = true
	out.Mock = false
	return &out, nil
}

func (b *llmBackend) PatientOverview(ctx context.Context, patientName string, notes []string) (string, error) {
	if len(notes) == 0 {
		return noEncountersOverview, nil
	}
	text, err := b.chat.complete(ctx, overviewSystemPrompt, overviewPrompt(patientName, notes), analyticTemperature)
	if err != nil {
		return "", fmt.Errorf("%s overview: %w", b.Name(), err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%s overview: %w", b.Name(), ErrUnusable)
	}
	return text, nil
}

// generateJSON asks for a JSON reply and decodes it into out. A reply that
// does not parse or fails validate is retried once with feedback.
func (b *llmBackend) generateJSON(ctx context.Context, system, prompt string, temperature float64, out interface{}, validate func() error) error {
	feedback := ""
	var lastErr error
	for attempt := 1; attempt <= jsonAttempts; attempt++ {
		user := prompt
		if feedback != "" {
			user += "\n\n" + feedback
		}

		raw, err := b.chat.complete(ctx, system, user, temperature)
		if err != nil {
			return err
		}

		obj, err := extractJSON(raw)
		if err != nil {
			lastErr = err
			feedback = "Your previous response was not valid JSON. Respond with only valid JSON."
			continue
		}
		if err := json.Unmarshal([]byte(obj), out); err != nil {
			lastErr = fmt.Errorf("decode: %w", err)
			feedback = "Your previous response was not valid JSON. Respond with only valid JSON."
			continue
		}
		if err := validate(); err != nil {
			lastErr = err
			feedback = fmt.Sprintf("Your response failed validation: %s. Fix these issues.", err)
			continue
		}
		return nil
	}
	return fmt.Errorf("%w: %v", ErrUnusable, lastErr)
}

// extractJSON returns the text from the first '{' to the last '}', after
// stripping markdown code fences.
func extractJSON(raw string) (string, error) {
	s := stripCodeFences(raw)
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", errors.New("no JSON object in model output")
	}
	return s[start : end+1], nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if parts := strings.SplitN(s, "\n", 2); len(parts) == 2 {
			s = parts[1]
		}
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}
