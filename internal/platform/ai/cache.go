package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/rs/zerolog"

	"github.com/medinotes/notes-api/internal/platform/cache"
)

// JSONCache stores JSON values by key. *cache.JSON implements it.
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) error
	SetJSON(ctx context.Context, key string, v interface{}) error
}

// CachedSummarizer memoizes note summaries of an expensive backend.
// Cache failures are logged and otherwise ignored.
type CachedSummarizer struct {
	inner  Summarizer
	cache  JSONCache
	logger zerolog.Logger
}

func NewCachedSummarizer(inner Summarizer, c JSONCache, logger zerolog.Logger) *CachedSummarizer {
	return &CachedSummarizer{inner: inner, cache: c, logger: logger}
}

func (c *CachedSummarizer) Name() string { return c.inner.Name() }

// SummaryCacheKey is <provider>:<sha256(note_type|content)>; the cache adds
// its own prefix.
func SummaryCacheKey(provider, noteType, content string) string {
	sum := sha256.Sum256([]byte(noteTypeOrDefault(noteType) + "|" + content))
	return provider + ":" + hex.EncodeToString(sum[:])
}

func (c *CachedSummarizer) SummarizeNote(ctx context.Context, in NoteInput) (*NoteSummary, error) {
	key := SummaryCacheKey(c.inner.Name(), in.NoteType, in.Content)

	var cached NoteSummary
	err := c.cache.GetJSON(ctx, key, &cached)
	switch {
	case err == nil:
		return &cached, nil
	case !errors.Is(err, cache.ErrMiss):
		c.logger.Warn().Err(err).Str("provider", c.inner.Name()).Msg("summary cache read failed")
	}

	out, err := c.inner.SummarizeNote(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := c.cache.SetJSON(ctx, key, out); err != nil {
		c.logger.Warn().Err(err).Str("provider", c.inner.Name()).Msg("summary cache write failed")
	}
	return out, nil
}

func (c *CachedSummarizer) AssessRisk(ctx context.Context, in RiskInput) (*RiskAssessment, error) {
	return c.inner.AssessRisk(ctx, in)
}

func (c *CachedSummarizer) RecommendTreatment(ctx context.Context, in TreatmentInput) (*TreatmentPlan, error) {
	if a, ok := c.inner.(TreatmentAdvisor); ok {
		return a.RecommendTreatment(ctx, in)
	}
	return nil, ErrUnsupported
}

func (c *CachedSummarizer) PatientOverview(ctx context.Context, patientName string, notes []string) (string, error) {
	if w, ok := c.inner.(OverviewWriter); ok {
		return w.PatientOverview(ctx, patientName, notes)
	}
	return "", ErrUnsupported
}
