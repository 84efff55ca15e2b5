package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raildock/raildoc/internal/core/domain"
)

func sampleVisionResult() *domain.VisionResult {
	return &domain.VisionResult{
		AssetFile: "0001.jpg",
		IsAnomaly: true,
		Detections: []domain.Detection{
			{ComponentName: "fastening clip", RailCategory: "rail", DefectDetail: "crack", Confidence: 0.91},
		},
	}
}

func TestGenerateDraft_PromptContents(t *testing.T) {
	llm := &fakeLLM{response: "[Serial Number]\nRPT-X\n"}
	s := NewReportService(llm)

	retrieval := &RetrievalResult{
		Query:  "fastening clip crack rail",
		Chunks: []domain.RetrievedChunk{{Content: "torque the bolt to 120Nm", SourceID: "RAIL-MNT-001"}},
		Used:   true,
	}
	runMetadata := map[string]any{"site": "depot-3"}

	_, err := s.GenerateDraft(context.Background(), sampleVisionResult(),
		domain.CategoryRail, "RPT-20260825-ABC123", retrieval, runMetadata)
	require.NoError(t, err)

	require.Len(t, llm.prompts, 1)
	prompt := llm.prompts[0]
	assert.Contains(t, prompt, "fastening clip")
	assert.Contains(t, prompt, "torque the bolt to 120Nm")
	assert.Contains(t, prompt, "RPT-20260825-ABC123")
	assert.Contains(t, prompt, "site: depot-3")
	for _, label := range domain.CanonicalSections {
		assert.Contains(t, prompt, "["+label+"]")
	}
}

func TestGenerateDraft_NoRetrievalContext(t *testing.T) {
	llm := &fakeLLM{response: "[Serial Number]\nRPT-X\n"}
	s := NewReportService(llm)

	_, err := s.GenerateDraft(context.Background(), sampleVisionResult(),
		domain.CategoryRail, "RPT-1", nil, nil)
	require.NoError(t, err)

	assert.NotContains(t, llm.prompts[0], "Relevant regulations")
}

func TestGenerateDraft_ErrorWrapped(t *testing.T) {
	llm := &fakeLLM{err: errors.New("quota exceeded")}
	s := NewReportService(llm)

	_, err := s.GenerateDraft(context.Background(), sampleVisionResult(),
		domain.CategoryRail, "RPT-1", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
}

func TestGenerateDraft_EmptyResponse(t *testing.T) {
	llm := &fakeLLM{response: "  \n "}
	s := NewReportService(llm)

	_, err := s.GenerateDraft(context.Background(), sampleVisionResult(),
		domain.CategoryRail, "RPT-1", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
}

func TestReview_PromptCarriesDetectionsAndRubric(t *testing.T) {
	llm := &fakeLLM{response: "[Serial Number]\nRPT-1\n"}
	s := NewReportService(llm)

	retrieval := &RetrievalResult{
		Chunks: []domain.RetrievedChunk{{Content: "replace cracked clips within ten days", SourceID: "RAIL-MNT-002"}},
		Used:   true,
	}

	_, err := s.Review(context.Background(), "[Risk Assessment]\nRisk Grade: S\n", sampleVisionResult(), retrieval)
	require.NoError(t, err)

	require.Len(t, llm.prompts, 1)
	prompt := llm.prompts[0]
	assert.Contains(t, prompt, "fastening clip")
	assert.Contains(t, prompt, "confidence: 0.91")
	assert.Contains(t, prompt, "Risk grades:")
	assert.Contains(t, prompt, "replace cracked clips within ten days")
	assert.Contains(t, prompt, "Risk Grade: S")
}

func TestReview_NoRetrievalContext(t *testing.T) {
	llm := &fakeLLM{response: "[Serial Number]\nRPT-1\n"}
	s := NewReportService(llm)

	_, err := s.Review(context.Background(), "draft", sampleVisionResult(), nil)
	require.NoError(t, err)

	assert.NotContains(t, llm.prompts[0], "Relevant regulations")
	assert.Contains(t, llm.prompts[0], "Risk grades:")
}

func TestReview_StripsFencesAndPreamble(t *testing.T) {
	llm := &fakeLLM{response: "Here is the corrected report:\n```\n[Serial Number]\nRPT-1\n\n[Component]\nrail clip\n```\n"}
	s := NewReportService(llm)

	reviewed, err := s.Review(context.Background(), "draft", sampleVisionResult(), nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(reviewed, "[Serial Number]"), "got %q", reviewed)
	assert.NotContains(t, reviewed, "```")
	assert.NotContains(t, reviewed, "corrected report")
}

func TestReview_ErrorWrapped(t *testing.T) {
	llm := &fakeLLM{err: errors.New("timeout")}
	s := NewReportService(llm)

	_, err := s.Review(context.Background(), "draft", sampleVisionResult(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrReviewFailed)
}

func TestReview_NoReportBody(t *testing.T) {
	llm := &fakeLLM{response: "```\n```"}
	s := NewReportService(llm)

	_, err := s.Review(context.Background(), "draft", sampleVisionResult(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrReviewFailed)
}

func TestCleanReviewed_KeepsBodyWithoutHeaders(t *testing.T) {
	// Text with no recognised header is kept as-is (minus fences).
	got := cleanReviewed("plain corrected text")
	assert.Equal(t, "plain corrected text", got)
}

func TestNewSerialNumber_Format(t *testing.T) {
	now := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	serial := NewSerialNumber(now)

	assert.Regexp(t, regexp.MustCompile(`^RPT-20260825-[0-9A-F]{6}$`), serial)
}

func TestNewSerialNumber_Distinct(t *testing.T) {
	now := time.Now()
	assert.NotEqual(t, NewSerialNumber(now), NewSerialNumber(now))
}
