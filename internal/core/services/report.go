package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/raildock/raildoc/internal/core/domain"
	"github.com/raildock/raildoc/internal/core/ports/driven"
	"github.com/raildock/raildoc/internal/logger"
)

// Generation defaults. Temperature stays low: reports are extraction,
// not creative writing.
const (
	defaultMaxTokens   = 2048
	defaultTemperature = 0.2
)

// ReportService drives report generation and review against the LLM.
type ReportService struct {
	llm  driven.LLMService
	opts driven.GenerateOptions
}

// NewReportService creates a report service with default generation
// options.
func NewReportService(llm driven.LLMService) *ReportService {
	return &ReportService{
		llm: llm,
		opts: driven.GenerateOptions{
			MaxTokens:   defaultMaxTokens,
			Temperature: defaultTemperature,
		},
	}
}

// GenerateDraft produces the first report draft for one detection
// result.
func (s *ReportService) GenerateDraft(
	ctx context.Context,
	result *domain.VisionResult,
	category domain.Category,
	serial string,
	retrieval *RetrievalResult,
	runMetadata map[string]any,
) (string, error) {
	prompt := buildGenerationPrompt(result, category, serial, retrieval, runMetadata)
	logger.Debug("Generation prompt: %d chars, model %s", len(prompt), s.llm.ModelName())

	text, err := s.llm.Generate(ctx, prompt, s.opts)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty model response", domain.ErrGenerationFailed)
	}

	return text, nil
}

// Review runs the review pass over a draft and returns the cleaned
// corrected report. The detection result and retrieval context ground
// the reviewer's grade check.
func (s *ReportService) Review(
	ctx context.Context,
	draft string,
	result *domain.VisionResult,
	retrieval *RetrievalResult,
) (string, error) {
	text, err := s.llm.Generate(ctx, buildReviewPrompt(draft, result, retrieval), s.opts)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrReviewFailed, err)
	}

	cleaned := cleanReviewed(text)
	if cleaned == "" {
		return "", fmt.Errorf("%w: review returned no report body", domain.ErrReviewFailed)
	}

	return cleaned, nil
}

// cleanReviewed strips markdown code fences and drops any commentary
// before the first recognised section header.
func cleanReviewed(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	text = strings.Join(kept, "\n")

	first := -1
	for _, label := range domain.CanonicalSections {
		if i := strings.Index(text, "["+label+"]"); i >= 0 && (first < 0 || i < first) {
			first = i
		}
	}
	if first > 0 {
		text = text[first:]
	}

	return strings.TrimSpace(text)
}

// NewSerialNumber returns a report serial number: RPT-<yyyymmdd>-<6 hex>.
func NewSerialNumber(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("RPT-%s-%s", now.Format("20060102"), strings.ToUpper(suffix))
}
