package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/raildock/raildoc/internal/core/domain"
)

// gradeCriteria is the fixed risk-grade rubric included in every
// generation prompt.
const gradeCriteria = `Risk grades:
- E: no defect, no action required
- O: minor defect, monitor at the next scheduled inspection
- X1: defect requiring repair within the maintenance cycle
- X2: defect requiring prompt repair before the next cycle
- S: severe defect, immediate replacement required`

// actionItemFormat is the required shape of recommended-action lines.
const actionItemFormat = `Format each recommended action as:
- <component> (<grade>, <regulation id>): <action>`

// buildGenerationPrompt assembles the report-generation prompt from the
// detection facts, the retrieved regulation context, and the run
// metadata.
func buildGenerationPrompt(
	result *domain.VisionResult,
	category domain.Category,
	serial string,
	retrieval *RetrievalResult,
	runMetadata map[string]any,
) string {
	var b strings.Builder

	b.WriteString("You are a rail facility maintenance engineer. ")
	b.WriteString("Write a structured inspection report for the detection results below.\n\n")

	fmt.Fprintf(&b, "Inspection category: %s\n", category.DisplayName())
	fmt.Fprintf(&b, "Report serial number: %s\n", serial)
	fmt.Fprintf(&b, "Source image: %s\n", result.AssetFile)
	fmt.Fprintf(&b, "Anomaly detected: %t\n\n", result.IsAnomaly)

	if len(result.Detections) > 0 {
		b.WriteString("Detections:\n")
		for _, d := range result.Detections {
			fmt.Fprintf(&b, "- component: %s, category: %s, detail: %s, confidence: %.2f\n",
				d.ComponentName, d.RailCategory, d.DefectDetail, d.Confidence)
		}
		b.WriteString("\n")
	}

	if len(runMetadata) > 0 {
		b.WriteString("Run metadata:\n")
		keys := make([]string, 0, len(runMetadata))
		for k := range runMetadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %v\n", k, runMetadata[k])
		}
		b.WriteString("\n")
	}

	if retrieval != nil && retrieval.Used {
		b.WriteString("Relevant regulations:\n")
		for _, chunk := range retrieval.Chunks {
			fmt.Fprintf(&b, "---\n%s\n", chunk.Content)
		}
		b.WriteString("---\n\n")
	}

	b.WriteString(gradeCriteria)
	b.WriteString("\n\n")
	b.WriteString(actionItemFormat)
	b.WriteString("\n\n")

	b.WriteString("Write every section below, each as `[Section Name]` on its own line followed by its content:\n")
	for _, label := range domain.CanonicalSections {
		fmt.Fprintf(&b, "[%s]\n", label)
	}
	b.WriteString("\nCite regulation IDs in the Reference Regulation section. Answer with the report only.\n")

	return b.String()
}

// buildReviewPrompt assembles the review prompt for a generated draft.
// The reviewer sees the detection facts and the grade rubric so it can
// cross-check the reported grade against what was actually detected.
func buildReviewPrompt(draft string, result *domain.VisionResult, retrieval *RetrievalResult) string {
	var b strings.Builder

	b.WriteString("Review the inspection report below against the detection results. ")
	b.WriteString("Correct factual inconsistencies between the report and the detections, ")
	b.WriteString("fix formatting of section headers, and keep the risk grade consistent ")
	b.WriteString("with the judgment basis and the grade criteria. Do not invent new ")
	b.WriteString("defects. Keep every `[Section Name]` header.\n\n")

	if result != nil && len(result.Detections) > 0 {
		b.WriteString("Detections:\n")
		for _, d := range result.Detections {
			fmt.Fprintf(&b, "- component: %s, category: %s, detail: %s, confidence: %.2f\n",
				d.ComponentName, d.RailCategory, d.DefectDetail, d.Confidence)
		}
		b.WriteString("\n")
	}

	if retrieval != nil && retrieval.Used {
		b.WriteString("Relevant regulations:\n")
		for _, chunk := range retrieval.Chunks {
			fmt.Fprintf(&b, "---\n%s\n", chunk.Content)
		}
		b.WriteString("---\n\n")
	}

	b.WriteString(gradeCriteria)
	b.WriteString("\n\nReport to review:\n\n")
	b.WriteString(draft)
	b.WriteString("\n\nAnswer with the corrected report only, no commentary.\n")

	return b.String()
}
