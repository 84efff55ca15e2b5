// Package report extracts typed fields from generated inspection report
// text and repairs common text artefacts before rendering.
package report

import (
	"regexp"
	"strings"

	"github.com/raildock/raildoc/internal/core/domain"
)

// separatorRun matches decorative separator runs: three or more repeated
// dash, underscore, or box-drawing characters.
var separatorRun = regexp.MustCompile(`[-_=─━═]{3,}`)

// blankRun matches two or more consecutive blank lines.
var blankRun = regexp.MustCompile(`\n{3,}`)

// sectionHeader matches a `[Label]` header alone on a line.
var sectionHeader = regexp.MustCompile(`(?m)^\[([^\[\]\n]+)\][ \t]*$`)

// inlineSection matches a `[Label]` followed inline by text on the same
// line; the value runs to the next bracket or line end.
var inlineSection = regexp.MustCompile(`\[([^\[\]\n]+)\][ \t]*([^\[\n]+)`)

// Ordered candidate spellings for logical fields whose labels changed
// across report format revisions. First match wins.
var (
	judgmentBasisLabels = []string{
		"judgment_basis",
		"risk_grade_judgment_basis",
		"grade_judgment_basis",
		"judgment_rationale",
	}

	referenceRegLabels = []string{
		"reference_regulation",
		"reference_regulations",
		"referenced_regulation",
		"referenced_regulations",
	}
)

// environmentSubLabels is the fixed ordered list of environment fields.
// Generated text sometimes concatenates them on one physical line, so
// each value is captured up to whichever other sub-label appears next.
var environmentSubLabels = []string{"Weather", "Temperature", "Humidity"}

// Parser extracts named bracket-delimited fields from generated report
// text. Parsing is pure and never fails; unmatched sections are simply
// absent from the result.
type Parser struct{}

// NewParser creates a section parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse extracts all sections and derived sub-fields from reportText.
func (p *Parser) Parse(reportText string) *domain.ParsedReport {
	cleaned := stripDecoration(reportText)

	parsed := &domain.ParsedReport{
		Sections: make(map[string]string),
	}

	p.parseHeaderSections(cleaned, parsed.Sections)
	p.parseInlineSections(cleaned, parsed.Sections)
	p.deriveSubFields(parsed)

	return parsed
}

// stripDecoration removes decorative separator runs and collapses
// consecutive blank lines.
func stripDecoration(text string) string {
	text = separatorRun.ReplaceAllString(text, "")
	text = blankRun.ReplaceAllString(text, "\n\n")
	return text
}

// parseHeaderSections is the primary pass: every `[Label]` alone on a
// line captures the text up to the next header or end of text.
func (p *Parser) parseHeaderSections(text string, sections map[string]string) {
	headers := sectionHeader.FindAllStringSubmatchIndex(text, -1)

	for i, h := range headers {
		label := text[h[2]:h[3]]

		bodyStart := h[1]
		bodyEnd := len(text)
		if i+1 < len(headers) {
			bodyEnd = headers[i+1][0]
		}
		// Any bracket at line start ends the body, including inline
		// `[Label] value` lines handled by the secondary pass.
		if j := strings.Index(text[bodyStart:bodyEnd], "\n["); j >= 0 {
			bodyEnd = bodyStart + j
		}

		key := domain.NormaliseSectionKey(label)
		sections[key] = strings.TrimSpace(text[bodyStart:bodyEnd])
	}
}

// parseInlineSections is the secondary pass: `[Label] value` on one
// line. It only fills keys the primary pass left empty or absent.
func (p *Parser) parseInlineSections(text string, sections map[string]string) {
	for _, m := range inlineSection.FindAllStringSubmatch(text, -1) {
		key := domain.NormaliseSectionKey(m[1])
		if sections[key] != "" {
			continue
		}

		value := strings.TrimSpace(m[2])
		value = strings.TrimSpace(strings.TrimPrefix(value, ":"))
		if value != "" {
			sections[key] = value
		}
	}
}

// deriveSubFields pulls the typed sub-fields out of composite sections.
func (p *Parser) deriveSubFields(parsed *domain.ParsedReport) {
	if route := parsed.Section(domain.SectionRouteInfo); route != "" {
		parsed.Route = subValueLine(route, "Route")
		parsed.Location = subValueLine(route, "Location")
	}

	if defect := parsed.Section(domain.SectionDefectInfo); defect != "" {
		parsed.DefectType = subValueLine(defect, "Defect Type")
		parsed.DefectState = subValueBlock(defect, "Defect State", []string{"Defect Type"})
	}

	parsed.RiskGrade = resolveRiskGrade(parsed.Section(domain.SectionRiskAssessment))

	parsed.JudgmentBasis = firstCandidate(parsed.Sections, judgmentBasisLabels)
	parsed.ReferenceRegulation = firstCandidate(parsed.Sections, referenceRegLabels)

	if history := parsed.Section(domain.SectionWorkHistory); history != "" {
		parsed.WorkDate = subValueLine(history, "Work Date")
		parsed.WorkDescription = subValueLine(history, "Work Description")
	}

	if env := parsed.Section(domain.SectionEnvironmentInfo); env != "" {
		for _, label := range environmentSubLabels {
			key := domain.NormaliseSectionKey(label)
			if value := subValueUntilOthers(env, label, environmentSubLabels); value != "" {
				parsed.Sections[key] = value
			}
		}
	}
}

// firstCandidate resolves a logical field across its historical label
// spellings, trying candidates in priority order.
func firstCandidate(sections map[string]string, candidates []string) string {
	for _, key := range candidates {
		if value := sections[key]; value != "" {
			return value
		}
	}
	return ""
}

// resolveRiskGrade extracts the risk grade from a Risk Assessment
// section body: an explicit `Risk Grade: X` sub-label when present,
// else a closed-set code match at the start of the first line.
func resolveRiskGrade(section string) string {
	if section == "" {
		return ""
	}

	if value := subValueLine(section, "Risk Grade"); value != "" {
		if grade := matchGradeCode(value); grade != "" {
			return grade
		}
	}

	firstLine := section
	if i := strings.IndexByte(firstLine, '\n'); i >= 0 {
		firstLine = firstLine[:i]
	}
	return matchGradeCode(strings.TrimSpace(firstLine))
}

// matchGradeCode matches one of the five grade codes at the start of s.
// Two-character codes are tried first so "X2" does not stop at "X".
func matchGradeCode(s string) string {
	for _, grade := range []string{"X1", "X2", "E", "O", "S"} {
		if !strings.HasPrefix(s, grade) {
			continue
		}
		rest := s[len(grade):]
		if rest == "" || !isWordByte(rest[0]) {
			return grade
		}
	}
	return ""
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= '0' && b <= '9') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= 'a' && b <= 'z')
}

// subValueLine captures `Label: value` up to the end of the physical
// line.
func subValueLine(section, label string) string {
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(label) + `\s*:\s*(.+?)(?:\n|$)`)
	m := re.FindStringSubmatch(section)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// subValueBlock captures `Label: value` where the value may span lines,
// ending at a blank line, one of the other sub-labels, or end of text.
func subValueBlock(section, label string, others []string) string {
	re := regexp.MustCompile(`(?is)` + regexp.QuoteMeta(label) + `\s*:\s*(.+)`)
	m := re.FindStringSubmatchIndex(section)
	if m == nil {
		return ""
	}

	value := section[m[2]:m[3]]

	end := len(value)
	if i := strings.Index(value, "\n\n"); i >= 0 && i < end {
		end = i
	}
	for _, other := range others {
		if i := indexFold(value, other+":"); i >= 0 && i < end {
			end = i
		}
	}

	return strings.TrimSpace(value[:end])
}

// subValueUntilOthers captures `Label: value` where the value ends at
// whichever other sub-label occurs next, not merely at end-of-line.
// This handles sub-labels concatenated on one physical line.
func subValueUntilOthers(section, label string, all []string) string {
	start := indexFold(section, label+":")
	if start < 0 {
		return ""
	}
	start += len(label) + 1

	value := section[start:]

	end := len(value)
	for _, other := range all {
		if strings.EqualFold(other, label) {
			continue
		}
		if i := indexFold(value, other+":"); i >= 0 && i < end {
			end = i
		}
	}
	// A blank line still terminates the section's own run.
	if i := strings.Index(value, "\n\n"); i >= 0 && i < end {
		end = i
	}

	return strings.TrimSpace(value[:end])
}

// indexFold is a case-insensitive strings.Index.
func indexFold(s, substr string) int {
	return strings.Index(strings.ToLower(s), strings.ToLower(substr))
}
