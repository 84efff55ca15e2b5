package domain

import "strings"

// Canonical section labels of a generated inspection report, in the order
// the generation prompt requests them.
const (
	SectionSerialNumber    = "Serial Number"
	SectionRailCategory    = "Rail Category"
	SectionComponent       = "Component"
	SectionRouteInfo       = "Route Info"
	SectionEnvironmentInfo = "Environment Info"
	SectionDefectInfo      = "Defect Info"
	SectionRiskAssessment  = "Risk Assessment"
	SectionJudgmentBasis   = "Judgment Basis"
	SectionReferenceReg    = "Reference Regulation"
	SectionRecommended     = "Recommended Action"
	SectionActionResult    = "Action Result"
	SectionWorkHistory     = "Work History"
)

// CanonicalSections lists the recognised section labels in report order.
// Unrecognised labels in generated text are preserved verbatim by the parser.
var CanonicalSections = []string{
	SectionSerialNumber,
	SectionRailCategory,
	SectionComponent,
	SectionRouteInfo,
	SectionEnvironmentInfo,
	SectionDefectInfo,
	SectionRiskAssessment,
	SectionJudgmentBasis,
	SectionReferenceReg,
	SectionRecommended,
	SectionActionResult,
	SectionWorkHistory,
}

// RiskGrades is the closed set of risk grade codes, from no action
// required (E) to immediate replacement (S).
var RiskGrades = []string{"E", "O", "X1", "X2", "S"}

// ParsedReport holds the section map extracted from generated report text
// plus the derived sub-fields used for rendering and aggregation.
type ParsedReport struct {
	// Sections maps normalised section keys (lower case, underscores)
	// to trimmed section bodies.
	Sections map[string]string

	// Route and Location come from the Route Info section.
	Route    string
	Location string

	// DefectType and DefectState come from the Defect Info section.
	DefectType  string
	DefectState string

	// RiskGrade is one of RiskGrades, or empty when unresolvable.
	RiskGrade string

	// JudgmentBasis is the grade rationale, resolved across historical
	// label spellings.
	JudgmentBasis string

	// ReferenceRegulation lists the regulation IDs the report cites,
	// resolved across historical label spellings.
	ReferenceRegulation string

	// WorkDate and WorkDescription come from the Work History section.
	WorkDate        string
	WorkDescription string
}

// Section returns the body for a canonical section label, or "".
func (p *ParsedReport) Section(label string) string {
	return p.Sections[NormaliseSectionKey(label)]
}

// NormaliseSectionKey converts a bracket label to its map key form:
// trimmed, lower case, spaces replaced with underscores.
func NormaliseSectionKey(label string) string {
	key := strings.TrimSpace(label)
	key = strings.ToLower(key)
	return strings.ReplaceAll(key, " ", "_")
}
