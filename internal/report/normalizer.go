package report

import (
	"regexp"
	"strings"
)

// BreakToken is the rendering-level break marker emitted in place of raw
// line breaks at list and paragraph boundaries.
const BreakToken = "<br/>"

// listTag is the interim marker protecting list-item starts across the
// blanket break-to-space step. It never appears in input or output.
const listTag = "\x00br\x00"

// maxRepairPasses bounds the FixInlineBreaks fixpoint loop. Every rule
// strictly reduces the embedded break count, so convergence is fast.
const maxRepairPasses = 10

type rewriteRule struct {
	pattern     *regexp.Regexp
	replacement string
}

// inlineBreakRules repair spurious line breaks inserted by generation.
// Order matters: numeric rejoins run before the looser word/number rule.
var inlineBreakRules = []rewriteRule{
	// Break inside a parenthesized span becomes a space.
	{regexp.MustCompile(`\(([^()\n]*)\n\s*([^()]*?)\)`), "($1 $2)"},

	// Decimal number split around the point.
	{regexp.MustCompile(`(\d)[ \t]*\n[ \t]*(\.\d)`), "$1$2"},
	{regexp.MustCompile(`(\d\.)[ \t]*\n[ \t]*(\d)`), "$1$2"},

	// Numeral separated from its unit or percent symbol.
	{regexp.MustCompile(`(\d)[ \t]*\n[ \t]*(%|℃|°C|[A-Za-z]{1,3}\b)`), "$1$2"},

	// Word, comma, or colon separated from a following numeral.
	{regexp.MustCompile(`([A-Za-z][,:]?)[ \t]*\n[ \t]*(\d)`), "$1 $2"},

	// Runs of blank lines.
	{regexp.MustCompile(`\n{3,}`), "\n\n"},
}

// listStartPattern matches a list-item start: `N. ` or `- ` at the start
// of text, of a line, or after whitespace when the preceding break was
// dropped upstream.
var listStartPattern = regexp.MustCompile(`(^|\n|\s)(\d+\.[ \t]+|-[ \t]+)`)

var (
	repeatedBreakToken = regexp.MustCompile(`(?:` + regexp.QuoteMeta(BreakToken) + `\s*){2,}`)
	spaceRun           = regexp.MustCompile(`[ \t]{2,}`)
)

// FixInlineBreaks deterministically repairs spurious line breaks in
// generated text. The rule list runs to a fixpoint; the result is
// idempotent, a second application returns its input unchanged.
func FixInlineBreaks(text string) string {
	for pass := 0; pass < maxRepairPasses; pass++ {
		repaired := text
		for _, rule := range inlineBreakRules {
			repaired = rule.pattern.ReplaceAllString(repaired, rule.replacement)
		}
		if repaired == text {
			return repaired
		}
		text = repaired
	}
	return text
}

// FormatActionList flattens multi-line action text into a single line
// with BreakToken marking list-item boundaries. List starts are tagged
// first so they survive the blanket break-to-space step; repeated tokens
// collapse and a leading token is stripped. The output contains no raw
// line breaks.
func FormatActionList(text string) string {
	tagged := listStartPattern.ReplaceAllString(text, "$1"+listTag+"$2")

	flat := strings.ReplaceAll(tagged, "\n", " ")
	flat = strings.ReplaceAll(flat, listTag, BreakToken)

	flat = spaceRun.ReplaceAllString(flat, " ")
	flat = repeatedBreakToken.ReplaceAllString(flat, BreakToken)

	flat = strings.TrimSpace(flat)
	flat = strings.TrimPrefix(flat, BreakToken)
	return strings.TrimSpace(flat)
}
