// Package chunker splits regulation documents into ID-bounded units
// with boundary overlap for retrieval continuity.
package chunker

import (
	"regexp"
	"strings"

	"github.com/raildock/raildoc/internal/core/domain"
)

// DefaultChunkSize is the default target unit size in characters.
const DefaultChunkSize = 500

// DefaultOverlap is the default number of boundary characters duplicated
// across neighbouring units.
const DefaultOverlap = 200

// markerPrefix is the literal label opening a unit marker line.
const markerPrefix = "[Regulation ID]:"

// markerPattern matches a unit marker line: `[Regulation ID]: RAIL-MNT-001`.
var markerPattern = regexp.MustCompile(`\[Regulation ID\]:\s*[\w-]+`)

// fieldPattern matches one `[Label]: value` metadata occurrence; the value
// runs to the next label line, a blank line, or end of text.
var fieldPattern = regexp.MustCompile(`(?s)\[([^\]\n]+)\]:\s*(.+?)(?:\n\[|\n\n|$)`)

// Chunker splits raw regulation text into RegulationUnits.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the target unit size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the boundary overlap in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Overlap returns the configured boundary overlap.
func (c *Chunker) Overlap() int {
	return c.overlap
}

// Chunk splits text into one unit per `[Regulation ID]:` marker.
// Text before the first marker is discarded. A marker-less document
// produces zero units and no error.
func (c *Chunker) Chunk(text string) []domain.RegulationUnit {
	locs := markerPattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	// Base content per unit: marker line through the text up to the
	// next marker.
	type base struct {
		id      string
		content string
	}
	bases := make([]base, 0, len(locs))

	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}

		markerLine := strings.TrimSpace(text[loc[0]:loc[1]])
		id := strings.TrimSpace(strings.TrimPrefix(markerLine, markerPrefix))

		// Unit content spans the marker line through the text up to
		// the next marker.
		content := strings.TrimSpace(text[loc[0]:end])

		bases = append(bases, base{id: id, content: content})
	}

	// Overlap is applied from base contents so that re-chunking the
	// same text yields identical (id, index) sequences.
	units := make([]domain.RegulationUnit, len(bases))
	for i, b := range bases {
		content := b.content

		if i > 0 {
			prev := bases[i-1].content
			content = "..." + tail(prev, c.overlap) + "\n\n" + content
		}
		if i < len(bases)-1 {
			next := bases[i+1].content
			content = content + "\n\n" + head(next, c.overlap) + "..."
		}

		units[i] = domain.RegulationUnit{
			ID:         b.id,
			Content:    content,
			Index:      i,
			TotalUnits: len(bases),
			Fields:     ExtractMetadata(b.content),
		}
	}

	return units
}

// ExtractMetadata scans content for `[Label]: value` occurrences and
// returns them as a map. Label spaces become underscores; the unit's own
// Regulation_ID key is skipped. Unknown labels are opaque pass-through
// data, never fixed typed fields.
func ExtractMetadata(content string) map[string]string {
	fields := make(map[string]string)

	rest := content
	for len(rest) > 0 {
		m := fieldPattern.FindStringSubmatchIndex(rest)
		if m == nil {
			break
		}

		label := rest[m[2]:m[3]]
		value := rest[m[4]:m[5]]

		key := strings.ReplaceAll(strings.TrimSpace(label), " ", "_")
		if key != "Regulation_ID" {
			fields[key] = strings.TrimSpace(value)
		}

		// Resume at the value end so a `\n[` terminator is re-seen as
		// the start of the next field.
		rest = rest[m[5]:]
	}

	return fields
}

// tail returns the last n characters of s, or all of s when shorter.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// head returns the first n characters of s, or all of s when shorter.
func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
