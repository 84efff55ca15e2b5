package driven

import "context"

// DocumentLoader extracts plain text from a regulation source file.
// The PDF adapter implements it for scanned regulation volumes; plain
// text files bypass it.
type DocumentLoader interface {
	// ExtractText returns the full text of the document at path.
	ExtractText(ctx context.Context, path string) (string, error)
}
