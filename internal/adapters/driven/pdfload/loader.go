// Package pdfload provides a DocumentLoader for PDF regulation volumes.
package pdfload

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/raildock/raildoc/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

// Loader extracts plain text from PDF files.
type Loader struct{}

// NewLoader creates a PDF loader.
func NewLoader() *Loader {
	return &Loader{}
}

// ExtractText returns the concatenated plain text of every page.
func (l *Loader) ExtractText(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	plainText, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text %s: %w", path, err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plainText); err != nil {
		return "", fmt.Errorf("read pdf text %s: %w", path, err)
	}

	return buf.String(), nil
}
