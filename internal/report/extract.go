package report

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// Extractor turns a document file into plain text.
type Extractor interface {
	Extract(path string) (string, error)
}

// PDFExtractor reads the text layer of a PDF.
type PDFExtractor struct{}

// Extract returns the plain text of every page.
func (PDFExtractor) Extract(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}
