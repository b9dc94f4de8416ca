package extract

import (
	domain "github.com/bryanwahyu/docutrust/internal/domain/documents"
)

// Extractor turns submission bytes into inspectable text. PDF input also
// yields the embedded font profile.
type Extractor struct{}

func New() Extractor { return Extractor{} }

func (Extractor) Extract(data []byte, sub domain.Submission) (string, *domain.FontProfile, error) {
	switch sub.Extension {
	case ".txt", ".csv":
		return string(data), nil, nil
	case ".pdf":
		return scanPDF(data)
	default:
		// OLE/OOXML containers: salvage readable runs, no font data
		return printableRuns(data), nil, nil
	}
}
