package documents

import "fmt"

// Validation error codes surfaced before analysis starts.
const (
	ErrCodeBadRequest        = "bad_request"
	ErrCodeEmptyFile         = "empty_file"
	ErrCodeFileTooLarge      = "file_too_large"
	ErrCodeUnsupportedType   = "unsupported_type"
	ErrCodeExtensionMismatch = "extension_mismatch"
)

// ValidationError rejects a submission before any analyzer runs.
// Metadata carries whatever was collected up to the rejection point.
type ValidationError struct {
	Code     string     `json:"code"`
	Detail   string     `json:"detail"`
	Metadata Submission `json:"metadata"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s): %s", e.Code, e.Detail)
}

// AnalysisError marks a component failure. It is never propagated past
// the pipeline: fusion folds it into a degraded ComponentResult.
type AnalysisError struct {
	Component string
	Err       error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("%s analysis failed: %v", e.Component, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }
