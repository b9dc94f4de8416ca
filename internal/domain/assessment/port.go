package assessment

import "context"

// AssessmentStatus values returned by the external collaborator.
const (
	StatusPass           = "PASS"
	StatusFailed         = "FAILED"
	StatusReviewRequired = "REVIEW_REQUIRED"
	StatusIncomplete     = "INCOMPLETE"
)

// Result is the opaque document-assessment verdict.
type Result struct {
	Status          string   `json:"status"`
	ConfidenceScore float64  `json:"confidence_score"`
	IssuesDetected  []string `json:"issues_detected"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// Assessor port untuk external document-assessment collaborator
type Assessor interface {
	Assess(ctx context.Context, fileName string, text string) (*Result, error)
}
