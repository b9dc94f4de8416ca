package documents

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"

	domainassess "github.com/bryanwahyu/docutrust/internal/domain/assessment"
	domain "github.com/bryanwahyu/docutrust/internal/domain/documents"
)

// Component names as they appear in reports.
const (
	ComponentFormat     = "format_validation"
	ComponentImage      = "image_analysis"
	ComponentAssessment = "document_processing"
)

// Fuse combines component results into one bounded assessment.
// Deterministic: equal inputs always produce equal output (timestamp aside).
func Fuse(results []domain.ComponentResult, now time.Time) domain.RiskAssessment {
	var total float64
	maxSev := domain.SeverityLow

	for i := range results {
		results[i].Score = domain.ClampScore(results[i].Score)
		total += results[i].Score
		maxSev = domain.MaxSeverity(maxSev, results[i].Severity)
	}

	var overall float64
	if len(results) > 0 {
		overall = domain.ClampScore(total / float64(len(results)))
	}

	status := statusFor(overall, maxSev)

	return domain.RiskAssessment{
		OverallScore:     overall,
		Status:           status,
		MaxSeverity:      maxSev,
		ComponentResults: results,
		Recommendation:   recommendationFor(status, overall),
		Timestamp:        now,
	}
}

// statusFor applies the ordered threshold checks; first match wins.
func statusFor(score float64, maxSev domain.Severity) domain.Status {
	switch {
	case score < 20 && maxSev == domain.SeverityLow:
		return domain.StatusApproved
	case score < 40 && maxSev <= domain.SeverityMedium:
		return domain.StatusApprovedWithNotes
	case score < 70:
		return domain.StatusReviewRequired
	default:
		return domain.StatusRejected
	}
}

func recommendationFor(status domain.Status, score float64) string {
	switch status {
	case domain.StatusApproved:
		return fmt.Sprintf("Document meets all requirements and can be approved. (Risk Score: %.1f)", score)
	case domain.StatusApprovedWithNotes:
		return fmt.Sprintf("Document is acceptable but has minor issues that should be noted. (Risk Score: %.1f)", score)
	case domain.StatusReviewRequired:
		return fmt.Sprintf("Document requires manual review by compliance officer before proceeding. (Risk Score: %.1f)", score)
	default:
		return fmt.Sprintf("Document does not meet requirements and should be rejected. (Risk Score: %.1f)", score)
	}
}

// DegradedResult stands in for an analyzer that failed. Never dropped:
// it contributes to the average like any other component.
func DegradedResult(component string, err error) domain.ComponentResult {
	return domain.ComponentResult{
		Component: component,
		Score:     80,
		Severity:  domain.SeverityHigh,
		Findings: []domain.Finding{{
			Type:        "analysis_failed",
			Severity:    domain.SeverityHigh,
			Description: fmt.Sprintf("%s failed: %v", component, err),
		}},
	}
}

// assessmentStatusRisk maps collaborator statuses to base risk.
var assessmentStatusRisk = map[string]float64{
	domainassess.StatusPass:           10,
	domainassess.StatusReviewRequired: 40,
	domainassess.StatusIncomplete:     60,
	domainassess.StatusFailed:         80,
}

// AssessmentComponent folds the external document-assessment result into
// a component result. A nil result or error yields a degraded component.
func AssessmentComponent(res *domainassess.Result, err error) domain.ComponentResult {
	if err != nil || res == nil {
		if err == nil {
			err = fmt.Errorf("no assessment returned")
		}
		return DegradedResult(ComponentAssessment, err)
	}

	score, ok := assessmentStatusRisk[res.Status]
	if !ok {
		score = 50
	}

	var findings []domain.Finding
	for _, issue := range res.IssuesDetected {
		findings = append(findings, domain.Finding{
			Type:        "assessment_issue",
			Severity:    domain.SeverityMedium,
			Description: issue,
		})
	}
	if res.ConfidenceScore < 30 {
		score += 15
		findings = append(findings, domain.Finding{
			Type:        "low_confidence",
			Severity:    domain.SeverityMedium,
			Description: fmt.Sprintf("Assessment confidence is low (%.0f%%)", res.ConfidenceScore),
			Evidence:    res.ConfidenceScore,
		})
	}

	score = domain.ClampScore(score)
	sev := domain.SeverityLow
	if score > 60 {
		sev = domain.SeverityHigh
	} else if score > 30 {
		sev = domain.SeverityMedium
	}

	return domain.ComponentResult{
		Component: ComponentAssessment,
		Score:     score,
		Severity:  sev,
		Findings:  findings,
	}
}

// ActionItems derives compliance follow-ups from an assessment.
func ActionItems(a domain.RiskAssessment) []domain.ActionItem {
	items := []domain.ActionItem{}

	switch a.Status {
	case domain.StatusRejected:
		items = append(items, domain.ActionItem{
			Priority: "HIGH",
			Action:   "Reject document and request resubmission",
			Assignee: "Compliance Officer",
		})
	case domain.StatusReviewRequired:
		items = append(items, domain.ActionItem{
			Priority: "MEDIUM",
			Action:   "Conduct manual review of document",
			Assignee: "Compliance Officer",
		})
	}

	for _, c := range a.ComponentResults {
		if c.Severity < domain.SeverityHigh || len(c.Findings) == 0 {
			continue
		}
		items = append(items, domain.ActionItem{
			Priority: c.Severity.String(),
			Action:   fmt.Sprintf("Address %s issues: %s", c.Component, c.TopFinding().Description),
			Assignee: "Document Submitter",
		})
	}

	return items
}

// BuildReport assembles the outward report for a fused assessment.
func BuildReport(sub domain.Submission, a domain.RiskAssessment, now time.Time) *domain.Report {
	return &domain.Report{
		ReportID:   newReportID(sub.OriginalName, now),
		FileName:   sub.OriginalName,
		Timestamp:  now,
		Submission: sub,
		Assessment: a,
		Summary: domain.ReportSummary{
			OverallRiskScore: a.OverallScore,
			Status:           a.Status,
			MaxSeverity:      a.MaxSeverity,
			Recommendation:   a.Recommendation,
		},
		Detailed:    detailedSections(a.ComponentResults),
		Factors:     a.ComponentResults,
		ActionItems: ActionItems(a),
	}
}

// newReportID derives a short stable ID from name + timestamp.
func newReportID(name string, now time.Time) domain.ReportID {
	sum := md5.Sum([]byte(name + now.Format(time.RFC3339Nano)))
	return domain.ReportID(hex.EncodeToString(sum[:])[:12])
}

func detailedSections(results []domain.ComponentResult) domain.DetailedByKind {
	var d domain.DetailedByKind
	for _, c := range results {
		s := &domain.SectionSummary{
			Status:      sectionLabel(c),
			KeyFindings: c.Issues(3),
			IssuesCount: len(c.Findings),
		}
		switch c.Component {
		case ComponentFormat:
			d.FormatValidation = s
		case ComponentImage:
			d.ImageAnalysis = s
		case ComponentAssessment:
			d.DocumentProcessing = s
		}
	}
	return d
}

// sectionLabel is the component-local label only; the overall status
// always comes from the fused thresholds.
func sectionLabel(c domain.ComponentResult) string {
	switch c.Component {
	case ComponentImage:
		authenticity := 100 - c.Score
		if authenticity > 70 {
			return "AUTHENTIC"
		}
		if authenticity > 40 {
			return "SUSPICIOUS"
		}
		return "LIKELY_FAKE"
	default:
		if c.Score < 30 {
			return "PASS"
		}
		if c.Score < 70 {
			return "WARNING"
		}
		return "FAIL"
	}
}
