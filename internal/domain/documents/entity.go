package documents

import (
	"time"
)

// ReportID tipe untuk Report
type ReportID string

// Severity enum, ordered LOW < MEDIUM < HIGH < CRITICAL
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityNames = [...]string{"LOW", "MEDIUM", "HIGH", "CRITICAL"}

func (s Severity) String() string {
	if s < SeverityLow || s > SeverityCritical {
		return "LOW"
	}
	return severityNames[s]
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *Severity) UnmarshalJSON(b []byte) error {
	v := string(b)
	for i, name := range severityNames {
		if v == `"`+name+`"` {
			*s = Severity(i)
			return nil
		}
	}
	*s = SeverityLow
	return nil
}

// MaxSeverity returns the higher of two severities
func MaxSeverity(a, b Severity) Severity {
	if a > b {
		return a
	}
	return b
}

// Status enum untuk overall verdict
type Status string

const (
	StatusApproved          Status = "APPROVED"
	StatusApprovedWithNotes Status = "APPROVED_WITH_NOTES"
	StatusReviewRequired    Status = "REVIEW_REQUIRED"
	StatusRejected          Status = "REJECTED"
)

// Submission describes a fingerprinted upload. Immutable once created,
// never persisted by itself.
type Submission struct {
	ContentHash  string `json:"file_hash"`
	MIMEType     string `json:"mime_type"`
	Extension    string `json:"extension"`
	SizeBytes    int64  `json:"file_size"`
	OriginalName string `json:"file_name"`
}

// IsRaster reports whether the submission is a raster image.
func (s Submission) IsRaster() bool {
	switch s.Extension {
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".tif":
		return true
	}
	return false
}

// IsTextual reports whether the submission carries inspectable text.
func (s Submission) IsTextual() bool {
	switch s.Extension {
	case ".pdf", ".txt", ".doc", ".docx", ".csv":
		return true
	}
	return false
}

// IsPageDescription reports whether the format embeds fonts (PDF).
func (s Submission) IsPageDescription() bool {
	return s.Extension == ".pdf"
}

// Finding is one issue raised by exactly one analyzer.
type Finding struct {
	Type        string   `json:"type"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Evidence    float64  `json:"evidence,omitempty"`
}

// ComponentResult hasil satu analyzer, score selalu dalam [0,100]
type ComponentResult struct {
	Component string    `json:"component"`
	Score     float64   `json:"score"`
	Severity  Severity  `json:"severity"`
	Findings  []Finding `json:"findings"`
}

// Issues flattens finding descriptions, capped at n (0 = all).
func (c ComponentResult) Issues(n int) []string {
	out := make([]string, 0, len(c.Findings))
	for _, f := range c.Findings {
		out = append(out, f.Description)
	}
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// TopFinding returns the most severe finding, zero value when empty.
func (c ComponentResult) TopFinding() Finding {
	var top Finding
	for i, f := range c.Findings {
		if i == 0 || f.Severity > top.Severity {
			top = f
		}
	}
	return top
}

// ClampScore keeps a score inside [0,100].
func ClampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// RiskAssessment is the fused verdict over all invoked components.
type RiskAssessment struct {
	OverallScore     float64           `json:"overall_risk_score"`
	Status           Status            `json:"status"`
	MaxSeverity      Severity          `json:"max_severity"`
	ComponentResults []ComponentResult `json:"risk_factors"`
	Recommendation   string            `json:"recommendation"`
	Timestamp        time.Time         `json:"timestamp"`
}

// ActionItem for compliance follow-up
type ActionItem struct {
	Priority string `json:"priority"`
	Action   string `json:"action"`
	Assignee string `json:"assignee"`
}

// Aggregate Root: Report. Immutable once created; only the previous
// version's is_latest flag flips when a new version supersedes it.
type Report struct {
	ReportID   ReportID        `json:"report_id"`
	FileName   string          `json:"file_name"`
	Timestamp  time.Time       `json:"analysis_timestamp"`
	Submission Submission      `json:"file_metadata"`
	Assessment RiskAssessment  `json:"-"`
	Summary    ReportSummary   `json:"summary"`
	Detailed   DetailedByKind  `json:"detailed_analysis"`
	Factors    []ComponentResult `json:"risk_factors"`
	ActionItems []ActionItem   `json:"action_items"`
	Cached     bool            `json:"cached"`
	Version    int             `json:"version,omitempty"`
}

// ReportSummary mirrors the wire shape consumed by dashboards.
type ReportSummary struct {
	OverallRiskScore float64  `json:"overall_risk_score"`
	Status           Status   `json:"status"`
	MaxSeverity      Severity `json:"max_severity"`
	Recommendation   string   `json:"recommendation"`
}

// SectionSummary is the per-component digest inside detailed_analysis.
type SectionSummary struct {
	Status      string   `json:"status"`
	KeyFindings []string `json:"key_findings,omitempty"`
	IssuesCount int      `json:"issues_count"`
}

// DetailedByKind groups section summaries by analyzer kind.
type DetailedByKind struct {
	FormatValidation   *SectionSummary `json:"format_validation,omitempty"`
	ImageAnalysis      *SectionSummary `json:"image_analysis,omitempty"`
	DocumentProcessing *SectionSummary `json:"document_processing,omitempty"`
}

// ArchiveRecord is the persisted, versioned form of a report.
type ArchiveRecord struct {
	ID                string    `json:"id"`
	TenantID          string    `json:"tenant_id"`
	FileHash          string    `json:"file_hash"`
	FileName          string    `json:"file_name"`
	FileSize          int64     `json:"file_size"`
	MIMEType          string    `json:"mime_type"`
	RiskScore         float64   `json:"risk_score"`
	Status            Status    `json:"status"`
	ReportID          ReportID  `json:"report_id"`
	ReportData        string    `json:"report_data"`
	Version           int       `json:"version"`
	IsLatest          bool      `json:"is_latest"`
	PreviousVersionID string    `json:"previous_version_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// VersionDiff compares two archived versions of the same content hash.
type VersionDiff struct {
	FileHash       string          `json:"file_hash"`
	Version1       VersionSnapshot `json:"version1"`
	Version2       VersionSnapshot `json:"version2"`
	StatusChanged  bool            `json:"status_changed"`
	RiskScoreDelta float64         `json:"risk_score_delta"`
	Improvement    bool            `json:"improvement"`
}

// VersionSnapshot is one side of a VersionDiff.
type VersionSnapshot struct {
	Version   int       `json:"version"`
	Status    Status    `json:"status"`
	RiskScore float64   `json:"risk_score"`
	CreatedAt time.Time `json:"created_at"`
}

// FontProfile summarizes embedded font usage in a page-description file.
type FontProfile struct {
	PageCount int
	Usage     map[string]*FontUsage // keyed by font name
	Sizes     map[string]int        // rounded size -> occurrences
	PageFonts []map[string]bool     // fonts seen per page
}

// FontUsage tracks one font across the document.
type FontUsage struct {
	Count int
	Pages map[int]bool
}

// CacheStats snapshot dari ResultCache
type CacheStats struct {
	TotalEntries   int   `json:"total_entries"`
	ExpiredEntries int   `json:"expired_entries"`
	ActiveEntries  int   `json:"active_entries"`
	TotalSizeBytes int64 `json:"total_size_bytes"`
}
