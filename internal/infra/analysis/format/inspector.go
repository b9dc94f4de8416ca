package format

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/bryanwahyu/docutrust/internal/config"
	domain "github.com/bryanwahyu/docutrust/internal/domain/documents"
)

var (
	doubleSpaceRe  = regexp.MustCompile(`  +`)
	headerLineRe   = regexp.MustCompile(`^[A-Z\s\d\.]+$`)
	numberedLineRe = regexp.MustCompile(`(?m)^(\d+)\.`)
)

// misspellings maps a pattern to its correction. Basic check, same set
// the compliance team started with.
var misspellings = []struct {
	re         *regexp.Regexp
	correction string
}{
	{regexp.MustCompile(`(?i)\bteh\b`), "the"},
	{regexp.MustCompile(`(?i)\brecieve\b`), "receive"},
	{regexp.MustCompile(`(?i)\boccured\b`), "occurred"},
	{regexp.MustCompile(`(?i)\bseperate\b`), "separate"},
}

// requiredSections are keywords a complete financial document mentions.
var requiredSections = []string{"date", "amount", "signature", "party", "terms"}

// systemFonts used to tell embedded fonts apart.
var systemFonts = []string{"Arial", "Times", "Helvetica", "Courier", "TimesNewRoman"}

// Inspector runs structural and textual heuristics over extracted text.
type Inspector struct {
	cfg config.Engine
}

func NewInspector(cfg config.Engine) *Inspector {
	return &Inspector{cfg: cfg}
}

// Inspect scores formatting, content plausibility, structure and (for
// page-description formats) embedded-font irregularities. Each finding
// weighs into the score by severity, capped at 100.
func (i *Inspector) Inspect(text string, fonts *domain.FontProfile) domain.ComponentResult {
	var findings []domain.Finding
	findings = append(findings, i.checkFormatting(text)...)
	findings = append(findings, i.checkContent(text)...)
	findings = append(findings, i.checkStructure(text)...)
	if fonts != nil {
		findings = append(findings, i.checkFonts(fonts)...)
	}

	score := 0.0
	sev := domain.SeverityLow
	for _, f := range findings {
		score += i.weight(f.Severity)
		sev = domain.MaxSeverity(sev, f.Severity)
	}

	return domain.ComponentResult{
		Component: "format_validation",
		Score:     domain.ClampScore(score),
		Severity:  sev,
		Findings:  findings,
	}
}

func (i *Inspector) weight(s domain.Severity) float64 {
	switch s {
	case domain.SeverityMedium:
		return i.cfg.WeightMedium
	case domain.SeverityHigh, domain.SeverityCritical:
		return i.cfg.WeightHigh
	default:
		return i.cfg.WeightLow
	}
}

func (i *Inspector) checkFormatting(text string) []domain.Finding {
	var findings []domain.Finding

	if n := len(doubleSpaceRe.FindAllString(text, -1)); n > 5 {
		findings = append(findings, domain.Finding{
			Type:        "double_spacing",
			Severity:    domain.SeverityLow,
			Description: fmt.Sprintf("Found %d instances of double spacing", n),
			Evidence:    float64(n),
		})
	}

	lines := strings.Split(text, "\n")
	indents := map[int]bool{}
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indents[len(line)-len(strings.TrimLeft(line, " \t"))] = true
	}
	if len(indents) > 5 {
		findings = append(findings, domain.Finding{
			Type:        "inconsistent_indentation",
			Severity:    domain.SeverityMedium,
			Description: fmt.Sprintf("Inconsistent indentation detected across %d different levels", len(indents)),
			Evidence:    float64(len(indents)),
		})
	}

	crlf := strings.Count(text, "\r\n")
	lf := strings.Count(text, "\n") - crlf
	if crlf > 0 && lf > 0 {
		findings = append(findings, domain.Finding{
			Type:        "mixed_line_endings",
			Severity:    domain.SeverityLow,
			Description: "Mixed line endings detected (CRLF and LF)",
		})
	}

	trailing := 0
	for _, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if strings.HasSuffix(line, " ") || strings.HasSuffix(line, "\t") {
			trailing++
		}
	}
	if trailing > 10 {
		findings = append(findings, domain.Finding{
			Type:        "trailing_whitespace",
			Severity:    domain.SeverityLow,
			Description: fmt.Sprintf("%d lines have trailing whitespace", trailing),
			Evidence:    float64(trailing),
		})
	}

	return findings
}

func (i *Inspector) checkContent(text string) []domain.Finding {
	var findings []domain.Finding

	for _, m := range misspellings {
		matches := m.re.FindAllString(text, -1)
		if len(matches) == 0 {
			continue
		}
		findings = append(findings, domain.Finding{
			Type:        "spelling_error",
			Severity:    domain.SeverityMedium,
			Description: fmt.Sprintf("Possible spelling error: '%s' (should be '%s')", matches[0], m.correction),
			Evidence:    float64(len(matches)),
		})
	}

	lower := strings.ToLower(text)
	var missing []string
	for _, section := range requiredSections {
		if !strings.Contains(lower, section) {
			missing = append(missing, section)
		}
	}
	if len(missing) > 0 {
		findings = append(findings, domain.Finding{
			Type:        "missing_sections",
			Severity:    domain.SeverityHigh,
			Description: fmt.Sprintf("Missing potential required sections: %s", strings.Join(missing, ", ")),
			Evidence:    float64(len(missing)),
		})
	}

	incomplete := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > 20 && !strings.ContainsRune(".!?;:", rune(line[len(line)-1])) {
			incomplete++
		}
	}
	if incomplete > 5 {
		findings = append(findings, domain.Finding{
			Type:        "incomplete_sentences",
			Severity:    domain.SeverityMedium,
			Description: fmt.Sprintf("%d lines appear to be incomplete sentences", incomplete),
			Evidence:    float64(incomplete),
		})
	}

	return findings
}

func (i *Inspector) checkStructure(text string) []domain.Finding {
	var findings []domain.Finding

	var nonEmpty []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			nonEmpty = append(nonEmpty, line)
		}
	}

	if len(nonEmpty) < 10 {
		findings = append(findings, domain.Finding{
			Type:        "insufficient_content",
			Severity:    domain.SeverityHigh,
			Description: fmt.Sprintf("Document appears too short (%d lines)", len(nonEmpty)),
			Evidence:    float64(len(nonEmpty)),
		})
	}

	headers := 0
	for _, line := range nonEmpty {
		t := strings.TrimSpace(line)
		if headerLineRe.MatchString(t) || numberedLineRe.MatchString(t) {
			headers++
		}
	}
	if headers == 0 && len(nonEmpty) > 50 {
		findings = append(findings, domain.Finding{
			Type:        "missing_headers",
			Severity:    domain.SeverityMedium,
			Description: "No clear section headers detected in document",
		})
	}

	if nums := numberedLineRe.FindAllStringSubmatch(text, -1); len(nums) > 0 {
		contiguous := true
		for idx, m := range nums {
			n, err := strconv.Atoi(m[1])
			if err != nil || n != idx+1 {
				contiguous = false
				break
			}
		}
		if !contiguous {
			findings = append(findings, domain.Finding{
				Type:        "inconsistent_numbering",
				Severity:    domain.SeverityMedium,
				Description: "Numbering sequence appears inconsistent",
			})
		}
	}

	open := strings.Count(text, "(")
	closed := strings.Count(text, ")")
	if open != closed {
		findings = append(findings, domain.Finding{
			Type:        "unbalanced_parentheses",
			Severity:    domain.SeverityMedium,
			Description: fmt.Sprintf("Unbalanced parentheses: %d opening, %d closing", open, closed),
		})
	}

	return findings
}

// checkFonts flags copy-paste and insertion indicators in embedded fonts.
func (i *Inspector) checkFonts(profile *domain.FontProfile) []domain.Finding {
	var findings []domain.Finding

	names := make([]string, 0, len(profile.Usage))
	for name := range profile.Usage {
		names = append(names, name)
	}
	sort.Strings(names)
	unique := len(names)

	if unique > 5 {
		findings = append(findings, domain.Finding{
			Type:        "excessive_fonts",
			Severity:    domain.SeverityHigh,
			Description: fmt.Sprintf("Document uses %d different fonts - possible copy-paste forgery", unique),
			Evidence:    float64(unique),
		})
	} else if unique > 3 {
		findings = append(findings, domain.Finding{
			Type:        "multiple_fonts",
			Severity:    domain.SeverityMedium,
			Description: fmt.Sprintf("Document uses %d different fonts - verify consistency", unique),
			Evidence:    float64(unique),
		})
	}

	if len(profile.Sizes) > 10 {
		findings = append(findings, domain.Finding{
			Type:        "inconsistent_font_sizes",
			Severity:    domain.SeverityMedium,
			Description: fmt.Sprintf("%d different font sizes detected - possible editing", len(profile.Sizes)),
			Evidence:    float64(len(profile.Sizes)),
		})
	}

	for page, onPage := range profile.PageFonts {
		if len(onPage) > 3 {
			findings = append(findings, domain.Finding{
				Type:        "mixed_fonts_on_page",
				Severity:    domain.SeverityMedium,
				Description: fmt.Sprintf("Page %d uses %d different fonts", page+1, len(onPage)),
				Evidence:    float64(len(onPage)),
			})
		}
	}

	for _, name := range names {
		if u := profile.Usage[name]; u.Count < 5 {
			findings = append(findings, domain.Finding{
				Type:        "rarely_used_font",
				Severity:    domain.SeverityMedium,
				Description: fmt.Sprintf("Font '%s' used only %d times - possible text insertion", name, u.Count),
				Evidence:    float64(u.Count),
			})
		}
	}

	if unique > 1 {
		embedded := 0
		for _, name := range names {
			if !isSystemFont(name) {
				embedded++
			}
		}
		if embedded == 0 {
			findings = append(findings, domain.Finding{
				Type:        "only_system_fonts",
				Severity:    domain.SeverityLow,
				Description: "Only system fonts detected - original documents often have embedded fonts",
			})
		}
	}

	return findings
}

func isSystemFont(name string) bool {
	for _, sys := range systemFonts {
		if strings.Contains(name, sys) {
			return true
		}
	}
	return false
}
