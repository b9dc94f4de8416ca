package extract

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	domain "github.com/bryanwahyu/docutrust/internal/domain/documents"
)

// Minimal PDF scanner. It does not aim to be a conforming reader: it
// walks uncompressed object syntax for font declarations and inflates
// FlateDecode content streams to recover text operators and font usage.
// Cross-reference tables, encryption and exotic filters are ignored.

var (
	objRe      = regexp.MustCompile(`(?s)(\d+)\s+\d+\s+obj(.*?)endobj`)
	baseFontRe = regexp.MustCompile(`/BaseFont\s*/([A-Za-z0-9+,.\-]+)`)
	fontRefRe  = regexp.MustCompile(`/(F[A-Za-z0-9]*)\s+(\d+)\s+\d+\s+R`)
	pageRe     = regexp.MustCompile(`/Type\s*/Page\b`)
	tfRe       = regexp.MustCompile(`/(F[A-Za-z0-9]*)\s+([\d.]+)\s+Tf`)
	tjRe       = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)\s*Tj`)
	tjArrayRe  = regexp.MustCompile(`\[((?:\((?:\\.|[^\\)])*\)|[^\]])*)\]\s*TJ`)
	parenRe    = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)
	streamRe   = regexp.MustCompile(`(?s)stream\r?\n(.*?)endstream`)
)

// scanPDF extracts text and the embedded font profile from raw PDF bytes.
func scanPDF(data []byte) (string, *domain.FontProfile, error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return "", nil, fmt.Errorf("not a pdf document")
	}

	// object number -> base font name, for resolving /Fx references
	fontObjects := map[string]string{}
	for _, m := range objRe.FindAllSubmatch(data, -1) {
		body := m[2]
		if bf := baseFontRe.FindSubmatch(body); bf != nil {
			fontObjects[string(m[1])] = cleanFontName(string(bf[1]))
		}
	}

	// resource name (/F1) -> base font name
	fontByRes := map[string]string{}
	for _, m := range fontRefRe.FindAllSubmatch(data, -1) {
		if name, ok := fontObjects[string(m[2])]; ok {
			fontByRes[string(m[1])] = name
		}
	}

	// the \b keeps /Pages tree nodes out of the count
	pageCount := len(pageRe.FindAll(data, -1))
	if pageCount < 1 {
		pageCount = 1
	}

	profile := &domain.FontProfile{
		PageCount: pageCount,
		Usage:     map[string]*domain.FontUsage{},
		Sizes:     map[string]int{},
	}

	var text strings.Builder
	streams := streamRe.FindAllSubmatch(data, -1)
	for i, m := range streams {
		content := inflate(m[1])
		if content == nil {
			continue
		}
		// streams map onto pages only approximately; good enough for
		// the per-page font heuristic
		page := i
		if page >= pageCount {
			page = pageCount - 1
		}
		scanContentStream(content, page, fontByRes, profile)
		extractTextOps(content, &text)
	}

	// fall back to printable runs when no text operators were found
	out := text.String()
	if strings.TrimSpace(out) == "" {
		out = printableRuns(data)
	}

	if len(profile.Usage) == 0 {
		// no resolvable usage; register declared fonts so count-based
		// checks still see them
		for _, name := range fontObjects {
			profile.Usage[name] = &domain.FontUsage{Count: 1, Pages: map[int]bool{0: true}}
		}
	}

	profile.PageFonts = make([]map[string]bool, pageCount)
	for i := range profile.PageFonts {
		profile.PageFonts[i] = map[string]bool{}
	}
	for name, u := range profile.Usage {
		for p := range u.Pages {
			if p >= 0 && p < pageCount {
				profile.PageFonts[p][name] = true
			}
		}
	}

	return out, profile, nil
}

func scanContentStream(content []byte, page int, fontByRes map[string]string, profile *domain.FontProfile) {
	for _, m := range tfRe.FindAllSubmatch(content, -1) {
		res := string(m[1])
		name, ok := fontByRes[res]
		if !ok {
			name = res
		}
		u := profile.Usage[name]
		if u == nil {
			u = &domain.FontUsage{Pages: map[int]bool{}}
			profile.Usage[name] = u
		}
		u.Count++
		u.Pages[page] = true

		if size, err := strconv.ParseFloat(string(m[2]), 64); err == nil {
			key := strconv.FormatFloat(size, 'f', 1, 64)
			profile.Sizes[key]++
		}
	}
}

func extractTextOps(content []byte, out *strings.Builder) {
	for _, m := range tjRe.FindAllSubmatch(content, -1) {
		out.WriteString(unescapePDFString(string(m[1])))
		out.WriteByte('\n')
	}
	for _, m := range tjArrayRe.FindAllSubmatch(content, -1) {
		for _, p := range parenRe.FindAllSubmatch(m[1], -1) {
			out.WriteString(unescapePDFString(string(p[1])))
		}
		out.WriteByte('\n')
	}
}

// inflate returns the stream body, decompressing zlib/flate payloads.
// Already-plain content streams pass through untouched.
func inflate(body []byte) []byte {
	r, err := zlib.NewReader(bytes.NewReader(body))
	if err != nil {
		return body
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil && len(out) == 0 {
		return body
	}
	return out
}

func cleanFontName(name string) string {
	// subset prefixes look like "ABCDEF+Helvetica"
	if i := strings.Index(name, "+"); i >= 0 && i == 6 {
		return name[i+1:]
	}
	return name
}

func unescapePDFString(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// printableRuns salvages readable ASCII sequences from binary data.
// Runs shorter than five characters are treated as noise.
func printableRuns(data []byte) string {
	var b strings.Builder
	var run []byte
	flush := func() {
		if len(run) >= 5 {
			b.Write(run)
			b.WriteByte('\n')
		}
		run = run[:0]
	}
	for _, c := range data {
		if c >= 0x20 && c < 0x7f {
			run = append(run, c)
		} else {
			flush()
		}
	}
	flush()
	return b.String()
}
