package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/docutrust/internal/domain/documents"
)

// samplePDF is a handcrafted two-font document with an uncompressed
// content stream.
const samplePDF = `%PDF-1.4
1 0 obj
<< /Type /Catalog /Pages 2 0 R >>
endobj
2 0 obj
<< /Type /Pages /Kids [3 0 R] /Count 1 >>
endobj
3 0 obj
<< /Type /Page /Parent 2 0 R /Resources << /Font << /F1 4 0 R /F2 5 0 R >> >> /Contents 6 0 R >>
endobj
4 0 obj
<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>
endobj
5 0 obj
<< /Type /Font /Subtype /TrueType /BaseFont /ABCDEF+Garamond >>
endobj
6 0 obj
<< /Length 90 >>
stream
BT
/F1 12 Tf
(Invoice Date: 2026-01-15) Tj
/F2 9.5 Tf
(Amount due \(net\): 120.00) Tj
ET
endstream
endobj
trailer
<< /Root 1 0 R >>
%%EOF`

func TestExtractPlainText(t *testing.T) {
	text, fonts, err := New().Extract([]byte("hello,world\n1,2\n"), domain.Submission{Extension: ".csv"})
	require.NoError(t, err)
	assert.Nil(t, fonts)
	assert.Equal(t, "hello,world\n1,2\n", text)
}

func TestExtractPDFTextAndFonts(t *testing.T) {
	text, fonts, err := New().Extract([]byte(samplePDF), domain.Submission{Extension: ".pdf"})
	require.NoError(t, err)
	require.NotNil(t, fonts)

	assert.Contains(t, text, "Invoice Date: 2026-01-15")
	assert.Contains(t, text, "Amount due (net): 120.00")

	assert.Equal(t, 1, fonts.PageCount)
	require.Contains(t, fonts.Usage, "Helvetica")
	// subset prefix stripped
	require.Contains(t, fonts.Usage, "Garamond")
	assert.Equal(t, 1, fonts.Usage["Helvetica"].Count)

	assert.Contains(t, fonts.Sizes, "12.0")
	assert.Contains(t, fonts.Sizes, "9.5")

	require.Len(t, fonts.PageFonts, 1)
	assert.True(t, fonts.PageFonts[0]["Helvetica"])
	assert.True(t, fonts.PageFonts[0]["Garamond"])
}

func TestExtractPDFRejectsNonPDF(t *testing.T) {
	_, _, err := New().Extract([]byte("plain text, no header"), domain.Submission{Extension: ".pdf"})
	assert.Error(t, err)
}

func TestExtractBinarySalvagesRuns(t *testing.T) {
	data := append([]byte{0x00, 0x01, 0x02}, []byte("Quarterly Statement")...)
	data = append(data, 0x00, 0xff)
	data = append(data, []byte("Total: 99.50")...)

	text, fonts, err := New().Extract(data, domain.Submission{Extension: ".docx"})
	require.NoError(t, err)
	assert.Nil(t, fonts)
	assert.Contains(t, text, "Quarterly Statement")
	assert.Contains(t, text, "Total: 99.50")
}

func TestPrintableRunsDropsShortNoise(t *testing.T) {
	data := []byte{'a', 'b', 0x00, 'x', 'y', 'z', 0x01}
	out := printableRuns(data)
	assert.False(t, strings.Contains(out, "ab"))
	assert.False(t, strings.Contains(out, "xyz"))
}
