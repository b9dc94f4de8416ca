package documents

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/docutrust/internal/domain/documents"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func validationCode(t *testing.T, err error) string {
	t.Helper()
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	return verr.Code
}

func TestFingerprintDeterministicHash(t *testing.T) {
	f := NewFingerprinter(16)
	data := []byte("Invoice #42\nAmount: 10.00\n")

	s1, err := f.Fingerprint(data, "a.txt")
	require.NoError(t, err)
	s2, err := f.Fingerprint(data, "b.txt")
	require.NoError(t, err)

	// hash depends on bytes only, not the filename
	assert.Equal(t, s1.ContentHash, s2.ContentHash)
	assert.Len(t, s1.ContentHash, 64)
	assert.Equal(t, "text/plain", s1.MIMEType)
}

func TestFingerprintRejectsEmpty(t *testing.T) {
	f := NewFingerprinter(16)

	_, err := f.Fingerprint(nil, "empty.txt")
	assert.Equal(t, domain.ErrCodeEmptyFile, validationCode(t, err))

	// whitespace-only counts as empty too
	_, err = f.Fingerprint([]byte("   \n\t  "), "blank.txt")
	assert.Equal(t, domain.ErrCodeEmptyFile, validationCode(t, err))
}

func TestFingerprintRejectsOversize(t *testing.T) {
	f := NewFingerprinter(1)
	big := make([]byte, 1024*1024+1)
	for i := range big {
		big[i] = 'a'
	}
	_, err := f.Fingerprint(big, "big.txt")
	assert.Equal(t, domain.ErrCodeFileTooLarge, validationCode(t, err))
}

func TestFingerprintRejectsUnsupportedType(t *testing.T) {
	f := NewFingerprinter(16)
	// HTML sniffs to text/html which is not allowed
	_, err := f.Fingerprint([]byte("<!DOCTYPE html><html></html>"), "page.html")
	assert.Equal(t, domain.ErrCodeUnsupportedType, validationCode(t, err))
}

func TestFingerprintRejectsExtensionMismatch(t *testing.T) {
	f := NewFingerprinter(16)
	// PDF signature but .jpg extension
	pdf := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")
	_, err := f.Fingerprint(pdf, "photo.jpg")
	assert.Equal(t, domain.ErrCodeExtensionMismatch, validationCode(t, err))
}

func TestFingerprintAcceptsRaster(t *testing.T) {
	f := NewFingerprinter(16)
	sub, err := f.Fingerprint(pngBytes(t, 4, 4), "scan.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", sub.MIMEType)
	assert.True(t, sub.IsRaster())
	assert.False(t, sub.IsTextual())
}

func TestFingerprintCSVFallsBackToExtension(t *testing.T) {
	f := NewFingerprinter(16)
	sub, err := f.Fingerprint([]byte("name,amount\nalice,10\n"), "data.csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", sub.MIMEType)
}

func TestFingerprintMetadataOnRejection(t *testing.T) {
	f := NewFingerprinter(16)
	pdf := []byte("%PDF-1.7\nstub")
	_, err := f.Fingerprint(pdf, "photo.jpg")

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "photo.jpg", verr.Metadata.OriginalName)
	assert.Equal(t, "application/pdf", verr.Metadata.MIMEType)
	assert.Equal(t, ".jpg", verr.Metadata.Extension)
}
