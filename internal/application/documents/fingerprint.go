package documents

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	domain "github.com/bryanwahyu/docutrust/internal/domain/documents"
)

// allowedTypes maps a MIME type to the extensions it may carry.
var allowedTypes = map[string][]string{
	"application/pdf":    {".pdf"},
	"application/msword": {".doc"},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {".docx"},
	"text/plain": {".txt"},

	"text/csv":                 {".csv"},
	"application/vnd.ms-excel": {".xls"},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": {".xlsx"},

	"image/jpeg": {".jpg", ".jpeg"},
	"image/png":  {".png"},
	"image/gif":  {".gif"},
	"image/bmp":  {".bmp"},
	"image/tiff": {".tiff", ".tif"},
}

// extMIME is the extension fallback for formats content sniffing cannot
// distinguish (OLE2, OOXML zip containers, TIFF).
var extMIME = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
	".csv":  "text/csv",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
}

// Fingerprinter validates an upload and computes its content hash.
// Pure over the input bytes: the hash is identical for byte-identical
// resubmissions regardless of filename.
type Fingerprinter struct {
	MaxSizeBytes int64
}

func NewFingerprinter(maxSizeMiB int) *Fingerprinter {
	if maxSizeMiB <= 0 {
		maxSizeMiB = 16
	}
	return &Fingerprinter{MaxSizeBytes: int64(maxSizeMiB) * 1024 * 1024}
}

// Fingerprint rejects empty, oversized, unsupported or mismatched
// uploads, and returns a Submission keyed by the SHA-256 of the bytes.
func (f *Fingerprinter) Fingerprint(data []byte, filename string) (domain.Submission, error) {
	sub := domain.Submission{
		OriginalName: filepath.Base(filename),
		SizeBytes:    int64(len(data)),
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return sub, &domain.ValidationError{
			Code:     domain.ErrCodeEmptyFile,
			Detail:   "file is empty",
			Metadata: sub,
		}
	}

	if sub.SizeBytes > f.MaxSizeBytes {
		return sub, &domain.ValidationError{
			Code: domain.ErrCodeFileTooLarge,
			Detail: fmt.Sprintf("file size (%.2f MB) exceeds maximum allowed (%.0f MB)",
				float64(sub.SizeBytes)/1024/1024, float64(f.MaxSizeBytes)/1024/1024),
			Metadata: sub,
		}
	}

	ext := strings.ToLower(filepath.Ext(filename))
	sub.Extension = ext

	mime := detectMIME(data, ext)
	sub.MIMEType = mime

	exts, ok := allowedTypes[mime]
	if !ok {
		return sub, &domain.ValidationError{
			Code:     domain.ErrCodeUnsupportedType,
			Detail:   fmt.Sprintf("file type not allowed: %s", mime),
			Metadata: sub,
		}
	}
	if !containsString(exts, ext) {
		return sub, &domain.ValidationError{
			Code:     domain.ErrCodeExtensionMismatch,
			Detail:   fmt.Sprintf("extension %s does not match detected type %s", ext, mime),
			Metadata: sub,
		}
	}

	h := sha256.New()
	// chunked writes keep the path identical for large files
	for off := 0; off < len(data); off += 4096 {
		end := off + 4096
		if end > len(data) {
			end = len(data)
		}
		h.Write(data[off:end])
	}
	sub.ContentHash = hex.EncodeToString(h.Sum(nil))

	return sub, nil
}

// detectMIME sniffs content first and falls back to the extension when
// sniffing yields a container or generic type.
func detectMIME(data []byte, ext string) string {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	detected := http.DetectContentType(head)
	if i := strings.Index(detected, ";"); i >= 0 {
		detected = strings.TrimSpace(detected[:i])
	}

	if _, ok := allowedTypes[detected]; ok {
		// content sniffing cannot tell .txt from .csv
		if detected == "text/plain" && ext == ".csv" {
			return "text/csv"
		}
		return detected
	}

	switch detected {
	case "application/zip", "application/octet-stream":
		if m, ok := extMIME[ext]; ok {
			return m
		}
	}
	return detected
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
