package imagecheck

import (
	"bytes"
	"fmt"

	"github.com/rwcarlsen/goexif/exif"

	domain "github.com/bryanwahyu/docutrust/internal/domain/documents"
)

type metadataReport struct {
	findings []domain.Finding
	penalty  float64
}

// inspectMetadata reads EXIF and flags signs of post-processing.
// A missing block is itself a signal: cameras always write one,
// stripped or generated images often do not.
func inspectMetadata(data []byte) metadataReport {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return metadataReport{
			penalty: 20,
			findings: []domain.Finding{{
				Type:        "missing_metadata",
				Severity:    domain.SeverityMedium,
				Description: "Image carries no EXIF metadata",
			}},
		}
	}

	var rep metadataReport
	anomaly := func(f domain.Finding) {
		rep.findings = append(rep.findings, f)
		rep.penalty += anomalyPenalty(f.Severity)
	}

	if tag, err := x.Get(exif.Software); err == nil {
		if sw, err := tag.StringVal(); err == nil && sw != "" {
			anomaly(domain.Finding{
				Type:        "editing_software",
				Severity:    domain.SeverityLow,
				Description: fmt.Sprintf("Image was processed with software: %s", sw),
			})
		}
	}

	modified := stringTag(x, exif.DateTime)
	original := stringTag(x, exif.DateTimeOriginal)
	if modified != "" && original != "" && modified != original {
		anomaly(domain.Finding{
			Type:        "timestamp_mismatch",
			Severity:    domain.SeverityMedium,
			Description: fmt.Sprintf("Modification time %s differs from capture time %s", modified, original),
		})
	}

	return rep
}

func stringTag(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	v, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return v
}
