package imagecheck

import (
	"bytes"
	"fmt"
	"image"
	"math"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/bryanwahyu/docutrust/internal/config"
	domain "github.com/bryanwahyu/docutrust/internal/domain/documents"
)

// Analyzer runs raster forensics: metadata, pixel tampering, error-level
// analysis, frequency-domain and noise-pattern checks. The authenticity
// score starts at 100 and penalties subtract from it; the component risk
// score reported to fusion is the inverse.
type Analyzer struct {
	cfg config.Engine
}

func NewAnalyzer(cfg config.Engine) *Analyzer {
	return &Analyzer{cfg: cfg}
}

func (a *Analyzer) Analyze(data []byte) (domain.ComponentResult, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return domain.ComponentResult{}, fmt.Errorf("decode image: %w", err)
	}

	var findings []domain.Finding
	authenticity := 100.0

	// --- metadata ---
	meta := inspectMetadata(data)
	authenticity -= meta.penalty
	findings = append(findings, meta.findings...)

	// --- pixel tampering (uniform blocks, clone stamp) ---
	uniform := countUniformBlocks(img, a.cfg.UniformBlockSize, a.cfg.UniformVarianceCutoff)
	if uniform > a.cfg.UniformBlockCountCutoff {
		f := domain.Finding{
			Type:        "clone_stamp_suspected",
			Severity:    domain.SeverityHigh,
			Description: fmt.Sprintf("Found %d suspiciously uniform regions", uniform),
			Evidence:    float64(uniform),
		}
		findings = append(findings, f)
		authenticity -= tamperPenalty(f.Severity)
	}

	// --- error level analysis ---
	ela := a.runELA(img)
	if ela != nil {
		if ela.TamperingDetected {
			findings = append(findings, domain.Finding{
				Type:     "ela_tampering",
				Severity: domain.SeverityHigh,
				Description: fmt.Sprintf("Error level analysis indicates localized recompression (%d suspicious blocks, %s)",
					ela.SuspiciousBlocks, ela.summary()),
				Evidence: float64(ela.SuspiciousBlocks),
			})
			authenticity -= 30
		} else if ela.SuspiciousBlocks > 0 {
			findings = append(findings, domain.Finding{
				Type:     "ela_irregularity",
				Severity: domain.SeverityMedium,
				Description: fmt.Sprintf("Error level analysis found %d blocks above baseline (%s; %s)",
					ela.SuspiciousBlocks, ela.Interpretation, ela.summary()),
				Evidence: float64(ela.SuspiciousBlocks),
			})
			authenticity -= 10
		}
	}

	// --- AI-generation indicators ---
	indicators := a.aiIndicators(img)
	mediumOrWorse := 0
	for _, f := range indicators {
		if f.Severity >= domain.SeverityMedium {
			mediumOrWorse++
		}
		findings = append(findings, f)
	}
	if mediumOrWorse >= 2 || len(indicators) >= 3 {
		confidence := math.Min(float64(len(indicators))*25, 95)
		findings = append(findings, domain.Finding{
			Type:        "likely_ai_generated",
			Severity:    domain.SeverityHigh,
			Description: fmt.Sprintf("Image likely AI-generated (confidence %.0f%%)", confidence),
			Evidence:    confidence,
		})
		authenticity -= confidence * 0.5
	}

	authenticity = domain.ClampScore(authenticity)

	sev := domain.SeverityLow
	for _, f := range findings {
		sev = domain.MaxSeverity(sev, f.Severity)
	}

	return domain.ComponentResult{
		Component: "image_analysis",
		Score:     domain.ClampScore(100 - authenticity),
		Severity:  sev,
		Findings:  findings,
	}, nil
}

// aiIndicators collects the soft signals that together suggest a
// synthetic image.
func (a *Analyzer) aiIndicators(img image.Image) []domain.Finding {
	var indicators []domain.Finding

	if ratio, suspicious := a.frequencyPeakRatio(img); suspicious {
		indicators = append(indicators, domain.Finding{
			Type:        "periodic_artifacts",
			Severity:    domain.SeverityMedium,
			Description: fmt.Sprintf("Frequency spectrum shows periodic artifacts (peak ratio %.1f)", ratio),
			Evidence:    ratio,
		})
	}

	if mean, stddev, suspicious := a.noiseUniformity(img); suspicious {
		indicators = append(indicators, domain.Finding{
			Type:        "uniform_noise",
			Severity:    domain.SeverityMedium,
			Description: fmt.Sprintf("Noise pattern unnaturally uniform (mean %.1f, stddev %.1f)", mean, stddev),
			Evidence:    mean,
		})
	}

	if ratio, suspicious := colorBalance(img); suspicious {
		indicators = append(indicators, domain.Finding{
			Type:        "balanced_channels",
			Severity:    domain.SeverityMedium,
			Description: fmt.Sprintf("Color channels unnaturally balanced (stddev ratio %.2f)", ratio),
			Evidence:    ratio,
		})
	}

	indicators = append(indicators, resolutionIndicators(img)...)
	return indicators
}

var commonAspectRatios = []float64{1.0, 1.5, 0.75, 1.77, 0.56}

var commonGenerationSizes = [][2]int{
	{512, 512}, {1024, 1024}, {768, 768}, {512, 768}, {768, 512},
}

func resolutionIndicators(img image.Image) []domain.Finding {
	var indicators []domain.Finding
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if h == 0 {
		return nil
	}

	aspect := float64(w) / float64(h)
	for _, r := range commonAspectRatios {
		if math.Abs(aspect-r) < 0.01 {
			indicators = append(indicators, domain.Finding{
				Type:        "standard_aspect_ratio",
				Severity:    domain.SeverityLow,
				Description: fmt.Sprintf("Image uses common AI generation aspect ratio: %.2f", aspect),
				Evidence:    aspect,
			})
			break
		}
	}

	for _, sz := range commonGenerationSizes {
		if (w == sz[0] && h == sz[1]) || (w == sz[1] && h == sz[0]) {
			indicators = append(indicators, domain.Finding{
				Type:        "ai_generation_resolution",
				Severity:    domain.SeverityMedium,
				Description: fmt.Sprintf("Image resolution %dx%d matches common AI generation sizes", w, h),
			})
			break
		}
	}

	return indicators
}

// anomalyPenalty is the metadata-anomaly scale.
func anomalyPenalty(s domain.Severity) float64 {
	switch s {
	case domain.SeverityHigh, domain.SeverityCritical:
		return 15
	case domain.SeverityMedium:
		return 10
	default:
		return 5
	}
}

// tamperPenalty is the pixel-tampering scale.
func tamperPenalty(s domain.Severity) float64 {
	switch s {
	case domain.SeverityHigh, domain.SeverityCritical:
		return 25
	case domain.SeverityMedium:
		return 15
	default:
		return 5
	}
}

// countUniformBlocks partitions the image into fixed-size blocks and
// counts blocks whose per-channel variance stays under the cutoff.
func countUniformBlocks(img image.Image, blockSize int, varianceCutoff float64) int {
	if blockSize <= 0 {
		blockSize = 10
	}
	b := img.Bounds()
	uniform := 0

	for y := b.Min.Y; y+blockSize <= b.Max.Y; y += blockSize {
		for x := b.Min.X; x+blockSize <= b.Max.X; x += blockSize {
			var sumR, sumG, sumB float64
			n := float64(blockSize * blockSize)
			for dy := 0; dy < blockSize; dy++ {
				for dx := 0; dx < blockSize; dx++ {
					r, g, bl := rgb8(img, x+dx, y+dy)
					sumR += r
					sumG += g
					sumB += bl
				}
			}
			avgR, avgG, avgB := sumR/n, sumG/n, sumB/n

			var variance float64
			for dy := 0; dy < blockSize; dy++ {
				for dx := 0; dx < blockSize; dx++ {
					r, g, bl := rgb8(img, x+dx, y+dy)
					variance += (r-avgR)*(r-avgR) + (g-avgG)*(g-avgG) + (bl-avgB)*(bl-avgB)
				}
			}
			if variance/n < varianceCutoff {
				uniform++
			}
		}
	}
	return uniform
}

// rgb8 reads a pixel as 8-bit channel values.
func rgb8(img image.Image, x, y int) (float64, float64, float64) {
	r, g, b, _ := img.At(x, y).RGBA()
	return float64(r >> 8), float64(g >> 8), float64(b >> 8)
}

// luminance is the Rec. 601 luma of a pixel.
func luminance(img image.Image, x, y int) float64 {
	r, g, b := rgb8(img, x, y)
	return 0.299*r + 0.587*g + 0.114*b
}
