package imagecheck

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/docutrust/internal/config"
	domain "github.com/bryanwahyu/docutrust/internal/domain/documents"
)

func newTestAnalyzer() *Analyzer {
	return NewAnalyzer(config.DefaultEngine())
}

// flatImage is a single-color canvas, the worst case for every
// uniformity heuristic.
func flatImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 128, G: 128, B: 128, A: 255})
		}
	}
	return img
}

// noisyImage simulates sensor grain with per-pixel random values.
func noisyImage(w, h int, seed int64) *image.RGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func findingTypes(res domain.ComponentResult) map[string]bool {
	out := map[string]bool{}
	for _, f := range res.Findings {
		out[f.Type] = true
	}
	return out
}

func TestAnalyzeRejectsUndecodableBytes(t *testing.T) {
	_, err := newTestAnalyzer().Analyze([]byte("not an image at all"))
	assert.Error(t, err)
}

func TestAnalyzeFlatImageFlagsUniformRegions(t *testing.T) {
	// 100x73 avoids the common aspect-ratio and resolution heuristics
	res, err := newTestAnalyzer().Analyze(encodePNG(t, flatImage(100, 73)))
	require.NoError(t, err)

	types := findingTypes(res)
	assert.True(t, types["clone_stamp_suspected"], "findings: %v", res.Findings)
	assert.True(t, types["missing_metadata"])
	assert.Equal(t, domain.SeverityHigh, res.Severity)
	assert.Greater(t, res.Score, 40.0)
}

func TestAnalyzeNoisyImageStaysModerate(t *testing.T) {
	res, err := newTestAnalyzer().Analyze(encodePNG(t, noisyImage(100, 73, 7)))
	require.NoError(t, err)

	types := findingTypes(res)
	assert.False(t, types["clone_stamp_suspected"])
	assert.False(t, types["uniform_noise"])
	// PNG never carries EXIF, so the metadata penalty always applies
	assert.True(t, types["missing_metadata"])
	assert.LessOrEqual(t, res.Score, 50.0)
}

func TestAnalyzeGenerationResolutionIndicator(t *testing.T) {
	res, err := newTestAnalyzer().Analyze(encodePNG(t, noisyImage(512, 512, 3)))
	require.NoError(t, err)

	types := findingTypes(res)
	assert.True(t, types["ai_generation_resolution"])
	assert.True(t, types["standard_aspect_ratio"])
}

func TestAnalyzeFlatSquareLooksGenerated(t *testing.T) {
	// flat 512x512: uniform noise + aspect ratio + resolution pile up
	res, err := newTestAnalyzer().Analyze(encodePNG(t, flatImage(512, 512)))
	require.NoError(t, err)

	types := findingTypes(res)
	assert.True(t, types["likely_ai_generated"], "findings: %v", res.Findings)
	assert.GreaterOrEqual(t, res.Score, 70.0)
}

func TestELAUniformErrorLevels(t *testing.T) {
	a := newTestAnalyzer()
	res := a.runELA(flatImage(128, 128))
	require.NotNil(t, res)

	assert.False(t, res.TamperingDetected)
	assert.Zero(t, res.SuspiciousBlocks)
	assert.Contains(t, res.Interpretation, "uniform")
}

func TestELAStatsBounded(t *testing.T) {
	a := newTestAnalyzer()
	res := a.runELA(noisyImage(128, 128, 11))
	require.NotNil(t, res)

	assert.GreaterOrEqual(t, res.MaxError, res.MeanError)
	assert.LessOrEqual(t, res.MaxError, 255.0)
	assert.LessOrEqual(t, len(res.TopBlocks), 5)
}

func TestELASummarySurfacesStats(t *testing.T) {
	res := &elaResult{
		MeanError:   12.5,
		MaxError:    88.0,
		StddevError: 6.25,
		TopBlocks:   []elaBlock{{X: 64, Y: 128, MeanError: 40}, {X: 0, Y: 64, MeanError: 31}},
	}

	s := res.summary()
	assert.Contains(t, s, "mean error 12.5")
	assert.Contains(t, s, "max 88.0")
	assert.Contains(t, s, "stddev 6.2")
	assert.Contains(t, s, "(64,128)")
	assert.Contains(t, s, "(0,64)")

	// no hotspot suffix when nothing stood out
	assert.NotContains(t, (&elaResult{}).summary(), "hotspots")
}

func TestCountUniformBlocks(t *testing.T) {
	cfg := config.DefaultEngine()

	flat := flatImage(100, 100)
	assert.Equal(t, 100, countUniformBlocks(flat, cfg.UniformBlockSize, cfg.UniformVarianceCutoff))

	noisy := noisyImage(100, 100, 5)
	assert.Zero(t, countUniformBlocks(noisy, cfg.UniformBlockSize, cfg.UniformVarianceCutoff))
}

func TestNoiseUniformity(t *testing.T) {
	a := newTestAnalyzer()

	mean, stddev, suspicious := a.noiseUniformity(flatImage(100, 100))
	assert.True(t, suspicious)
	// sumSq/n - mean*mean leaves a ~1e-12 residual on flat regions
	assert.InDelta(t, 0, mean, 1e-9)
	assert.InDelta(t, 0, stddev, 1e-9)

	_, _, suspicious = a.noiseUniformity(noisyImage(100, 100, 9))
	assert.False(t, suspicious)
}

func TestNoiseUniformityDeterministic(t *testing.T) {
	a := newTestAnalyzer()
	img := noisyImage(64, 64, 13)

	m1, s1, _ := a.noiseUniformity(img)
	m2, s2, _ := a.noiseUniformity(img)
	assert.Equal(t, m1, m2)
	assert.Equal(t, s1, s2)
}

func TestColorBalance(t *testing.T) {
	// gray gradient: all three channels move identically
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			v := uint8((x * 4) % 256)
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	ratio, suspicious := colorBalance(img)
	assert.True(t, suspicious)
	assert.InDelta(t, 1.0, ratio, 0.001)

	// red-only gradient: red spread dwarfs the others
	skewed := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			skewed.Set(x, y, color.RGBA{R: uint8((x * 4) % 256), G: uint8(100 + x%8), B: uint8(100 + y%8), A: 255})
		}
	}
	_, suspicious = colorBalance(skewed)
	assert.False(t, suspicious)
}

func TestResolutionIndicators(t *testing.T) {
	assert.Len(t, resolutionIndicators(flatImage(512, 512)), 2)
	assert.Len(t, resolutionIndicators(flatImage(768, 512)), 2)
	assert.Empty(t, resolutionIndicators(flatImage(100, 73)))
}
