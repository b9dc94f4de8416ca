package imagecheck

import (
	"image"
	"math"
	"math/rand"
)

const (
	noiseRegions    = 8
	noiseRegionSize = 16
)

// noiseUniformity samples small regions and measures luminance
// variance. Camera sensors leave grain everywhere; synthetic images
// tend to be uniformly smooth. Suspicious when the average regional
// variance is low and the regions barely differ from each other.
// Sampling is seeded from the image dimensions so repeated runs on the
// same input agree.
func (a *Analyzer) noiseUniformity(img image.Image) (float64, float64, bool) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < noiseRegionSize || h < noiseRegionSize {
		return 0, 0, false
	}

	rng := rand.New(rand.NewSource(int64(w)<<32 | int64(h)))
	variances := make([]float64, 0, noiseRegions)
	for i := 0; i < noiseRegions; i++ {
		x0 := b.Min.X + rng.Intn(w-noiseRegionSize+1)
		y0 := b.Min.Y + rng.Intn(h-noiseRegionSize+1)
		variances = append(variances, regionVariance(img, x0, y0, noiseRegionSize))
	}

	var sum float64
	for _, v := range variances {
		sum += v
	}
	mean := sum / float64(len(variances))

	var sq float64
	for _, v := range variances {
		sq += (v - mean) * (v - mean)
	}
	stddev := math.Sqrt(sq / float64(len(variances)))

	return mean, stddev, mean < a.cfg.NoiseMeanCutoff && stddev < a.cfg.NoiseStddevCutoff
}

func regionVariance(img image.Image, x0, y0, size int) float64 {
	var sum, sumSq float64
	n := float64(size * size)
	for y := y0; y < y0+size; y++ {
		for x := x0; x < x0+size; x++ {
			l := luminance(img, x, y)
			sum += l
			sumSq += l * l
		}
	}
	mean := sum / n
	v := sumSq/n - mean*mean
	if v < 0 {
		v = 0
	}
	return v
}

// colorBalance compares per-channel spread. Natural photos rarely have
// near-identical red, green and blue distributions; generators often
// do. Suspicious when the widest channel stddev is within 20% of the
// narrowest.
func colorBalance(img image.Image) (float64, bool) {
	b := img.Bounds()
	n := float64(b.Dx() * b.Dy())
	if n == 0 {
		return 0, false
	}

	var sum, sumSq [3]float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl := rgb8(img, x, y)
			for i, v := range [3]float64{r, g, bl} {
				sum[i] += v
				sumSq[i] += v * v
			}
		}
	}

	minStd, maxStd := math.MaxFloat64, 0.0
	for i := 0; i < 3; i++ {
		mean := sum[i] / n
		v := sumSq[i]/n - mean*mean
		if v < 0 {
			v = 0
		}
		std := math.Sqrt(v)
		if std < minStd {
			minStd = std
		}
		if std > maxStd {
			maxStd = std
		}
	}
	if minStd == 0 {
		return 0, false
	}
	ratio := maxStd / minStd
	return ratio, ratio < 1.2
}
