package imagecheck

import (
	"image"
	"math"
	"math/cmplx"
)

// dftSize bounds the cost of the frequency pass. Images are resampled
// to this grid before transforming.
const dftSize = 64

// frequencyPeakRatio looks for periodic artifacts in the luminance
// spectrum. Upscaler and diffusion grids leave regular peaks in the
// radial power profile; a natural photo decays smoothly. Returns the
// peak-to-mean ratio of the profile's own spectrum and whether it
// exceeds the configured cutoff.
func (a *Analyzer) frequencyPeakRatio(img image.Image) (float64, bool) {
	gray := resampleGray(img, dftSize)
	spectrum := dft2(gray, dftSize)
	profile := radialProfile(spectrum, dftSize)
	if len(profile) < 4 {
		return 0, false
	}

	// Transform the radial profile itself. Any repeating structure in
	// the spectrum shows up here as a dominant non-DC peak.
	coeffs := dft1(profile)
	var peak, rest float64
	restN := 0
	for k := 1; k < len(coeffs)/2; k++ {
		m := cmplx.Abs(coeffs[k])
		if m > peak {
			peak = m
		}
		rest += m
		restN++
	}
	if restN <= 1 || rest == 0 {
		return 0, false
	}
	mean := (rest - peak) / float64(restN-1)
	if mean == 0 {
		return 0, false
	}
	ratio := peak / mean
	return ratio, ratio > a.cfg.FrequencyPeakRatio
}

// resampleGray nearest-neighbor samples the image onto an n×n
// luminance grid.
func resampleGray(img image.Image, n int) []float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]float64, n*n)
	if w == 0 || h == 0 {
		return out
	}
	for y := 0; y < n; y++ {
		sy := b.Min.Y + y*h/n
		for x := 0; x < n; x++ {
			sx := b.Min.X + x*w/n
			out[y*n+x] = luminance(img, sx, sy)
		}
	}
	return out
}

// dft2 computes the 2-D transform magnitude, row pass then column pass.
func dft2(data []float64, n int) []float64 {
	rows := make([][]complex128, n)
	for y := 0; y < n; y++ {
		row := make([]complex128, n)
		for x := 0; x < n; x++ {
			row[x] = complex(data[y*n+x], 0)
		}
		rows[y] = dftComplex(row)
	}

	mag := make([]float64, n*n)
	col := make([]complex128, n)
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			col[y] = rows[y][x]
		}
		out := dftComplex(col)
		for y := 0; y < n; y++ {
			mag[y*n+x] = cmplx.Abs(out[y])
		}
	}
	return mag
}

// radialProfile averages spectrum magnitude over rings around the
// centered DC component.
func radialProfile(mag []float64, n int) []float64 {
	maxR := n / 2
	sums := make([]float64, maxR)
	counts := make([]int, maxR)
	cx, cy := n/2, n/2

	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			// Shift so DC sits at the center.
			sx := (x + n/2) % n
			sy := (y + n/2) % n
			dx := float64(sx - cx)
			dy := float64(sy - cy)
			r := int(math.Sqrt(dx*dx + dy*dy))
			if r < maxR {
				sums[r] += mag[y*n+x]
				counts[r]++
			}
		}
	}

	profile := make([]float64, maxR)
	for r := 0; r < maxR; r++ {
		if counts[r] > 0 {
			profile[r] = sums[r] / float64(counts[r])
		}
	}
	return profile
}

func dft1(data []float64) []complex128 {
	in := make([]complex128, len(data))
	for i, v := range data {
		in[i] = complex(v, 0)
	}
	return dftComplex(in)
}

func dftComplex(in []complex128) []complex128 {
	n := len(in)
	out := make([]complex128, n)
	for k := 0; k < n; k++ {
		var sum complex128
		for t := 0; t < n; t++ {
			angle := -2 * math.Pi * float64(k) * float64(t) / float64(n)
			sum += in[t] * cmplx.Exp(complex(0, angle))
		}
		out[k] = sum
	}
	return out
}
