// Package haralick computes grey-level co-occurrence texture statistics.
// A masked intensity patch is quantized to a small number of grey levels,
// horizontally shifted pixel pairs are accumulated into a co-occurrence
// probability matrix, and 13 scalar texture descriptors are derived from
// it following Haralick, Shanmugam and Dinstein (1973).
package haralick

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"cellfeat/internal/models"
)

// FeatureCount is the number of texture statistics derived from one
// co-occurrence matrix.
const FeatureCount = 13

// eps is the machine epsilon for float64, added to every logarithm
// argument so that empty histogram cells contribute zero rather than
// -Inf to the entropy sums.
var eps = math.Nextafter(1, 2) - 1

// Config holds the co-occurrence parameters. Both are explicit inputs
// rather than package state so that a single process can run engines
// with different quantizations side by side.
type Config struct {
	// Levels is the number of equal-width quantization bins over the
	// normalized [0,1] intensity range.
	Levels int

	// Shift is the horizontal pixel offset between the two members of a
	// co-occurrence pair. Larger shifts measure coarser texture.
	Shift int
}

// DefaultConfig returns the standard parameters: 8 grey levels, shift 1.
func DefaultConfig() Config {
	return Config{Levels: 8, Shift: 1}
}

// FeatureNames returns the 13 statistic names in output column order.
func FeatureNames() []string {
	return []string{
		"AngularSecondMoment",
		"Contrast",
		"Correlation",
		"Variance",
		"InverseDifferenceMoment",
		"SumAverage",
		"SumVariance",
		"SumEntropy",
		"Entropy",
		"DifferenceVariance",
		"DifferenceEntropy",
		"InfoMeas1",
		"InfoMeas2",
	}
}

// CoOccurrence builds the Levels×Levels co-occurrence probability matrix
// of a masked grey patch. The patch is min-max normalized over masked
// pixels only, quantized, and every pair (q[r,c], q[r,c+shift]) with both
// pixels under the mask is counted; pairs crossing the mask or the right
// patch edge are discarded, never wrapped. The result sums to 1, or is
// all-zero when no valid pair exists (a legal degenerate case).
func CoOccurrence(grey []float64, mask []bool, width, height int, cfg Config) ([][]float64, error) {
	if err := validate(grey, mask, width, height, cfg); err != nil {
		return nil, err
	}

	q := quantize(grey, mask, width*height, cfg.Levels)

	p := make([][]float64, cfg.Levels)
	for i := range p {
		p[i] = make([]float64, cfg.Levels)
	}
	pairs := 0.0
	for r := 0; r < height; r++ {
		for c := 0; c+cfg.Shift < width; c++ {
			i := r*width + c
			j := i + cfg.Shift
			if !mask[i] || !mask[j] {
				continue
			}
			p[q[i]][q[j]]++
			pairs++
		}
	}
	if pairs > 0 {
		for i := range p {
			for j := range p[i] {
				p[i][j] /= pairs
			}
		}
	}
	return p, nil
}

// Features computes the 13 Haralick statistics of a masked grey patch.
// The returned slice parallels FeatureNames. Degenerate inputs (flat
// intensity, no valid pairs) yield finite guarded values, not errors.
func Features(grey []float64, mask []bool, width, height int, cfg Config) ([]float64, error) {
	p, err := CoOccurrence(grey, mask, width, height, cfg)
	if err != nil {
		return nil, err
	}

	nl := cfg.Levels

	// Marginal distributions over the first (x) and second (y) pair member.
	px := make([]float64, nl)
	py := make([]float64, nl)
	for i := 0; i < nl; i++ {
		for j := 0; j < nl; j++ {
			px[i] += p[i][j]
			py[j] += p[i][j]
		}
	}

	// Level values are 1..Levels, matching the quantization bin labels.
	var mux, muy float64
	for i := 0; i < nl; i++ {
		mux += float64(i+1) * px[i]
		muy += float64(i+1) * py[i]
	}
	var varx, vary float64
	for i := 0; i < nl; i++ {
		varx += (float64(i+1) - mux) * (float64(i+1) - mux) * px[i]
		vary += (float64(i+1) - muy) * (float64(i+1) - muy) * py[i]
	}
	sigmax := math.Sqrt(varx)
	sigmay := math.Sqrt(vary)

	// Sum distribution p_{x+y} over k = 2..2*Levels and difference
	// distribution p_{x-y} over k = 0..Levels-1.
	pxpy := make([]float64, 2*nl+1)
	pxmy := make([]float64, nl)
	for i := 0; i < nl; i++ {
		for j := 0; j < nl; j++ {
			pxpy[i+j+2] += p[i][j]
			d := i - j
			if d < 0 {
				d = -d
			}
			pxmy[d] += p[i][j]
		}
	}

	hx := entropy(px)
	hy := entropy(py)
	var hxy, hxy1, hxy2, crossSum float64
	for i := 0; i < nl; i++ {
		for j := 0; j < nl; j++ {
			hxy -= p[i][j] * math.Log(p[i][j]+eps)
			hxy1 -= p[i][j] * math.Log(px[i]*py[j]+eps)
			hxy2 -= px[i] * py[j] * math.Log(px[i]*py[j]+eps)
			crossSum += float64(i+1) * float64(j+1) * p[i][j]
		}
	}

	f := make([]float64, FeatureCount)

	// f0: angular second moment.
	for i := 0; i < nl; i++ {
		for j := 0; j < nl; j++ {
			f[0] += p[i][j] * p[i][j]
		}
	}

	// f1: contrast.
	for k := 0; k < nl; k++ {
		f[1] += float64(k*k) * pxmy[k]
	}

	// f2: correlation. Zero on a flat patch, where both sigmas vanish and
	// the numerator vanishes with them.
	if sigmax > 0 && sigmay > 0 {
		f[2] = (crossSum - mux*muy) / (sigmax * sigmay)
	}

	// f3: variance of the x marginal.
	f[3] = varx

	// f4: inverse difference moment.
	for i := 0; i < nl; i++ {
		for j := 0; j < nl; j++ {
			d := float64(i - j)
			f[4] += p[i][j] / (1 + d*d)
		}
	}

	// f5, f6, f7: sum average, sum variance, sum entropy.
	for k := 2; k <= 2*nl; k++ {
		f[5] += float64(k) * pxpy[k]
	}
	for k := 2; k <= 2*nl; k++ {
		f[6] += (float64(k) - f[5]) * (float64(k) - f[5]) * pxpy[k]
	}
	f[7] = entropy(pxpy)

	// f8: entropy.
	f[8] = hxy

	// f9, f10: difference variance and difference entropy.
	var diffMean float64
	for k := 0; k < nl; k++ {
		diffMean += float64(k) * pxmy[k]
	}
	for k := 0; k < nl; k++ {
		f[9] += (float64(k) - diffMean) * (float64(k) - diffMean) * pxmy[k]
	}
	f[10] = entropy(pxmy)

	// f11: information measure of correlation 1.
	if hm := math.Max(hx, hy); hm > 0 {
		f[11] = (hxy - hxy1) / hm
	}

	// f12: information measure of correlation 2. Floating error can push
	// the sqrt argument a hair below zero (the original derivation notes
	// the imaginary result without resolving its cause); clamp instead of
	// letting NaN escape.
	arg := 1 - math.Exp(-2*(hxy2-hxy))
	if arg < 0 {
		arg = 0
	}
	f[12] = math.Sqrt(arg)

	return f, nil
}

// quantize maps masked intensities to bin indices 0..levels-1. The patch
// is min-max normalized over masked pixels first; when every masked pixel
// has the same intensity the normalization is skipped (the raw values are
// quantized directly, with out-of-range values clamped into the end bins)
// rather than dividing by zero.
func quantize(grey []float64, mask []bool, n, levels int) []int {
	min, max := math.Inf(1), math.Inf(-1)
	for i := 0; i < n; i++ {
		if !mask[i] {
			continue
		}
		if grey[i] < min {
			min = grey[i]
		}
		if grey[i] > max {
			max = grey[i]
		}
	}

	q := make([]int, n)
	for i := 0; i < n; i++ {
		if !mask[i] {
			continue
		}
		v := grey[i]
		if max > min {
			v = (v - min) / (max - min)
		}
		b := int(v * float64(levels))
		if b >= levels {
			// The top bin boundary (v == 1) belongs to the last bin.
			b = levels - 1
		}
		if b < 0 {
			b = 0
		}
		q[i] = b
	}
	return q
}

// entropy computes -Σ d·log(d+eps) over a probability distribution.
func entropy(d []float64) float64 {
	var h float64
	for _, v := range d {
		h -= v * math.Log(v+eps)
	}
	return h
}

func validate(grey []float64, mask []bool, width, height int, cfg Config) error {
	if len(grey) != width*height || len(mask) != width*height {
		return &models.InvalidPatchError{
			Reason: fmt.Sprintf("data length %d/%d does not match %dx%d",
				len(grey), len(mask), width, height),
		}
	}
	if cfg.Levels < 2 {
		return &models.InvalidPatchError{
			Reason: fmt.Sprintf("quantization needs at least 2 levels, got %d", cfg.Levels),
		}
	}
	if cfg.Shift < 1 {
		return &models.InvalidPatchError{
			Reason: fmt.Sprintf("shift must be at least 1, got %d", cfg.Shift),
		}
	}
	if cfg.Shift >= width {
		return &models.InvalidPatchError{
			Reason: fmt.Sprintf("shift %d is not smaller than patch width %d", cfg.Shift, width),
		}
	}
	return nil
}

// MatrixSum is the total probability mass of a co-occurrence matrix,
// 1 for any patch with at least one valid pair and 0 otherwise.
func MatrixSum(p [][]float64) float64 {
	var s float64
	for _, row := range p {
		s += floats.Sum(row)
	}
	return s
}
