// Package gabor measures oriented texture by correlating each object
// with a small bank of complex Gabor kernels. Kernel size and bandwidth
// are derived from the median object area of the set, so the bank is
// built once per (label image, parameters) pair and shared across
// objects.
package gabor

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"cellfeat/internal/models"
	"cellfeat/pkg/objects"
)

// amplitude is the constant numerator of the Gaussian envelope gain
// 1000/(2πσ²), carried over from the original filter definition so that
// responses stay on a comparable scale across object sets.
const amplitude = 1000.0

// Params configures the filter bank.
type Params struct {
	// Scale is the texture scale in pixels; the base kernel frequency is
	// 1/(2·Scale).
	Scale int

	// Frequencies is the number of frequencies in the bank. Frequency j
	// (1-based) is j/(2·Scale), and each frequency contributes an x- and
	// a y-oriented response column.
	Frequencies int
}

// DefaultParams returns the standard parameters: scale 3, one frequency.
func DefaultParams() Params {
	return Params{Scale: 3, Frequencies: 1}
}

// FeatureNames returns the response column names for the given frequency
// count, x orientation before y within each frequency.
func FeatureNames(frequencies int) []string {
	names := make([]string, 0, 2*frequencies)
	for j := 1; j <= frequencies; j++ {
		names = append(names, fmt.Sprintf("Gabor%dX", j), fmt.Sprintf("Gabor%dY", j))
	}
	return names
}

// Bank is a set of complex Gabor kernels sharing one Gaussian envelope.
// Kernels are stored row-major on a (2K+1)×(2K+1) grid, ordered by
// frequency and, within a frequency, orientation 0 then π/2.
type Bank struct {
	kernels  [][]complex128
	halfSize int
	sigma    float64
}

// NewBank builds the kernel bank for an object set with the given median
// object area. The envelope width is sigma = sqrt(medianArea/π)/3 (a
// third of the equivalent-circle radius) and the grid half-size is
// round(2.5·sigma).
func NewBank(medianArea float64, p Params) (*Bank, error) {
	sigma := math.Sqrt(medianArea/math.Pi) / 3
	halfSize := int(math.Round(2.5 * sigma))
	return newBank(sigma, halfSize, p)
}

// NewWholeImageBank builds the bank for the whole-image pseudo-object:
// the envelope derives from the full pixel count and the grid half-size
// covers half the larger image dimension.
func NewWholeImageBank(width, height int, p Params) (*Bank, error) {
	sigma := math.Sqrt(float64(width*height)/math.Pi) / 3
	halfSize := width / 2
	if height > width {
		halfSize = height / 2
	}
	return newBank(sigma, halfSize, p)
}

func newBank(sigma float64, halfSize int, p Params) (*Bank, error) {
	if p.Scale < 1 {
		return nil, &models.InvalidPatchError{
			Reason: fmt.Sprintf("gabor scale must be at least 1, got %d", p.Scale),
		}
	}
	if p.Frequencies < 1 {
		return nil, &models.InvalidPatchError{
			Reason: fmt.Sprintf("gabor bank needs at least 1 frequency, got %d", p.Frequencies),
		}
	}

	b := &Bank{
		kernels:  make([][]complex128, 0, 2*p.Frequencies),
		halfSize: halfSize,
		sigma:    sigma,
	}
	for j := 1; j <= p.Frequencies; j++ {
		freq := float64(j) / (2 * float64(p.Scale))
		for _, theta := range []float64{0, math.Pi / 2} {
			b.kernels = append(b.kernels, b.makeKernel(freq, theta))
		}
	}
	return b, nil
}

// makeKernel builds one complex kernel: a Gaussian envelope modulated by
// a plane wave along orientation theta, then mean-subtracted. The zero-DC
// correction is essential: without it the response measures absolute
// intensity instead of texture.
func (b *Bank) makeKernel(freq, theta float64) []complex128 {
	size := b.Size()
	gain := amplitude / (2 * math.Pi * b.sigma * b.sigma)
	cosT, sinT := math.Cos(theta), math.Sin(theta)

	g := make([]complex128, size*size)
	for r := 0; r < size; r++ {
		y := float64(r - b.halfSize)
		for c := 0; c < size; c++ {
			x := float64(c - b.halfSize)
			envelope := gain * math.Exp(-(x*x+y*y)/(2*b.sigma*b.sigma))
			phase := 2 * math.Pi * freq * (x*cosT + y*sinT)
			g[r*size+c] = complex(envelope*math.Cos(phase), envelope*math.Sin(phase))
		}
	}

	var mean complex128
	for _, v := range g {
		mean += v
	}
	mean /= complex(float64(len(g)), 0)
	for i := range g {
		g[i] -= mean
	}
	return g
}

// Size returns the kernel edge length 2K+1.
func (b *Bank) Size() int {
	return 2*b.halfSize + 1
}

// KernelCount returns the number of kernels in the bank.
func (b *Bank) KernelCount() int {
	return len(b.kernels)
}

// Kernel returns the k-th kernel of the bank.
func (b *Bank) Kernel(k int) []complex128 {
	return b.kernels[k]
}

// Respond computes the response magnitude |Σ g·window| of every kernel
// against a Size()×Size() intensity window.
func (b *Bank) Respond(window []float64) []float64 {
	out := make([]float64, len(b.kernels))
	for k, g := range b.kernels {
		var sum complex128
		for i, v := range window {
			sum += g[i] * complex(v, 0)
		}
		out[k] = cmplx.Abs(sum)
	}
	return out
}

// Compute measures the Gabor responses of every object in the label
// image, returning an ObjectCount × 2·Frequencies matrix whose columns
// parallel FeatureNames. Windows are centered at rounded centroids and
// zero-padded at image borders; objects near the edge get attenuated
// responses by construction, which callers must expect.
func Compute(img *models.GreyImage, labels *models.LabelImage, p Params) (*mat.Dense, error) {
	if !models.SameExtent(img, labels) {
		return nil, &models.ShapeMismatchError{
			GreyWidth: img.Width, GreyHeight: img.Height,
			LabelWidth: labels.Width, LabelHeight: labels.Height,
		}
	}
	n := labels.ObjectCount()
	if n == 0 {
		return nil, &models.EmptyObjectSetError{}
	}

	areas := objects.Areas(labels)
	sorted := make([]float64, len(areas))
	copy(sorted, areas)
	sort.Float64s(sorted)
	medianArea := stat.Quantile(0.5, stat.Empirical, sorted, nil)

	bank, err := NewBank(medianArea, p)
	if err != nil {
		return nil, err
	}

	centroids := objects.Centroids(labels)
	out := mat.NewDense(n, bank.KernelCount(), nil)
	for i := 0; i < n; i++ {
		window := objects.PaddedWindow(img, centroids[i][0], centroids[i][1], bank.Size())
		out.SetRow(i, bank.Respond(window))
	}
	return out, nil
}

// ComputeWholeImage measures the responses of the entire image treated
// as a single object: a 1 × 2·Frequencies matrix, with the window
// centered on the image and zero-padded out to the kernel size.
func ComputeWholeImage(img *models.GreyImage, p Params) (*mat.Dense, error) {
	bank, err := NewWholeImageBank(img.Width, img.Height, p)
	if err != nil {
		return nil, err
	}
	cy := float64(img.Height-1) / 2
	cx := float64(img.Width-1) / 2
	window := objects.PaddedWindow(img, cy, cx, bank.Size())
	out := mat.NewDense(1, bank.KernelCount(), nil)
	out.SetRow(0, bank.Respond(window))
	return out, nil
}
