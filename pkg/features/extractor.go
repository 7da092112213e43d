// Package features drives per-object feature extraction: it runs the
// Haralick, Gabor and Zernike engines over a (grey image, label image)
// pair and assembles one dense objects × features matrix with a parallel
// feature-name list. Objects are independent, so the Haralick pass fans
// out across a bounded worker pool; every worker writes only its own
// rows of the preallocated output.
package features

import (
	"fmt"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/mat"

	"cellfeat/internal/models"
	"cellfeat/pkg/gabor"
	"cellfeat/pkg/haralick"
	"cellfeat/pkg/objects"
	"cellfeat/pkg/zernike"
)

// Params configures a full extraction run. Zero values are not valid;
// start from DefaultParams and override.
type Params struct {
	// Scale is the texture scale in pixels: the co-occurrence shift and
	// the base Gabor wavelength parameter.
	Scale int

	// Levels is the co-occurrence quantization level count.
	Levels int

	// Frequencies is the number of Gabor frequencies (2 columns each).
	Frequencies int

	// ZernikeDegree is the highest Zernike polynomial degree.
	ZernikeDegree int

	// PixelSize is the physical size of one pixel; Area scales by its
	// square and Perimeter linearly. Texture features stay pixel-unit.
	PixelSize float64

	// NumCores bounds the worker pool for the per-object passes.
	NumCores int
}

// DefaultParams returns the standard extraction parameters.
func DefaultParams() Params {
	return Params{
		Scale:         3,
		Levels:        8,
		Frequencies:   1,
		ZernikeDegree: 9,
		PixelSize:     1,
		NumCores:      runtime.NumCPU(),
	}
}

// Result pairs a feature matrix with its column names. Row i holds
// object i+1; column order is fixed by Names and stable across calls on
// the same inputs.
type Result struct {
	// Names lists the feature columns in matrix order.
	Names []string

	// Matrix is the ObjectCount × len(Names) feature matrix.
	Matrix *mat.Dense
}

// ComputeHaralick computes the 13 Haralick statistics of one object.
// scale is the co-occurrence shift in pixels.
func ComputeHaralick(img *models.GreyImage, labels *models.LabelImage, objectID, scale int) ([]float64, error) {
	patch, err := objects.Extract(img, labels, objectID)
	if err != nil {
		return nil, err
	}
	cfg := haralick.DefaultConfig()
	cfg.Shift = scale
	return haralick.Features(patch.Grey, patch.Mask, patch.Width, patch.Height, cfg)
}

// ComputeHaralickWholeImage computes the 13 Haralick statistics of the
// entire image treated as a single object with an all-true mask. Pairs
// are still discarded at the right edge; there is no wraparound.
func ComputeHaralickWholeImage(img *models.GreyImage, scale int) ([]float64, error) {
	mask := make([]bool, img.Width*img.Height)
	for i := range mask {
		mask[i] = true
	}
	cfg := haralick.DefaultConfig()
	cfg.Shift = scale
	return haralick.Features(img.Pixels, mask, img.Width, img.Height, cfg)
}

// ComputeGabor computes the Gabor response matrix of every object:
// ObjectCount rows, 2·frequencyCount columns.
func ComputeGabor(img *models.GreyImage, labels *models.LabelImage, scale, frequencyCount int) (*mat.Dense, error) {
	return gabor.Compute(img, labels, gabor.Params{Scale: scale, Frequencies: frequencyCount})
}

// ComputeZernike computes the Zernike moment matrix, the per-object
// perimeter vector and the moment names for every object.
func ComputeZernike(labels *models.LabelImage) (*mat.Dense, []float64, []string, error) {
	return zernike.Compute(labels, zernike.DefaultConfig())
}

// ExtractAll runs all three engines over every object and concatenates
// the results: 13 Haralick columns, 2·Frequencies Gabor columns, the
// Zernike moments, then Area, Perimeter and FormFactor.
func ExtractAll(img *models.GreyImage, labels *models.LabelImage, p Params) (*Result, error) {
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

	haralickRows, err := haralickAll(img, labels, n, p)
	if err != nil {
		return nil, err
	}

	gaborMat, err := ComputeGabor(img, labels, p.Scale, p.Frequencies)
	if err != nil {
		return nil, err
	}

	zernikeMat, perimeters, zernikeNames, err := zernike.Compute(labels, zernike.Config{MaxDegree: p.ZernikeDegree, PixelSize: p.PixelSize})
	if err != nil {
		return nil, err
	}

	shapeMat := zernike.ShapeFeatures(objects.Areas(labels), perimeters, p.PixelSize)

	return assemble(n, p, haralickRows, gaborMat, zernikeMat, zernikeNames, shapeMat), nil
}

// ExtractWholeImage runs all three engines over the whole-image
// pseudo-object: a single all-true object covering every pixel. The
// Gabor kernel half-size covers half the larger image dimension in this
// mode; everything else follows the per-object path with ObjectCount 1.
func ExtractWholeImage(img *models.GreyImage, p Params) (*Result, error) {
	labels := models.WholeImage(img.Width, img.Height)

	hvec, err := ComputeHaralickWholeImage(img, p.Scale)
	if err != nil {
		return nil, err
	}

	gaborMat, err := gabor.ComputeWholeImage(img, gabor.Params{Scale: p.Scale, Frequencies: p.Frequencies})
	if err != nil {
		return nil, err
	}

	zernikeMat, perimeters, zernikeNames, err := zernike.Compute(labels, zernike.Config{MaxDegree: p.ZernikeDegree, PixelSize: p.PixelSize})
	if err != nil {
		return nil, err
	}

	shapeMat := zernike.ShapeFeatures(objects.Areas(labels), perimeters, p.PixelSize)

	return assemble(1, p, [][]float64{hvec}, gaborMat, zernikeMat, zernikeNames, shapeMat), nil
}

// haralickAll computes the Haralick rows of every object across a
// bounded worker pool. Workers share nothing but the input images and
// write disjoint rows, so the output is deterministic regardless of
// scheduling.
func haralickAll(img *models.GreyImage, labels *models.LabelImage, n int, p Params) ([][]float64, error) {
	rows := make([][]float64, n)
	errs := make([]error, n)

	workers := p.NumCores
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	ids := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range ids {
				row, err := computeHaralickRow(img, labels, id, p)
				rows[id-1] = row
				errs[id-1] = err
			}
		}()
	}
	for id := 1; id <= n; id++ {
		ids <- id
	}
	close(ids)
	wg.Wait()

	for id, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", id+1, err)
		}
	}
	return rows, nil
}

// computeHaralickRow handles objects too narrow for the configured
// shift: the shift is an invalid-patch condition for a bounding box
// narrower than shift+1 pixels, and such objects report all-zero
// texture rather than failing the whole set.
func computeHaralickRow(img *models.GreyImage, labels *models.LabelImage, id int, p Params) ([]float64, error) {
	patch, err := objects.Extract(img, labels, id)
	if err != nil {
		return nil, err
	}
	if p.Scale >= patch.Width {
		return make([]float64, haralick.FeatureCount), nil
	}
	cfg := haralick.Config{Levels: p.Levels, Shift: p.Scale}
	return haralick.Features(patch.Grey, patch.Mask, patch.Width, patch.Height, cfg)
}

func assemble(n int, p Params, haralickRows [][]float64, gaborMat, zernikeMat *mat.Dense, zernikeNames []string, shapeMat *mat.Dense) *Result {
	names := make([]string, 0, haralick.FeatureCount+2*p.Frequencies+len(zernikeNames)+3)
	names = append(names, haralick.FeatureNames()...)
	names = append(names, gabor.FeatureNames(p.Frequencies)...)
	names = append(names, zernikeNames...)
	names = append(names, zernike.ShapeFeatureNames()...)

	out := mat.NewDense(n, len(names), nil)
	for i := 0; i < n; i++ {
		col := 0
		for _, v := range haralickRows[i] {
			out.Set(i, col, v)
			col++
		}
		for j := 0; j < gaborMat.RawMatrix().Cols; j++ {
			out.Set(i, col, gaborMat.At(i, j))
			col++
		}
		for j := 0; j < zernikeMat.RawMatrix().Cols; j++ {
			out.Set(i, col, zernikeMat.At(i, j))
			col++
		}
		for j := 0; j < 3; j++ {
			out.Set(i, col, shapeMat.At(i, j))
			col++
		}
	}

	return &Result{Names: names, Matrix: out}
}
