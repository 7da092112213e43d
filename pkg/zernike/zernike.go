// Package zernike computes Zernike-moment shape descriptors of segmented
// objects, together with the perimeter and form-factor measures derived
// from the same binary patches. The polynomial basis lives on the unit
// disk, sampled at a diameter derived from the mean object area so the
// basis is built once and shared across the whole object set.
package zernike

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"cellfeat/internal/models"
	"cellfeat/pkg/objects"
)

var eps = math.Nextafter(1, 2) - 1

// Index identifies one Zernike polynomial by degree N and repetition M.
// Valid indices have 0 <= M <= N with N-M even.
type Index struct {
	N, M int
}

// Config holds the Zernike parameters.
type Config struct {
	// MaxDegree is the highest polynomial degree included in the basis.
	MaxDegree int

	// PixelSize converts pixel measures to physical units in
	// ShapeFeatures: Area scales by PixelSize², Perimeter by PixelSize.
	// Moments and raw perimeters are always pixel-unit.
	PixelSize float64
}

// DefaultConfig returns the standard parameters: degree 9, unit pixels.
func DefaultConfig() Config {
	return Config{MaxDegree: 9, PixelSize: 1}
}

// Indices enumerates the valid (n, m) pairs up to maxDegree, in
// increasing n and increasing m within n. This order fixes the moment
// column order and must match FeatureNames exactly.
func Indices(maxDegree int) []Index {
	if maxDegree < 0 {
		panic(fmt.Sprintf("zernike: negative max degree %d", maxDegree))
	}
	var out []Index
	for n := 0; n <= maxDegree; n++ {
		for m := n % 2; m <= n; m += 2 {
			out = append(out, Index{N: n, M: m})
		}
	}
	return out
}

// FeatureNames returns the moment column names for the given index list.
func FeatureNames(indices []Index) []string {
	names := make([]string, len(indices))
	for i, idx := range indices {
		names[i] = fmt.Sprintf("Zernike%d_%d", idx.N, idx.M)
	}
	return names
}

// Diameter derives the basis sampling diameter from the mean object
// area: the equivalent-circle diameter, floored plus one, rounded up to
// the next odd integer so patches have a center pixel.
func Diameter(meanArea float64) int {
	d := int(math.Floor(math.Sqrt(4/math.Pi*meanArea) + 1))
	if d%2 == 0 {
		d++
	}
	return d
}

// Polynomial samples the Zernike polynomial V_nm on a diameter×diameter
// grid spanning [-1,1]², zeroed outside the unit disk. Invalid indices
// are a programming error and panic.
func Polynomial(n, m, diameter int) []complex128 {
	if n < 0 || m < 0 || m > n || (n-m)%2 != 0 {
		panic(fmt.Sprintf("zernike: invalid index (%d, %d)", n, m))
	}

	out := make([]complex128, diameter*diameter)
	for r := 0; r < diameter; r++ {
		y := gridCoord(r, diameter)
		for c := 0; c < diameter; c++ {
			x := gridCoord(c, diameter)
			rad := math.Sqrt(x*x + y*y)
			if rad > 1 {
				continue
			}
			phi := math.Atan2(y, x+eps)

			// Standard radial polynomial R_nm by factorial summation.
			var radial float64
			sign := 1.0
			for l := 0; l <= (n-m)/2; l++ {
				radial += sign * factorial(n-l) /
					(factorial(l) * factorial((n+m)/2-l) * factorial((n-m)/2-l)) *
					math.Pow(rad, float64(n-2*l))
				sign = -sign
			}

			out[r*diameter+c] = complex(radial, 0) * cmplx.Exp(complex(0, float64(m)*phi))
		}
	}
	return out
}

// gridCoord maps a pixel index to its [-1,1] sample coordinate.
func gridCoord(i, diameter int) float64 {
	if diameter <= 1 {
		return 0
	}
	return 2*float64(i)/float64(diameter-1) - 1
}

func factorial(n int) float64 {
	f := 1.0
	for i := 2; i <= n; i++ {
		f *= float64(i)
	}
	return f
}

// Compute evaluates the Zernike moments of every object in the label
// image. It returns the ObjectCount × len(Indices) moment matrix, the
// per-object perimeter vector in pixel units, and the moment names. The
// label image is notionally zero-padded by the sampling
// diameter on every side so border objects keep their full window; a
// window that extends past the image reads background there, which is
// exactly that padded view.
func Compute(labels *models.LabelImage, cfg Config) (*mat.Dense, []float64, []string, error) {
	n := labels.ObjectCount()
	if n == 0 {
		return nil, nil, nil, &models.EmptyObjectSetError{}
	}

	areas := objects.Areas(labels)
	meanArea := stat.Mean(areas, nil)
	diameter := Diameter(meanArea)
	if diameter <= 0 {
		return nil, nil, nil, &models.EmptyObjectSetError{}
	}

	indices := Indices(cfg.MaxDegree)
	basis := make([][]complex128, len(indices))
	for k, idx := range indices {
		basis[k] = Polynomial(idx.N, idx.M, diameter)
	}

	centroids := objects.Centroids(labels)
	moments := mat.NewDense(n, len(indices), nil)
	perimeters := make([]float64, n)

	row := make([]float64, len(indices))
	for i := 0; i < n; i++ {
		patch := objects.PaddedMaskWindow(labels, i+1, centroids[i][0], centroids[i][1], diameter)

		for k := range basis {
			var sum complex128
			for p, inside := range patch {
				if inside {
					sum += basis[k][p]
				}
			}
			row[k] = cmplx.Abs(sum)
		}
		moments.SetRow(i, row)
		perimeters[i] = Perimeter(patch, diameter, diameter)
	}

	return moments, perimeters, FeatureNames(indices), nil
}
