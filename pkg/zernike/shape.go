package zernike

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Perimeter counts the boundary pixels of a binary patch: foreground
// pixels with at least one background or out-of-patch pixel among their
// 8 neighbors. A 1×1 object therefore has perimeter 1.
func Perimeter(mask []bool, width, height int) float64 {
	count := 0.0
	for r := 0; r < height; r++ {
		for c := 0; c < width; c++ {
			if !mask[r*width+c] {
				continue
			}
			if onBoundary(mask, width, height, r, c) {
				count++
			}
		}
	}
	return count
}

func onBoundary(mask []bool, width, height, r, c int) bool {
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			nr, nc := r+dr, c+dc
			if nr < 0 || nr >= height || nc < 0 || nc >= width {
				return true
			}
			if !mask[nr*width+nc] {
				return true
			}
		}
	}
	return false
}

// FormFactor is the circularity measure 4π·Area/(Perimeter+1)². The +1
// guards the zero-perimeter degenerate case; a discretized circle scores
// somewhat below the continuous-limit value of 1.
func FormFactor(area, perimeter float64) float64 {
	return 4 * math.Pi * area / ((perimeter + 1) * (perimeter + 1))
}

// ShapeFeatureNames returns the shape column names in ShapeFeatures
// column order.
func ShapeFeatureNames() []string {
	return []string{"Area", "Perimeter", "FormFactor"}
}

// ShapeFeatures assembles the ObjectCount × 3 shape matrix from
// pixel-unit areas and perimeters. Area and Perimeter are converted to
// physical units by pixelSize; FormFactor is dimensionless and derives
// from the pixel-unit values.
func ShapeFeatures(areas, perimeters []float64, pixelSize float64) *mat.Dense {
	out := mat.NewDense(len(areas), 3, nil)
	for i := range areas {
		out.Set(i, 0, areas[i]*pixelSize*pixelSize)
		out.Set(i, 1, perimeters[i]*pixelSize)
		out.Set(i, 2, FormFactor(areas[i], perimeters[i]))
	}
	return out
}
