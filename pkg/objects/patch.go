// Package objects locates segmented objects inside a label image and
// extracts per-object pixel data: tight bounding-box patches, centroids,
// areas, and fixed-size zero-padded windows used by the filter-based
// feature engines.
package objects

import (
	"math"

	"cellfeat/internal/models"
)

// Patch is a rectangular crop of an image restricted to one object.
// Grey holds the cropped intensities (nil for mask-only extraction) and
// Mask marks which pixels inside the crop belong to the object. Row0 and
// Col0 give the crop's position in the parent image.
type Patch struct {
	Grey   []float64
	Mask   []bool
	Width  int
	Height int
	Row0   int
	Col0   int
}

// Extract crops the tight bounding box of the given object id from the
// grey image, together with the object mask. The crop is taken from the
// un-padded source, so a box touching the image edge is simply clipped
// there. Returns EmptyObjectError when the id has no pixels.
func Extract(img *models.GreyImage, labels *models.LabelImage, id int) (*Patch, error) {
	if !models.SameExtent(img, labels) {
		return nil, &models.ShapeMismatchError{
			GreyWidth: img.Width, GreyHeight: img.Height,
			LabelWidth: labels.Width, LabelHeight: labels.Height,
		}
	}
	p, err := ExtractMask(labels, id)
	if err != nil {
		return nil, err
	}

	p.Grey = make([]float64, p.Width*p.Height)
	for r := 0; r < p.Height; r++ {
		for c := 0; c < p.Width; c++ {
			p.Grey[r*p.Width+c] = img.At(p.Row0+r, p.Col0+c)
		}
	}
	return p, nil
}

// ExtractMask crops the tight bounding box of the given object id from
// the label image, producing the binary object mask only.
func ExtractMask(labels *models.LabelImage, id int) (*Patch, error) {
	r0, c0, r1, c1, ok := boundingBox(labels, id)
	if !ok {
		return nil, &models.EmptyObjectError{Label: id}
	}

	w := c1 - c0 + 1
	h := r1 - r0 + 1
	p := &Patch{
		Mask:   make([]bool, w*h),
		Width:  w,
		Height: h,
		Row0:   r0,
		Col0:   c0,
	}
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			p.Mask[r*w+c] = labels.At(r0+r, c0+c) == id
		}
	}
	return p, nil
}

// boundingBox scans the label image for the extremal coordinates of the
// given object id. ok is false when the id does not occur.
func boundingBox(labels *models.LabelImage, id int) (r0, c0, r1, c1 int, ok bool) {
	r0, c0 = labels.Height, labels.Width
	r1, c1 = -1, -1
	for r := 0; r < labels.Height; r++ {
		for c := 0; c < labels.Width; c++ {
			if labels.At(r, c) != id {
				continue
			}
			if r < r0 {
				r0 = r
			}
			if r > r1 {
				r1 = r
			}
			if c < c0 {
				c0 = c
			}
			if c > c1 {
				c1 = c
			}
		}
	}
	return r0, c0, r1, c1, r1 >= 0
}

// Areas returns the pixel count of every object, indexed by id-1 for
// ids 1..ObjectCount.
func Areas(labels *models.LabelImage) []float64 {
	areas := make([]float64, labels.ObjectCount())
	for _, id := range labels.Labels {
		if id > 0 {
			areas[id-1]++
		}
	}
	return areas
}

// Centroids returns the (row, col) centroid of every object, indexed by
// id-1 for ids 1..ObjectCount. An object with no pixels yields (0, 0);
// the dense-numbering contract makes that case unreachable in practice.
func Centroids(labels *models.LabelImage) [][2]float64 {
	n := labels.ObjectCount()
	sums := make([][2]float64, n)
	counts := make([]float64, n)
	for r := 0; r < labels.Height; r++ {
		for c := 0; c < labels.Width; c++ {
			id := labels.At(r, c)
			if id == 0 {
				continue
			}
			sums[id-1][0] += float64(r)
			sums[id-1][1] += float64(c)
			counts[id-1]++
		}
	}
	for i := range sums {
		if counts[i] > 0 {
			sums[i][0] /= counts[i]
			sums[i][1] /= counts[i]
		}
	}
	return sums
}

// PaddedWindow extracts a size×size intensity window centered at the
// rounded centroid (cy, cx). size must be odd. Pixels of the window that
// fall outside the source image are zero. Zero-fill (rather than edge
// replication) keeps the zero-DC property of filters applied to the
// window: outside the true support the filter sees nothing.
func PaddedWindow(img *models.GreyImage, cy, cx float64, size int) []float64 {
	out := make([]float64, size*size)
	half := size / 2
	cr := int(math.Round(cy))
	cc := int(math.Round(cx))
	for r := 0; r < size; r++ {
		sr := cr - half + r
		if sr < 0 || sr >= img.Height {
			continue
		}
		for c := 0; c < size; c++ {
			sc := cc - half + c
			if sc < 0 || sc >= img.Width {
				continue
			}
			out[r*size+c] = img.At(sr, sc)
		}
	}
	return out
}

// PaddedMaskWindow extracts a size×size binary window of the given
// object id centered at the rounded centroid (cy, cx). size must be odd.
// Everything outside the label image is background, which is exactly the
// view a label image padded with zeros on every side would give.
func PaddedMaskWindow(labels *models.LabelImage, id int, cy, cx float64, size int) []bool {
	out := make([]bool, size*size)
	half := size / 2
	cr := int(math.Round(cy))
	cc := int(math.Round(cx))
	for r := 0; r < size; r++ {
		sr := cr - half + r
		if sr < 0 || sr >= labels.Height {
			continue
		}
		for c := 0; c < size; c++ {
			sc := cc - half + c
			if sc < 0 || sc >= labels.Width {
				continue
			}
			out[r*size+c] = labels.At(sr, sc) == id
		}
	}
	return out
}
