package models

// GreyImage is a single-channel intensity image stored as a 1D array
// in row-major order. Intensities carry no implicit normalization;
// callers may pass raw sensor values or [0,1] data interchangeably.
type GreyImage struct {
	// Pixels is the intensity data, indexed as Pixels[row*Width+col]
	Pixels []float64

	// Width and Height are the image dimensions in pixels
	Width  int
	Height int
}

// NewGreyImage allocates a zero-filled grey image of the given size.
func NewGreyImage(width, height int) *GreyImage {
	return &GreyImage{
		Pixels: make([]float64, width*height),
		Width:  width,
		Height: height,
	}
}

// At returns the intensity at the given row and column.
func (g *GreyImage) At(row, col int) float64 {
	return g.Pixels[row*g.Width+col]
}

// Set writes the intensity at the given row and column.
func (g *GreyImage) Set(row, col int, v float64) {
	g.Pixels[row*g.Width+col] = v
}

// LabelImage assigns an object identifier to every pixel of an image.
// Identifiers are dense: background is 0 and objects are numbered
// 1..ObjectCount with no gaps. Gapped numbering is a contract violation
// by the upstream segmentation layer, not something handled here.
type LabelImage struct {
	// Labels holds the object id per pixel, indexed as Labels[row*Width+col]
	Labels []int

	// Width and Height are the image dimensions in pixels
	Width  int
	Height int
}

// NewLabelImage allocates an all-background label image of the given size.
func NewLabelImage(width, height int) *LabelImage {
	return &LabelImage{
		Labels: make([]int, width*height),
		Width:  width,
		Height: height,
	}
}

// At returns the object id at the given row and column.
func (l *LabelImage) At(row, col int) int {
	return l.Labels[row*l.Width+col]
}

// Set writes the object id at the given row and column.
func (l *LabelImage) Set(row, col int, id int) {
	l.Labels[row*l.Width+col] = id
}

// ObjectCount returns the number of objects, which by the dense-numbering
// contract equals the maximum label value present in the image.
func (l *LabelImage) ObjectCount() int {
	max := 0
	for _, id := range l.Labels {
		if id > max {
			max = id
		}
	}
	return max
}

// WholeImage builds the label image for the whole-image pseudo-object:
// a single object (id 1) covering every pixel. Treating the entire image
// as one object is a first-class mode, used when texture is measured per
// image rather than per segmented cell.
func WholeImage(width, height int) *LabelImage {
	l := NewLabelImage(width, height)
	for i := range l.Labels {
		l.Labels[i] = 1
	}
	return l
}

// SameExtent reports whether the grey and label images cover the same
// pixel grid.
func SameExtent(g *GreyImage, l *LabelImage) bool {
	return g.Width == l.Width && g.Height == l.Height
}
