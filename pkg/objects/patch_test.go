package objects

import (
	"errors"
	"testing"

	"cellfeat/internal/models"
)

// blockLabels builds a width×height label image with a single object
// (id 1) covering the rectangle [r0, r0+size) × [c0, c0+size).
func blockLabels(width, height, r0, c0, size int) *models.LabelImage {
	labels := models.NewLabelImage(width, height)
	for r := r0; r < r0+size && r < height; r++ {
		for c := c0; c < c0+size && c < width; c++ {
			labels.Set(r, c, 1)
		}
	}
	return labels
}

// rampImage builds a width×height grey image with intensity increasing
// linearly by column from 0 to 1.
func rampImage(width, height int) *models.GreyImage {
	img := models.NewGreyImage(width, height)
	for r := 0; r < height; r++ {
		for c := 0; c < width; c++ {
			img.Set(r, c, float64(c)/float64(width-1))
		}
	}
	return img
}

// TestExtractBoundingBox verifies that extraction crops the tight
// bounding box with the correct offset, mask and intensities
func TestExtractBoundingBox(t *testing.T) {
	labels := blockLabels(5, 5, 1, 2, 3)
	img := rampImage(5, 5)

	patch, err := Extract(img, labels, 1)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if patch.Width != 3 || patch.Height != 3 {
		t.Errorf("Expected 3x3 patch, got %dx%d", patch.Width, patch.Height)
	}
	if patch.Row0 != 1 || patch.Col0 != 2 {
		t.Errorf("Expected offset (1,2), got (%d,%d)", patch.Row0, patch.Col0)
	}

	for i, m := range patch.Mask {
		if !m {
			t.Errorf("Expected all-true mask inside a solid block, mask[%d] is false", i)
		}
	}

	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			want := img.At(1+r, 2+c)
			got := patch.Grey[r*3+c]
			if got != want {
				t.Errorf("Expected grey[%d,%d]=%f, got %f", r, c, want, got)
			}
		}
	}
}

// TestExtractMaskHole verifies that pixels of other objects inside the
// bounding box are excluded from the mask
func TestExtractMaskHole(t *testing.T) {
	labels := blockLabels(5, 5, 1, 1, 3)
	labels.Set(2, 2, 2) // second object punches a hole in the first

	patch, err := ExtractMask(labels, 1)
	if err != nil {
		t.Fatalf("ExtractMask failed: %v", err)
	}

	if patch.Mask[1*3+1] {
		t.Errorf("Expected center pixel excluded from object 1 mask")
	}
	count := 0
	for _, m := range patch.Mask {
		if m {
			count++
		}
	}
	if count != 8 {
		t.Errorf("Expected 8 masked pixels, got %d", count)
	}
}

// TestExtractEmptyObject verifies the empty-object contract violation
// is detected and typed
func TestExtractEmptyObject(t *testing.T) {
	labels := blockLabels(5, 5, 1, 1, 3)
	img := rampImage(5, 5)

	_, err := Extract(img, labels, 7)
	if err == nil {
		t.Fatal("Expected error for missing object id, got nil")
	}
	var emptyErr *models.EmptyObjectError
	if !errors.As(err, &emptyErr) {
		t.Errorf("Expected EmptyObjectError, got %T: %v", err, err)
	}
	if emptyErr.Label != 7 {
		t.Errorf("Expected label 7 in error, got %d", emptyErr.Label)
	}
}

// TestExtractShapeMismatch verifies that mismatched grey/label extents
// are rejected
func TestExtractShapeMismatch(t *testing.T) {
	labels := blockLabels(5, 5, 1, 1, 3)
	img := rampImage(4, 5)

	_, err := Extract(img, labels, 1)
	if err == nil {
		t.Fatal("Expected error for mismatched extents, got nil")
	}
	var shapeErr *models.ShapeMismatchError
	if !errors.As(err, &shapeErr) {
		t.Errorf("Expected ShapeMismatchError, got %T: %v", err, err)
	}
}

// TestExtractBorderObject verifies that an object touching the image
// edge is clipped there rather than read out of bounds
func TestExtractBorderObject(t *testing.T) {
	labels := blockLabels(5, 5, 0, 0, 2)
	img := rampImage(5, 5)

	patch, err := Extract(img, labels, 1)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if patch.Row0 != 0 || patch.Col0 != 0 {
		t.Errorf("Expected offset (0,0), got (%d,%d)", patch.Row0, patch.Col0)
	}
	if patch.Width != 2 || patch.Height != 2 {
		t.Errorf("Expected 2x2 patch, got %dx%d", patch.Width, patch.Height)
	}
}

// TestAreasAndCentroids verifies per-object pixel counts and centroids
func TestAreasAndCentroids(t *testing.T) {
	labels := models.NewLabelImage(6, 6)
	// Object 1: 2x2 block at (0,0); object 2: single pixel at (4,5)
	labels.Set(0, 0, 1)
	labels.Set(0, 1, 1)
	labels.Set(1, 0, 1)
	labels.Set(1, 1, 1)
	labels.Set(4, 5, 2)

	areas := Areas(labels)
	if len(areas) != 2 {
		t.Fatalf("Expected 2 areas, got %d", len(areas))
	}
	if areas[0] != 4 {
		t.Errorf("Expected area 4 for object 1, got %f", areas[0])
	}
	if areas[1] != 1 {
		t.Errorf("Expected area 1 for object 2, got %f", areas[1])
	}

	centroids := Centroids(labels)
	if centroids[0][0] != 0.5 || centroids[0][1] != 0.5 {
		t.Errorf("Expected centroid (0.5,0.5) for object 1, got (%f,%f)",
			centroids[0][0], centroids[0][1])
	}
	if centroids[1][0] != 4 || centroids[1][1] != 5 {
		t.Errorf("Expected centroid (4,5) for object 2, got (%f,%f)",
			centroids[1][0], centroids[1][1])
	}
}

// TestPaddedWindowBorder verifies that a window centered near the image
// corner is zero-filled outside the true image support
func TestPaddedWindowBorder(t *testing.T) {
	img := models.NewGreyImage(4, 4)
	for i := range img.Pixels {
		img.Pixels[i] = 1.0
	}

	window := PaddedWindow(img, 0, 0, 5)
	if len(window) != 25 {
		t.Fatalf("Expected 25 window pixels, got %d", len(window))
	}

	// The window spans rows/cols -2..2 of the source; everything with a
	// negative source coordinate must be zero.
	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			v := window[r*5+c]
			inside := r >= 2 && c >= 2
			if inside && v != 1.0 {
				t.Errorf("Expected 1.0 inside image at window (%d,%d), got %f", r, c, v)
			}
			if !inside && v != 0.0 {
				t.Errorf("Expected zero padding at window (%d,%d), got %f", r, c, v)
			}
		}
	}
}

// TestPaddedMaskWindowCentering verifies the window is centered at the
// rounded centroid and masks only the requested object
func TestPaddedMaskWindowCentering(t *testing.T) {
	labels := blockLabels(9, 9, 3, 3, 3)
	labels.Set(0, 0, 2)

	window := PaddedMaskWindow(labels, 1, 4, 4, 5)
	// 3x3 block centered in a 5x5 window: ring of false around a block of true.
	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			want := r >= 1 && r <= 3 && c >= 1 && c <= 3
			if window[r*5+c] != want {
				t.Errorf("Expected mask %v at window (%d,%d), got %v", want, r, c, window[r*5+c])
			}
		}
	}

	window2 := PaddedMaskWindow(labels, 2, 0, 0, 3)
	if !window2[1*3+1] {
		t.Errorf("Expected center pixel true for object 2 at its centroid")
	}
}
