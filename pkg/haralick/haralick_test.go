package haralick

import (
	"errors"
	"math"
	"testing"

	"cellfeat/internal/models"
)

func allTrue(n int) []bool {
	mask := make([]bool, n)
	for i := range mask {
		mask[i] = true
	}
	return mask
}

// TestConstantPatch verifies the degenerate single-intensity case: all
// co-occurrence mass lands in one cell, so the angular second moment is
// 1 and every entropy and spread measure vanishes
func TestConstantPatch(t *testing.T) {
	w, h := 4, 4
	grey := make([]float64, w*h)
	for i := range grey {
		grey[i] = 0.5
	}

	f, err := Features(grey, allTrue(w*h), w, h, DefaultConfig())
	if err != nil {
		t.Fatalf("Features failed: %v", err)
	}

	if math.Abs(f[0]-1) > 1e-12 {
		t.Errorf("Expected AngularSecondMoment=1, got %g", f[0])
	}
	if math.Abs(f[8]) > 1e-12 {
		t.Errorf("Expected Entropy=0, got %g", f[8])
	}
	if f[1] != 0 {
		t.Errorf("Expected Contrast=0, got %g", f[1])
	}
	if f[3] != 0 {
		t.Errorf("Expected Variance=0, got %g", f[3])
	}
	if f[2] != 0 {
		t.Errorf("Expected Correlation=0 on a flat patch, got %g", f[2])
	}
	if math.Abs(f[4]-1) > 1e-12 {
		t.Errorf("Expected InverseDifferenceMoment=1, got %g", f[4])
	}
}

// TestMatrixSumsToOne verifies that the co-occurrence matrix is a
// probability distribution whenever at least one valid pair exists
func TestMatrixSumsToOne(t *testing.T) {
	w, h := 6, 5
	grey := make([]float64, w*h)
	for i := range grey {
		grey[i] = math.Sin(float64(i + 1))
	}

	p, err := CoOccurrence(grey, allTrue(w*h), w, h, DefaultConfig())
	if err != nil {
		t.Fatalf("CoOccurrence failed: %v", err)
	}
	if sum := MatrixSum(p); math.Abs(sum-1) > 1e-12 {
		t.Errorf("Expected matrix sum 1, got %g", sum)
	}
}

// TestZeroPairMatrix verifies the all-zero matrix case: a mask that
// admits no shifted pair yields a zero matrix and finite features
func TestZeroPairMatrix(t *testing.T) {
	// 1x3 patch with the middle pixel unmasked: no pair has both ends masked.
	grey := []float64{0.1, 0.5, 0.9}
	mask := []bool{true, false, true}

	p, err := CoOccurrence(grey, mask, 3, 1, Config{Levels: 8, Shift: 1})
	if err != nil {
		t.Fatalf("CoOccurrence failed: %v", err)
	}
	if sum := MatrixSum(p); sum != 0 {
		t.Errorf("Expected all-zero matrix, got sum %g", sum)
	}

	f, err := Features(grey, mask, 3, 1, Config{Levels: 8, Shift: 1})
	if err != nil {
		t.Fatalf("Features failed: %v", err)
	}
	for i, v := range f {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("Expected finite feature %d, got %g", i, v)
		}
	}
}

// TestAffineInvariance verifies that a global affine intensity rescale
// within the mask does not change any feature, since min-max
// normalization removes it
func TestAffineInvariance(t *testing.T) {
	w, h := 8, 8
	grey := make([]float64, w*h)
	scaled := make([]float64, w*h)
	for i := range grey {
		grey[i] = math.Sin(float64(i + 1))
		scaled[i] = 3*grey[i] + 2
	}

	f1, err := Features(grey, allTrue(w*h), w, h, DefaultConfig())
	if err != nil {
		t.Fatalf("Features failed: %v", err)
	}
	f2, err := Features(scaled, allTrue(w*h), w, h, DefaultConfig())
	if err != nil {
		t.Fatalf("Features failed on scaled input: %v", err)
	}

	for i := range f1 {
		if math.Abs(f1[i]-f2[i]) > 1e-9 {
			t.Errorf("Feature %d not affine invariant: %g vs %g", i, f1[i], f2[i])
		}
	}
}

// TestMaskedPairDiscard verifies shift-and-intersect masking: pairs with
// either end outside the mask must not contribute
func TestMaskedPairDiscard(t *testing.T) {
	// Two masked columns separated by an unmasked one. With shift 1 no
	// pair survives; with shift 2 exactly the cross-gap pairs do.
	w, h := 3, 2
	grey := []float64{0, 0.5, 1, 0, 0.5, 1}
	mask := []bool{true, false, true, true, false, true}

	p1, err := CoOccurrence(grey, mask, w, h, Config{Levels: 8, Shift: 1})
	if err != nil {
		t.Fatalf("CoOccurrence failed: %v", err)
	}
	if sum := MatrixSum(p1); sum != 0 {
		t.Errorf("Expected no pairs at shift 1, got matrix sum %g", sum)
	}

	p2, err := CoOccurrence(grey, mask, w, h, Config{Levels: 8, Shift: 2})
	if err != nil {
		t.Fatalf("CoOccurrence failed: %v", err)
	}
	if sum := MatrixSum(p2); math.Abs(sum-1) > 1e-12 {
		t.Errorf("Expected pairs at shift 2, got matrix sum %g", sum)
	}
	// Both surviving pairs are (min, max) -> bin (0, 7).
	if math.Abs(p2[0][7]-1) > 1e-12 {
		t.Errorf("Expected all mass at (0,7), got %g", p2[0][7])
	}
}

// TestShiftTooLarge verifies that a shift not smaller than the patch
// width is rejected as a structural error
func TestShiftTooLarge(t *testing.T) {
	grey := []float64{0, 0.5, 1}
	_, err := Features(grey, allTrue(3), 3, 1, Config{Levels: 8, Shift: 3})
	if err == nil {
		t.Fatal("Expected error for shift >= width, got nil")
	}
	var patchErr *models.InvalidPatchError
	if !errors.As(err, &patchErr) {
		t.Errorf("Expected InvalidPatchError, got %T: %v", err, err)
	}
}

// TestDeterminism verifies repeated calls on a 10x10 intensity ramp
// produce bit-identical results
func TestDeterminism(t *testing.T) {
	w, h := 10, 10
	grey := make([]float64, w*h)
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			grey[r*w+c] = float64(c) / float64(w-1)
		}
	}
	cfg := Config{Levels: 8, Shift: 1}

	f1, err := Features(grey, allTrue(w*h), w, h, cfg)
	if err != nil {
		t.Fatalf("Features failed: %v", err)
	}
	f2, err := Features(grey, allTrue(w*h), w, h, cfg)
	if err != nil {
		t.Fatalf("Features failed: %v", err)
	}
	for i := range f1 {
		if f1[i] != f2[i] {
			t.Errorf("Feature %d not deterministic: %g vs %g", i, f1[i], f2[i])
		}
	}
}

// TestRampFeaturesFinite verifies the reference scenario: a column ramp
// under a full mask yields finite values for all 13 features
func TestRampFeaturesFinite(t *testing.T) {
	w, h := 3, 3
	grey := make([]float64, w*h)
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			grey[r*w+c] = float64(c) / 2
		}
	}

	f, err := Features(grey, allTrue(w*h), w, h, Config{Levels: 8, Shift: 1})
	if err != nil {
		t.Fatalf("Features failed: %v", err)
	}
	if len(f) != FeatureCount {
		t.Fatalf("Expected %d features, got %d", FeatureCount, len(f))
	}
	for i, v := range f {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("Feature %d (%s) not finite: %g", i, FeatureNames()[i], v)
		}
	}
	// A strict ramp never pairs equal levels at shift 1, so the diagonal
	// measures reflect pure contrast: every pair differs by one quantized
	// step scaled across the normalized range.
	if f[1] == 0 {
		t.Errorf("Expected nonzero Contrast on a ramp, got %g", f[1])
	}
}

// TestFeatureNameOrder pins the name list, which downstream consumers
// use as storage keys
func TestFeatureNameOrder(t *testing.T) {
	names := FeatureNames()
	if len(names) != FeatureCount {
		t.Fatalf("Expected %d names, got %d", FeatureCount, len(names))
	}
	if names[0] != "AngularSecondMoment" {
		t.Errorf("Expected first name AngularSecondMoment, got %s", names[0])
	}
	if names[8] != "Entropy" {
		t.Errorf("Expected ninth name Entropy, got %s", names[8])
	}
	if names[12] != "InfoMeas2" {
		t.Errorf("Expected last name InfoMeas2, got %s", names[12])
	}
}

// TestTopBinBoundary verifies that an intensity at the top of the range
// lands in the last bin rather than overflowing
func TestTopBinBoundary(t *testing.T) {
	// Values 0 and 1 under a skipped normalization (max > min holds, so
	// normalization maps them to exactly 0 and 1).
	grey := []float64{0, 1, 0, 1}
	p, err := CoOccurrence(grey, allTrue(4), 2, 2, DefaultConfig())
	if err != nil {
		t.Fatalf("CoOccurrence failed: %v", err)
	}
	if math.Abs(p[0][7]-1) > 1e-12 {
		t.Errorf("Expected all mass in cell (0,7), got %g", p[0][7])
	}
}
