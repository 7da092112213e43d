package models

import "fmt"

// ShapeMismatchError reports a grey/label image pair whose extents differ.
// Matching extents are part of the upstream contract, so this always
// indicates a caller bug and is never handled internally.
type ShapeMismatchError struct {
	GreyWidth, GreyHeight   int
	LabelWidth, LabelHeight int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("grey image %dx%d does not match label image %dx%d",
		e.GreyWidth, e.GreyHeight, e.LabelWidth, e.LabelHeight)
}

// EmptyObjectError reports a request for an object id that has no pixels
// in the label image.
type EmptyObjectError struct {
	Label int
}

func (e *EmptyObjectError) Error() string {
	return fmt.Sprintf("object %d has no pixels", e.Label)
}

// EmptyObjectSetError reports an object set with no objects at all, in a
// context where a basis must be derived from the set (e.g. the Zernike
// sampling diameter comes from the mean object area).
type EmptyObjectSetError struct{}

func (e *EmptyObjectSetError) Error() string {
	return "object set is empty"
}

// InvalidPatchError reports a structurally invalid patch or parameter
// combination, such as a co-occurrence shift that is not smaller than
// the patch width. Numerically degenerate but well-formed inputs (flat
// intensity, single-pixel objects) are not errors and never raise this.
type InvalidPatchError struct {
	Reason string
}

func (e *InvalidPatchError) Error() string {
	return "invalid patch: " + e.Reason
}
