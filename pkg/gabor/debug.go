package gabor

import (
	"image"
	"image/color"
	"image/png"
	"math/cmplx"
	"os"
)

// SaveKernelImage writes the magnitude of the k-th kernel as a grayscale
// PNG, normalized to the 0-255 range. Useful when tuning scale and
// frequency parameters against a new object set.
func (b *Bank) SaveKernelImage(k int, filename string) error {
	size := b.Size()
	kernel := b.kernels[k]
	img := image.NewGray(image.Rect(0, 0, size, size))

	maxVal := 0.0
	for _, c := range kernel {
		if abs := cmplx.Abs(c); abs > maxVal {
			maxVal = abs
		}
	}

	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			v := 0.0
			if maxVal > 0 {
				v = cmplx.Abs(kernel[r*size+c]) / maxVal
			}
			img.SetGray(c, r, color.Gray{Y: uint8(v * 255)})
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return png.Encode(file, img)
}
