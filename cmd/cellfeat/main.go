package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"time"

	"cellfeat/internal/models"
	"cellfeat/pkg/config"
	"cellfeat/pkg/export"
	"cellfeat/pkg/features"
)

func main() {
	// Parse command line arguments
	imagePath := flag.String("image", "", "Grayscale intensity image (PNG or JPEG)")
	labelPath := flag.String("labels", "", "Label image (PNG, pixel value = object id); omit to treat the whole image as one object")
	outputPath := flag.String("output", "features.csv", "Output CSV filename")
	configPath := flag.String("config", "config.yaml", "Configuration file (YAML)")
	scale := flag.Int("scale", 0, "Texture scale in pixels (overrides config)")
	frequencies := flag.Int("frequencies", 0, "Number of Gabor frequencies (overrides config)")
	pixelSize := flag.Float64("pixel-size", 0, "Physical pixel size (overrides config)")
	numCores := flag.Int("cores", 0, "Number of CPU cores to use (overrides config)")
	flag.Parse()

	// Validate inputs
	if *imagePath == "" {
		flag.Usage()
		os.Exit(1)
	}

	// Load configuration, then apply any command-line overrides
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *scale > 0 {
		cfg.Texture.Scale = *scale
	}
	if *frequencies > 0 {
		cfg.Texture.GaborFrequencies = *frequencies
	}
	if *pixelSize > 0 {
		cfg.Shape.PixelSize = *pixelSize
	}
	if *numCores > 0 {
		cfg.Processing.NumCores = *numCores
	}

	params := features.Params{
		Scale:         cfg.Texture.Scale,
		Levels:        cfg.Texture.Levels,
		Frequencies:   cfg.Texture.GaborFrequencies,
		ZernikeDegree: cfg.Shape.ZernikeDegree,
		PixelSize:     cfg.Shape.PixelSize,
		NumCores:      cfg.Processing.NumCores,
	}

	grey, err := loadGreyImage(*imagePath)
	if err != nil {
		log.Fatalf("Failed to load intensity image: %v", err)
	}

	if cfg.Output.Verbose {
		fmt.Printf("Loaded %dx%d intensity image from %s\n", grey.Width, grey.Height, *imagePath)
	}

	startTime := time.Now()
	var result *features.Result
	if *labelPath == "" {
		if cfg.Output.Verbose {
			fmt.Println("No label image given, measuring the whole image as one object")
		}
		result, err = features.ExtractWholeImage(grey, params)
	} else {
		var labels *models.LabelImage
		labels, err = loadLabelImage(*labelPath)
		if err != nil {
			log.Fatalf("Failed to load label image: %v", err)
		}
		if cfg.Output.Verbose {
			fmt.Printf("Loaded label image with %d objects from %s\n", labels.ObjectCount(), *labelPath)
		}
		result, err = features.ExtractAll(grey, labels, params)
	}
	if err != nil {
		log.Fatalf("Feature extraction failed: %v", err)
	}
	elapsed := time.Since(startTime)

	if err := export.WriteCSV(result, *outputPath); err != nil {
		log.Fatalf("Failed to write results: %v", err)
	}

	rows, cols := result.Matrix.Dims()
	fmt.Printf("Extracted %d features for %d objects in %.2f seconds\n", cols, rows, elapsed.Seconds())
	fmt.Printf("Results saved to: %s\n", *outputPath)
}

// loadGreyImage decodes an image file and converts it to a float64
// intensity raster using 16-bit luminance, normalized to [0,1].
func loadGreyImage(path string) (*models.GreyImage, error) {
	img, err := decodeImage(path)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	out := models.NewGreyImage(bounds.Dx(), bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			g := color.Gray16Model.Convert(img.At(x, y)).(color.Gray16)
			out.Set(y-bounds.Min.Y, x-bounds.Min.X, float64(g.Y)/65535.0)
		}
	}
	return out, nil
}

// loadLabelImage decodes a label image where the pixel value is the
// object id: 8-bit images carry ids 0-255, 16-bit images 0-65535.
func loadLabelImage(path string) (*models.LabelImage, error) {
	img, err := decodeImage(path)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	out := models.NewLabelImage(bounds.Dx(), bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			var id int
			switch p := img.At(x, y).(type) {
			case color.Gray:
				id = int(p.Y)
			case color.Gray16:
				id = int(p.Y)
			default:
				r, _, _, _ := p.RGBA()
				id = int(r >> 8)
			}
			out.Set(y-bounds.Min.Y, x-bounds.Min.X, id)
		}
	}
	return out, nil
}

func decodeImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("error decoding %s: %w", path, err)
	}
	return img, nil
}
