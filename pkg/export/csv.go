// Package export writes computed feature matrices to files the
// downstream analysis layer consumes.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"cellfeat/pkg/features"
)

// WriteCSV writes a feature result as CSV: a header row of ObjectID
// followed by the feature names, then one row per object with the
// 1-based object id in the first column. Values are formatted with
// strconv's shortest round-trip representation so re-imported numbers
// are bit-identical.
func WriteCSV(result *features.Result, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)

	header := append([]string{"ObjectID"}, result.Names...)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}

	rows, cols := result.Matrix.Dims()
	record := make([]string, cols+1)
	for i := 0; i < rows; i++ {
		record[0] = strconv.Itoa(i + 1)
		for j := 0; j < cols; j++ {
			record[j+1] = strconv.FormatFloat(result.Matrix.At(i, j), 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("error writing row %d: %w", i+1, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("error flushing output: %w", err)
	}
	return nil
}
