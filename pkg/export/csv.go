package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVRenderer writes RFC 4180 CSV with a header row.
type CSVRenderer struct{}

// NewCSVRenderer constructs the renderer.
func NewCSVRenderer() *CSVRenderer {
	return &CSVRenderer{}
}

func (CSVRenderer) ContentType() string { return "text/csv" }

func (CSVRenderer) Extension() string { return "csv" }

// Render encodes the dataset. The title is not written.
func (CSVRenderer) Render(d Dataset) ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(d.Columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	if err := w.WriteAll(d.Rows); err != nil {
		return nil, fmt.Errorf("write csv rows: %w", err)
	}
	return buf.Bytes(), nil
}
