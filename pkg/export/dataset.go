package export

import "fmt"

// Dataset is a titled table. Every row has exactly one cell per column.
type Dataset struct {
	Title   string
	Columns []string
	Rows    [][]string
}

// Validate checks the table shape.
func (d Dataset) Validate() error {
	if len(d.Columns) == 0 {
		return fmt.Errorf("dataset has no columns")
	}
	for i, row := range d.Rows {
		if len(row) != len(d.Columns) {
			return fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(d.Columns))
		}
	}
	return nil
}

// Renderer turns a dataset into a downloadable file.
type Renderer interface {
	Render(d Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}
