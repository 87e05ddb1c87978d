package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const pdfUsableWidth = 277.0 // A4 landscape minus 10mm margins

// PDFRenderer lays the dataset out as a landscape A4 table with a repeated header row.
type PDFRenderer struct {
	Footer string
}

// NewPDFRenderer constructs the renderer. footer is printed left of the page number.
func NewPDFRenderer(footer string) *PDFRenderer {
	return &PDFRenderer{Footer: footer}
}

func (*PDFRenderer) ContentType() string { return "application/pdf" }

func (*PDFRenderer) Extension() string { return "pdf" }

// Render draws the table.
func (r *PDFRenderer) Render(d Dataset) ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(pdfUsableWidth/2, 6, r.Footer, "", 0, "L", false, 0, "")
		pdf.CellFormat(pdfUsableWidth/2, 6, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	width := pdfUsableWidth / float64(len(d.Columns))
	header := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for _, column := range d.Columns {
			pdf.CellFormat(width, 8, column, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
	}

	pdf.AddPage()
	if d.Title != "" {
		pdf.SetFont("Arial", "B", 13)
		pdf.CellFormat(0, 10, d.Title, "", 1, "C", false, 0, "")
		pdf.Ln(2)
	}
	header()

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, row := range d.Rows {
		if pdf.GetY()+7 > pageHeight-bottom-5 {
			pdf.AddPage()
			header()
		}
		for _, cell := range row {
			pdf.CellFormat(width, 7, cell, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
