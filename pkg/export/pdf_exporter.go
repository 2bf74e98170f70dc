package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Column weights size the lesson history table: free-text notes get the
// widest cell, times and ratings the narrowest. Headers not listed here fall
// back to a medium width.
var columnWeights = map[string]float64{
	"Date":       3,
	"Start":      2,
	"End":        2,
	"Client":     4,
	"Instructor": 4,
	"Vehicle":    4,
	"Rating":     2,
	"Notes":      7,
}

// PDFExporter renders datasets as a landscape table sized for the lesson
// history columns.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a one-table PDF document with an optional title.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(12, 14, 12)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 9, title, "", 1, "L", false, 0, "")
		pdf.Ln(3)
	}

	widths := columnWidths(data.Headers)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, header := range data.Headers {
		pdf.CellFormat(widths[i], 7, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, row := range data.Rows {
		for i, header := range data.Headers {
			pdf.CellFormat(widths[i], 6.5, row[header], "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// A4 landscape is 297mm wide; 273mm remain inside the margins.
func columnWidths(headers []string) []float64 {
	const usable = 273.0
	total := 0.0
	weights := make([]float64, len(headers))
	for i, header := range headers {
		weight, ok := columnWeights[header]
		if !ok {
			weight = 2
		}
		weights[i] = weight
		total += weight
	}
	widths := make([]float64, len(headers))
	for i, weight := range weights {
		widths[i] = usable * weight / total
	}
	return widths
}
