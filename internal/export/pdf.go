package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/testboard/engine/internal/models"
)

const (
	marginMM    = 14.0
	titleSizePt = 16.0
	bodySizePt  = 10.0
	cellPadMM   = 3.0
	lineMM      = 5.0
)

// column widths in mm for an A4 portrait page with 14mm margins.
var colWidths = []float64{28, 102, 26, 26}

// WritePDF renders a titled table of tcs onto A4 pages. Long descriptions
// wrap; the header row repeats on every page.
func WritePDF(w io.Writer, title string, tcs []models.TestCase) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginMM, marginMM, marginMM)
	pdf.SetAutoPageBreak(true, marginMM)
	// Core fonts are cp1252; translate so accented text survives.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() == 1 {
			pdf.SetFont("Helvetica", "B", titleSizePt)
			pdf.Text(marginMM, 20, tr(title))
			pdf.SetY(30)
		}
		header(pdf)
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "", bodySizePt)
	pdf.SetTextColor(0, 0, 0)
	_, pageH := pdf.GetPageSize()
	for _, row := range Rows(tcs) {
		cells := make([][]string, len(row))
		lines := 1
		for i, v := range row {
			cells[i] = pdf.SplitText(tr(v), colWidths[i]-2*cellPadMM)
			if len(cells[i]) > lines {
				lines = len(cells[i])
			}
		}
		h := float64(lines)*lineMM + cellPadMM
		if pdf.GetY()+h > pageH-marginMM {
			pdf.AddPage()
			pdf.SetFont("Helvetica", "", bodySizePt)
			pdf.SetTextColor(0, 0, 0)
		}
		x, y := pdf.GetXY()
		for i, wrapped := range cells {
			pdf.Rect(x, y, colWidths[i], h, "D")
			for j, line := range wrapped {
				pdf.Text(x+cellPadMM, y+cellPadMM+lineMM*float64(j+1)-1, line)
			}
			x += colWidths[i]
		}
		pdf.SetXY(marginMM, y+h)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func header(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", bodySizePt)
	pdf.SetFillColor(40, 40, 40)
	pdf.SetTextColor(255, 255, 255)
	for i, col := range Header {
		pdf.CellFormat(colWidths[i], lineMM+cellPadMM, col, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}
