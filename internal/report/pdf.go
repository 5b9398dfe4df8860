package report

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

const inch = 72.0

type rgb struct{ r, g, b int }

var (
	navy      = rgb{0x1f, 0x47, 0x88}
	paleBlue  = rgb{0xe8, 0xf4, 0xf8}
	beige     = rgb{0xf5, 0xf5, 0xdc}
	stripe    = rgb{0xf0, 0xf0, 0xf0}
	white     = rgb{0xff, 0xff, 0xff}
	black     = rgb{0, 0, 0}
	grey      = rgb{0x80, 0x80, 0x80}
	footerCol = rgb{0x60, 0x60, 0x60}
)

// RenderPDF writes a Letter-sized report to w. Long equipment tables flow
// onto further pages, each carrying a "Page n/N" footer.
func RenderPDF(w io.Writer, d *Data) error {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetTitle(Title, true)
	pdf.SetMargins(inch, inch, inch)
	pdf.SetAutoPageBreak(true, inch)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-0.6 * inch)
		pdf.SetFont("Helvetica", "I", 8)
		setText(pdf, footerCol)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 24)
	setText(pdf, navy)
	pdf.CellFormat(0, 30, Title, "", 1, "C", false, 0, "")
	pdf.Ln(0.3 * inch)

	// upload header
	pdf.SetFontSize(10)
	setDraw(pdf, grey)
	for _, row := range headerRows(d) {
		pdf.SetFont("Helvetica", "B", 10)
		setText(pdf, black)
		setFill(pdf, paleBlue)
		pdf.CellFormat(2*inch, 22, row[0], "1", 0, "L", true, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(4*inch, 22, tr(row[1]), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(0.3 * inch)

	heading(pdf, "Summary Statistics")
	setDraw(pdf, black)
	tableHeader(pdf, []string{"Metric", "Value"}, []float64{3 * inch, 3 * inch}, 12)
	pdf.SetFont("Helvetica", "", 10)
	setText(pdf, black)
	setFill(pdf, beige)
	for _, row := range summaryRows(d) {
		pdf.CellFormat(3*inch, 20, row[0], "1", 0, "C", true, 0, "")
		pdf.CellFormat(3*inch, 20, row[1], "1", 1, "C", true, 0, "")
	}
	pdf.Ln(0.3 * inch)

	heading(pdf, "Equipment Details")
	widths := []float64{1.5 * inch, 1.2 * inch, 1.1 * inch, 1.1 * inch, 1.1 * inch}
	tableHeader(pdf, equipmentHeader, widths, 9)
	pdf.SetFont("Helvetica", "", 9)
	_, pageHeight := pdf.GetPageSize()
	for i, eq := range d.Equipment {
		if pdf.GetY()+18 > pageHeight-inch {
			pdf.AddPage()
			tableHeader(pdf, equipmentHeader, widths, 9)
			pdf.SetFont("Helvetica", "", 9)
		}
		if i%2 == 0 {
			setFill(pdf, white)
		} else {
			setFill(pdf, stripe)
		}
		setText(pdf, black)
		cells := []string{
			tr(eq.EquipmentName),
			string(eq.EquipmentType),
			fixed2(eq.Flowrate),
			fixed2(eq.Pressure),
			fixed2(eq.Temperature),
		}
		for j, c := range cells {
			ln := 0
			if j == len(cells)-1 {
				ln = 1
			}
			pdf.CellFormat(widths[j], 18, c, "1", ln, "C", true, 0, "")
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	return nil
}

func heading(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "B", 14)
	setText(pdf, black)
	pdf.CellFormat(0, 24, text, "", 1, "L", false, 0, "")
	pdf.Ln(4)
}

func tableHeader(pdf *fpdf.Fpdf, cols []string, widths []float64, size float64) {
	pdf.SetFont("Helvetica", "B", size)
	setFill(pdf, navy)
	setText(pdf, white)
	for i, c := range cols {
		ln := 0
		if i == len(cols)-1 {
			ln = 1
		}
		pdf.CellFormat(widths[i], 24, c, "1", ln, "C", true, 0, "")
	}
}

func setText(pdf *fpdf.Fpdf, c rgb) { pdf.SetTextColor(c.r, c.g, c.b) }
func setFill(pdf *fpdf.Fpdf, c rgb) { pdf.SetFillColor(c.r, c.g, c.b) }
func setDraw(pdf *fpdf.Fpdf, c rgb) { pdf.SetDrawColor(c.r, c.g, c.b) }
