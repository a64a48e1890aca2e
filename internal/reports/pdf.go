package reports

import (
	"bytes"

	"github.com/go-pdf/fpdf"
)

const (
	pdfMargin    = 12.0
	pdfRowHeight = 7.0
	pdfFont      = "Helvetica"
	emptyMessage = "Sin registros"
)

// header fill shared with the spreadsheet renderer
var headerRGB = [3]int{220, 38, 38}

func RenderPDF(rep *Report) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.SetTitle(rep.Title, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, pageH := pdf.GetPageSize()
	tableW := pageW - 2*pdfMargin
	colW := tableW / float64(len(rep.Columns))

	pdf.AddPage()
	pdf.SetFont(pdfFont, "B", 16)
	pdf.CellFormat(0, 10, tr(rep.Title), "", 1, "L", false, 0, "")
	pdf.SetFont(pdfFont, "", 10)
	pdf.CellFormat(0, 6, tr("Generado: "+rep.GeneratedAt.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	if rep.Period != "" {
		pdf.CellFormat(0, 6, tr(rep.Period), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	header := func() {
		pdf.SetFillColor(headerRGB[0], headerRGB[1], headerRGB[2])
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont(pdfFont, "B", 10)
		for _, col := range rep.Columns {
			pdf.CellFormat(colW, pdfRowHeight+1, tr(col), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont(pdfFont, "", 9)
	}
	header()

	if len(rep.Rows) == 0 {
		pdf.CellFormat(tableW, pdfRowHeight, tr(emptyMessage), "1", 1, "C", false, 0, "")
	}
	for _, row := range rep.Rows {
		if pdf.GetY()+pdfRowHeight > pageH-pdfMargin {
			pdf.AddPage()
			header()
		}
		for i, cell := range row {
			pdf.CellFormat(colW, pdfRowHeight, tr(fit(pdf, cell, colW)), "1", 0, "L", false, 0, "")
			if i == len(rep.Columns)-1 {
				break
			}
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fit shortens text that would overflow its cell.
func fit(pdf *fpdf.Fpdf, s string, width float64) string {
	limit := width - 2
	if pdf.GetStringWidth(s) <= limit {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > limit {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
