package report

import (
	"bytes"
	"fmt"
	"io"

	"sales-dashboard/errors"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageMargin = 15.0
	chartWidth = 170.0
)

// WritePDF renders the report as an A4 PDF document.
func (r *Report) WritePDF(w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(r.Title, true)
	pdf.SetCreator("sales-dashboard", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageWidth, _ := pdf.GetPageSize()
	contentWidth := pageWidth - 2*pageMargin

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, tr(r.Title), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, "Generated on "+r.timestamp(), "", 1, "C", false, 0, "")

	section := func(title string) {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(0, 8, tr(title), "", 1, "L", false, 0, "")
	}

	section("Key Performance Indicators")
	for _, k := range r.kpiRows() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(60, 7, tr(k.label), "1", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 7, tr(k.value), "1", 1, "L", false, 0, "")
	}

	section("Executive Summary")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 5, tr(plainText(r.Summary)), "", "L", false)

	if len(r.Charts) > 0 {
		section("Charts")
	}
	for i, c := range r.Charts {
		opt := gofpdf.ImageOptions{ImageType: "PNG"}
		name := fmt.Sprintf("chart-%d", i)
		pdf.RegisterImageOptionsReader(name, opt, bytes.NewReader(c.PNG))
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(0, 6, tr(c.Title), "", 1, "L", false, 0, "")
		pdf.ImageOptions(name, pageMargin+(contentWidth-chartWidth)/2, 0, chartWidth, 0, true, opt, 0, "")
		pdf.Ln(2)
	}

	section("Data Sample")
	if n := len(r.Sample.Columns); n > 0 {
		cell := contentWidth / float64(n)
		pdf.SetFont("Helvetica", "B", 8)
		for _, col := range r.Sample.Columns {
			pdf.CellFormat(cell, 6, tr(col), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
		for _, row := range r.Sample.Rows {
			for _, v := range row {
				pdf.CellFormat(cell, 6, tr(v), "1", 0, "R", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	if err := pdf.Output(w); err != nil {
		return errors.WrapErrorf(errors.ErrReport, "write pdf: %v", err)
	}
	return nil
}

// PDF returns the report as PDF bytes.
func (r *Report) PDF() ([]byte, error) {
	var buf bytes.Buffer
	if err := r.WritePDF(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
