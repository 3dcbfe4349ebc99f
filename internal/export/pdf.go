package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/AngelCh415/adinsights/internal/report"
)

const FormatPDF = "pdf"

const (
	pageMargin   = 12.0
	topMargin    = 18.0
	bottomMargin = 16.0
	rowHeight    = 6.5
	font         = "Helvetica"
	stampLayout  = "2006-01-02 15:04 MST"
)

type PDFOptions struct {
	// NoCompress leaves page streams readable; handy for inspecting output.
	NoCompress bool
}

type Result struct {
	Pages int `json:"pages"`
	Bytes int `json:"bytes"`
}

// PDF lays out doc on A4 pages with a running header and a "Page X of Y"
// footer. Layout depends only on doc, so the same document always yields the
// same pages.
func PDF(w io.Writer, doc report.Document, opts PDFOptions) (Result, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(!opts.NoCompress)
	pdf.SetCreationDate(doc.GeneratedAt)
	pdf.SetModificationDate(doc.GeneratedAt)
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("adinsights", true)
	pdf.SetMargins(pageMargin, topMargin, pageMargin)
	pdf.SetAutoPageBreak(true, bottomMargin)
	pdf.AliasNbPages("")

	l := &layout{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pw, ph := pdf.GetPageSize()
	l.width = pw - 2*pageMargin
	l.limit = ph - bottomMargin

	pdf.SetHeaderFunc(func() {
		pdf.SetFont(font, "", 8)
		pdf.SetTextColor(110, 110, 110)
		pdf.SetY(8)
		pdf.CellFormat(l.width/2, 5, l.tr(doc.Title), "", 0, "L", false, 0, "")
		pdf.CellFormat(l.width/2, 5, l.tr(doc.GeneratedAt.Format(stampLayout)), "", 1, "R", false, 0, "")
		pdf.SetY(topMargin)
		pdf.SetTextColor(0, 0, 0)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(font, "", 8)
		pdf.SetTextColor(110, 110, 110)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})

	pdf.AddPage()
	for i, s := range doc.Sections {
		if s.NewPage && i > 0 {
			pdf.AddPage()
		}
		switch s.Kind {
		case report.SectionMeta:
			l.meta(s)
		case report.SectionTable:
			if s.Table == nil {
				return Result{}, fail(FormatPDF, fmt.Errorf("section %q has no table", s.Heading))
			}
			l.table(s)
		default:
			l.pairs(s)
		}
		if pdf.Err() {
			return Result{}, fail(FormatPDF, pdf.Error())
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return Result{}, fail(FormatPDF, err)
	}
	res := Result{Pages: pdf.PageCount(), Bytes: buf.Len()}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return Result{}, fail(FormatPDF, err)
	}
	return res, nil
}

type layout struct {
	pdf   *fpdf.Fpdf
	tr    func(string) string
	width float64
	limit float64
}

func (l *layout) room(h float64) bool { return l.pdf.GetY()+h <= l.limit }

func (l *layout) ensure(h float64) {
	if !l.room(h) {
		l.pdf.AddPage()
	}
}

func (l *layout) heading(text string, size float64) {
	l.ensure(size/2 + 2*rowHeight)
	l.pdf.SetFont(font, "B", size)
	l.pdf.CellFormat(l.width, size/2+2, l.tr(text), "", 1, "L", false, 0, "")
	l.pdf.Ln(1)
}

func (l *layout) meta(s report.Section) {
	l.heading(s.Heading, 18)
	l.pdf.SetFont(font, "", 10)
	for _, p := range s.Pairs[min(1, len(s.Pairs)):] {
		l.pdf.CellFormat(l.width, 5, l.tr(p.Label+": "+p.Value), "", 1, "L", false, 0, "")
	}
	l.pdf.Ln(4)
}

func (l *layout) pairs(s report.Section) {
	l.heading(s.Heading, 13)
	labelW := l.width * 0.45
	for i, p := range s.Pairs {
		l.ensure(rowHeight)
		fill := i%2 == 0
		l.pdf.SetFillColor(244, 246, 250)
		l.pdf.SetFont(font, "", 10)
		l.pdf.CellFormat(labelW, rowHeight, l.tr(p.Label), "", 0, "L", fill, 0, "")
		l.pdf.SetFont(font, "B", 10)
		l.pdf.CellFormat(l.width-labelW, rowHeight, l.tr(p.Value), "", 1, "R", fill, 0, "")
	}
	l.pdf.Ln(5)
}

func (l *layout) table(s report.Section) {
	l.heading(s.Heading, 13)
	widths := l.widths(s.Table.Columns)
	l.header(s.Table.Columns, widths)

	l.pdf.SetFont(font, "", 8)
	for i, row := range s.Table.Rows {
		if !l.room(rowHeight) {
			l.pdf.AddPage()
			l.header(s.Table.Columns, widths)
			l.pdf.SetFont(font, "", 8)
		}
		fill := i%2 == 1
		l.pdf.SetFillColor(248, 248, 248)
		for j, c := range s.Table.Columns {
			var cell string
			if j < len(row) {
				cell = l.fit(l.tr(row[j]), widths[j]-2)
			}
			l.pdf.CellFormat(widths[j], rowHeight, cell, "B", 0, string(c.Align), fill, 0, "")
		}
		l.pdf.Ln(-1)
	}
	if len(s.Table.Rows) == 0 {
		l.pdf.SetFont(font, "I", 9)
		l.pdf.CellFormat(l.width, rowHeight, "No results found.", "", 1, "C", false, 0, "")
	}
	l.pdf.Ln(5)
}

func (l *layout) header(cols []report.Column, widths []float64) {
	l.pdf.SetFont(font, "B", 8)
	l.pdf.SetFillColor(37, 99, 235)
	l.pdf.SetTextColor(255, 255, 255)
	for j, c := range cols {
		l.pdf.CellFormat(widths[j], rowHeight+1, l.fit(l.tr(c.Header), widths[j]-2), "", 0, string(c.Align), true, 0, "")
	}
	l.pdf.Ln(-1)
	l.pdf.SetTextColor(0, 0, 0)
}

// widths scales the relative hints to the printable width.
func (l *layout) widths(cols []report.Column) []float64 {
	var total float64
	for _, c := range cols {
		total += hint(c.Width)
	}
	out := make([]float64, len(cols))
	for i, c := range cols {
		out[i] = l.width * hint(c.Width) / total
	}
	return out
}

func hint(w float64) float64 {
	if w <= 0 {
		return 1
	}
	return w
}

// fit truncates already-translated (single byte) text to width w.
func (l *layout) fit(s string, w float64) string {
	if l.pdf.GetStringWidth(s) <= w {
		return s
	}
	for len(s) > 0 && l.pdf.GetStringWidth(s+"...") > w {
		s = s[:len(s)-1]
	}
	return s + "..."
}
