package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	pageWidth  = 190.0
	qrSizeMM   = 32.0
	qrPixels   = 256
	qrImageKey = "validation-qr"
)

// Document describes a printable institutional document such as a report card or a declaration.
type Document struct {
	Title      string
	Subtitle   string
	Paragraphs []string
	Table      *Dataset
	// QRContent, when set, is encoded as a QR code next to the footer.
	QRContent string
	Footer    string
	IssuedAt  time.Time
}

// PDFExporter renders datasets and documents with gofpdf on A4 pages.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	return e.RenderDocument(Document{Title: title, Table: &data})
}

// RenderDocument lays out a titled document with paragraphs, an optional table and an optional QR code.
func (e *PDFExporter) RenderDocument(doc Document) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.SetAutoPageBreak(true, 20)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	if doc.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(strings.ToUpper(doc.Title)), "", 1, "C", false, 0, "")
	}
	if doc.Subtitle != "" {
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 7, tr(doc.Subtitle), "", 1, "C", false, 0, "")
	}
	pdf.Ln(5)

	pdf.SetFont("Arial", "", 11)
	for _, p := range doc.Paragraphs {
		pdf.MultiCell(0, 6, tr(p), "", "J", false)
		pdf.Ln(2)
	}

	if doc.Table != nil && len(doc.Table.Headers) > 0 {
		writeTable(pdf, tr, *doc.Table)
	}

	if doc.QRContent != "" {
		png, err := qrcode.Encode(doc.QRContent, qrcode.Medium, qrPixels)
		if err != nil {
			return nil, fmt.Errorf("encode qr code: %w", err)
		}
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(qrImageKey, opts, bytes.NewReader(png))
		pdf.Ln(6)
		y := pdf.GetY()
		if y+qrSizeMM > 277 {
			pdf.AddPage()
			y = pdf.GetY()
		}
		pdf.ImageOptions(qrImageKey, 10, y, qrSizeMM, qrSizeMM, false, opts, 0, "")
		pdf.SetXY(10+qrSizeMM+4, y+qrSizeMM/2-4)
	} else {
		pdf.Ln(8)
	}

	pdf.SetFont("Arial", "I", 9)
	footer := doc.Footer
	if !doc.IssuedAt.IsZero() {
		footer = strings.TrimSpace(fmt.Sprintf("%s Emitido em %s.", footer, doc.IssuedAt.Format("02/01/2006 15:04")))
	}
	if footer != "" {
		pdf.MultiCell(0, 5, tr(footer), "", "L", false)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTable(pdf *gofpdf.Fpdf, tr func(string) string, data Dataset) {
	colWidth := pageWidth / float64(len(data.Headers))

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, tr(header), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, 7, tr(row[header]), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
}
