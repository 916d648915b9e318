// Package proposal builds the customer-facing budget document. The document
// carries client and event fields, item names with quantities and the final
// sale price; unit costs, line totals and the cost composition never appear.
package proposal

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/go-pdf/fpdf"

	"github.com/Simplici0/buffet/internal/domain"
	"github.com/Simplici0/buffet/internal/format"
)

const (
	title        = "ORÇAMENTO DE EVENTO"
	validityNote = "Validade da proposta: 15 dias."
	thanksNote   = "Agradecemos a preferência!"
)

// Field is one labelled row of the client/event block.
type Field struct {
	Label string
	Value string
}

// Line is one row of the item table.
type Line struct {
	Name     string
	Quantity int
}

// Document is the complete content of a proposal, already formatted.
type Document struct {
	Title    string
	IssuedOn string
	Fields   []Field
	Lines    []Line
	Total    string
	Notes    []string
}

// Build selects the fields of b that may be shown to the customer.
func Build(b domain.Budget, issued time.Time) Document {
	lines := make([]Line, 0, len(b.Items))
	for _, item := range b.Items {
		lines = append(lines, Line{Name: item.Name, Quantity: item.Quantity})
	}
	return Document{
		Title:    title,
		IssuedOn: format.Date(issued),
		Fields: []Field{
			{Label: "Cliente:", Value: b.ClientName},
			{Label: "Festa:", Value: b.EventName},
			{Label: "Telefone:", Value: format.Phone(b.ClientPhone)},
			{Label: "Data do Evento:", Value: format.Date(b.EventDate)},
			{Label: "Local:", Value: b.EventLocation},
			{Label: "Convidados:", Value: fmt.Sprintf("%d pessoas", b.GuestCount)},
		},
		Lines: lines,
		Total: format.Currency(b.TotalSales),
		Notes: []string{validityNote, thanksNote},
	}
}

// FileName returns the download name, e.g. "Orcamento_Ana_Souza_2025-03-15.pdf".
func FileName(b domain.Budget) string {
	client := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return '_'
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			return r
		}
		return -1
	}, strings.TrimSpace(b.ClientName))
	if client == "" {
		client = "cliente"
	}
	date := domain.FormatDate(b.EventDate)
	if date == "" {
		date = "sem-data"
	}
	return "Orcamento_" + client + "_" + date + ".pdf"
}

// Render writes doc as a compressed A4 PDF.
func Render(w io.Writer, doc Document) error {
	return render(w, doc, true)
}

var (
	colorPrimary = [3]int{79, 70, 229}
	colorDark    = [3]int{40, 40, 40}
	colorLight   = [3]int{100, 100, 100}
)

func render(w io.Writer, doc Document, compress bool) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(compress)
	pdf.SetTitle(doc.Title, true)
	pdf.SetMargins(20, 20, 14)
	pdf.SetAutoPageBreak(true, 20)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	_, pageH := pdf.GetPageSize()
	pdf.SetFillColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.Rect(0, 0, 8, pageH, "F")

	pdf.SetTextColor(colorDark[0], colorDark[1], colorDark[2])
	pdf.SetFont("Helvetica", "B", 24)
	pdf.CellFormat(0, 12, tr(doc.Title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(colorLight[0], colorLight[1], colorLight[2])
	pdf.CellFormat(0, 6, tr("Gerado em: "+doc.IssuedOn), "", 1, "L", false, 0, "")
	pdf.Ln(12)

	for _, f := range doc.Fields {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(colorDark[0], colorDark[1], colorDark[2])
		pdf.CellFormat(40, 8, tr(f.Label), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(0, 8, tr(f.Value), "", 1, "L", false, 0, "")
	}
	pdf.Ln(10)

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	qtyW := 40.0
	nameW := pageW - left - right - qtyW

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(nameW, 9, tr("DESCRIÇÃO DO ITEM"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(qtyW, 9, "QTD", "1", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(50, 50, 50)
	for _, line := range doc.Lines {
		pdf.CellFormat(nameW, 8, tr(line.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(qtyW, 8, fmt.Sprintf("%d", line.Quantity), "1", 1, "C", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetFillColor(245, 245, 245)
	pdf.SetTextColor(colorDark[0], colorDark[1], colorDark[2])
	pdf.CellFormat(nameW, 10, "TOTAL GERAL", "1", 0, "R", true, 0, "")
	pdf.CellFormat(qtyW, 10, tr(doc.Total), "1", 1, "R", true, 0, "")

	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(colorLight[0], colorLight[1], colorLight[2])
	for _, note := range doc.Notes {
		pdf.CellFormat(0, 5, tr(note), "", 1, "L", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render proposal pdf: %w", err)
	}
	return nil
}
