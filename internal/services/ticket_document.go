package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"travelkita_app/internal/models"
)

const ticketBrand = "TravelKita"

// legalFooter is the static informational boilerplate printed on every
// ticket.
var legalFooter = []string{
	"This document is your proof of purchase. Keep the booking reference at",
	"hand when contacting customer support.",
	"Passengers on international routes must carry the travel document",
	"registered during checkout. Names on the ticket must match it exactly.",
	"Refunds and changes are subject to the fare conditions of the booked",
	"product and the provider's policies.",
}

// TicketDocument is the structured model of an exportable receipt. Layout
// lives in the exporters; content lives here, so the same receipt renders
// identically in every target format.
type TicketDocument struct {
	Brand     string
	Reference string
	Sections  []TicketSection
	Footer    []string
}

// TicketSection is one block of the document: labelled rows, an optional
// table, or both.
type TicketSection struct {
	Heading string
	Rows    []TicketRow
	Table   *TicketTable
}

type TicketRow struct {
	Label string
	Value string
}

type TicketTable struct {
	Columns []string
	Rows    [][]string
}

// TicketExporter renders a TicketDocument into one output format.
type TicketExporter interface {
	Export(doc TicketDocument) ([]byte, error)
	ContentType() string
	Extension() string
}

// TicketFilename names the exported artifact after the booking reference.
func TicketFilename(reference, extension string) string {
	return fmt.Sprintf("%s-Ticket-%s.%s", ticketBrand, reference, extension)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// BuildTicketDocument assembles the document model for a booking. Pure and
// deterministic: the same booking always yields the same document.
func BuildTicketDocument(b *models.Booking) TicketDocument {
	itinerary := TicketSection{Heading: "Itinerary"}
	itinerary.Rows = append(itinerary.Rows,
		TicketRow{Label: "Product", Value: b.Title},
		TicketRow{Label: "Category", Value: capitalize(string(b.Category))},
	)
	if b.Origin != "" && b.Destination != "" {
		itinerary.Rows = append(itinerary.Rows,
			TicketRow{Label: "Route", Value: fmt.Sprintf("%s - %s", b.Origin, b.Destination)})
	}
	itinerary.Rows = append(itinerary.Rows,
		TicketRow{Label: "Departure", Value: b.DepartureDate.Format("02 Jan 2006")})
	if b.ReturnDate != nil {
		itinerary.Rows = append(itinerary.Rows,
			TicketRow{Label: "Return", Value: b.ReturnDate.Format("02 Jan 2006")})
	}

	passengers := TicketSection{
		Heading: "Passengers",
		Table:   &TicketTable{Columns: []string{"#", "Name", "Date of Birth"}},
	}
	for i, p := range b.Passengers {
		passengers.Table.Rows = append(passengers.Table.Rows,
			[]string{fmt.Sprintf("%d", i+1), p.FullName, p.DateOfBirth})
	}

	insurance := "No"
	if b.Insurance {
		insurance = "Yes"
	}
	pricing := TicketSection{
		Heading: "Price Breakdown",
		Rows: []TicketRow{
			{Label: "Base fare", Value: fmt.Sprintf("%s %.2f", b.Currency, b.BaseTotal)},
			{Label: "Travel insurance", Value: fmt.Sprintf("%s %.2f", b.Currency, b.InsuranceTotal)},
			{Label: "Insurance included", Value: insurance},
			{Label: "Total paid", Value: fmt.Sprintf("%s %.2f", b.Currency, b.GrandTotal)},
		},
	}

	reference := TicketSection{
		Heading: "Booking",
		Rows: []TicketRow{
			{Label: "Booking reference", Value: b.Reference},
			{Label: "Issued", Value: b.IssuedAt.Format("02 Jan 2006 15:04")},
			{Label: "Payment", Value: string(b.PaymentGateway)},
		},
	}

	return TicketDocument{
		Brand:     ticketBrand,
		Reference: b.Reference,
		Sections:  []TicketSection{reference, itinerary, passengers, pricing},
		Footer:    legalFooter,
	}
}

// PDFExporter renders the document as an A4 PDF.
type PDFExporter struct{}

func (PDFExporter) ContentType() string { return "application/pdf" }
func (PDFExporter) Extension() string   { return "pdf" }

func (PDFExporter) Export(doc TicketDocument) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("%s Ticket %s", doc.Brand, doc.Reference), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, doc.Brand, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "E-Ticket / Receipt", "", 1, "L", false, 0, "")
	pdf.Ln(4)

	for _, section := range doc.Sections {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, section.Heading, "B", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, row := range section.Rows {
			pdf.CellFormat(50, 6, row.Label, "", 0, "L", false, 0, "")
			pdf.CellFormat(0, 6, row.Value, "", 1, "L", false, 0, "")
		}
		if section.Table != nil {
			pdf.SetFont("Helvetica", "B", 10)
			for _, col := range section.Table.Columns {
				pdf.CellFormat(50, 6, col, "B", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
			pdf.SetFont("Helvetica", "", 10)
			for _, row := range section.Table.Rows {
				for _, cell := range row {
					pdf.CellFormat(50, 6, cell, "", 0, "L", false, 0, "")
				}
				pdf.Ln(-1)
			}
		}
		pdf.Ln(4)
	}

	pdf.SetFont("Helvetica", "I", 8)
	for _, line := range doc.Footer {
		pdf.CellFormat(0, 4, line, "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render ticket pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// TextExporter renders the document as plain text, mainly for support
// tooling and tests.
type TextExporter struct{}

func (TextExporter) ContentType() string { return "text/plain; charset=utf-8" }
func (TextExporter) Extension() string   { return "txt" }

func (TextExporter) Export(doc TicketDocument) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s E-Ticket / Receipt\n", doc.Brand)
	b.WriteString(strings.Repeat("=", 40) + "\n\n")

	for _, section := range doc.Sections {
		fmt.Fprintf(&b, "%s\n%s\n", section.Heading, strings.Repeat("-", len(section.Heading)))
		for _, row := range section.Rows {
			fmt.Fprintf(&b, "%-20s %s\n", row.Label+":", row.Value)
		}
		if section.Table != nil {
			b.WriteString(strings.Join(section.Table.Columns, " | ") + "\n")
			for _, row := range section.Table.Rows {
				b.WriteString(strings.Join(row, " | ") + "\n")
			}
		}
		b.WriteString("\n")
	}

	for _, line := range doc.Footer {
		b.WriteString(line + "\n")
	}
	return []byte(b.String()), nil
}
