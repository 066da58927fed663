package services

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelkita_app/internal/models"
)

func sampleBooking() *models.Booking {
	returnDate := time.Date(2026, 10, 8, 0, 0, 0, 0, time.UTC)
	return &models.Booking{
		Reference:     "TKA1B2C3D4",
		Category:      models.CategoryFlight,
		Title:         "Garuda Indonesia GA-881",
		Origin:        "CGK",
		Destination:   "NRT",
		DepartureDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		ReturnDate:    &returnDate,
		Passengers: []models.PassengerSummary{
			{FullName: "BUDI SANTOSO", DateOfBirth: "1990-04-12"},
			{FullName: "SITI RAHAYU", DateOfBirth: "1992-08-30"},
		},
		ContactEmail:   "budi@example.com",
		BaseTotal:      600,
		InsuranceTotal: 59.98,
		GrandTotal:     659.98,
		Currency:       "USD",
		Insurance:      true,
		PaymentGateway: models.PaymentGatewayMidtrans,
		OrderID:        "checkout-abc-def",
		IssuedAt:       time.Date(2026, 9, 1, 14, 30, 0, 0, time.UTC),
	}
}

func TestTicketFilename(t *testing.T) {
	assert.Equal(t, "TravelKita-Ticket-TKA1B2C3D4.pdf", TicketFilename("TKA1B2C3D4", "pdf"))
	assert.Equal(t, "TravelKita-Ticket-TKA1B2C3D4.txt", TicketFilename("TKA1B2C3D4", "txt"))
}

func TestBuildTicketDocument(t *testing.T) {
	doc := BuildTicketDocument(sampleBooking())

	assert.Equal(t, "TravelKita", doc.Brand)
	assert.Equal(t, "TKA1B2C3D4", doc.Reference)
	require.Len(t, doc.Sections, 4)
	assert.NotEmpty(t, doc.Footer)

	headings := make([]string, 0, len(doc.Sections))
	for _, s := range doc.Sections {
		headings = append(headings, s.Heading)
	}
	assert.Equal(t, []string{"Booking", "Itinerary", "Passengers", "Price Breakdown"}, headings)

	passengers := doc.Sections[2]
	require.NotNil(t, passengers.Table)
	require.Len(t, passengers.Table.Rows, 2)
	assert.Equal(t, []string{"1", "BUDI SANTOSO", "1990-04-12"}, passengers.Table.Rows[0])
}

func TestBuildTicketDocumentOmitsAbsentDetails(t *testing.T) {
	b := sampleBooking()
	b.ReturnDate = nil
	b.Origin = ""
	b.Destination = ""
	b.Category = models.CategoryHotel

	doc := BuildTicketDocument(b)
	itinerary := doc.Sections[1]
	for _, row := range itinerary.Rows {
		assert.NotEqual(t, "Route", row.Label)
		assert.NotEqual(t, "Return", row.Label)
	}
}

func TestTextExport(t *testing.T) {
	out, err := TextExporter{}.Export(BuildTicketDocument(sampleBooking()))
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "TravelKita E-Ticket / Receipt")
	assert.Contains(t, text, "TKA1B2C3D4")
	assert.Contains(t, text, "CGK - NRT")
	assert.Contains(t, text, "BUDI SANTOSO")
	assert.Contains(t, text, "USD 659.98")
	assert.Contains(t, text, "proof of purchase")
}

func TestExportIsDeterministic(t *testing.T) {
	b := sampleBooking()

	first, err := TextExporter{}.Export(BuildTicketDocument(b))
	require.NoError(t, err)
	second, err := TextExporter{}.Export(BuildTicketDocument(b))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first, second), "re-export of the same booking must be byte-identical")
}

func TestPDFExport(t *testing.T) {
	out, err := PDFExporter{}.Export(BuildTicketDocument(sampleBooking()))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF-"), "output must be a pdf stream")
	assert.Equal(t, "application/pdf", PDFExporter{}.ContentType())
	assert.Equal(t, "pdf", PDFExporter{}.Extension())
}
