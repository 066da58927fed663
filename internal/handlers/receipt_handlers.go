package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"travelkita_app/internal/services"
)

// ReceiptHandler serves finalized receipts, ticket downloads, and the
// trip-history view.
type ReceiptHandler struct {
	receipts  *services.ReceiptService
	exporters map[string]services.TicketExporter
}

func NewReceiptHandler(receipts *services.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{
		receipts: receipts,
		exporters: map[string]services.TicketExporter{
			"pdf": services.PDFExporter{},
			"txt": services.TextExporter{},
		},
	}
}

// GetReceipt returns the persisted receipt for a booking reference.
func (h *ReceiptHandler) GetReceipt(c echo.Context) error {
	booking, err := h.receipts.ByReference(c.Request().Context(), c.Param("reference"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Receipt not found")
	}
	return c.JSON(http.StatusOK, booking)
}

// DownloadTicket exports the receipt as a downloadable document. Defaults
// to PDF; ?format=txt selects the plain-text exporter.
func (h *ReceiptHandler) DownloadTicket(c echo.Context) error {
	booking, err := h.receipts.ByReference(c.Request().Context(), c.Param("reference"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Receipt not found")
	}

	format := c.QueryParam("format")
	if format == "" {
		format = "pdf"
	}
	exporter, ok := h.exporters[format]
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "Unsupported ticket format: "+format)
	}

	doc := services.BuildTicketDocument(booking)
	data, err := exporter.Export(doc)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to export ticket")
	}

	filename := services.TicketFilename(booking.Reference, exporter.Extension())
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Blob(http.StatusOK, exporter.ContentType(), data)
}

// TripHistory lists the signed-in user's bookings for the post-booking view.
func (h *ReceiptHandler) TripHistory(c echo.Context) error {
	userID := getUintFromContext(c, "userID")
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "Please sign in to continue")
	}
	bookings, err := h.receipts.History(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch trip history")
	}
	return c.JSON(http.StatusOK, bookings)
}
