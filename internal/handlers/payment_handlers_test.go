package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelkita_app/internal/models"
	"travelkita_app/internal/services"
)

// approveAllOutcomes always approves and hands out a fixed suffix.
type approveAllOutcomes struct{}

func (approveAllOutcomes) CardApproved() bool { return true }

func (approveAllOutcomes) ReferenceSuffix(length int) string {
	return strings.Repeat("7", length)
}

func strVal(s string) *string { return &s }

// TestSubmitCardOutlivesRequestContext submits a card payment through the
// handler and cancels the request context as soon as the 202 is written,
// the way net/http does when ServeHTTP returns. The charge must still
// resolve to success afterwards.
func TestSubmitCardOutlivesRequestContext(t *testing.T) {
	processor := services.NewPaymentProcessor(nil, nil, approveAllOutcomes{},
		10*time.Millisecond, time.Second, 15500, "")
	receipts := services.NewReceiptService(nil, nil, nil, "TravelKita")
	checkout := services.NewCheckoutService(services.CheckoutConfig{
		InsuranceUnitPrice: 29.99,
	}, processor, receipts)

	sess, err := checkout.Begin(models.SearchContext{
		Category:      models.CategoryFlight,
		Origin:        "SIN",
		Destination:   "CGK",
		DepartureDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		Travelers:     1,
	}, models.BookingOffer{
		ID:        "FL-778",
		Category:  models.CategoryFlight,
		Title:     "Garuda Indonesia GA-881",
		BasePrice: 120,
		Currency:  "USD",
	}, nil)
	require.NoError(t, err)

	_, err = checkout.ContinueAsGuest(sess.ID, "guest@example.com", "+6281234567890")
	require.NoError(t, err)
	dob := time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC)
	gender := models.GenderMale
	_, err = checkout.UpdatePassenger(sess.ID, 0, services.PassengerInput{
		FirstName:   strVal("budi"),
		LastName:    strVal("santoso"),
		DateOfBirth: &dob,
		Gender:      &gender,
		Email:       strVal("budi@example.com"),
		Phone:       strVal("+62811111111"),
	})
	require.NoError(t, err)
	_, err = checkout.CompletePassengers(sess.ID)
	require.NoError(t, err)
	_, err = checkout.AcceptTerms(sess.ID, true)
	require.NoError(t, err)

	reqCtx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodPost, "/checkout/"+sess.ID+"/payment", nil).WithContext(reqCtx)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(sess.ID)

	h := NewPaymentHandler(checkout, nil, nil, nil)
	require.NoError(t, h.Submit(c))
	require.Equal(t, http.StatusAccepted, rec.Code)
	cancel()

	require.Eventually(t, func() bool {
		current, err := checkout.Session(sess.ID)
		return err == nil && current.SucceededAttempt() != nil
	}, time.Second, 5*time.Millisecond)

	final, err := checkout.Session(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepResult, final.Step)
	assert.True(t, strings.HasPrefix(final.SucceededAttempt().BookingRef, "TK"))
}

func TestInterpretTransactionStatus(t *testing.T) {
	tests := []struct {
		name          string
		status        string
		fraudStatus   string
		wantSucceeded bool
		wantReason    string
		wantTerminal  bool
	}{
		{name: "settlement succeeds", status: "settlement", wantSucceeded: true, wantTerminal: true},
		{name: "accepted capture succeeds", status: "capture", fraudStatus: "accept", wantSucceeded: true, wantTerminal: true},
		{name: "challenged capture stays pending", status: "capture", fraudStatus: "challenge", wantTerminal: false},
		{name: "deny fails", status: "deny", wantReason: "declined", wantTerminal: true},
		{name: "expire fails", status: "expire", wantReason: "payment expired", wantTerminal: true},
		{name: "cancel fails", status: "cancel", wantReason: "cancelled", wantTerminal: true},
		{name: "failure fails", status: "failure", wantReason: "payment failed", wantTerminal: true},
		{name: "pending is not terminal", status: "pending", wantTerminal: false},
		{name: "unknown status is not terminal", status: "refund", wantTerminal: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			succeeded, reason, terminal := interpretTransactionStatus(tt.status, tt.fraudStatus)
			if succeeded != tt.wantSucceeded || reason != tt.wantReason || terminal != tt.wantTerminal {
				t.Errorf("interpretTransactionStatus(%q, %q) = (%v, %q, %v); want (%v, %q, %v)",
					tt.status, tt.fraudStatus, succeeded, reason, terminal,
					tt.wantSucceeded, tt.wantReason, tt.wantTerminal)
			}
		})
	}
}
