package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelkita_app/internal/models"
)

func paidSession() (*models.BookingSession, *models.PaymentAttempt) {
	dob := time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC)
	sess := &models.BookingSession{
		ID: "sess-1",
		Search: models.SearchContext{
			Category:      models.CategoryFlight,
			Origin:        "CGK",
			Destination:   "DPS",
			DepartureDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
			Travelers:     2,
		},
		Offer: models.BookingOffer{
			ID:        "FL-778",
			Category:  models.CategoryFlight,
			Title:     "Garuda Indonesia GA-881",
			BasePrice: 100,
			Currency:  "USD",
		},
		GuestContact: &models.ContactInfo{Email: "guest@example.com", Phone: "+62811111111"},
		Passengers: []*models.PassengerRecord{
			{
				FirstName:   "BUDI",
				LastName:    "SANTOSO",
				DateOfBirth: &dob,
				Contact:     &models.ContactInfo{Email: "budi@example.com", Phone: "+62811111111"},
			},
			{FirstName: "SITI", LastName: "RAHAYU"},
		},
		Insurance: true,
		Pricing:   models.PriceBreakdown{Base: 200, Insurance: 59.98, Total: 259.98},
	}
	resolved := time.Now()
	attempt := &models.PaymentAttempt{
		StrategyID: models.StrategyMidtransSnap,
		OrderID:    "checkout-sess-1-abc",
		Amount:     259.98,
		Currency:   "USD",
		Outcome:    models.OutcomeSucceeded,
		BookingRef: "TK00000001",
		ResolvedAt: &resolved,
	}
	return sess, attempt
}

func TestFinalizeRejectsNonSucceededAttempt(t *testing.T) {
	r := NewReceiptService(nil, nil, nil, "TravelKita")
	sess, attempt := paidSession()

	attempt.Outcome = models.OutcomePending
	_, err := r.Finalize(sess, attempt)
	assert.ErrorIs(t, err, ErrAttemptNotSucceeded)

	attempt.Outcome = models.OutcomeFailed
	_, err = r.Finalize(sess, attempt)
	assert.ErrorIs(t, err, ErrAttemptNotSucceeded)

	_, err = r.Finalize(sess, nil)
	assert.ErrorIs(t, err, ErrAttemptNotSucceeded)
}

func TestFinalizeSnapshotsSession(t *testing.T) {
	r := NewReceiptService(nil, nil, nil, "TravelKita")
	sess, attempt := paidSession()

	booking, err := r.Finalize(sess, attempt)
	require.NoError(t, err)

	assert.Equal(t, "TK00000001", booking.Reference)
	assert.Equal(t, models.CategoryFlight, booking.Category)
	assert.Equal(t, "Garuda Indonesia GA-881", booking.Title)
	assert.Equal(t, "CGK", booking.Origin)
	assert.Equal(t, "DPS", booking.Destination)
	assert.True(t, booking.Insurance)
	assert.InDelta(t, 200, booking.BaseTotal, 1e-9)
	assert.InDelta(t, 59.98, booking.InsuranceTotal, 1e-9)
	assert.InDelta(t, 259.98, booking.GrandTotal, 1e-9)
	assert.Equal(t, "USD", booking.Currency)
	assert.Equal(t, models.PaymentGatewayMidtrans, booking.PaymentGateway)
	assert.Equal(t, attempt.OrderID, booking.OrderID)
	assert.False(t, booking.IssuedAt.IsZero())

	require.Len(t, booking.Passengers, 2)
	assert.Equal(t, "BUDI SANTOSO", booking.Passengers[0].FullName)
	assert.Equal(t, "1990-04-12", booking.Passengers[0].DateOfBirth)
	assert.Equal(t, "SITI RAHAYU", booking.Passengers[1].FullName)
	assert.Empty(t, booking.Passengers[1].DateOfBirth)
}

func TestFinalizeContactEmailPrecedence(t *testing.T) {
	r := NewReceiptService(nil, nil, nil, "TravelKita")

	t.Run("guest contact wins", func(t *testing.T) {
		sess, attempt := paidSession()
		sess.UserEmail = "account@example.com"
		booking, err := r.Finalize(sess, attempt)
		require.NoError(t, err)
		assert.Equal(t, "guest@example.com", booking.ContactEmail)
	})

	t.Run("primary passenger contact when no guest", func(t *testing.T) {
		sess, attempt := paidSession()
		sess.GuestContact = nil
		sess.UserEmail = "account@example.com"
		booking, err := r.Finalize(sess, attempt)
		require.NoError(t, err)
		assert.Equal(t, "budi@example.com", booking.ContactEmail)
	})

	t.Run("account email as fallback", func(t *testing.T) {
		sess, attempt := paidSession()
		sess.GuestContact = nil
		sess.Passengers[0].Contact = nil
		sess.UserEmail = "account@example.com"
		booking, err := r.Finalize(sess, attempt)
		require.NoError(t, err)
		assert.Equal(t, "account@example.com", booking.ContactEmail)
	})
}

func TestFinalizeGuestBookingCarriesNoAccountLink(t *testing.T) {
	r := NewReceiptService(nil, nil, nil, "TravelKita")
	sess, attempt := paidSession()

	booking, err := r.Finalize(sess, attempt)
	require.NoError(t, err)
	assert.Nil(t, booking.UserID, "guest bookings must not reference an account row")
	assert.Nil(t, booking.User)

	// The receipt JSON carries neither an account id nor an empty user object
	raw, err := json.Marshal(booking)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"user"`)
	assert.NotContains(t, string(raw), `"user_id"`)
}

func TestFinalizeAttachesAccountWhenSignedIn(t *testing.T) {
	r := NewReceiptService(nil, nil, nil, "TravelKita")
	sess, attempt := paidSession()
	sess.GuestContact = nil
	sess.UserID = 7
	sess.UserEmail = "account@example.com"

	booking, err := r.Finalize(sess, attempt)
	require.NoError(t, err)
	require.NotNil(t, booking.UserID)
	assert.Equal(t, uint(7), *booking.UserID)
}

func TestReferenceTakenWithoutDatabase(t *testing.T) {
	r := NewReceiptService(nil, nil, nil, "TravelKita")
	assert.False(t, r.ReferenceTaken("TK00000001"))
}
