package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/midtrans/midtrans-go/snap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelkita_app/internal/models"
)

// scriptedOutcomes replays a fixed list of card decisions and hands out
// sequential reference suffixes, so every terminal state is reachable on
// demand.
type scriptedOutcomes struct {
	approvals []bool
	next      int
	suffix    int
}

func (s *scriptedOutcomes) CardApproved() bool {
	if s.next >= len(s.approvals) {
		return true
	}
	approved := s.approvals[s.next]
	s.next++
	return approved
}

func (s *scriptedOutcomes) ReferenceSuffix(length int) string {
	s.suffix++
	return fmt.Sprintf("%0*d", length, s.suffix)
}

type fakeSnapGateway struct {
	err     error
	created []*snap.Request
}

func (g *fakeSnapGateway) CreateTransaction(req *snap.Request) (*snap.Response, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.created = append(g.created, req)
	return &snap.Response{
		Token:       "snap-token",
		RedirectURL: "https://app.sandbox.midtrans.com/snap/v2/vtweb/snap-token",
	}, nil
}

type checkoutFixture struct {
	service  *CheckoutService
	gateway  *fakeSnapGateway
	outcomes *scriptedOutcomes
}

func newCheckoutFixture(approvals []bool, cardDelay time.Duration, allowBack bool) *checkoutFixture {
	gateway := &fakeSnapGateway{}
	outcomes := &scriptedOutcomes{approvals: approvals}
	processor := NewPaymentProcessor(nil, gateway, outcomes, cardDelay, time.Second, 15500, "")
	receipts := NewReceiptService(nil, nil, nil, "TravelKita")
	service := NewCheckoutService(CheckoutConfig{
		InsuranceUnitPrice:    29.99,
		AllowBackToPassengers: allowBack,
	}, processor, receipts)
	return &checkoutFixture{service: service, gateway: gateway, outcomes: outcomes}
}

func domesticSearch(travelers int) models.SearchContext {
	return models.SearchContext{
		Category:      models.CategoryFlight,
		Origin:        "SIN",
		Destination:   "CGK",
		DepartureDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		Travelers:     travelers,
	}
}

func indonesianOriginSearch(travelers int) models.SearchContext {
	return models.SearchContext{
		Category:      models.CategoryFlight,
		Origin:        "CGK",
		Destination:   "DPS",
		DepartureDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		Travelers:     travelers,
	}
}

func internationalSearch(travelers int) models.SearchContext {
	return models.SearchContext{
		Category:      models.CategoryFlight,
		Origin:        "CGK",
		Destination:   "NRT",
		DepartureDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		Travelers:     travelers,
	}
}

func testOffer(basePrice float64) models.BookingOffer {
	return models.BookingOffer{
		ID:        "FL-778",
		Category:  models.CategoryFlight,
		Title:     "Garuda Indonesia GA-881",
		BasePrice: basePrice,
		Currency:  "USD",
		Carrier:   "Garuda Indonesia",
	}
}

// fillPassenger completes record index, including the document block when
// the route requires one.
func fillPassenger(t *testing.T, service *CheckoutService, sessionID string, index int, international bool) {
	t.Helper()
	in := completeInput()
	if international {
		in.Document = completeDocument()
	}
	_, err := service.UpdatePassenger(sessionID, index, in)
	require.NoError(t, err)
}

// beginGuestCheckout drives a fresh session to the passenger step.
func beginGuestCheckout(t *testing.T, service *CheckoutService, search models.SearchContext, offer models.BookingOffer) *models.BookingSession {
	t.Helper()
	sess, err := service.Begin(search, offer, nil)
	require.NoError(t, err)
	require.Equal(t, models.StepAccountResolution, sess.Step)

	sess, err = service.ContinueAsGuest(sess.ID, "guest@example.com", "+6281234567890")
	require.NoError(t, err)
	require.Equal(t, models.StepPassengerCollection, sess.Step)
	return sess
}

func waitForTerminalAttempt(t *testing.T, service *CheckoutService, sessionID string) *models.PaymentAttempt {
	t.Helper()
	var terminal *models.PaymentAttempt
	require.Eventually(t, func() bool {
		sess, err := service.Session(sessionID)
		if err != nil {
			return false
		}
		for _, a := range sess.Attempts {
			if a.Outcome.Terminal() {
				terminal = a
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
	return terminal
}

func TestBeginRejectsUnpricedOffer(t *testing.T) {
	f := newCheckoutFixture(nil, time.Millisecond, false)
	_, err := f.service.Begin(domesticSearch(1), models.BookingOffer{ID: "X", Title: "X"}, nil)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestAuthenticatedCallerSkipsAccountResolution(t *testing.T) {
	f := newCheckoutFixture(nil, time.Millisecond, false)
	sess, err := f.service.Begin(domesticSearch(1), testOffer(100), &AuthenticatedUser{UserID: 7, Email: "user@example.com"})
	require.NoError(t, err)
	assert.Equal(t, models.StepPassengerCollection, sess.Step)
	assert.Equal(t, uint(7), sess.UserID)
}

func TestContinueAsGuestValidatesContact(t *testing.T) {
	f := newCheckoutFixture(nil, time.Millisecond, false)
	sess, err := f.service.Begin(domesticSearch(1), testOffer(100), nil)
	require.NoError(t, err)

	_, err = f.service.ContinueAsGuest(sess.ID, "not-an-email", "")
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.ElementsMatch(t, []string{"email", "phone"}, validationErr.Fields)

	current, getErr := f.service.Session(sess.ID)
	require.NoError(t, getErr)
	assert.Equal(t, models.StepAccountResolution, current.Step, "invalid contact must not advance the session")
}

func TestGuestDomesticCardSuccess(t *testing.T) {
	f := newCheckoutFixture([]bool{true}, time.Millisecond, false)
	sess := beginGuestCheckout(t, f.service, domesticSearch(1), testOffer(120))

	fillPassenger(t, f.service, sess.ID, 0, false)
	_, err := f.service.CompletePassengers(sess.ID)
	require.NoError(t, err)

	_, err = f.service.AcceptTerms(sess.ID, true)
	require.NoError(t, err)

	attempt, err := f.service.SubmitPayment(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StrategyCard, attempt.StrategyID)
	assert.Equal(t, models.OutcomePending, attempt.Outcome)

	terminal := waitForTerminalAttempt(t, f.service, sess.ID)
	assert.Equal(t, models.OutcomeSucceeded, terminal.Outcome)
	assert.True(t, strings.HasPrefix(terminal.BookingRef, "TK"))
	assert.Len(t, terminal.BookingRef, 10)

	final, err := f.service.Session(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepResult, final.Step)
	require.NotNil(t, final.Result)
	assert.True(t, final.Result.Succeeded)
	assert.False(t, final.Insurance)
	assert.InDelta(t, 120, final.Pricing.Total, 1e-9, "no insurance: total equals base price")
}

func TestInternationalPassengerMissingPassportBlocksPayment(t *testing.T) {
	f := newCheckoutFixture(nil, time.Millisecond, false)
	sess := beginGuestCheckout(t, f.service, internationalSearch(2), testOffer(300))

	fillPassenger(t, f.service, sess.ID, 0, true)
	_, err := f.service.AdvancePassenger(sess.ID)
	require.NoError(t, err)

	// Second passenger: everything except the passport number
	in := completeInput()
	doc := completeDocument()
	doc.PassportNumber = nil
	in.Document = doc
	_, err = f.service.UpdatePassenger(sess.ID, 1, in)
	require.NoError(t, err)

	_, err = f.service.CompletePassengers(sess.ID)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Message, "passenger 2")
	assert.Equal(t, []string{"passport_number"}, validationErr.Fields)

	current, getErr := f.service.Session(sess.ID)
	require.NoError(t, getErr)
	assert.Equal(t, models.StepPassengerCollection, current.Step)
}

func TestSubmitWithoutTermsRecordsNoAttempt(t *testing.T) {
	f := newCheckoutFixture(nil, time.Millisecond, false)
	sess := beginGuestCheckout(t, f.service, domesticSearch(1), testOffer(100))

	fillPassenger(t, f.service, sess.ID, 0, false)
	_, err := f.service.CompletePassengers(sess.ID)
	require.NoError(t, err)

	_, err = f.service.SubmitPayment(sess.ID)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "terms_accepted")

	current, getErr := f.service.Session(sess.ID)
	require.NoError(t, getErr)
	assert.Empty(t, current.Attempts, "rejected submission must not record an attempt")
}

func TestDoubleSubmissionIsBlockedWhileInFlight(t *testing.T) {
	f := newCheckoutFixture([]bool{true}, 500*time.Millisecond, false)
	sess := beginGuestCheckout(t, f.service, domesticSearch(1), testOffer(100))

	fillPassenger(t, f.service, sess.ID, 0, false)
	_, err := f.service.CompletePassengers(sess.ID)
	require.NoError(t, err)
	_, err = f.service.AcceptTerms(sess.ID, true)
	require.NoError(t, err)

	_, err = f.service.SubmitPayment(sess.ID)
	require.NoError(t, err)

	_, err = f.service.SubmitPayment(sess.ID)
	assert.ErrorIs(t, err, ErrPaymentInFlight)
}

func TestCardDeclineKeepsSessionAliveForRetry(t *testing.T) {
	f := newCheckoutFixture([]bool{false, true}, time.Millisecond, false)
	sess := beginGuestCheckout(t, f.service, domesticSearch(1), testOffer(100))

	fillPassenger(t, f.service, sess.ID, 0, false)
	_, err := f.service.CompletePassengers(sess.ID)
	require.NoError(t, err)
	_, err = f.service.AcceptTerms(sess.ID, true)
	require.NoError(t, err)

	_, err = f.service.SubmitPayment(sess.ID)
	require.NoError(t, err)

	failed := waitForTerminalAttempt(t, f.service, sess.ID)
	assert.Equal(t, models.OutcomeFailed, failed.Outcome)
	assert.Equal(t, "declined by issuer", failed.FailureReason)
	assert.Empty(t, failed.BookingRef, "failed attempts never get a booking reference")

	current, err := f.service.Session(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepPayment, current.Step, "failure returns control to the payment step")

	// Retry succeeds
	_, err = f.service.SubmitPayment(current.ID)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		sess, _ := f.service.Session(current.ID)
		return sess != nil && sess.SucceededAttempt() != nil
	}, time.Second, 5*time.Millisecond)

	final, err := f.service.Session(current.ID)
	require.NoError(t, err)
	assert.Len(t, final.Attempts, 2)
	assert.Equal(t, models.StepResult, final.Step)
}

func TestRedirectCancelledByUser(t *testing.T) {
	f := newCheckoutFixture(nil, time.Millisecond, false)
	sess := beginGuestCheckout(t, f.service, indonesianOriginSearch(1), testOffer(150))

	fillPassenger(t, f.service, sess.ID, 0, false)
	_, err := f.service.CompletePassengers(sess.ID)
	require.NoError(t, err)
	_, err = f.service.AcceptTerms(sess.ID, true)
	require.NoError(t, err)

	attempt, err := f.service.SubmitPayment(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StrategyMidtransSnap, attempt.StrategyID)
	assert.NotEmpty(t, attempt.RedirectURL)
	assert.Equal(t, models.OutcomePending, attempt.Outcome)

	// Gateway charged in whole rupiah at the fixed rate
	require.Len(t, f.gateway.created, 1)
	assert.Equal(t, int64(150*15500), f.gateway.created[0].TransactionDetails.GrossAmt)

	current, err := f.service.CloseRedirect(sess.ID)
	require.NoError(t, err)
	require.NotNil(t, current.Result)
	assert.False(t, current.Result.Succeeded)
	assert.Equal(t, "cancelled by user", current.Result.FailureReason)
	assert.Equal(t, models.StepPayment, current.Step)

	// The session still permits a fresh attempt
	_, err = f.service.SubmitPayment(sess.ID)
	require.NoError(t, err)
}

func TestRedirectResolvedByGatewayCallback(t *testing.T) {
	f := newCheckoutFixture(nil, time.Millisecond, false)
	sess := beginGuestCheckout(t, f.service, indonesianOriginSearch(1), testOffer(150))

	fillPassenger(t, f.service, sess.ID, 0, false)
	_, err := f.service.CompletePassengers(sess.ID)
	require.NoError(t, err)
	_, err = f.service.AcceptTerms(sess.ID, true)
	require.NoError(t, err)

	attempt, err := f.service.SubmitPayment(sess.ID)
	require.NoError(t, err)

	require.NoError(t, f.service.ResolveGatewayOrder(attempt.OrderID, true, ""))

	final, err := f.service.Session(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepResult, final.Step)
	require.NotNil(t, final.SucceededAttempt())
	assert.True(t, strings.HasPrefix(final.SucceededAttempt().BookingRef, "TK"))

	// A redelivered callback is a no-op
	require.NoError(t, f.service.ResolveGatewayOrder(attempt.OrderID, true, ""))
	after, err := f.service.Session(sess.ID)
	require.NoError(t, err)
	assert.Len(t, after.Attempts, 1)
}

func TestRedirectGatewayFailureResolvesAttempt(t *testing.T) {
	f := newCheckoutFixture(nil, time.Millisecond, false)
	f.gateway.err = errors.New("midtrans create transaction error: 500")
	sess := beginGuestCheckout(t, f.service, indonesianOriginSearch(1), testOffer(150))

	fillPassenger(t, f.service, sess.ID, 0, false)
	_, err := f.service.CompletePassengers(sess.ID)
	require.NoError(t, err)
	_, err = f.service.AcceptTerms(sess.ID, true)
	require.NoError(t, err)

	attempt, err := f.service.SubmitPayment(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeFailed, attempt.Outcome, "a broken payment surface must not leave the attempt pending")
	assert.Equal(t, "payment service unavailable", attempt.FailureReason)
}

func TestInsuranceOnlyOnLastPassenger(t *testing.T) {
	f := newCheckoutFixture(nil, time.Millisecond, false)
	sess := beginGuestCheckout(t, f.service, domesticSearch(2), testOffer(100))

	_, err := f.service.SetInsurance(sess.ID, true)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	fillPassenger(t, f.service, sess.ID, 0, false)
	_, err = f.service.AdvancePassenger(sess.ID)
	require.NoError(t, err)

	current, err := f.service.SetInsurance(sess.ID, true)
	require.NoError(t, err)
	assert.True(t, current.Insurance)
	assert.InDelta(t, 100*2+29.99*2, current.Pricing.Total, 1e-9)
}

func TestBackNavigationFromPayment(t *testing.T) {
	prepare := func(f *checkoutFixture) *models.BookingSession {
		sess := beginGuestCheckout(t, f.service, domesticSearch(1), testOffer(100))
		fillPassenger(t, f.service, sess.ID, 0, false)
		_, err := f.service.CompletePassengers(sess.ID)
		require.NoError(t, err)
		return sess
	}

	t.Run("forbidden by default", func(t *testing.T) {
		f := newCheckoutFixture(nil, time.Millisecond, false)
		sess := prepare(f)
		_, err := f.service.BackToPassengers(sess.ID)
		assert.ErrorIs(t, err, ErrBackNavigationDisabled)
	})

	t.Run("allowed when configured", func(t *testing.T) {
		f := newCheckoutFixture(nil, time.Millisecond, true)
		sess := prepare(f)
		current, err := f.service.BackToPassengers(sess.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StepPassengerCollection, current.Step)
	})
}

func TestSessionReadsAreDetachedFromResolution(t *testing.T) {
	f := newCheckoutFixture([]bool{true}, 50*time.Millisecond, false)
	sess := beginGuestCheckout(t, f.service, domesticSearch(1), testOffer(100))

	fillPassenger(t, f.service, sess.ID, 0, false)
	_, err := f.service.CompletePassengers(sess.ID)
	require.NoError(t, err)
	_, err = f.service.AcceptTerms(sess.ID, true)
	require.NoError(t, err)

	_, err = f.service.SubmitPayment(sess.ID)
	require.NoError(t, err)

	before, err := f.service.Session(sess.ID)
	require.NoError(t, err)
	require.NotNil(t, before.ActiveAttempt())

	// Readers marshal snapshots while the card goroutine resolves the live
	// session underneath them.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			snapshot, err := f.service.Session(sess.ID)
			if err != nil {
				return
			}
			if _, err := json.Marshal(snapshot); err != nil {
				return
			}
		}
	}()

	terminal := waitForTerminalAttempt(t, f.service, sess.ID)
	<-done
	assert.Equal(t, models.OutcomeSucceeded, terminal.Outcome)

	// The snapshot taken while pending is untouched by resolution
	assert.Equal(t, models.OutcomePending, before.Attempts[0].Outcome)
	assert.Equal(t, models.StepPayment, before.Step)
}

func TestDiscardForgetsSession(t *testing.T) {
	f := newCheckoutFixture(nil, time.Millisecond, false)
	sess, err := f.service.Begin(domesticSearch(1), testOffer(100), nil)
	require.NoError(t, err)

	f.service.Discard(sess.ID)
	_, err = f.service.Session(sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
