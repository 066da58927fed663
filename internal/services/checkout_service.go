package services

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"

	"travelkita_app/internal/models"
)

// CheckoutConfig carries the engine knobs read from the environment.
type CheckoutConfig struct {
	// InsuranceUnitPrice is the per-traveler surcharge for travel insurance
	InsuranceUnitPrice float64
	// AllowBackToPassengers re-enables backward navigation out of the
	// payment step. The storefront historically forbids it; kept
	// configurable rather than hard-coded.
	AllowBackToPassengers bool
	// SessionTTL is how long an idle session survives before the janitor
	// discards it
	SessionTTL time.Duration
}

// AuthenticatedUser is what the auth collaborator resolves for a signed-in
// caller.
type AuthenticatedUser struct {
	UserID uint
	Email  string
}

// CheckoutService is the top-level state machine of the checkout flow. It
// owns every live BookingSession, sequences account resolution, passenger
// collection, payment, and the result, and is the only component the
// presentation layer talks to.
type CheckoutService struct {
	cfg       CheckoutConfig
	processor *PaymentProcessor
	receipts  *ReceiptService

	mu       sync.Mutex
	sessions map[string]*checkoutSession
	orders   map[string]string // gateway order id -> session id

	// lifecycle bounds asynchronous payment resolution. It belongs to the
	// service, never to a request: a card charge must outlive the request
	// that submitted it and is only interrupted by server shutdown.
	lifecycle context.Context
}

// checkoutSession pairs a session with its lock. A session is exclusively
// owned by one checkout flow; the lock serializes the UI-triggered
// transitions against asynchronous payment resolution.
type checkoutSession struct {
	mu   sync.Mutex
	sess *models.BookingSession
}

func NewCheckoutService(cfg CheckoutConfig, processor *PaymentProcessor, receipts *ReceiptService) *CheckoutService {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 2 * time.Hour
	}
	return &CheckoutService{
		cfg:       cfg,
		processor: processor,
		receipts:  receipts,
		sessions:  make(map[string]*checkoutSession),
		orders:    make(map[string]string),
		lifecycle: context.Background(),
	}
}

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9\s-]{6,}$`)
)

// Begin creates a session for the selected offer. Authenticated callers skip
// account resolution and start collecting passengers immediately.
func (s *CheckoutService) Begin(search models.SearchContext, offer models.BookingOffer, user *AuthenticatedUser) (*models.BookingSession, error) {
	if offer.ID == "" || offer.Title == "" {
		return nil, NewValidationError("a booking offer must be selected", "offer")
	}
	if offer.BasePrice <= 0 {
		return nil, NewValidationError("the selected offer has no price", "offer.base_price")
	}

	count := search.TravelerCount()
	manager := NewPassengerManager(count, search.International())

	now := time.Now()
	sess := &models.BookingSession{
		ID:         uuid.NewString(),
		Search:     search,
		Offer:      offer,
		Passengers: manager.Records(),
		Step:       models.StepAccountResolution,
		Pricing:    ComputeTotal(offer.BasePrice, count, false, s.cfg.InsuranceUnitPrice),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if user != nil {
		sess.UserID = user.UserID
		sess.UserEmail = user.Email
		sess.Step = models.StepPassengerCollection
	}

	s.mu.Lock()
	s.sessions[sess.ID] = &checkoutSession{sess: sess}
	s.mu.Unlock()

	log.Printf("Checkout session %s started (offer=%s, travelers=%d, international=%v)",
		sess.ID, offer.ID, count, search.International())
	return sess.Snapshot(), nil
}

// Session returns a detached snapshot of the session for id. Snapshots are
// safe to marshal while payment resolution keeps mutating the live session.
func (s *CheckoutService) Session(id string) (*models.BookingSession, error) {
	entry, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.sess.Snapshot(), nil
}

// ContinueAsGuest resolves the account step without signing in. A guest must
// leave a reachable email and phone before the flow advances; the contact is
// pre-filled onto the primary passenger.
func (s *CheckoutService) ContinueAsGuest(id, email, phone string) (*models.BookingSession, error) {
	return s.withSession(id, func(sess *models.BookingSession) error {
		if sess.Step != models.StepAccountResolution {
			return ErrWrongStep
		}
		var missing []string
		if !emailPattern.MatchString(email) {
			missing = append(missing, "email")
		}
		if !phonePattern.MatchString(phone) {
			missing = append(missing, "phone")
		}
		if len(missing) > 0 {
			return NewValidationError("valid contact details are required to continue as guest", missing...)
		}
		sess.GuestContact = &models.ContactInfo{Email: email, Phone: phone}
		if sess.Passengers[0].Contact != nil && sess.Passengers[0].Contact.Email == "" {
			*sess.Passengers[0].Contact = *sess.GuestContact
		}
		sess.Step = models.StepPassengerCollection
		return nil
	})
}

// AttachUser resolves the account step through the external auth
// collaborator once the caller has signed in.
func (s *CheckoutService) AttachUser(id string, user AuthenticatedUser) (*models.BookingSession, error) {
	return s.withSession(id, func(sess *models.BookingSession) error {
		if sess.Step != models.StepAccountResolution {
			return ErrWrongStep
		}
		sess.UserID = user.UserID
		sess.UserEmail = user.Email
		sess.Step = models.StepPassengerCollection
		return nil
	})
}

// UpdatePassenger merges partial data into one passenger record.
func (s *CheckoutService) UpdatePassenger(id string, index int, in PassengerInput) (*models.BookingSession, error) {
	return s.withSession(id, func(sess *models.BookingSession) error {
		if sess.Step != models.StepPassengerCollection {
			return ErrWrongStep
		}
		manager := WrapPassengers(sess.Passengers, sess.International())
		return manager.Update(index, in)
	})
}

// AdvancePassenger moves to the next record; the current one must be
// complete.
func (s *CheckoutService) AdvancePassenger(id string) (*models.BookingSession, error) {
	return s.withSession(id, func(sess *models.BookingSession) error {
		if sess.Step != models.StepPassengerCollection {
			return ErrWrongStep
		}
		manager := WrapPassengers(sess.Passengers, sess.International())
		next, err := manager.Advance(sess.CurrentPassenger)
		if err != nil {
			return err
		}
		sess.CurrentPassenger = next
		return nil
	})
}

// RetreatPassenger moves back one record; always allowed.
func (s *CheckoutService) RetreatPassenger(id string) (*models.BookingSession, error) {
	return s.withSession(id, func(sess *models.BookingSession) error {
		if sess.Step != models.StepPassengerCollection {
			return ErrWrongStep
		}
		manager := WrapPassengers(sess.Passengers, sess.International())
		sess.CurrentPassenger = manager.Retreat(sess.CurrentPassenger)
		return nil
	})
}

// SetInsurance records the opt-in and reprices the session. The toggle is
// only presented on the last passenger record, so it is only accepted there.
func (s *CheckoutService) SetInsurance(id string, optedIn bool) (*models.BookingSession, error) {
	return s.withSession(id, func(sess *models.BookingSession) error {
		if sess.Step != models.StepPassengerCollection {
			return ErrWrongStep
		}
		if sess.CurrentPassenger != len(sess.Passengers)-1 {
			return NewValidationError("insurance can only be chosen on the last passenger", "insurance")
		}
		sess.Insurance = optedIn
		s.reprice(sess)
		return nil
	})
}

// CompletePassengers advances to the payment step once every record is
// complete; otherwise it reports the missing fields of the first incomplete
// record.
func (s *CheckoutService) CompletePassengers(id string) (*models.BookingSession, error) {
	return s.withSession(id, func(sess *models.BookingSession) error {
		if sess.Step != models.StepPassengerCollection {
			return ErrWrongStep
		}
		manager := WrapPassengers(sess.Passengers, sess.International())
		if !manager.AllComplete() {
			for i := range sess.Passengers {
				if missing := manager.MissingFields(i); len(missing) > 0 {
					return NewValidationError(
						fmt.Sprintf("passenger %d is incomplete", i+1), missing...)
				}
			}
		}
		s.reprice(sess)
		sess.Step = models.StepPayment
		return nil
	})
}

// BackToPassengers leaves the payment step backwards. Disabled by default;
// governed by config.
func (s *CheckoutService) BackToPassengers(id string) (*models.BookingSession, error) {
	return s.withSession(id, func(sess *models.BookingSession) error {
		if sess.Step != models.StepPayment {
			return ErrWrongStep
		}
		if !s.cfg.AllowBackToPassengers {
			return ErrBackNavigationDisabled
		}
		if sess.ActiveAttempt() != nil {
			return ErrPaymentInFlight
		}
		sess.Step = models.StepPassengerCollection
		return nil
	})
}

// AcceptTerms records the terms-acceptance flag.
func (s *CheckoutService) AcceptTerms(id string, accepted bool) (*models.BookingSession, error) {
	return s.withSession(id, func(sess *models.BookingSession) error {
		if sess.Step != models.StepPayment {
			return ErrWrongStep
		}
		sess.TermsAccepted = accepted
		return nil
	})
}

// SubmitPayment routes and executes a new payment attempt. It rejects
// synchronously, recording nothing, when terms are not accepted, when an
// attempt is already in flight, or when the session is already paid. The
// returned attempt is pending: the card strategy resolves it after the
// simulated delay, the redirect strategy once the gateway calls back.
// Resolution runs under the service lifecycle, not the submitting request,
// so it proceeds after the request has been answered.
func (s *CheckoutService) SubmitPayment(id string) (*models.PaymentAttempt, error) {
	entry, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	sess := entry.sess

	if sess.Step != models.StepPayment {
		return nil, ErrWrongStep
	}
	if sess.SucceededAttempt() != nil {
		return nil, ErrSessionCompleted
	}
	if sess.ActiveAttempt() != nil {
		return nil, ErrPaymentInFlight
	}
	if !sess.TermsAccepted {
		return nil, NewValidationError("the terms and conditions must be accepted", "terms_accepted")
	}

	s.reprice(sess)
	strategy := SelectStrategy(sess.Search.Origin)

	attempt := &models.PaymentAttempt{
		StrategyID: strategy,
		OrderID:    fmt.Sprintf("checkout-%s-%s", shortID(sess.ID), shortID(uuid.NewString())),
		Amount:     sess.Pricing.Total,
		Currency:   sess.Offer.Currency,
		Outcome:    models.OutcomePending,
		CreatedAt:  time.Now(),
	}
	sess.Attempts = append(sess.Attempts, attempt)
	sess.Result = nil
	sess.UpdatedAt = time.Now()

	s.mu.Lock()
	s.orders[attempt.OrderID] = sess.ID
	lifecycle := s.lifecycle
	s.mu.Unlock()

	switch strategy {
	case models.StrategyMidtransSnap:
		if err := s.processor.SubmitRedirect(sess, attempt); err != nil {
			// The payment surface failed to initialize. Resolve to a
			// terminal failure rather than leaving the attempt pending.
			log.Printf("Redirect hand-off failed for order %s: %v", attempt.OrderID, err)
			s.resolveLocked(sess, attempt, false, "payment service unavailable")
			return attempt.Clone(), nil
		}
	default:
		orderID := attempt.OrderID
		s.processor.SubmitCard(lifecycle, attempt, func(approved bool, reason string) {
			s.resolveOrder(orderID, approved, reason)
		})
	}

	log.Printf("Payment attempt %s submitted (session=%s, strategy=%s, amount=%.2f %s)",
		attempt.OrderID, sess.ID, strategy, attempt.Amount, attempt.Currency)
	return attempt.Clone(), nil
}

// CloseRedirect resolves the pending redirect attempt after the user closed
// the payment surface without paying.
func (s *CheckoutService) CloseRedirect(id string) (*models.BookingSession, error) {
	return s.withSession(id, func(sess *models.BookingSession) error {
		attempt := sess.ActiveAttempt()
		if attempt == nil || attempt.StrategyID != models.StrategyMidtransSnap {
			return NewValidationError("no redirect payment is awaiting completion")
		}
		s.resolveLocked(sess, attempt, false, "cancelled by user")
		return nil
	})
}

// ResolveGatewayOrder applies a gateway-side terminal outcome to the attempt
// identified by its order id. Used by the webhook handler and the
// reconciliation worker.
func (s *CheckoutService) ResolveGatewayOrder(orderID string, succeeded bool, reason string) error {
	return s.resolveOrder(orderID, succeeded, reason)
}

// Discard drops a session, e.g. when the user abandons checkout explicitly.
func (s *CheckoutService) Discard(id string) {
	s.mu.Lock()
	entry, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	// Attempts are mutated under the session lock, so collect the order ids
	// there before dropping them from the index.
	entry.mu.Lock()
	orderIDs := make([]string, 0, len(entry.sess.Attempts))
	for _, a := range entry.sess.Attempts {
		orderIDs = append(orderIDs, a.OrderID)
	}
	entry.mu.Unlock()

	s.mu.Lock()
	for _, orderID := range orderIDs {
		delete(s.orders, orderID)
	}
	s.mu.Unlock()
}

// StartJanitor sweeps idle sessions past their TTL until ctx is done. The
// same ctx becomes the service lifecycle: cancelling it interrupts pending
// card resolution on shutdown.
func (s *CheckoutService) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	s.mu.Lock()
	s.lifecycle = ctx
	s.mu.Unlock()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.expireIdleSessions()
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *CheckoutService) expireIdleSessions() {
	cutoff := time.Now().Add(-s.cfg.SessionTTL)
	s.mu.Lock()
	entries := make(map[string]*checkoutSession, len(s.sessions))
	for id, entry := range s.sessions {
		entries[id] = entry
	}
	s.mu.Unlock()
	for id, entry := range entries {
		entry.mu.Lock()
		stale := entry.sess.UpdatedAt.Before(cutoff)
		entry.mu.Unlock()
		if stale {
			log.Printf("Expiring idle checkout session %s", id)
			s.Discard(id)
		}
	}
}

func (s *CheckoutService) entry(id string) (*checkoutSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return entry, nil
}

func (s *CheckoutService) withSession(id string, fn func(*models.BookingSession) error) (*models.BookingSession, error) {
	entry, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if err := fn(entry.sess); err != nil {
		return nil, err
	}
	entry.sess.UpdatedAt = time.Now()
	return entry.sess.Snapshot(), nil
}

func (s *CheckoutService) reprice(sess *models.BookingSession) {
	sess.Pricing = ComputeTotal(sess.Offer.BasePrice, len(sess.Passengers), sess.Insurance, s.cfg.InsuranceUnitPrice)
}

func (s *CheckoutService) resolveOrder(orderID string, succeeded bool, reason string) error {
	s.mu.Lock()
	sessionID, ok := s.orders[orderID]
	var entry *checkoutSession
	if ok {
		entry = s.sessions[sessionID]
	}
	s.mu.Unlock()
	if entry == nil {
		return ErrSessionNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	attempt := entry.sess.AttemptByOrderID(orderID)
	if attempt == nil || attempt.Outcome.Terminal() {
		// Duplicate callback for an already-resolved attempt; nothing to do.
		return nil
	}
	s.resolveLocked(entry.sess, attempt, succeeded, reason)
	return nil
}

// resolveLocked applies the terminal outcome. Callers hold the session lock.
func (s *CheckoutService) resolveLocked(sess *models.BookingSession, attempt *models.PaymentAttempt, succeeded bool, reason string) {
	now := time.Now()
	attempt.ResolvedAt = &now
	sess.UpdatedAt = now

	if attempt.StrategyID == models.StrategyMidtransSnap {
		s.processor.DeactivatePaymentSession(attempt.OrderID)
	}

	if !succeeded {
		attempt.Outcome = models.OutcomeFailed
		attempt.FailureReason = reason
		// Failure surfaces on the result view, then control returns to the
		// payment step for a fresh attempt.
		sess.Step = models.StepPayment
		sess.Result = &models.CheckoutResult{Succeeded: false, FailureReason: reason}
		log.Printf("Payment attempt %s failed: %s", attempt.OrderID, reason)
		return
	}

	attempt.Outcome = models.OutcomeSucceeded
	attempt.BookingRef = s.processor.NewBookingReference(func(ref string) bool {
		for _, a := range sess.Attempts {
			if a.BookingRef == ref {
				return true
			}
		}
		return s.receipts != nil && s.receipts.ReferenceTaken(ref)
	})

	sess.Step = models.StepResult
	sess.Result = &models.CheckoutResult{Succeeded: true, BookingRef: attempt.BookingRef}

	if s.receipts != nil {
		if _, err := s.receipts.Finalize(sess, attempt); err != nil {
			log.Printf("Failed to finalize receipt for %s: %v", attempt.BookingRef, err)
		}
	}
	log.Printf("Payment attempt %s succeeded, booking reference %s", attempt.OrderID, attempt.BookingRef)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
