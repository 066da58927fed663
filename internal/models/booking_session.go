package models

import "time"

// CheckoutStep is a state of the checkout flow
type CheckoutStep string

const (
	StepAccountResolution   CheckoutStep = "account_resolution"
	StepPassengerCollection CheckoutStep = "passenger_collection"
	StepPayment             CheckoutStep = "payment"
	StepResult              CheckoutStep = "result"
)

// CheckoutResult is set once a payment attempt reaches a terminal outcome.
// After a failure the session moves back to the payment step and the result
// is cleared on the next submission.
type CheckoutResult struct {
	Succeeded     bool   `json:"succeeded"`
	BookingRef    string `json:"booking_ref,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// BookingSession aggregates everything one checkout owns: the selected offer,
// the originating search, the ordered passenger records, pricing, and the
// history of payment attempts. It is created when an offer is selected and
// discarded when checkout completes or is abandoned.
type BookingSession struct {
	ID string `json:"id"`

	Search SearchContext `json:"search"`
	Offer  BookingOffer  `json:"offer"`

	// Account resolution. UserID is zero for guest checkout, in which case
	// GuestContact carries the contact details collected up front.
	UserID       uint         `json:"user_id"`
	UserEmail    string       `json:"user_email,omitempty"`
	GuestContact *ContactInfo `json:"guest_contact,omitempty"`

	Passengers       []*PassengerRecord `json:"passengers"`
	CurrentPassenger int                `json:"current_passenger"`

	Insurance     bool `json:"insurance"`
	TermsAccepted bool `json:"terms_accepted"`

	Pricing PriceBreakdown `json:"pricing"`

	Attempts []*PaymentAttempt `json:"attempts"`

	Step   CheckoutStep    `json:"step"`
	Result *CheckoutResult `json:"result,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PriceBreakdown is the derived pricing of a session: base fare for all
// travelers, the insurance surcharge, and the grand total.
type PriceBreakdown struct {
	Base      float64 `json:"base"`
	Insurance float64 `json:"insurance"`
	Total     float64 `json:"total"`
}

// International reports the document-requirement classification of the
// session's search.
func (s *BookingSession) International() bool {
	return s.Search.International()
}

// ActiveAttempt returns the attempt currently awaiting a terminal outcome,
// or nil. At most one attempt may be pending at any instant.
func (s *BookingSession) ActiveAttempt() *PaymentAttempt {
	for _, a := range s.Attempts {
		if a.Outcome == OutcomePending {
			return a
		}
	}
	return nil
}

// SucceededAttempt returns the attempt that completed the booking, or nil.
func (s *BookingSession) SucceededAttempt() *PaymentAttempt {
	for _, a := range s.Attempts {
		if a.Outcome == OutcomeSucceeded {
			return a
		}
	}
	return nil
}

// AttemptByOrderID looks up an attempt by its gateway order id.
func (s *BookingSession) AttemptByOrderID(orderID string) *PaymentAttempt {
	for _, a := range s.Attempts {
		if a.OrderID == orderID {
			return a
		}
	}
	return nil
}

// Snapshot returns a deep copy of the session. Payment resolution mutates
// the live session from its own goroutine, so readers get a detached copy
// they can inspect and marshal without holding the session lock.
func (s *BookingSession) Snapshot() *BookingSession {
	cp := *s

	if s.GuestContact != nil {
		contact := *s.GuestContact
		cp.GuestContact = &contact
	}

	cp.Passengers = make([]*PassengerRecord, len(s.Passengers))
	for i, p := range s.Passengers {
		rec := *p
		if p.DateOfBirth != nil {
			dob := *p.DateOfBirth
			rec.DateOfBirth = &dob
		}
		if p.Contact != nil {
			contact := *p.Contact
			rec.Contact = &contact
		}
		if p.Document != nil {
			doc := *p.Document
			if p.Document.IssuedAt != nil {
				issued := *p.Document.IssuedAt
				doc.IssuedAt = &issued
			}
			if p.Document.ExpiresAt != nil {
				expires := *p.Document.ExpiresAt
				doc.ExpiresAt = &expires
			}
			rec.Document = &doc
		}
		cp.Passengers[i] = &rec
	}

	cp.Attempts = make([]*PaymentAttempt, len(s.Attempts))
	for i, a := range s.Attempts {
		cp.Attempts[i] = a.Clone()
	}

	if s.Result != nil {
		result := *s.Result
		cp.Result = &result
	}

	return &cp
}
