package models

import "time"

// StrategyID identifies a concrete payment-collection method
type StrategyID string

const (
	// StrategyCard is the default card-based method, available everywhere
	StrategyCard StrategyID = "card"
	// StrategyMidtransSnap is the redirect-based method offered for
	// bookings originating in Indonesia
	StrategyMidtransSnap StrategyID = "midtrans_snap"
)

// PaymentOutcome is the state of a single payment attempt
type PaymentOutcome string

const (
	OutcomePending   PaymentOutcome = "pending"
	OutcomeSucceeded PaymentOutcome = "succeeded"
	OutcomeFailed    PaymentOutcome = "failed"
)

// Terminal reports whether the outcome is final.
func (o PaymentOutcome) Terminal() bool {
	return o == OutcomeSucceeded || o == OutcomeFailed
}

// PaymentAttempt records one execution of a payment strategy. A session may
// accumulate several failed attempts; at most one reaches succeeded.
type PaymentAttempt struct {
	StrategyID    StrategyID     `json:"strategy_id"`
	OrderID       string         `json:"order_id"` // idempotent reference sent to the gateway
	Amount        float64        `json:"amount"`
	Currency      string         `json:"currency"`
	Outcome       PaymentOutcome `json:"outcome"`
	FailureReason string         `json:"failure_reason,omitempty"`
	BookingRef    string         `json:"booking_ref,omitempty"` // assigned on success
	RedirectURL   string         `json:"redirect_url,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	ResolvedAt    *time.Time     `json:"resolved_at,omitempty"`
}

// Clone returns a copy detached from the live attempt, safe to read while
// resolution may still mutate the original.
func (a *PaymentAttempt) Clone() *PaymentAttempt {
	cp := *a
	if a.ResolvedAt != nil {
		resolved := *a.ResolvedAt
		cp.ResolvedAt = &resolved
	}
	return &cp
}
