package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"time"

	"gorm.io/gorm"

	"travelkita_app/internal/models"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

const bookingRefPrefix = "TK"

// SnapGateway is the slice of the regional gateway the processor needs to
// open a payment surface. MidtransService implements it; tests substitute a
// scripted gateway.
type SnapGateway interface {
	CreateTransaction(param *snap.Request) (*snap.Response, error)
}

// PaymentProcessor executes a routed payment attempt. The card strategy is
// simulated: it resolves asynchronously after a fixed delay with an outcome
// drawn from the injected provider. The redirect strategy hands off to the
// Snap payment surface and is resolved by gateway callbacks.
type PaymentProcessor struct {
	db          *gorm.DB
	gateway     SnapGateway
	outcomes    OutcomeProvider
	cardDelay   time.Duration
	cardTimeout time.Duration
	idrPerUSD   float64
	finishURL   string
}

func NewPaymentProcessor(db *gorm.DB, gateway SnapGateway, outcomes OutcomeProvider, cardDelay, cardTimeout time.Duration, idrPerUSD float64, finishURL string) *PaymentProcessor {
	if cardTimeout <= cardDelay {
		cardTimeout = cardDelay + 30*time.Second
	}
	return &PaymentProcessor{
		db:          db,
		gateway:     gateway,
		outcomes:    outcomes,
		cardDelay:   cardDelay,
		cardTimeout: cardTimeout,
		idrPerUSD:   idrPerUSD,
		finishURL:   finishURL,
	}
}

// NewBookingReference generates a reference of the form TK + 8 alphanumerics.
// taken reports whether a candidate is already in use; generation retries
// until the reference is fresh.
func (p *PaymentProcessor) NewBookingReference(taken func(string) bool) string {
	for {
		ref := bookingRefPrefix + p.outcomes.ReferenceSuffix(8)
		if taken == nil || !taken(ref) {
			return ref
		}
	}
}

// GrossAmount converts an attempt amount to the whole-rupiah figure the
// gateway charges, using the fixed configured exchange rate for non-IDR
// currencies.
func (p *PaymentProcessor) GrossAmount(amount float64, currency string) int64 {
	if currency == "IDR" {
		return int64(math.Round(amount))
	}
	return int64(math.Round(amount * p.idrPerUSD))
}

// SubmitCard runs the simulated card charge. It returns immediately; resolve
// is invoked exactly once with the terminal outcome, after the processing
// delay or, as a guard against an unbounded pending state, the timeout.
func (p *PaymentProcessor) SubmitCard(ctx context.Context, attempt *models.PaymentAttempt, resolve func(approved bool, reason string)) {
	delay := time.NewTimer(p.cardDelay)
	timeout := time.NewTimer(p.cardTimeout)

	go func() {
		defer delay.Stop()
		defer timeout.Stop()

		select {
		case <-delay.C:
			if p.outcomes.CardApproved() {
				resolve(true, "")
			} else {
				resolve(false, "declined by issuer")
			}
		case <-timeout.C:
			resolve(false, "processor timeout")
		case <-ctx.Done():
			resolve(false, "processing interrupted")
		}
	}()
}

// SubmitRedirect creates the Snap transaction for the attempt, records the
// durable payment-session row, and stores the redirect URL on the attempt.
// Resolution happens later through the gateway callback or the user closing
// the payment surface.
func (p *PaymentProcessor) SubmitRedirect(sess *models.BookingSession, attempt *models.PaymentAttempt) error {
	gross := p.GrossAmount(attempt.Amount, attempt.Currency)

	contact := sess.GuestContact
	if contact == nil && len(sess.Passengers) > 0 {
		contact = sess.Passengers[0].Contact
	}

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  attempt.OrderID,
			GrossAmt: gross,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    sess.Offer.ID,
				Name:  fmt.Sprintf("Booking: %s", sess.Offer.Title),
				Price: gross,
				Qty:   1,
			},
		},
	}
	if contact != nil {
		customer := &midtrans.CustomerDetails{
			Email: contact.Email,
			Phone: contact.Phone,
		}
		if len(sess.Passengers) > 0 {
			customer.FName = sess.Passengers[0].FullName()
		}
		req.CustomerDetail = customer
	}
	if p.finishURL != "" {
		req.Callbacks = &snap.Callbacks{Finish: p.finishURL}
	}

	resp, err := p.gateway.CreateTransaction(req)
	if err != nil {
		return err
	}

	attempt.RedirectURL = resp.RedirectURL

	reqBytes, _ := json.Marshal(req)
	respBytes, _ := json.Marshal(resp)
	row := models.PaymentSession{
		CheckoutSessionID: sess.ID,
		PaymentGateway:    models.PaymentGatewayMidtrans,
		OrderID:           attempt.OrderID,
		GrossAmount:       gross,
		IsActive:          true,
		RequestMetadata:   reqBytes,
		ResponseMetadata:  respBytes,
	}
	if p.db != nil {
		if err := p.db.Create(&row).Error; err != nil {
			log.Printf("Failed to record payment session for order %s: %v", attempt.OrderID, err)
		}
	}

	return nil
}

// DeactivatePaymentSession marks the durable row of a resolved redirect
// attempt inactive so the reconciliation worker skips it.
func (p *PaymentProcessor) DeactivatePaymentSession(orderID string) {
	if p.db == nil {
		return
	}
	p.db.Model(&models.PaymentSession{}).Where("order_id = ?", orderID).Update("is_active", false)
}
