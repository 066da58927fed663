package handlers

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"travelkita_app/internal/models"
	"travelkita_app/internal/services"
)

// BeginCheckoutRequest is what the search/results collaborator hands over
// when the user selects an offer.
type BeginCheckoutRequest struct {
	Search models.SearchContext `json:"search"`
	Offer  models.BookingOffer  `json:"offer"`
}

type GuestContactRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type InsuranceRequest struct {
	OptedIn bool `json:"opted_in"`
}

type TermsRequest struct {
	Accepted bool `json:"accepted"`
}

// PriceView renders a breakdown with the 2-decimal display strings the UI
// shows; raw amounts keep full precision.
type PriceView struct {
	Base             float64 `json:"base"`
	Insurance        float64 `json:"insurance"`
	Total            float64 `json:"total"`
	Currency         string  `json:"currency"`
	BaseDisplay      string  `json:"base_display"`
	InsuranceDisplay string  `json:"insurance_display"`
	TotalDisplay     string  `json:"total_display"`
}

// CheckoutView is the session projection returned after every transition.
type CheckoutView struct {
	ID               string                    `json:"id"`
	Step             models.CheckoutStep       `json:"step"`
	International    bool                      `json:"international"`
	TravelerCount    int                       `json:"traveler_count"`
	CurrentPassenger int                       `json:"current_passenger"`
	MissingFields    []string                  `json:"missing_fields,omitempty"`
	Passengers       []*models.PassengerRecord `json:"passengers"`
	Insurance        bool                      `json:"insurance"`
	TermsAccepted    bool                      `json:"terms_accepted"`
	Pricing          PriceView                 `json:"pricing"`
	Strategy         models.StrategyID         `json:"strategy"`
	Offer            models.BookingOffer       `json:"offer"`
	Search           models.SearchContext      `json:"search"`
	ActiveAttempt    *models.PaymentAttempt    `json:"active_attempt,omitempty"`
	Result           *models.CheckoutResult    `json:"result,omitempty"`
}

// NewCheckoutView projects a session for the presentation layer.
func NewCheckoutView(sess *models.BookingSession) CheckoutView {
	manager := services.WrapPassengers(sess.Passengers, sess.International())
	return CheckoutView{
		ID:               sess.ID,
		Step:             sess.Step,
		International:    sess.International(),
		TravelerCount:    len(sess.Passengers),
		CurrentPassenger: sess.CurrentPassenger,
		MissingFields:    manager.MissingFields(sess.CurrentPassenger),
		Passengers:       sess.Passengers,
		Insurance:        sess.Insurance,
		TermsAccepted:    sess.TermsAccepted,
		Pricing:          newPriceView(sess.Pricing, sess.Offer.Currency),
		Strategy:         services.SelectStrategy(sess.Search.Origin),
		Offer:            sess.Offer,
		Search:           sess.Search,
		ActiveAttempt:    sess.ActiveAttempt(),
		Result:           sess.Result,
	}
}

func newPriceView(p models.PriceBreakdown, currency string) PriceView {
	return PriceView{
		Base:             p.Base,
		Insurance:        p.Insurance,
		Total:            p.Total,
		Currency:         currency,
		BaseDisplay:      fmt.Sprintf("%.2f", p.Base),
		InsuranceDisplay: fmt.Sprintf("%.2f", p.Insurance),
		TotalDisplay:     fmt.Sprintf("%.2f", p.Total),
	}
}

func getStringFromContext(c echo.Context, key string) string {
	if val := c.Get(key); val != nil {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return ""
}

func getUintFromContext(c echo.Context, key string) uint {
	if val := c.Get(key); val != nil {
		if u, ok := val.(uint); ok {
			return u
		}
	}
	return 0
}
