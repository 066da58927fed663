package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"travelkita_app/internal/services"
)

// CheckoutHandler exposes the checkout state machine to the presentation
// layer, one endpoint per visible transition.
type CheckoutHandler struct {
	checkout *services.CheckoutService
}

func NewCheckoutHandler(checkout *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

// Begin starts a session for the selected offer. Runs under optional auth:
// a signed-in caller skips account resolution.
func (h *CheckoutHandler) Begin(c echo.Context) error {
	var req BeginCheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid checkout payload")
	}

	var user *services.AuthenticatedUser
	if userID := getUintFromContext(c, "userID"); userID != 0 {
		user = &services.AuthenticatedUser{
			UserID: userID,
			Email:  getStringFromContext(c, "userEmail"),
		}
	}

	sess, err := h.checkout.Begin(req.Search, req.Offer, user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, NewCheckoutView(sess))
}

// GetSession returns the current projection of a session.
func (h *CheckoutHandler) GetSession(c echo.Context) error {
	sess, err := h.checkout.Session(c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewCheckoutView(sess))
}

// ContinueAsGuest resolves the account step with contact details only.
func (h *CheckoutHandler) ContinueAsGuest(c echo.Context) error {
	var req GuestContactRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid contact payload")
	}
	sess, err := h.checkout.ContinueAsGuest(c.Param("id"), req.Email, req.Phone)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewCheckoutView(sess))
}

// AttachAccount resolves the account step for a caller who signed in with
// the external auth collaborator mid-checkout.
func (h *CheckoutHandler) AttachAccount(c echo.Context) error {
	userID := getUintFromContext(c, "userID")
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "Sign in before attaching an account")
	}
	sess, err := h.checkout.AttachUser(c.Param("id"), services.AuthenticatedUser{
		UserID: userID,
		Email:  getStringFromContext(c, "userEmail"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewCheckoutView(sess))
}

// UpdatePassenger merges a partial form submission into one record.
func (h *CheckoutHandler) UpdatePassenger(c echo.Context) error {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid passenger index")
	}
	var input services.PassengerInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid passenger payload")
	}
	sess, err := h.checkout.UpdatePassenger(c.Param("id"), index, input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewCheckoutView(sess))
}

// NextPassenger advances to the following record.
func (h *CheckoutHandler) NextPassenger(c echo.Context) error {
	sess, err := h.checkout.AdvancePassenger(c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewCheckoutView(sess))
}

// PrevPassenger steps back one record.
func (h *CheckoutHandler) PrevPassenger(c echo.Context) error {
	sess, err := h.checkout.RetreatPassenger(c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewCheckoutView(sess))
}

// SetInsurance toggles the travel-insurance opt-in.
func (h *CheckoutHandler) SetInsurance(c echo.Context) error {
	var req InsuranceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid insurance payload")
	}
	sess, err := h.checkout.SetInsurance(c.Param("id"), req.OptedIn)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewCheckoutView(sess))
}

// CompletePassengers moves the session to the payment step.
func (h *CheckoutHandler) CompletePassengers(c echo.Context) error {
	sess, err := h.checkout.CompletePassengers(c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewCheckoutView(sess))
}

// AcceptTerms records terms acceptance ahead of payment submission.
func (h *CheckoutHandler) AcceptTerms(c echo.Context) error {
	var req TermsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid terms payload")
	}
	sess, err := h.checkout.AcceptTerms(c.Param("id"), req.Accepted)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewCheckoutView(sess))
}

// Back leaves the payment step backwards when the flow allows it.
func (h *CheckoutHandler) Back(c echo.Context) error {
	sess, err := h.checkout.BackToPassengers(c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewCheckoutView(sess))
}

// Abandon discards the session.
func (h *CheckoutHandler) Abandon(c echo.Context) error {
	h.checkout.Discard(c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}
