package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"travelkita_app/internal/models"
	"travelkita_app/internal/services"
)

// PaymentHandler owns payment submission and the gateway callback surface.
type PaymentHandler struct {
	checkout *services.CheckoutService
	midtrans *services.MidtransService
	cache    *services.RedisCache
	db       *gorm.DB
}

func NewPaymentHandler(checkout *services.CheckoutService, midtransClient *services.MidtransService, cache *services.RedisCache, db *gorm.DB) *PaymentHandler {
	return &PaymentHandler{checkout: checkout, midtrans: midtransClient, cache: cache, db: db}
}

// Submit routes and executes a payment attempt for the session. The card
// strategy resolves on its own after the processing delay; the redirect
// strategy returns a redirect URL and waits for the gateway callback.
// Resolution is deliberately not tied to the request context: the 202 is
// answered while the charge is still pending.
func (h *PaymentHandler) Submit(c echo.Context) error {
	attempt, err := h.checkout.SubmitPayment(c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, attempt)
}

// CloseRedirect is called when the user closes the payment surface without
// completing payment; the pending attempt resolves to a failure.
func (h *PaymentHandler) CloseRedirect(c echo.Context) error {
	sess, err := h.checkout.CloseRedirect(c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewCheckoutView(sess))
}

// MidtransCallback handles gateway notifications. Every payload is recorded
// verbatim before interpretation; a Redis lock makes redelivered
// notifications no-ops.
func (h *PaymentHandler) MidtransCallback(c echo.Context) error {
	var payload map[string]interface{}
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}

	orderID, _ := payload["order_id"].(string)
	transactionStatus, _ := payload["transaction_status"].(string)
	fraudStatus, _ := payload["fraud_status"].(string)
	statusCode, _ := payload["status_code"].(string)
	grossAmount, _ := payload["gross_amount"].(string)
	signatureKey, _ := payload["signature_key"].(string)

	if orderID == "" || transactionStatus == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing order id or transaction status")
	}

	if h.midtrans != nil && !h.midtrans.VerifySignature(orderID, statusCode, grossAmount, signatureKey) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid notification signature")
	}

	if h.cache != nil {
		lockKey := "midtrans:callback:" + orderID + ":" + transactionStatus
		fresh, err := h.cache.SetNX(c.Request().Context(), lockKey, true, 24*time.Hour)
		if err == nil && !fresh {
			return c.JSON(http.StatusOK, map[string]string{"status": "duplicate"})
		}
	}

	if h.db != nil {
		raw, _ := json.Marshal(payload)
		history := models.PaymentCallbackHistory{
			PaymentGateway: models.PaymentGatewayMidtrans,
			OrderID:        orderID,
			Metadata:       raw,
		}
		if err := h.db.Create(&history).Error; err != nil {
			c.Logger().Errorf("failed to record callback for %s: %v", orderID, err)
		}
	}

	succeeded, reason, terminal := interpretTransactionStatus(transactionStatus, fraudStatus)
	if terminal {
		if err := h.checkout.ResolveGatewayOrder(orderID, succeeded, reason); err != nil {
			// The session may have expired or belong to another instance;
			// the callback is still acknowledged.
			c.Logger().Warnf("callback for unknown order %s: %v", orderID, err)
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// interpretTransactionStatus maps a gateway status pair onto a terminal
// checkout outcome. Non-terminal statuses (pending, challenge) leave the
// attempt untouched.
func interpretTransactionStatus(transactionStatus, fraudStatus string) (succeeded bool, reason string, terminal bool) {
	switch transactionStatus {
	case "settlement":
		return true, "", true
	case "capture":
		if fraudStatus == "accept" {
			return true, "", true
		}
		return false, "", false
	case "deny":
		return false, "declined", true
	case "expire":
		return false, "payment expired", true
	case "cancel":
		return false, "cancelled", true
	case "failure":
		return false, "payment failed", true
	default:
		return false, "", false
	}
}
