package services

import "travelkita_app/internal/models"

// SelectStrategy picks the payment method for a booking from its origin
// geography. Bookings originating at an Indonesian airport are offered the
// local redirect-based gateway; everything else, including unknown or empty
// origins, falls through to the card strategy. Total over all inputs, never
// fails.
//
// Keeping this as its own function means a new regional gateway is one more
// branch here, with no changes to passenger or pricing logic.
func SelectStrategy(originLocation string) models.StrategyID {
	if models.IsDomesticAirport(originLocation) {
		return models.StrategyMidtransSnap
	}
	return models.StrategyCard
}
