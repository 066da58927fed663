package services

import "travelkita_app/internal/models"

// ComputeTotal derives the price of a session: base fare multiplied by the
// traveler count, plus the per-traveler insurance surcharge when opted in.
// Pure and deterministic; amounts keep full float precision and are only
// rounded for display.
func ComputeTotal(basePrice float64, travelerCount int, insuranceOptedIn bool, insuranceUnitPrice float64) models.PriceBreakdown {
	base := basePrice * float64(travelerCount)
	insurance := 0.0
	if insuranceOptedIn {
		insurance = insuranceUnitPrice * float64(travelerCount)
	}
	return models.PriceBreakdown{
		Base:      base,
		Insurance: insurance,
		Total:     base + insurance,
	}
}
