package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeTotal(t *testing.T) {
	tests := []struct {
		name          string
		basePrice     float64
		travelers     int
		insurance     bool
		insuranceUnit float64
		wantBase      float64
		wantInsurance float64
		wantTotal     float64
	}{
		{
			name:          "two travelers with insurance",
			basePrice:     100,
			travelers:     2,
			insurance:     true,
			insuranceUnit: 29.99,
			wantBase:      200,
			wantInsurance: 59.98,
			wantTotal:     259.98,
		},
		{
			name:          "single traveler without insurance",
			basePrice:     149.50,
			travelers:     1,
			insurance:     false,
			insuranceUnit: 29.99,
			wantBase:      149.50,
			wantInsurance: 0,
			wantTotal:     149.50,
		},
		{
			name:          "insurance unit ignored when not opted in",
			basePrice:     80,
			travelers:     4,
			insurance:     false,
			insuranceUnit: 999,
			wantBase:      320,
			wantInsurance: 0,
			wantTotal:     320,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTotal(tt.basePrice, tt.travelers, tt.insurance, tt.insuranceUnit)
			assert.InDelta(t, tt.wantBase, got.Base, 1e-9)
			assert.InDelta(t, tt.wantInsurance, got.Insurance, 1e-9)
			assert.InDelta(t, tt.wantTotal, got.Total, 1e-9)
		})
	}
}

func TestComputeTotalWithoutInsuranceEqualsBaseTimesCount(t *testing.T) {
	for n := 1; n <= 9; n++ {
		got := ComputeTotal(123.45, n, false, 29.99)
		assert.InDelta(t, 123.45*float64(n), got.Total, 1e-9)
	}
}

func TestComputeTotalIsDeterministic(t *testing.T) {
	first := ComputeTotal(100, 3, true, 29.99)
	second := ComputeTotal(100, 3, true, 29.99)
	assert.Equal(t, first, second)
}
