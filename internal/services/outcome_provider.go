package services

import (
	"crypto/rand"
	"math"
	"math/big"
)

// OutcomeProvider isolates the randomness behind the simulated card
// processor so tests can force both terminal outcomes deterministically.
type OutcomeProvider interface {
	// CardApproved decides the terminal outcome of one simulated card charge
	CardApproved() bool
	// ReferenceSuffix yields the random part of a booking reference
	ReferenceSuffix(length int) string
}

const referenceAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// randomOutcomeProvider draws from crypto/rand. successRate is the fraction
// of card charges that are approved.
type randomOutcomeProvider struct {
	successRate float64
}

// NewRandomOutcomeProvider returns the production provider. Rates outside
// [0, 1] are clamped.
func NewRandomOutcomeProvider(successRate float64) OutcomeProvider {
	return &randomOutcomeProvider{successRate: math.Min(math.Max(successRate, 0), 1)}
}

func (p *randomOutcomeProvider) CardApproved() bool {
	return randomFloat64() < p.successRate
}

func (p *randomOutcomeProvider) ReferenceSuffix(length int) string {
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = referenceAlphabet[randomIntn(len(referenceAlphabet))]
	}
	return string(buf)
}

func randomIntn(n int) int {
	if n <= 0 {
		return 0
	}
	value, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(value.Int64())
}

func randomFloat64() float64 {
	max := new(big.Int).Lsh(big.NewInt(1), 53)
	value, err := rand.Int(rand.Reader, max)
	if err != nil {
		return 0
	}
	return float64(value.Int64()) / math.Pow(2, 53)
}
