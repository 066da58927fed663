package models

import "time"

// OfferCategory identifies the kind of travel product being purchased
type OfferCategory string

const (
	CategoryFlight     OfferCategory = "flight"
	CategoryHotel      OfferCategory = "hotel"
	CategoryCar        OfferCategory = "car"
	CategoryPackage    OfferCategory = "package"
	CategoryAttraction OfferCategory = "attraction"
)

// BookingOffer is the product selected from the search results. It is
// immutable for the lifetime of a checkout session.
type BookingOffer struct {
	ID        string        `json:"id"`
	Category  OfferCategory `json:"category"`
	Title     string        `json:"title"`
	BasePrice float64       `json:"base_price"` // per traveler, in Currency
	Currency  string        `json:"currency"`

	// Category-specific details; zero values for fields that don't apply
	Carrier    string `json:"carrier,omitempty"`
	CabinClass string `json:"cabin_class,omitempty"`
	Location   string `json:"location,omitempty"`
}

// SearchContext is the original query that produced the offer. Read-only
// input to checkout; traveler count and the domestic/international
// classification derive from it.
type SearchContext struct {
	Category      OfferCategory `json:"category"`
	Origin        string        `json:"origin"`      // IATA code for flights
	Destination   string        `json:"destination"` // IATA code for flights
	DepartureDate time.Time     `json:"departure_date"`
	ReturnDate    *time.Time    `json:"return_date,omitempty"`
	Travelers     int           `json:"travelers"`
}

// domesticAirports is the fixed allow-list of Indonesian airports. A flight
// whose destination falls outside it is classified international.
var domesticAirports = map[string]bool{
	"CGK": true, // Jakarta Soekarno-Hatta
	"HLP": true, // Jakarta Halim
	"DPS": true, // Denpasar
	"SUB": true, // Surabaya
	"JOG": true, // Yogyakarta
	"KNO": true, // Medan
	"UPG": true, // Makassar
	"BPN": true, // Balikpapan
	"PKU": true, // Pekanbaru
	"SRG": true, // Semarang
	"PLM": true, // Palembang
	"BDO": true, // Bandung
	"LOP": true, // Lombok
	"BTH": true, // Batam
	"PDG": true, // Padang
	"MDC": true, // Manado
}

// IsDomesticAirport reports whether the IATA code belongs to the Indonesian
// domestic allow-list.
func IsDomesticAirport(code string) bool {
	return domesticAirports[code]
}

// International reports whether this search requires travel documents.
// Only flights can be international; all other categories are treated as
// domestic purchases.
func (s SearchContext) International() bool {
	if s.Category != CategoryFlight {
		return false
	}
	return !IsDomesticAirport(s.Destination)
}

// TravelerCount returns the number of passenger records checkout must
// collect, never less than one.
func (s SearchContext) TravelerCount() int {
	if s.Travelers < 1 {
		return 1
	}
	return s.Travelers
}
