package models

import (
	"time"

	"gorm.io/gorm"
)

// PassengerSummary is the slice of traveler data frozen into a booking
type PassengerSummary struct {
	FullName    string `json:"full_name"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
	Gender      Gender `json:"gender,omitempty"`
}

// Booking is the finalized, immutable record of a successful checkout, the
// receipt of the purchase. Created exactly once per successful payment
// attempt and never updated afterwards.
type Booking struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Reference string        `gorm:"type:varchar(20);uniqueIndex" json:"reference"`
	UserID    *uint         `gorm:"index" json:"user_id,omitempty"` // nil for guest bookings
	Category  OfferCategory `gorm:"type:varchar(20)" json:"category"`
	Title     string        `gorm:"type:varchar(255)" json:"title"`

	Origin        string     `gorm:"type:varchar(10)" json:"origin,omitempty"`
	Destination   string     `gorm:"type:varchar(10)" json:"destination,omitempty"`
	DepartureDate time.Time  `json:"departure_date"`
	ReturnDate    *time.Time `json:"return_date,omitempty"`

	Passengers   []PassengerSummary `gorm:"serializer:json" json:"passengers"`
	ContactEmail string             `gorm:"type:varchar(255)" json:"contact_email"`

	BaseTotal      float64 `gorm:"type:decimal(15,2)" json:"base_total"`
	InsuranceTotal float64 `gorm:"type:decimal(15,2)" json:"insurance_total"`
	GrandTotal     float64 `gorm:"type:decimal(15,2)" json:"grand_total"`
	Currency       string  `gorm:"type:varchar(10)" json:"currency"`
	Insurance      bool    `json:"insurance"`

	PaymentGateway PaymentGateway `gorm:"type:varchar(50)" json:"payment_gateway"`
	OrderID        string         `gorm:"type:varchar(100);index" json:"order_id"`
	IssuedAt       time.Time      `json:"issued_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
