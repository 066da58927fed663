package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// PaymentSession is the durable trace of one redirect-based payment attempt.
// The checkout session itself is ephemeral; this row is what the worker uses
// to reconcile attempts that never received a gateway callback.
type PaymentSession struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	CheckoutSessionID string          `gorm:"type:varchar(64);index" json:"checkout_session_id"`
	PaymentGateway    PaymentGateway  `gorm:"type:varchar(50);not null" json:"payment_gateway"`
	OrderID           string          `gorm:"type:varchar(100);index" json:"order_id"`
	GrossAmount       int64           `json:"gross_amount"` // minor units in gateway currency
	IsActive          bool            `gorm:"default:true" json:"is_active"`
	RequestMetadata   json.RawMessage `gorm:"type:jsonb" json:"request_metadata"`
	ResponseMetadata  json.RawMessage `gorm:"type:jsonb" json:"response_metadata"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	DeletedAt         gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}
