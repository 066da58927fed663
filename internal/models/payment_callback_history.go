package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

type PaymentGateway string

const (
	PaymentGatewayMidtrans PaymentGateway = "midtrans"
	PaymentGatewayCard     PaymentGateway = "card"
)

// GatewayForStrategy maps a payment strategy to the gateway recorded on
// durable rows.
func GatewayForStrategy(id StrategyID) PaymentGateway {
	if id == StrategyMidtransSnap {
		return PaymentGatewayMidtrans
	}
	return PaymentGatewayCard
}

// PaymentCallbackHistory stores every raw gateway notification we receive,
// before any interpretation, for audit and replay.
type PaymentCallbackHistory struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	PaymentGateway PaymentGateway  `gorm:"type:varchar(50);not null" json:"payment_gateway"`
	OrderID        string          `gorm:"type:varchar(100);index" json:"order_id"`
	Metadata       json.RawMessage `gorm:"type:jsonb" json:"metadata"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}
