package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusSuccess    = "success"
	OrderStatusFailed     = "failed"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
)

type PaymentOrder struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	OrderNo         string          `gorm:"size:64;uniqueIndex;not null" json:"order_no"`
	MerchantOrderNo string          `gorm:"size:64;index;not null" json:"merchant_order_no"`
	Amount          decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	Currency        string          `gorm:"size:3;not null" json:"currency"`
	Subject         string          `gorm:"size:255" json:"subject"`
	ChannelID       uuid.UUID       `gorm:"type:uuid;index;not null" json:"channel_id"`
	ChannelCode     string          `gorm:"size:50;index;not null" json:"channel_code"`
	UserID          *uuid.UUID      `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Status          string          `gorm:"size:20;index;not null;default:'pending'" json:"status"`
	GatewayOrderNo  *string         `gorm:"size:128;index" json:"gateway_order_no,omitempty"`
	GatewayTradeNo  *string         `gorm:"size:128;index" json:"gateway_trade_no,omitempty"`
	NotifyURL       string          `gorm:"size:512" json:"notify_url"`
	ReturnURL       string          `gorm:"size:512" json:"return_url"`
	ExtraParams     string          `gorm:"type:text" json:"extra_params,omitempty"`
	FeeAmount       decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"fee_amount"`
	SettledAmount   decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"settled_amount"`
	PaidAt          *time.Time      `gorm:"index" json:"paid_at,omitempty"`
	ExpiredAt       time.Time       `gorm:"index;not null" json:"expired_at"`

	Channel PaymentChannel `gorm:"foreignkey:ChannelID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsTerminal reports whether no further status transition is allowed,
// except the single success -> refunded edge.
func (o *PaymentOrder) IsTerminal() bool {
	switch o.Status {
	case OrderStatusFailed, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// BeforeCreate assigns the row id app-side when the caller left it
// empty.
func (o *PaymentOrder) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
