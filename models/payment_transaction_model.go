package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	TransactionKindPayment    = "payment"
	TransactionKindRefund     = "refund"
	TransactionKindChargeback = "chargeback"

	TransactionStatusPending = "pending"
	TransactionStatusSuccess = "success"
	TransactionStatusFailed  = "failed"
)

// PaymentTransaction is an append-only record of a single monetary
// operation against an order. A refund is a new transaction, never an
// edit of the payment transaction.
type PaymentTransaction struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	OrderID       uuid.UUID       `gorm:"type:uuid;index;not null" json:"order_id"`
	TransactionNo string          `gorm:"size:64;uniqueIndex;not null" json:"transaction_no"`
	Kind          string          `gorm:"size:20;not null" json:"kind"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	Currency      string          `gorm:"size:3;not null" json:"currency"`
	Status        string          `gorm:"size:20;index;not null;default:'pending'" json:"status"`
	GatewayTxnID  *string         `gorm:"size:128;index" json:"gateway_txn_id,omitempty"`
	RawResponse   string          `gorm:"type:text" json:"raw_response,omitempty"`
	ErrorCode     *string         `gorm:"size:50" json:"error_code,omitempty"`
	ErrorMessage  *string         `gorm:"type:text" json:"error_message,omitempty"`
	ProcessedAt   *time.Time      `json:"processed_at,omitempty"`

	Order PaymentOrder `gorm:"foreignkey:OrderID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *PaymentTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
