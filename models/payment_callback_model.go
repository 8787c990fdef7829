package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CallbackKindNotify = "notify"
	CallbackKindReturn = "return"
	CallbackKindQuery  = "query"
)

// PaymentCallback is the audit record of an inbound provider
// notification. Rows are written before signature verification and are
// immutable afterwards except for the verified/processed flags and the
// process result, each set exactly once.
type PaymentCallback struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	OrderID     *uuid.UUID `gorm:"type:uuid;index" json:"order_id,omitempty"`
	OrderNo     *string    `gorm:"size:64;index" json:"order_no,omitempty"`
	ChannelCode string     `gorm:"size:50;index;not null" json:"channel_code"`
	Kind        string     `gorm:"size:20;not null" json:"kind"`
	Method      string     `gorm:"size:10" json:"method"`
	Headers     string     `gorm:"type:text" json:"headers,omitempty"`
	Body        string     `gorm:"type:text" json:"body,omitempty"`
	Params      string     `gorm:"type:text" json:"params,omitempty"`
	ClientIP    string     `gorm:"size:45" json:"client_ip"`
	UserAgent   string     `gorm:"size:512" json:"user_agent"`
	Verified    bool       `gorm:"not null;default:false" json:"verified"`
	Processed   bool       `gorm:"not null;default:false" json:"processed"`
	Result      string     `gorm:"type:text" json:"result,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (cb *PaymentCallback) BeforeCreate(tx *gorm.DB) error {
	if cb.ID == uuid.Nil {
		cb.ID = uuid.New()
	}
	return nil
}
