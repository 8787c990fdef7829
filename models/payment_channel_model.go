package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	ChannelStatusActive      = "active"
	ChannelStatusInactive    = "inactive"
	ChannelStatusMaintenance = "maintenance"
)

type PaymentChannel struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Code                string          `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Name                string          `gorm:"size:100;not null" json:"name"`
	PluginCode          string          `gorm:"size:50;index;not null" json:"plugin_code"`
	Status              string          `gorm:"size:20;not null;default:'active'" json:"status"`
	Priority            int             `gorm:"not null;default:0" json:"priority"`
	SupportedCurrencies string          `gorm:"size:255" json:"supported_currencies"`
	MinAmount           decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"min_amount"`
	MaxAmount           decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"max_amount"`
	FeeRate             decimal.Decimal `gorm:"type:numeric(8,6);not null;default:0" json:"fee_rate"`
	Description         string          `gorm:"type:text" json:"description"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ch *PaymentChannel) Currencies() []string {
	return splitSet(ch.SupportedCurrencies)
}

// SupportsCurrency reports membership in the channel's currency set.
// An empty set means the channel accepts any currency.
func (ch *PaymentChannel) SupportsCurrency(currency string) bool {
	set := ch.Currencies()
	if len(set) == 0 {
		return true
	}
	for _, c := range set {
		if c == currency {
			return true
		}
	}
	return false
}

// AcceptsAmount checks the closed interval [MinAmount, MaxAmount].
// A zero MaxAmount means no upper bound.
func (ch *PaymentChannel) AcceptsAmount(amount decimal.Decimal) bool {
	if amount.LessThan(ch.MinAmount) {
		return false
	}
	if ch.MaxAmount.IsPositive() && amount.GreaterThan(ch.MaxAmount) {
		return false
	}
	return true
}

func (ch *PaymentChannel) BeforeCreate(tx *gorm.DB) error {
	if ch.ID == uuid.Nil {
		ch.ID = uuid.New()
	}
	return nil
}
