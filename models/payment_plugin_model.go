package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PluginStatusActive   = "active"
	PluginStatusInactive = "inactive"
	PluginStatusError    = "error"
)

type PaymentPlugin struct {
	ID                  uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Code                string    `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Name                string    `gorm:"size:100;not null" json:"name"`
	Version             string    `gorm:"size:20" json:"version"`
	Source              string    `gorm:"size:255" json:"source"`
	Status              string    `gorm:"size:20;not null;default:'active'" json:"status"`
	SupportedMethods    string    `gorm:"size:255" json:"supported_methods"`
	SupportedCurrencies string    `gorm:"size:255" json:"supported_currencies"`
	Priority            int       `gorm:"not null;default:0" json:"priority"`
	LastError           *string   `gorm:"type:text" json:"last_error,omitempty"`
	LoadedAt            *time.Time `json:"loaded_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *PaymentPlugin) Methods() []string {
	return splitSet(p.SupportedMethods)
}

func (p *PaymentPlugin) Currencies() []string {
	return splitSet(p.SupportedCurrencies)
}

func splitSet(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func JoinSet(items []string) string {
	return strings.Join(items, ",")
}

func (p *PaymentPlugin) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
