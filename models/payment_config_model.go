package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentConfig struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ChannelID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_channel_config_key" json:"channel_id"`
	ConfigKey   string    `gorm:"size:100;not null;uniqueIndex:idx_channel_config_key" json:"config_key"`
	ConfigValue string    `gorm:"type:text" json:"config_value"`
	IsEncrypted bool      `gorm:"not null;default:false" json:"is_encrypted"`

	Channel PaymentChannel `gorm:"foreignkey:ChannelID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *PaymentConfig) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
