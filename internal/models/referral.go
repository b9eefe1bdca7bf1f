package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReferralStatus string

const (
	ReferralPending  ReferralStatus = "pending"
	ReferralActive   ReferralStatus = "active"
	ReferralRewarded ReferralStatus = "rewarded"
	ReferralExpired  ReferralStatus = "expired"
)

type Referral struct {
	ID         uint `gorm:"primaryKey"`
	ReferrerID uint `gorm:"not null;index"`
	Referrer   User `gorm:"foreignKey:ReferrerID"`
	ReferredID uint `gorm:"not null;index"`
	Referred   User `gorm:"foreignKey:ReferredID"`

	ReferralCode string         `gorm:"size:50;index"`
	Status       ReferralStatus `gorm:"size:20;default:'pending'"`

	RewardGiven    bool             `gorm:"default:false"`
	RewardAmount   *decimal.Decimal `gorm:"type:numeric(10,2)"`
	RewardCurrency *Currency        `gorm:"size:3"`
	RewardType     string           `gorm:"size:20"` // days, amount

	// 1 = direct referral, 2 = second level
	Level int `gorm:"default:1"`

	CreatedAt   time.Time
	ActivatedAt *time.Time
	RewardedAt  *time.Time
}
