package models

import (
	"fmt"
	"time"
)

type User struct {
	ID           uint   `gorm:"primaryKey"`
	TelegramID   int64  `gorm:"uniqueIndex;not null"`
	Username     string `gorm:"size:255"`
	FirstName    string `gorm:"size:255"`
	LastName     string `gorm:"size:255"`
	LanguageCode string `gorm:"size:10;default:'en'"`

	IsActive bool `gorm:"default:true"`
	IsBanned bool `gorm:"default:false"`
	IsAdmin  bool `gorm:"default:false"`

	TrialUsed  bool `gorm:"default:false"`
	TrialStart *time.Time
	TrialEnd   *time.Time

	ReferrerID    *uint  `gorm:"index"`
	ReferralCode  string `gorm:"size:32;uniqueIndex"`
	TotalReferred int    `gorm:"default:0"`

	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastActivity *time.Time
}

// DisplayName returns the best human-readable identity for the user.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	if u.FirstName != "" {
		if u.LastName != "" {
			return u.FirstName + " " + u.LastName
		}
		return u.FirstName
	}
	return fmt.Sprintf("User#%d", u.TelegramID)
}

func (u *User) HasActiveTrial(now time.Time) bool {
	if u.TrialStart == nil || u.TrialEnd == nil {
		return false
	}
	return !now.Before(*u.TrialStart) && !now.After(*u.TrialEnd)
}
