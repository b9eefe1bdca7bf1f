package service

import (
	"errors"
	"log"
	"time"

	"digistore-bot/internal/models"
	"digistore-bot/internal/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const referralCodeLength = 8

type UserService struct {
	DB *gorm.DB

	TrialEnabled       bool
	TrialDurationDays  int
	ReferralEnabled    bool
	ReferralRewardDays int
}

func NewUserService(db *gorm.DB, trialEnabled bool, trialDays int, referralEnabled bool, rewardDays int) *UserService {
	return &UserService{
		DB:                 db,
		TrialEnabled:       trialEnabled,
		TrialDurationDays:  trialDays,
		ReferralEnabled:    referralEnabled,
		ReferralRewardDays: rewardDays,
	}
}

func (s *UserService) ByTelegramID(telegramID int64) (*models.User, error) {
	var user models.User
	err := s.DB.Where("telegram_id = ?", telegramID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserService) ByID(userID uint) (*models.User, error) {
	var user models.User
	if err := s.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserService) ByReferralCode(code string) (*models.User, error) {
	var user models.User
	err := s.DB.Where("referral_code = ?", code).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Identity carries the Telegram-side profile fields at registration.
type Identity struct {
	TelegramID   int64
	Username     string
	FirstName    string
	LastName     string
	LanguageCode string
}

// FindOrCreate registers a new user on first contact. The referrer, when a
// valid code is supplied, is set exactly once at creation and never changes.
func (s *UserService) FindOrCreate(identity Identity, referrerCode string) (*models.User, error) {
	if user, err := s.ByTelegramID(identity.TelegramID); err == nil {
		return user, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	var user models.User
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		code, err := s.uniqueReferralCode(tx)
		if err != nil {
			return err
		}

		var referrer *models.User
		if s.ReferralEnabled && referrerCode != "" {
			var found models.User
			if err := tx.Where("referral_code = ?", referrerCode).First(&found).Error; err == nil {
				referrer = &found
			}
		}

		now := time.Now()
		lang := identity.LanguageCode
		if lang == "" {
			lang = "en"
		}
		user = models.User{
			TelegramID:   identity.TelegramID,
			Username:     identity.Username,
			FirstName:    identity.FirstName,
			LastName:     identity.LastName,
			LanguageCode: lang,
			ReferralCode: code,
			LastActivity: &now,
		}
		if referrer != nil {
			user.ReferrerID = &referrer.ID
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		if referrer != nil {
			activatedAt := now
			referral := models.Referral{
				ReferrerID:   referrer.ID,
				ReferredID:   user.ID,
				ReferralCode: referrerCode,
				Status:       models.ReferralActive,
				ActivatedAt:  &activatedAt,
			}
			if err := tx.Create(&referral).Error; err != nil {
				return err
			}
			err := tx.Model(&models.User{}).Where("id = ?", referrer.ID).
				Update("total_referred", gorm.Expr("total_referred + 1")).Error
			if err != nil {
				return err
			}
			log.Printf("User %d invited by %d", identity.TelegramID, referrer.TelegramID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Created new user: %d (ID: %d)", user.TelegramID, user.ID)
	return &user, nil
}

func (s *UserService) UpdateActivity(telegramID int64) error {
	now := time.Now()
	return s.DB.Model(&models.User{}).Where("telegram_id = ?", telegramID).
		Update("last_activity", now).Error
}

func (s *UserService) SetBanned(userID uint, banned bool) error {
	res := s.DB.Model(&models.User{}).Where("id = ?", userID).Update("is_banned", banned)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	action := "unbanned"
	if banned {
		action = "banned"
	}
	log.Printf("User %d %s", userID, action)
	return nil
}

func (s *UserService) SetAdmin(userID uint, admin bool) error {
	res := s.DB.Model(&models.User{}).Where("id = ?", userID).Update("is_admin", admin)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ActivateTrial starts the one-time trial window for a user.
func (s *UserService) ActivateTrial(userID uint) error {
	if !s.TrialEnabled {
		return ErrDisabled
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if user.TrialUsed {
			return ErrInvalidState
		}

		now := time.Now()
		end := now.Add(time.Duration(s.TrialDurationDays) * 24 * time.Hour)
		user.TrialUsed = true
		user.TrialStart = &now
		user.TrialEnd = &end
		return tx.Save(&user).Error
	})
}

// ProcessReferralRewards marks active referrals as rewarded once the referred
// user has a completed order. Returns how many were rewarded this pass.
func (s *UserService) ProcessReferralRewards() (int, error) {
	if !s.ReferralEnabled {
		return 0, nil
	}

	var referrals []models.Referral
	err := s.DB.Where("status = ? AND reward_given = ?", models.ReferralActive, false).
		Find(&referrals).Error
	if err != nil {
		return 0, err
	}

	rewarded := 0
	for _, referral := range referrals {
		var completed int64
		err := s.DB.Model(&models.Order{}).
			Where("user_id = ? AND status = ?", referral.ReferredID, models.OrderCompleted).
			Count(&completed).Error
		if err != nil {
			return rewarded, err
		}
		if completed == 0 {
			continue
		}

		now := time.Now()
		res := s.DB.Model(&models.Referral{}).
			Where("id = ? AND reward_given = ?", referral.ID, false).
			Updates(map[string]interface{}{
				"status":        models.ReferralRewarded,
				"reward_given":  true,
				"reward_type":   "days",
				"reward_amount": decimal.NewFromInt(int64(s.ReferralRewardDays)),
				"rewarded_at":   now,
			})
		if res.Error != nil {
			return rewarded, res.Error
		}
		if res.RowsAffected > 0 {
			rewarded++
			log.Printf("Rewarded referral %d (referrer %d, %d days)", referral.ID, referral.ReferrerID, s.ReferralRewardDays)
		}
	}
	return rewarded, nil
}

type UserStats struct {
	TotalUsers    int64 `json:"total_users"`
	ActiveUsers   int64 `json:"active_users"`
	TrialUsers    int64 `json:"trial_users"`
	AdminUsers    int64 `json:"admin_users"`
	NewUsersToday int64 `json:"new_users_today"`
}

func (s *UserService) Stats() (*UserStats, error) {
	stats := &UserStats{}
	if err := s.DB.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.User{}).Where("is_active = ?", true).Count(&stats.ActiveUsers).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.User{}).Where("trial_used = ?", true).Count(&stats.TrialUsers).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.User{}).Where("is_admin = ?", true).Count(&stats.AdminUsers).Error; err != nil {
		return nil, err
	}
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	err := s.DB.Model(&models.User{}).Where("created_at >= ?", startOfDay).
		Count(&stats.NewUsersToday).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *UserService) uniqueReferralCode(tx *gorm.DB) (string, error) {
	for {
		code := utils.RandomCode(referralCodeLength, utils.Alnum)
		var count int64
		if err := tx.Model(&models.User{}).Where("referral_code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
}
