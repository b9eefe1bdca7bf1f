package service

import (
	"fmt"
	"testing"

	"digistore-bot/internal/database"
	"digistore-bot/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// One in-memory database per test, one connection so it stays alive.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func intPtr(n int) *int { return &n }

func seedProduct(t *testing.T, db *gorm.DB, price int64, stock *int) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:       "Test License",
		Category:   models.CategorySoftware,
		Price:      decimal.NewFromInt(price),
		Currency:   models.CurrencyRUB,
		StockCount: stock,
		IsActive:   true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func seedUser(t *testing.T, db *gorm.DB, telegramID int64) *models.User {
	t.Helper()
	user := &models.User{
		TelegramID:   telegramID,
		FirstName:    "Test",
		ReferralCode: fmt.Sprintf("CODE%d", telegramID),
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
