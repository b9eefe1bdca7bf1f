package payment

import (
	"context"
	"testing"
	"time"

	"digistore-bot/internal/database"
	"digistore-bot/internal/models"
	"digistore-bot/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestOrders(t *testing.T) *service.OrderService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	return service.NewOrderService(db, 15*time.Minute)
}

func seedOrder(t *testing.T, orders *service.OrderService) *models.Order {
	t.Helper()

	user := &models.User{TelegramID: 111, ReferralCode: "CODE111", IsActive: true}
	require.NoError(t, orders.DB.Create(user).Error)
	product := &models.Product{
		Name:     "Test License",
		Category: models.CategorySoftware,
		Price:    decimal.NewFromInt(100),
		Currency: models.CurrencyRUB,
		IsActive: true,
	}
	require.NoError(t, orders.DB.Create(product).Error)

	order, err := orders.Create(user.ID, product.ID, 1, models.GatewayTelegramStars)
	require.NoError(t, err)
	return order
}

// capturingDeliverer records delivered orders for assertions.
type capturingDeliverer struct {
	orders   []string
	messages []string
}

func (d *capturingDeliverer) DeliverOrder(_ context.Context, order *models.Order, message string) {
	d.orders = append(d.orders, order.OrderNumber)
	d.messages = append(d.messages, message)
}
