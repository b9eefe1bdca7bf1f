package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"digistore-bot/internal/config"
	"digistore-bot/internal/database"
	"digistore-bot/internal/models"
	"digistore-bot/internal/payment"
	"digistore-bot/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		HTTPPort:      "8000",
		AdminAPIToken: "admin-token",
	}
	orders := service.NewOrderService(db, 15*time.Minute)
	users := service.NewUserService(db, true, 3, true, 7)
	products := service.NewProductService(db)

	gateways := payment.Registry{
		models.GatewayTelegramStars: payment.NewStarsGateway(true, orders, nil),
	}
	return NewServer(cfg, users, products, orders, gateways)
}

func seedPaidOrder(t *testing.T, s *Server) *models.Order {
	t.Helper()

	user, err := s.Users.FindOrCreate(service.Identity{TelegramID: 111, FirstName: "Alice"}, "")
	require.NoError(t, err)
	product := &models.Product{
		Name:     "Test License",
		Category: models.CategorySoftware,
		Price:    decimal.NewFromInt(100),
		Currency: models.CurrencyRUB,
		IsActive: true,
	}
	require.NoError(t, s.Orders.DB.Create(product).Error)

	order, err := s.Orders.Create(user.ID, product.ID, 1, models.GatewayTelegramStars)
	require.NoError(t, err)
	return order
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/webhooks/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestStarsWebhookCompletesOrder(t *testing.T) {
	srv := newTestServer(t)
	order := seedPaidOrder(t, srv)
	require.NoError(t, srv.Orders.MarkProcessing(order.ID, models.GatewayTelegramStars, "stars_"+order.OrderNumber, nil))

	body := `{"payment_id":"stars_` + order.OrderNumber + `","successful_payment":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/telegram-stars", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "success")

	fresh, err := srv.Orders.ByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, fresh.Status)
}

func TestWebhookUnknownOrder(t *testing.T) {
	srv := newTestServer(t)

	body := `{"payment_id":"stars_NOPE1234","successful_payment":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/telegram-stars", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebhookInvalidPayload(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/telegram-stars", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookGatewayDisabled(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/cryptomus", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCryptomusWebhookBadSignature(t *testing.T) {
	srv := newTestServer(t)
	orders := srv.Orders
	srv.Gateways[models.GatewayCryptomus] = payment.NewCryptomusGateway(
		true, payment.NewCryptomusClient("m", "secret"), orders, nil, "")

	body := `{"uuid":"inv-1","status":"paid","sign":"deadbeef"}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/cryptomus", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid signature")
}

func TestCryptomusWebhookIPAllowlist(t *testing.T) {
	srv := newTestServer(t)
	srv.Config.CryptomusAllowedIPs = []string{"10.0.0.0/8"}

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/cryptomus", strings.NewReader(`{}`))
	req.Header.Set("X-Real-IP", "203.0.113.9")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Allowed address falls through to the gateway check.
	req = httptest.NewRequest(http.MethodPost, "/api/webhooks/cryptomus", strings.NewReader(`{}`))
	req.Header.Set("X-Real-IP", "10.1.2.3")
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAdminAuth(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Router()

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/stats/users", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/stats/users", nil)
		req.Header.Set("Authorization", "Bearer wrong")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/stats/users", nil)
		req.Header.Set("Authorization", "Bearer admin-token")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "total_users")
	})

	t.Run("unset token disables surface", func(t *testing.T) {
		srv.Config.AdminAPIToken = ""
		defer func() { srv.Config.AdminAPIToken = "admin-token" }()

		req := httptest.NewRequest(http.MethodGet, "/api/admin/stats/users", nil)
		req.Header.Set("Authorization", "Bearer admin-token")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestAdminBanUser(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Router()
	_, err := srv.Users.FindOrCreate(service.Identity{TelegramID: 111}, "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/users/111/ban", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	user, err := srv.Users.ByTelegramID(111)
	require.NoError(t, err)
	assert.True(t, user.IsBanned)

	req = httptest.NewRequest(http.MethodDelete, "/api/admin/users/111/ban", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	user, err = srv.Users.ByTelegramID(111)
	require.NoError(t, err)
	assert.False(t, user.IsBanned)
}

func TestAdminPromoteUser(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Router()
	_, err := srv.Users.FindOrCreate(service.Identity{TelegramID: 111}, "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/users/111/admin", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	user, err := srv.Users.ByTelegramID(111)
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)
}

func TestAdminGetUserNotFound(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users/999", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminCleanupOrders(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Router()

	// An already-expired order.
	stale := service.NewOrderService(srv.Orders.DB, -time.Minute)
	user, err := srv.Users.FindOrCreate(service.Identity{TelegramID: 111}, "")
	require.NoError(t, err)
	product := &models.Product{
		Name: "P", Price: decimal.NewFromInt(10), Currency: models.CurrencyRUB, IsActive: true,
	}
	require.NoError(t, srv.Orders.DB.Create(product).Error)
	order, err := stale.Create(user.ID, product.ID, 1, models.GatewayCryptomus)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/orders/cleanup", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"expired_orders":1`)

	fresh, err := srv.Orders.ByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, fresh.Status)
}

func TestAdminListOrdersFilter(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Router()
	order := seedPaidOrder(t, srv)
	_, err := srv.Orders.Complete(order.ID, nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/orders?status=completed", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), order.OrderNumber)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/orders?status=pending", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), order.OrderNumber)
}
