package service

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"digistore-bot/internal/models"
	"digistore-bot/internal/utils"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const orderNumberLength = 8

type OrderService struct {
	DB       *gorm.DB
	OrderTTL time.Duration

	// GenerateNumber is swappable so collision handling can be exercised.
	GenerateNumber func() string
}

func NewOrderService(db *gorm.DB, orderTTL time.Duration) *OrderService {
	return &OrderService{
		DB:       db,
		OrderTTL: orderTTL,
		GenerateNumber: func() string {
			return utils.RandomCode(orderNumberLength, utils.UpperAlnum)
		},
	}
}

func (s *OrderService) ByID(orderID uint) (*models.Order, error) {
	var order models.Order
	if err := s.DB.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (s *OrderService) ByOrderNumber(orderNumber string) (*models.Order, error) {
	var order models.Order
	err := s.DB.Where("order_number = ?", orderNumber).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (s *OrderService) ByPaymentID(paymentID string) (*models.Order, error) {
	var order models.Order
	err := s.DB.Where("payment_id = ?", paymentID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// Create validates availability and persists a Pending order with a unique
// order number and a payment deadline.
func (s *OrderService) Create(userID, productID uint, quantity int, gateway models.PaymentGateway) (*models.Order, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", ErrUnavailable)
	}

	var order models.Order
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !product.IsActive {
			return ErrUnavailable
		}
		if product.StockCount != nil && *product.StockCount < quantity {
			return ErrUnavailable
		}

		number, err := s.uniqueOrderNumber(tx)
		if err != nil {
			return err
		}

		expiresAt := time.Now().Add(s.OrderTTL)
		order = models.Order{
			OrderNumber:    number,
			UserID:         userID,
			ProductID:      productID,
			Quantity:       quantity,
			UnitPrice:      product.Price,
			TotalPrice:     product.Price.Mul(decimal.NewFromInt(int64(quantity))),
			Currency:       product.Currency,
			Status:         models.OrderPending,
			PaymentGateway: gateway,
			ExpiresAt:      &expiresAt,
		}
		return tx.Create(&order).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Created order %s for user %d (product %d x%d)", order.OrderNumber, userID, productID, quantity)
	return &order, nil
}

// MarkProcessing records the gateway correlation key and moves a Pending order
// to Processing. Any other source state is rejected.
func (s *OrderService) MarkProcessing(orderID uint, gateway models.PaymentGateway, paymentID string, paymentData datatypes.JSONMap) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := lockForUpdate(tx).First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if order.Status != models.OrderPending {
			return ErrInvalidState
		}

		order.Status = models.OrderProcessing
		order.PaymentGateway = gateway
		order.PaymentID = paymentID
		if paymentData != nil {
			order.PaymentData = paymentData
		}
		return tx.Save(&order).Error
	})
}

// Complete finishes an order from Pending or Processing. The stock decrement
// and the status flip happen in one transaction with the product row locked,
// so racing completions of the same product serialize and can never oversell.
func (s *OrderService) Complete(orderID uint, deliveryData datatypes.JSONMap) (*models.Order, error) {
	var order models.Order
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !order.Payable() {
			return ErrInvalidState
		}

		var product models.Product
		if err := lockForUpdate(tx).First(&product, order.ProductID).Error; err != nil {
			return fmt.Errorf("failed to load product %d: %w", order.ProductID, err)
		}
		if product.StockCount != nil {
			if *product.StockCount < order.Quantity {
				return ErrUnavailable
			}
			remaining := *product.StockCount - order.Quantity
			product.StockCount = &remaining
		}
		product.SoldCount += order.Quantity
		if err := tx.Save(&product).Error; err != nil {
			return err
		}

		now := time.Now()
		order.Status = models.OrderCompleted
		order.DeliveredAt = &now
		if deliveryData != nil {
			order.DeliveryData = deliveryData
		}
		return tx.Save(&order).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Completed order %s", order.OrderNumber)
	return &order, nil
}

// Cancel moves a Pending or Processing order to Cancelled. Terminal orders are
// left untouched so duplicate callbacks stay harmless.
func (s *OrderService) Cancel(orderID uint, reason string) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := lockForUpdate(tx).First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !order.Payable() {
			return ErrInvalidState
		}

		order.Status = models.OrderCancelled
		order.CancellationReason = reason
		return tx.Save(&order).Error
	})
	if err != nil {
		return err
	}

	log.Printf("Cancelled order %d: %s", orderID, reason)
	return nil
}

// ExpirePending cancels all Pending orders past their deadline in one bulk
// update. Safe to re-run: a second pass matches nothing.
func (s *OrderService) ExpirePending(now time.Time) (int64, error) {
	res := s.DB.Model(&models.Order{}).
		Where("status = ? AND expires_at < ?", models.OrderPending, now).
		Updates(map[string]interface{}{
			"status":              models.OrderCancelled,
			"cancellation_reason": "expired",
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		log.Printf("Expired %d pending orders", res.RowsAffected)
	}
	return res.RowsAffected, nil
}

// SetDeliveryMessage persists the rendered message on the order.
func (s *OrderService) SetDeliveryMessage(orderID uint, message string) error {
	return s.DB.Model(&models.Order{}).Where("id = ?", orderID).
		Update("delivery_message", message).Error
}

// DeliveryMessage renders the product's delivery template for a completed
// order. A template referencing an unknown variable falls back to a generic
// confirmation instead of leaking a formatting error to the buyer.
func (s *OrderService) DeliveryMessage(order *models.Order) string {
	fallback := fmt.Sprintf("✅ Your order #%s has been completed!", order.OrderNumber)

	var product models.Product
	if err := s.DB.First(&product, order.ProductID).Error; err != nil {
		return fallback
	}
	template, _ := product.DeliveryConfig["template"].(string)
	if template == "" {
		return fallback
	}

	vars := map[string]string{
		"order_number": order.OrderNumber,
		"product_name": product.Name,
		"quantity":     strconv.Itoa(order.Quantity),
		"user_id":      strconv.FormatUint(uint64(order.UserID), 10),
	}
	for k, v := range order.DeliveryData {
		vars[k] = fmt.Sprint(v)
	}

	message, err := renderTemplate(template, vars)
	if err != nil {
		log.Printf("Delivery template for order %s: %v", order.OrderNumber, err)
		return fallback
	}
	return message
}

func (s *OrderService) ListByUser(userID uint, status models.OrderStatus, limit, offset int) ([]models.Order, error) {
	query := s.DB.Preload("Product").Where("user_id = ?", userID).Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *OrderService) ListAll(status models.OrderStatus, limit, offset int) ([]models.Order, error) {
	query := s.DB.Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

type OrderStats struct {
	TotalOrders     int64           `json:"total_orders"`
	PendingOrders   int64           `json:"pending_orders"`
	CompletedOrders int64           `json:"completed_orders"`
	CancelledOrders int64           `json:"cancelled_orders"`
	RevenueToday    decimal.Decimal `json:"revenue_today"`
	RevenueTotal    decimal.Decimal `json:"revenue_total"`
}

func (s *OrderService) Stats() (*OrderStats, error) {
	stats := &OrderStats{}

	if err := s.DB.Model(&models.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, err
	}
	byStatus := map[models.OrderStatus]*int64{
		models.OrderPending:   &stats.PendingOrders,
		models.OrderCompleted: &stats.CompletedOrders,
		models.OrderCancelled: &stats.CancelledOrders,
	}
	for status, dst := range byStatus {
		if err := s.DB.Model(&models.Order{}).Where("status = ?", status).Count(dst).Error; err != nil {
			return nil, err
		}
	}

	if err := s.revenueSince(time.Time{}, &stats.RevenueTotal); err != nil {
		return nil, err
	}
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if err := s.revenueSince(startOfDay, &stats.RevenueToday); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *OrderService) revenueSince(since time.Time, dst *decimal.Decimal) error {
	query := s.DB.Model(&models.Order{}).Where("status = ?", models.OrderCompleted)
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}
	var total decimal.NullDecimal
	if err := query.Select("SUM(total_price)").Scan(&total).Error; err != nil {
		return err
	}
	if total.Valid {
		*dst = total.Decimal
	}
	return nil
}

type UserOrderStats struct {
	TotalOrders     int64           `json:"total_orders"`
	CompletedOrders int64           `json:"completed_orders"`
	PendingOrders   int64           `json:"pending_orders"`
	TotalSpent      decimal.Decimal `json:"total_spent"`
}

func (s *OrderService) UserStats(userID uint) (*UserOrderStats, error) {
	stats := &UserOrderStats{}
	base := func() *gorm.DB { return s.DB.Model(&models.Order{}).Where("user_id = ?", userID) }

	if err := base().Count(&stats.TotalOrders).Error; err != nil {
		return nil, err
	}
	if err := base().Where("status = ?", models.OrderCompleted).Count(&stats.CompletedOrders).Error; err != nil {
		return nil, err
	}
	if err := base().Where("status = ?", models.OrderPending).Count(&stats.PendingOrders).Error; err != nil {
		return nil, err
	}
	var spent decimal.NullDecimal
	err := base().Where("status = ?", models.OrderCompleted).
		Select("SUM(total_price)").Scan(&spent).Error
	if err != nil {
		return nil, err
	}
	if spent.Valid {
		stats.TotalSpent = spent.Decimal
	}
	return stats, nil
}

func (s *OrderService) uniqueOrderNumber(tx *gorm.DB) (string, error) {
	for {
		number := s.GenerateNumber()
		var count int64
		if err := tx.Model(&models.Order{}).Where("order_number = ?", number).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return number, nil
		}
	}
}

// lockForUpdate takes a row lock on Postgres. The sqlite test driver has no
// row locks and serializes writes on its own, so the clause is skipped there.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// renderTemplate substitutes {name} placeholders. Unknown variables are an
// error so callers can fail closed.
func renderTemplate(template string, vars map[string]string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(template); {
		if template[i] == '{' {
			if end := strings.IndexByte(template[i:], '}'); end > 1 {
				key := template[i+1 : i+end]
				value, ok := vars[key]
				if !ok {
					return "", fmt.Errorf("missing variable %q", key)
				}
				b.WriteString(value)
				i += end + 1
				continue
			}
		}
		b.WriteByte(template[i])
		i++
	}
	return b.String(), nil
}
