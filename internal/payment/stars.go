package payment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"digistore-bot/internal/models"
	"digistore-bot/internal/service"

	"gorm.io/datatypes"
)

// StarsGateway handles Telegram Stars payments. There is no external API: the
// invoice itself is presented by the chat layer, and the native
// successful-payment event is relayed back here as the callback.
type StarsGateway struct {
	Enabled bool
	Orders  *service.OrderService
	Notify  Deliverer
}

func NewStarsGateway(enabled bool, orders *service.OrderService, notify Deliverer) *StarsGateway {
	return &StarsGateway{Enabled: enabled, Orders: orders, Notify: notify}
}

func (g *StarsGateway) Name() models.PaymentGateway {
	return models.GatewayTelegramStars
}

func (g *StarsGateway) CreatePayment(ctx context.Context, order *models.Order) (*Intent, error) {
	if !g.Enabled {
		return nil, service.ErrGatewayDisabled
	}

	paymentID := "stars_" + order.OrderNumber
	err := g.Orders.MarkProcessing(order.ID, models.GatewayTelegramStars, paymentID, nil)
	if err != nil {
		return nil, err
	}

	return &Intent{PaymentID: paymentID, ExpiresAt: order.ExpiresAt}, nil
}

// HandleCallback resolves the order referenced by payment_id. A truthy
// successful_payment completes it, anything else cancels. Duplicate callbacks
// land on a terminal order and are no-ops.
func (g *StarsGateway) HandleCallback(ctx context.Context, payload map[string]interface{}) error {
	paymentID, _ := payload["payment_id"].(string)
	if paymentID == "" {
		return fmt.Errorf("telegram stars callback missing payment_id")
	}

	orderNumber := strings.TrimPrefix(paymentID, "stars_")
	order, err := g.Orders.ByOrderNumber(orderNumber)
	if err != nil {
		return fmt.Errorf("order not found for stars callback %s: %w", paymentID, err)
	}

	if successful(payload["successful_payment"]) {
		completed, err := g.Orders.Complete(order.ID, chargeData(payload))
		if err != nil {
			if errors.Is(err, service.ErrInvalidState) {
				log.Printf("Duplicate stars callback for order %s ignored", orderNumber)
				return nil
			}
			return err
		}
		finalizeDelivery(ctx, g.Orders, g.Notify, completed)
		log.Printf("Telegram Stars payment completed: %s", paymentID)
		return nil
	}

	if err := g.Orders.Cancel(order.ID, "Payment failed"); err != nil {
		if errors.Is(err, service.ErrInvalidState) {
			return nil
		}
		return err
	}
	log.Printf("Telegram Stars payment failed: %s", paymentID)
	return nil
}

func successful(v interface{}) bool {
	switch value := v.(type) {
	case bool:
		return value
	case map[string]interface{}:
		return len(value) > 0
	default:
		return false
	}
}

func chargeData(payload map[string]interface{}) datatypes.JSONMap {
	chargeID, _ := payload["telegram_payment_charge_id"].(string)
	if chargeID == "" {
		return nil
	}
	return datatypes.JSONMap{"telegram_payment_charge_id": chargeID}
}
