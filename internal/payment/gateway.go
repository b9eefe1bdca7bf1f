package payment

import (
	"context"
	"errors"
	"log"
	"time"

	"digistore-bot/internal/models"
	"digistore-bot/internal/service"
)

var ErrBadSignature = errors.New("invalid callback signature")

// Intent is the payment handle produced for an order: either a hosted payment
// URL (crypto) or a synthetic id the chat layer turns into an invoice (Stars).
type Intent struct {
	PaymentID  string
	PaymentURL string
	QRCode     string
	ExpiresAt  *time.Time
}

// Deliverer receives the rendered delivery message for a completed order.
// Implemented by the notifier; nil disables outbound messages (tests).
type Deliverer interface {
	DeliverOrder(ctx context.Context, order *models.Order, message string)
}

type Gateway interface {
	Name() models.PaymentGateway
	CreatePayment(ctx context.Context, order *models.Order) (*Intent, error)
	HandleCallback(ctx context.Context, payload map[string]interface{}) error
}

// Registry holds the configured gateways keyed by name.
type Registry map[models.PaymentGateway]Gateway

func (r Registry) Get(name models.PaymentGateway) (Gateway, error) {
	gw, ok := r[name]
	if !ok {
		return nil, service.ErrGatewayDisabled
	}
	return gw, nil
}

// finalizeDelivery renders and records the delivery message, then hands it to
// the notifier. Failures here are logged, never propagated: the order is
// already completed.
func finalizeDelivery(ctx context.Context, orders *service.OrderService, notify Deliverer, order *models.Order) {
	message := orders.DeliveryMessage(order)
	if err := orders.SetDeliveryMessage(order.ID, message); err != nil {
		log.Printf("Failed to store delivery message for order %s: %v", order.OrderNumber, err)
	}
	if notify != nil {
		notify.DeliverOrder(ctx, order, message)
	}
}
