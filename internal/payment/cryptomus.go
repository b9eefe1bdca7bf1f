package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"digistore-bot/internal/models"
	"digistore-bot/internal/service"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CryptomusClient talks to the Cryptomus payment API. Requests carry the
// merchant id and an MD5 signature of the canonical JSON body.
type CryptomusClient struct {
	MerchantID string
	APIKey     string
	APIURL     string
	HTTPClient *http.Client
}

func NewCryptomusClient(merchantID, apiKey string) *CryptomusClient {
	return &CryptomusClient{
		MerchantID: merchantID,
		APIKey:     apiKey,
		APIURL:     "https://api.cryptomus.com/v1",
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type InvoiceResponse struct {
	UUID   string `json:"uuid"`
	URL    string `json:"url"`
	QRCode string `json:"qr_code"`
}

// CreateInvoice posts a signed payment request. On success it returns the
// parsed handle plus the raw response payload for the order's payment_data.
func (c *CryptomusClient) CreateInvoice(ctx context.Context, body map[string]interface{}) (*InvoiceResponse, map[string]interface{}, error) {
	jsonBody, err := canonicalJSON(body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	sign, err := Sign(body, c.APIKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to sign request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL+"/payment", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("merchant", c.MerchantID)
	req.Header.Set("sign", sign)
	req.Header.Set("Idempotence-Key", uuid.New().String())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("api error: %s (status: %d)", string(respBody), resp.StatusCode)
	}

	var invoice InvoiceResponse
	if err := json.Unmarshal(respBody, &invoice); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &invoice, raw, nil
}

// CryptomusGateway builds hosted payment URLs and verifies signed webhooks.
type CryptomusGateway struct {
	Enabled     bool
	Client      *CryptomusClient
	Orders      *service.OrderService
	Notify      Deliverer
	WebhookBase string
}

func NewCryptomusGateway(enabled bool, client *CryptomusClient, orders *service.OrderService, notify Deliverer, webhookBase string) *CryptomusGateway {
	return &CryptomusGateway{
		Enabled:     enabled,
		Client:      client,
		Orders:      orders,
		Notify:      notify,
		WebhookBase: webhookBase,
	}
}

func (g *CryptomusGateway) Name() models.PaymentGateway {
	return models.GatewayCryptomus
}

// CreatePayment requests a hosted invoice. Any gateway failure leaves the
// order Pending so the buyer can retry.
func (g *CryptomusGateway) CreatePayment(ctx context.Context, order *models.Order) (*Intent, error) {
	if !g.Enabled || g.Client == nil || g.Client.APIKey == "" {
		return nil, service.ErrGatewayDisabled
	}

	body := map[string]interface{}{
		"amount":       order.TotalPrice.StringFixed(2),
		"currency":     string(order.Currency),
		"order_id":     order.OrderNumber,
		"callback_url": g.WebhookBase + "/api/webhooks/cryptomus",
		"return_url":   g.WebhookBase + "/payment/success",
		"cancel_url":   g.WebhookBase + "/payment/cancel",
	}

	invoice, raw, err := g.Client.CreateInvoice(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("cryptomus payment creation failed: %w", err)
	}

	err = g.Orders.MarkProcessing(order.ID, models.GatewayCryptomus, invoice.UUID, datatypes.JSONMap(raw))
	if err != nil {
		return nil, err
	}

	return &Intent{
		PaymentID:  invoice.UUID,
		PaymentURL: invoice.URL,
		QRCode:     invoice.QRCode,
		ExpiresAt:  order.ExpiresAt,
	}, nil
}

// HandleCallback verifies the webhook signature, then lets the payload status
// drive the order: paid completes, failed/cancelled/expired cancels, anything
// else is acknowledged without a transition.
func (g *CryptomusGateway) HandleCallback(ctx context.Context, payload map[string]interface{}) error {
	sign, _ := payload["sign"].(string)
	if sign == "" {
		return fmt.Errorf("%w: missing sign field", ErrBadSignature)
	}

	unsigned := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		if k != "sign" {
			unsigned[k] = v
		}
	}
	if !VerifySignature(unsigned, sign, g.Client.APIKey) {
		return ErrBadSignature
	}

	order, err := g.findOrder(payload)
	if err != nil {
		return err
	}

	status, _ := payload["status"].(string)
	switch status {
	case "paid":
		completed, err := g.Orders.Complete(order.ID, nil)
		if err != nil {
			if errors.Is(err, service.ErrInvalidState) {
				log.Printf("Duplicate cryptomus callback for order %s ignored", order.OrderNumber)
				return nil
			}
			return err
		}
		finalizeDelivery(ctx, g.Orders, g.Notify, completed)
		log.Printf("Cryptomus payment completed: %s", order.PaymentID)
		return nil
	case "failed", "cancelled", "expired":
		if err := g.Orders.Cancel(order.ID, "Payment "+status); err != nil {
			if errors.Is(err, service.ErrInvalidState) {
				return nil
			}
			return err
		}
		log.Printf("Cryptomus payment %s: %s", status, order.PaymentID)
		return nil
	default:
		// Still processing on the gateway side, just acknowledge.
		log.Printf("Cryptomus payment still processing: %s (%s)", order.PaymentID, status)
		return nil
	}
}

func (g *CryptomusGateway) findOrder(payload map[string]interface{}) (*models.Order, error) {
	if paymentID, _ := payload["uuid"].(string); paymentID != "" {
		if order, err := g.Orders.ByPaymentID(paymentID); err == nil {
			return order, nil
		}
	}
	if orderNumber, _ := payload["order_id"].(string); orderNumber != "" {
		if order, err := g.Orders.ByOrderNumber(orderNumber); err == nil {
			return order, nil
		}
	}
	return nil, fmt.Errorf("order not found for cryptomus callback: %w", service.ErrNotFound)
}
