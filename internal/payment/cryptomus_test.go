package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"digistore-bot/internal/models"
	"digistore-bot/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCryptomus(t *testing.T, handler http.HandlerFunc) (*CryptomusGateway, *service.OrderService, *capturingDeliverer) {
	t.Helper()

	orders := newTestOrders(t)
	delivered := &capturingDeliverer{}

	client := NewCryptomusClient("merchant-1", "test-api-key")
	if handler != nil {
		srv := httptest.NewServer(handler)
		t.Cleanup(srv.Close)
		client.APIURL = srv.URL
		client.HTTPClient = srv.Client()
	}

	gateway := NewCryptomusGateway(true, client, orders, delivered, "https://store.example.com")
	return gateway, orders, delivered
}

func TestCryptomusCreatePayment(t *testing.T) {
	var gotSign, gotMerchant string
	var gotBody map[string]interface{}

	gateway, orders, _ := newTestCryptomus(t, func(w http.ResponseWriter, r *http.Request) {
		gotSign = r.Header.Get("sign")
		gotMerchant = r.Header.Get("merchant")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"uuid":    "inv-uuid-1",
			"url":     "https://pay.example.com/inv-uuid-1",
			"qr_code": "data:image/png;base64,xxx",
		})
	})

	order := seedOrder(t, orders)
	intent, err := gateway.CreatePayment(context.Background(), order)
	require.NoError(t, err)

	assert.Equal(t, "inv-uuid-1", intent.PaymentID)
	assert.Equal(t, "https://pay.example.com/inv-uuid-1", intent.PaymentURL)

	// The request was signed over the exact body that was sent.
	assert.Equal(t, "merchant-1", gotMerchant)
	expected, err := Sign(gotBody, "test-api-key")
	require.NoError(t, err)
	assert.Equal(t, expected, gotSign)
	assert.Equal(t, "100.00", gotBody["amount"])
	assert.Equal(t, order.OrderNumber, gotBody["order_id"])
	assert.Equal(t, "https://store.example.com/api/webhooks/cryptomus", gotBody["callback_url"])

	fresh, err := orders.ByPaymentID("inv-uuid-1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderProcessing, fresh.Status)
	assert.Equal(t, "inv-uuid-1", fresh.PaymentData["uuid"])
}

func TestCryptomusCreatePaymentAPIFailureLeavesOrderPending(t *testing.T) {
	gateway, orders, _ := newTestCryptomus(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid merchant"}`, http.StatusUnauthorized)
	})

	order := seedOrder(t, orders)
	_, err := gateway.CreatePayment(context.Background(), order)
	require.Error(t, err)

	fresh, err := orders.ByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, fresh.Status)
}

func TestCryptomusCreatePaymentDisabled(t *testing.T) {
	orders := newTestOrders(t)
	gateway := NewCryptomusGateway(false, NewCryptomusClient("m", "k"), orders, nil, "")

	order := seedOrder(t, orders)
	_, err := gateway.CreatePayment(context.Background(), order)
	assert.ErrorIs(t, err, service.ErrGatewayDisabled)
}

func signedCallback(t *testing.T, secret string, payload map[string]interface{}) map[string]interface{} {
	t.Helper()
	sign, err := Sign(payload, secret)
	require.NoError(t, err)
	signed := make(map[string]interface{}, len(payload)+1)
	for k, v := range payload {
		signed[k] = v
	}
	signed["sign"] = sign
	return signed
}

func TestCryptomusCallbackPaid(t *testing.T) {
	gateway, orders, delivered := newTestCryptomus(t, nil)

	order := seedOrder(t, orders)
	require.NoError(t, orders.MarkProcessing(order.ID, models.GatewayCryptomus, "inv-1", nil))

	payload := signedCallback(t, "test-api-key", map[string]interface{}{
		"uuid":     "inv-1",
		"order_id": order.OrderNumber,
		"status":   "paid",
	})
	require.NoError(t, gateway.HandleCallback(context.Background(), payload))

	fresh, err := orders.ByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, fresh.Status)
	assert.Len(t, delivered.orders, 1)
}

func TestCryptomusCallbackTamperedSignature(t *testing.T) {
	gateway, orders, delivered := newTestCryptomus(t, nil)

	order := seedOrder(t, orders)
	require.NoError(t, orders.MarkProcessing(order.ID, models.GatewayCryptomus, "inv-1", nil))

	payload := signedCallback(t, "test-api-key", map[string]interface{}{
		"uuid":   "inv-1",
		"status": "failed",
	})
	// Flip the status after signing.
	payload["status"] = "paid"

	err := gateway.HandleCallback(context.Background(), payload)
	assert.ErrorIs(t, err, ErrBadSignature)

	// No transition happened.
	fresh, err := orders.ByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderProcessing, fresh.Status)
	assert.Empty(t, delivered.orders)
}

func TestCryptomusCallbackWrongSecret(t *testing.T) {
	gateway, orders, _ := newTestCryptomus(t, nil)

	order := seedOrder(t, orders)
	require.NoError(t, orders.MarkProcessing(order.ID, models.GatewayCryptomus, "inv-1", nil))

	payload := signedCallback(t, "attacker-key", map[string]interface{}{
		"uuid":   "inv-1",
		"status": "paid",
	})
	err := gateway.HandleCallback(context.Background(), payload)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestCryptomusCallbackMissingSign(t *testing.T) {
	gateway, _, _ := newTestCryptomus(t, nil)

	err := gateway.HandleCallback(context.Background(), map[string]interface{}{
		"uuid":   "inv-1",
		"status": "paid",
	})
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestCryptomusCallbackFailedCancels(t *testing.T) {
	gateway, orders, _ := newTestCryptomus(t, nil)

	order := seedOrder(t, orders)
	require.NoError(t, orders.MarkProcessing(order.ID, models.GatewayCryptomus, "inv-1", nil))

	payload := signedCallback(t, "test-api-key", map[string]interface{}{
		"uuid":   "inv-1",
		"status": "expired",
	})
	require.NoError(t, gateway.HandleCallback(context.Background(), payload))

	fresh, err := orders.ByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, fresh.Status)
	assert.Equal(t, "Payment expired", fresh.CancellationReason)
}

func TestCryptomusCallbackIntermediateStatusIsAck(t *testing.T) {
	gateway, orders, delivered := newTestCryptomus(t, nil)

	order := seedOrder(t, orders)
	require.NoError(t, orders.MarkProcessing(order.ID, models.GatewayCryptomus, "inv-1", nil))

	payload := signedCallback(t, "test-api-key", map[string]interface{}{
		"uuid":   "inv-1",
		"status": "check",
	})
	require.NoError(t, gateway.HandleCallback(context.Background(), payload))

	fresh, err := orders.ByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderProcessing, fresh.Status)
	assert.Empty(t, delivered.orders)
}

func TestCryptomusCallbackDuplicatePaid(t *testing.T) {
	gateway, orders, delivered := newTestCryptomus(t, nil)

	order := seedOrder(t, orders)
	require.NoError(t, orders.MarkProcessing(order.ID, models.GatewayCryptomus, "inv-1", nil))

	payload := signedCallback(t, "test-api-key", map[string]interface{}{
		"uuid":   "inv-1",
		"status": "paid",
	})
	require.NoError(t, gateway.HandleCallback(context.Background(), payload))
	require.NoError(t, gateway.HandleCallback(context.Background(), payload))

	assert.Len(t, delivered.orders, 1)
}

func TestCryptomusCallbackFallsBackToOrderNumber(t *testing.T) {
	gateway, orders, _ := newTestCryptomus(t, nil)

	// Order never reached Processing, the uuid lookup has nothing to match.
	order := seedOrder(t, orders)

	payload := signedCallback(t, "test-api-key", map[string]interface{}{
		"uuid":     "inv-unseen",
		"order_id": order.OrderNumber,
		"status":   "paid",
	})
	require.NoError(t, gateway.HandleCallback(context.Background(), payload))

	fresh, err := orders.ByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, fresh.Status)
}

func TestCryptomusCallbackUnknownOrder(t *testing.T) {
	gateway, _, _ := newTestCryptomus(t, nil)

	payload := signedCallback(t, "test-api-key", map[string]interface{}{
		"uuid":     "inv-unknown",
		"order_id": "NOPE1234",
		"status":   "paid",
	})
	err := gateway.HandleCallback(context.Background(), payload)
	assert.ErrorIs(t, err, service.ErrNotFound)
}
