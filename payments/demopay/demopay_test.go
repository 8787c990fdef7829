package demopay

import (
	"context"
	"testing"
	"time"

	"github.com/altairlabs/payhub/models"
	"github.com/altairlabs/payhub/payments"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResolvedChannel() *payments.ResolvedChannel {
	return payments.NewResolvedChannel(
		models.PaymentChannel{Code: "demopay_usd", PluginCode: ProviderCode},
		map[string]string{
			"gateway_url": "https://gateway.example.com/pay",
			"secret_key":  "test-secret",
		},
	)
}

func testOrder() *models.PaymentOrder {
	return &models.PaymentOrder{
		OrderNo:  "PAY20240101120000ABC123",
		Amount:   decimal.RequireFromString("100.50"),
		Currency: "USD",
		Subject:  "test",
		Status:   models.OrderStatusPending,
	}
}

func TestMapStatus(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"success", models.OrderStatusSuccess},
		{"paid", models.OrderStatusSuccess},
		{"failed", models.OrderStatusFailed},
		{"expired", models.OrderStatusFailed},
		{"processing", models.OrderStatusProcessing},
		{"pending", models.OrderStatusPending},
		{"", models.OrderStatusPending},
		{"whatever", models.OrderStatusPending},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MapStatus(tt.in), "MapStatus(%q)", tt.in)
	}
}

func TestCreateOrder(t *testing.T) {
	p := New()
	res, err := p.CreateOrder(context.Background(), testOrder(), testResolvedChannel())
	require.NoError(t, err)

	assert.NotEmpty(t, res.GatewayOrderNo)
	assert.Contains(t, res.PaymentURL, "https://gateway.example.com/pay?")
	assert.Contains(t, res.PaymentURL, "order_no=PAY20240101120000ABC123")
	assert.Contains(t, res.PaymentURL, "sign=")
	assert.Equal(t, models.OrderStatusProcessing, res.Status)
}

func TestCreateOrder_MissingConfig(t *testing.T) {
	p := New()
	ch := payments.NewResolvedChannel(models.PaymentChannel{Code: "bare"}, nil)

	_, err := p.CreateOrder(context.Background(), testOrder(), ch)
	require.Error(t, err)
	var pErr *payments.ProviderError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, "CONFIG_MISSING", pErr.Code)
}

func TestVerifyCallback_RoundTrip(t *testing.T) {
	p := New()
	ch := testResolvedChannel()

	data := payments.CallbackData{
		"order_no": "PAY20240101120000ABC123",
		"status":   "success",
		"trade_no": "T-789",
	}
	data[payments.SignFieldName] = payments.SignParams(data, "test-secret", payments.DigestMD5)
	assert.True(t, p.VerifyCallback(data, ch))

	data["status"] = "failed"
	assert.False(t, p.VerifyCallback(data, ch))
}

func TestVerifyCallback_BogusSign(t *testing.T) {
	p := New()
	data := payments.CallbackData{
		"order_no": "PAY20240101120000ABC123",
		"status":   "success",
	}
	data[payments.SignFieldName] = "bogus"
	assert.False(t, p.VerifyCallback(data, testResolvedChannel()))
}

func TestHandleCallback(t *testing.T) {
	p := New()
	data := payments.CallbackData{
		"order_no": "PAY20240101120000ABC123",
		"status":   "paid",
		"trade_no": "T-789",
		"paid_at":  "2024-01-01 12:30:00",
	}

	res, err := p.HandleCallback(context.Background(), data, testResolvedChannel())
	require.NoError(t, err)
	assert.Equal(t, "PAY20240101120000ABC123", res.OrderNo)
	assert.Equal(t, models.OrderStatusSuccess, res.Status)
	assert.Equal(t, "T-789", res.GatewayTradeNo)
	require.NotNil(t, res.PaidAt)
	assert.Equal(t, time.Date(2024, 1, 1, 12, 30, 0, 0, time.UTC), res.PaidAt.UTC())
}

func TestHandleCallback_MissingOrderNo(t *testing.T) {
	p := New()
	_, err := p.HandleCallback(context.Background(), payments.CallbackData{"status": "paid"}, testResolvedChannel())
	assert.Error(t, err)
}

func TestHandleCallback_FailedStatusHasNoPaidAt(t *testing.T) {
	p := New()
	data := payments.CallbackData{"order_no": "PAY1", "status": "expired"}
	res, err := p.HandleCallback(context.Background(), data, testResolvedChannel())
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusFailed, res.Status)
	assert.Nil(t, res.PaidAt)
}

func TestQueryOrder_ReportsStoredStatus(t *testing.T) {
	p := New()
	order := testOrder()
	order.Status = models.OrderStatusProcessing

	res, err := p.QueryOrder(context.Background(), order, testResolvedChannel())
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, res.Status)
}

func TestRefund(t *testing.T) {
	p := New()
	res, err := p.Refund(context.Background(), testOrder(), decimal.RequireFromString("50.00"), "customer request", testResolvedChannel())
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusSuccess, res.Status)
	assert.NotEmpty(t, res.RefundNo)
}

func TestRefund_MissingSecret(t *testing.T) {
	p := New()
	ch := payments.NewResolvedChannel(models.PaymentChannel{Code: "bare"}, nil)
	_, err := p.Refund(context.Background(), testOrder(), decimal.RequireFromString("1.00"), "r", ch)
	assert.Error(t, err)
}
