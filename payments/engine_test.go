package payments

import (
	"context"
	"testing"
	"time"

	"github.com/altairlabs/payhub/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCreateInput() CreatePaymentInput {
	return CreatePaymentInput{
		MerchantOrderNo: "M-1001",
		Amount:          decimal.RequireFromString("100.50"),
		Currency:        "USD",
		Subject:         "test",
	}
}

func TestCreatePayment_ValidationErrors(t *testing.T) {
	// Validation happens before any storage or registry access, so a
	// bare engine is enough to exercise it.
	engine := NewEngine(nil, nil, nil, nil, 0)

	tests := []struct {
		name   string
		mutate func(*CreatePaymentInput)
	}{
		{"missing merchant order no", func(in *CreatePaymentInput) { in.MerchantOrderNo = "" }},
		{"missing currency", func(in *CreatePaymentInput) { in.Currency = "" }},
		{"bad currency length", func(in *CreatePaymentInput) { in.Currency = "USDT" }},
		{"missing subject", func(in *CreatePaymentInput) { in.Subject = "" }},
		{"zero amount", func(in *CreatePaymentInput) { in.Amount = decimal.Zero }},
		{"negative amount", func(in *CreatePaymentInput) { in.Amount = decimal.RequireFromString("-5") }},
		{"bad notify url", func(in *CreatePaymentInput) { in.NotifyURL = "not a url" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validCreateInput()
			tt.mutate(&input)

			_, err := engine.CreatePayment(context.Background(), input)
			require.Error(t, err)
			var vErr *ValidationError
			assert.ErrorAs(t, err, &vErr)
		})
	}
}

func TestApplyProviderStatus_DuplicateDeliveryIsNoOp(t *testing.T) {
	engine := NewEngine(nil, nil, nil, nil, 0)
	paidAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	order := &models.PaymentOrder{
		Status: models.OrderStatusSuccess,
		PaidAt: &paidAt,
	}

	later := paidAt.Add(time.Hour)
	changed, err := engine.applyProviderStatus(order, models.OrderStatusSuccess, "T-1", &later, "")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, paidAt, *order.PaidAt, "replay must not move paid_at")
}

func TestApplyProviderStatus_PendingReportIsNoOp(t *testing.T) {
	engine := NewEngine(nil, nil, nil, nil, 0)
	order := &models.PaymentOrder{Status: models.OrderStatusProcessing}

	changed, err := engine.applyProviderStatus(order, models.OrderStatusPending, "", nil, "")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, models.OrderStatusProcessing, order.Status)
}

func TestApplyProviderStatus_RegressionRejected(t *testing.T) {
	engine := NewEngine(nil, nil, nil, nil, 0)

	for _, status := range []string{models.OrderStatusFailed, models.OrderStatusCancelled, models.OrderStatusRefunded} {
		order := &models.PaymentOrder{Status: status}
		_, err := engine.applyProviderStatus(order, models.OrderStatusSuccess, "", nil, "")
		assert.ErrorIs(t, err, ErrInvalidStateTransition, "from %s", status)
		assert.Equal(t, status, order.Status)
	}
}

func TestProviderError_Unwrap(t *testing.T) {
	cause := assert.AnError
	err := NewProviderError("demopay", "TIMEOUT", "gateway timed out", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "demopay")
	assert.Contains(t, err.Error(), "TIMEOUT")
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Field: "amount", Message: "must be positive"}
	assert.Equal(t, "amount: must be positive", err.Error())

	bare := &ValidationError{Message: "bad input"}
	assert.Equal(t, "bad input", bare.Error())
}
