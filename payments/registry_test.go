package payments

import (
	"context"
	"testing"

	"github.com/altairlabs/payhub/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	destroyed bool
}

func (p *fakeProvider) Info() ProviderInfo {
	return ProviderInfo{Name: "Fake", Version: "0.1.0"}
}

func (p *fakeProvider) CreateOrder(ctx context.Context, order *models.PaymentOrder, ch *ResolvedChannel) (*CreateOrderResult, error) {
	return &CreateOrderResult{GatewayOrderNo: "F-1", Status: models.OrderStatusProcessing}, nil
}

func (p *fakeProvider) VerifyCallback(data CallbackData, ch *ResolvedChannel) bool { return true }

func (p *fakeProvider) HandleCallback(ctx context.Context, data CallbackData, ch *ResolvedChannel) (*CallbackResult, error) {
	return &CallbackResult{OrderNo: data["order_no"], Status: models.OrderStatusSuccess}, nil
}

func (p *fakeProvider) QueryOrder(ctx context.Context, order *models.PaymentOrder, ch *ResolvedChannel) (*QueryResult, error) {
	return &QueryResult{Status: order.Status}, nil
}

func (p *fakeProvider) Refund(ctx context.Context, order *models.PaymentOrder, amount decimal.Decimal, reason string, ch *ResolvedChannel) (*RefundResult, error) {
	return nil, ErrUnsupportedOperation
}

func (p *fakeProvider) Destroy() error {
	p.destroyed = true
	return nil
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register("fake", func() Provider { return &fakeProvider{} }))

	err := r.Register("fake", func() Provider { return &fakeProvider{} })
	assert.Error(t, err, "duplicate code must be rejected")

	assert.Error(t, r.Register("", nil))
	assert.Error(t, r.Register("other", nil))
}

func TestDestroyInstanceCallsHook(t *testing.T) {
	p := &fakeProvider{}
	destroyInstance("fake", p)
	assert.True(t, p.destroyed)
}
