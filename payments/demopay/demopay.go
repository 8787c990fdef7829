// Package demopay is an illustrative stub provider. It fabricates
// gateway identifiers and signs its own callbacks, which makes it
// useful for wiring checks and local development, but it talks to no
// real payment service.
package demopay

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/altairlabs/payhub/models"
	"github.com/altairlabs/payhub/payments"
	"github.com/shopspring/decimal"
)

const ProviderCode = "demopay"

const timeLayout = "2006-01-02 15:04:05"

type DemoPay struct{}

func New() payments.Provider {
	return &DemoPay{}
}

func (p *DemoPay) Info() payments.ProviderInfo {
	return payments.ProviderInfo{
		Name:       "Demo Payment",
		Version:    "1.0.0",
		Methods:    []string{"qr", "redirect", "wallet"},
		Currencies: []string{"USD", "EUR", "CNY"},
		ConfigKeys: []string{"gateway_url", "secret_key", "sign_type"},
	}
}

func (p *DemoPay) CreateOrder(ctx context.Context, order *models.PaymentOrder, ch *payments.ResolvedChannel) (*payments.CreateOrderResult, error) {
	gatewayURL := ch.GetString("gateway_url", "")
	secret := ch.GetString("secret_key", "")
	if gatewayURL == "" || secret == "" {
		return nil, payments.NewProviderError(ProviderCode, "CONFIG_MISSING",
			"channel config requires gateway_url and secret_key", nil)
	}

	params := map[string]string{
		"order_no":   order.OrderNo,
		"amount":     order.Amount.StringFixed(2),
		"currency":   order.Currency,
		"subject":    order.Subject,
		"notify_url": order.NotifyURL,
		"return_url": order.ReturnURL,
	}
	sign := payments.SignParams(params, secret, ch.GetString("sign_type", payments.DigestMD5))

	values := url.Values{}
	for k, v := range params {
		if v != "" {
			values.Set(k, v)
		}
	}
	values.Set(payments.SignFieldName, sign)

	return &payments.CreateOrderResult{
		GatewayOrderNo: fmt.Sprintf("DP%d", time.Now().UnixNano()),
		PaymentURL:     gatewayURL + "?" + values.Encode(),
		QRCode:         "demopay://" + order.OrderNo,
		Status:         models.OrderStatusProcessing,
	}, nil
}

func (p *DemoPay) VerifyCallback(data payments.CallbackData, ch *payments.ResolvedChannel) bool {
	secret := ch.GetString("secret_key", "")
	if secret == "" {
		return false
	}
	return payments.VerifySignature(data, secret, ch.GetString("sign_type", payments.DigestMD5))
}

func (p *DemoPay) HandleCallback(ctx context.Context, data payments.CallbackData, ch *payments.ResolvedChannel) (*payments.CallbackResult, error) {
	orderNo := data["order_no"]
	if orderNo == "" {
		return nil, payments.NewProviderError(ProviderCode, "BAD_CALLBACK", "callback is missing order_no", nil)
	}

	res := &payments.CallbackResult{
		OrderNo:        orderNo,
		Status:         MapStatus(data["status"]),
		GatewayTradeNo: data["trade_no"],
	}
	if res.Status == models.OrderStatusSuccess {
		when := time.Now()
		if raw := data["paid_at"]; raw != "" {
			if parsed, err := time.Parse(timeLayout, raw); err == nil {
				when = parsed
			}
		}
		res.PaidAt = &when
	}
	return res, nil
}

// QueryOrder reports the stored status back unchanged; a stub has no
// gateway to ask.
func (p *DemoPay) QueryOrder(ctx context.Context, order *models.PaymentOrder, ch *payments.ResolvedChannel) (*payments.QueryResult, error) {
	res := &payments.QueryResult{Status: order.Status}
	if order.GatewayTradeNo != nil {
		res.GatewayTradeNo = *order.GatewayTradeNo
	}
	return res, nil
}

func (p *DemoPay) Refund(ctx context.Context, order *models.PaymentOrder, amount decimal.Decimal, reason string, ch *payments.ResolvedChannel) (*payments.RefundResult, error) {
	if ch.GetString("secret_key", "") == "" {
		return nil, payments.NewProviderError(ProviderCode, "CONFIG_MISSING", "channel config requires secret_key", nil)
	}
	return &payments.RefundResult{
		Status:   models.TransactionStatusSuccess,
		RefundNo: fmt.Sprintf("DPR%d", time.Now().UnixNano()),
	}, nil
}

// MapStatus folds the provider status vocabulary onto the canonical
// order statuses. Unrecognized values are treated as still pending so
// an unknown notification never settles an order.
func MapStatus(s string) string {
	switch s {
	case "success", "paid":
		return models.OrderStatusSuccess
	case "failed", "expired":
		return models.OrderStatusFailed
	case "processing":
		return models.OrderStatusProcessing
	default:
		return models.OrderStatusPending
	}
}
