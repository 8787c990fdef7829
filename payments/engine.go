package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/altairlabs/payhub/models"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const defaultProviderTimeout = 30 * time.Second

// Engine composes the registry, resolver and order store into the
// create/callback/query/refund workflows.
type Engine struct {
	db       *gorm.DB
	registry *Registry
	resolver *Resolver
	orders   *OrderStore
	timeout  time.Duration
	validate *validator.Validate
}

func NewEngine(db *gorm.DB, registry *Registry, resolver *Resolver, orders *OrderStore, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}
	return &Engine{
		db:       db,
		registry: registry,
		resolver: resolver,
		orders:   orders,
		timeout:  timeout,
		validate: validator.New(),
	}
}

type CreatePaymentInput struct {
	MerchantOrderNo string          `validate:"required,max=64"`
	Amount          decimal.Decimal `validate:"-"`
	Currency        string          `validate:"required,len=3"`
	Subject         string          `validate:"required,max=255"`
	ChannelCode     string          `validate:"omitempty,max=50"`
	Method          string          `validate:"omitempty,max=50"`
	UserID          *uuid.UUID
	NotifyURL       string `validate:"omitempty,url"`
	ReturnURL       string `validate:"omitempty,url"`
	ExtraParams     map[string]string
}

// PaymentResult merges the stored order identifiers with the
// provider's payment artifacts, which pass through opaquely.
type PaymentResult struct {
	OrderNo         string            `json:"order_no"`
	MerchantOrderNo string            `json:"merchant_order_no"`
	Amount          decimal.Decimal   `json:"amount"`
	Currency        string            `json:"currency"`
	Status          string            `json:"status"`
	ChannelCode     string            `json:"channel_code"`
	PaymentURL      string            `json:"payment_url,omitempty"`
	QRCode          string            `json:"qr_code,omitempty"`
	Extra           map[string]string `json:"extra,omitempty"`
	ExpiredAt       time.Time         `json:"expired_at"`
}

// RequestMeta carries the transport facts of an inbound callback for
// the audit trail.
type RequestMeta struct {
	Kind      string
	Method    string
	Body      string
	Headers   map[string]string
	ClientIP  string
	UserAgent string
}

// CallbackOutcome is the provider-facing result of callback
// processing. Response is the short plain-text token the provider
// expects back ("success" stops redelivery, "fail" requests a retry).
type CallbackOutcome struct {
	Success  bool
	Response string
	OrderNo  string
}

type RefundOutcome struct {
	OrderNo       string          `json:"order_no"`
	TransactionNo string          `json:"transaction_no"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	RefundNo      string          `json:"refund_no,omitempty"`
}

// CreatePayment validates the request, selects a channel, persists a
// pending order and forwards it to the provider. Any failure aborts
// without a partial success response; an already-created order row is
// left pending for the expiry sweep or a caller retry.
func (e *Engine) CreatePayment(ctx context.Context, input CreatePaymentInput) (*PaymentResult, error) {
	if err := e.validate.Struct(input); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	if !input.Amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Message: "amount must be positive"}
	}

	channels, err := e.resolver.GetAvailableChannels(ChannelFilter{
		Currency:    input.Currency,
		Amount:      input.Amount,
		Method:      input.Method,
		ChannelCode: input.ChannelCode,
	})
	if err != nil {
		return nil, err
	}
	if len(channels) == 0 {
		return nil, ErrChannelUnavailable
	}
	channel := channels[0]

	rc, err := e.resolver.ResolveChannel(channel.Code)
	if err != nil {
		return nil, err
	}
	provider, err := e.registry.GetProvider(channel.PluginCode)
	if err != nil {
		return nil, err
	}

	order := &models.PaymentOrder{
		MerchantOrderNo: input.MerchantOrderNo,
		Amount:          input.Amount,
		Currency:        input.Currency,
		Subject:         input.Subject,
		ChannelID:       channel.ID,
		ChannelCode:     channel.Code,
		UserID:          input.UserID,
		NotifyURL:       input.NotifyURL,
		ReturnURL:       input.ReturnURL,
		ExtraParams:     mapToJSON(input.ExtraParams),
		FeeAmount:       ComputeFee(input.Amount, channel.FeeRate),
	}
	if err := e.orders.CreateOrder(order); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	result, err := provider.CreateOrder(callCtx, order, rc)
	if err != nil {
		log.Printf("[payments] create order %s failed at provider %s: %v", order.OrderNo, channel.PluginCode, err)
		return nil, err
	}

	if result.GatewayOrderNo != "" {
		order.GatewayOrderNo = &result.GatewayOrderNo
	}
	if result.Status == models.OrderStatusProcessing && CanTransition(order.Status, models.OrderStatusProcessing) {
		if err := e.orders.TransitionOrder(nil, order, models.OrderStatusProcessing, nil); err != nil {
			return nil, err
		}
	} else if err := e.db.Save(order).Error; err != nil {
		return nil, err
	}

	log.Printf("[payments] order %s created on channel %s (%s)", order.OrderNo, channel.Code, order.Status)
	return &PaymentResult{
		OrderNo:         order.OrderNo,
		MerchantOrderNo: order.MerchantOrderNo,
		Amount:          order.Amount,
		Currency:        order.Currency,
		Status:          order.Status,
		ChannelCode:     channel.Code,
		PaymentURL:      result.PaymentURL,
		QRCode:          result.QRCode,
		Extra:           result.Extra,
		ExpiredAt:       order.ExpiredAt,
	}, nil
}

// HandleCallback processes an inbound provider notification. It always
// returns a well-formed outcome so the HTTP layer can answer the
// provider; verification failure and order-update failure are distinct
// outcomes, both observable on the audit row.
func (e *Engine) HandleCallback(ctx context.Context, channelCode string, data CallbackData, meta RequestMeta) *CallbackOutcome {
	fail := &CallbackOutcome{Success: false, Response: "fail"}

	rc, err := e.resolver.ResolveChannel(channelCode)
	if err != nil {
		log.Printf("[payments] callback for unknown channel %s: %v", channelCode, err)
		return fail
	}
	provider, err := e.registry.GetProvider(rc.Channel.PluginCode)
	if err != nil {
		log.Printf("[payments] callback for channel %s: %v", channelCode, err)
		return fail
	}

	kind := meta.Kind
	if kind == "" {
		kind = models.CallbackKindNotify
	}
	cb := &models.PaymentCallback{
		ChannelCode: channelCode,
		Kind:        kind,
		Method:      meta.Method,
		Headers:     mapToJSON(meta.Headers),
		Body:        meta.Body,
		Params:      mapToJSON(data),
		ClientIP:    meta.ClientIP,
		UserAgent:   meta.UserAgent,
	}
	if err := e.orders.RecordCallback(cb); err != nil {
		log.Printf("[payments] failed to record callback audit for channel %s: %v", channelCode, err)
		return fail
	}

	verified := provider.VerifyCallback(data, rc)
	if err := e.orders.MarkCallbackVerified(cb, verified); err != nil {
		log.Printf("[payments] failed to flag callback %s: %v", cb.ID, err)
	}
	if !verified {
		e.finishCallback(cb, ErrSignatureInvalid.Error())
		return fail
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	res, err := provider.HandleCallback(callCtx, data, rc)
	if err != nil {
		e.finishCallback(cb, fmt.Sprintf("provider mapping failed: %v", err))
		return fail
	}

	order, err := e.orders.GetOrderByNo(res.OrderNo)
	if err != nil {
		e.finishCallback(cb, fmt.Sprintf("order %s not found", res.OrderNo))
		return fail
	}
	if order.ChannelCode != rc.Channel.Code {
		e.finishCallback(cb, fmt.Sprintf("order %s does not belong to channel %s", res.OrderNo, channelCode))
		return fail
	}
	if err := e.orders.LinkCallbackOrder(cb, order); err != nil {
		log.Printf("[payments] failed to link callback %s to order %s: %v", cb.ID, order.OrderNo, err)
	}

	changed, err := e.applyProviderStatus(order, res.Status, res.GatewayTradeNo, res.PaidAt, cb.Params)
	if err != nil {
		e.finishCallback(cb, fmt.Sprintf("order update failed: %v", err))
		return fail
	}
	if changed {
		e.finishCallback(cb, fmt.Sprintf("order %s -> %s", order.OrderNo, order.Status))
	} else {
		e.finishCallback(cb, fmt.Sprintf("duplicate delivery, order %s already %s", order.OrderNo, order.Status))
	}
	return &CallbackOutcome{Success: true, Response: "success", OrderNo: order.OrderNo}
}

// QueryOrder returns the stored order, re-querying the provider first
// when the stored status is still open. A reconciled status change is
// persisted before returning.
func (e *Engine) QueryOrder(ctx context.Context, orderNo string) (*models.PaymentOrder, error) {
	order, err := e.orders.GetOrderByNo(orderNo)
	if err != nil {
		return nil, err
	}
	if order.Status == models.OrderStatusSuccess || order.IsTerminal() {
		return order, nil
	}

	rc, err := e.resolver.ResolveChannel(order.ChannelCode)
	if err != nil {
		return nil, err
	}
	provider, err := e.registry.GetProvider(rc.Channel.PluginCode)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	res, err := provider.QueryOrder(callCtx, order, rc)
	if err != nil {
		return nil, err
	}

	if res.Status != order.Status {
		if _, err := e.applyProviderStatus(order, res.Status, res.GatewayTradeNo, res.PaidAt, ""); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// Refund refunds an order in success state. A refund transaction is
// recorded regardless of outcome; the order moves to refunded only
// when the transaction reports success.
func (e *Engine) Refund(ctx context.Context, orderNo string, amount decimal.Decimal, reason string) (*RefundOutcome, error) {
	order, err := e.orders.GetOrderByNo(orderNo)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusSuccess {
		return nil, ErrInvalidStateTransition
	}
	if amount.IsZero() {
		amount = order.Amount
	}
	if !amount.IsPositive() || amount.GreaterThan(order.Amount) {
		return nil, &ValidationError{Field: "amount", Message: "refund amount must be positive and not exceed the order amount"}
	}

	rc, err := e.resolver.ResolveChannel(order.ChannelCode)
	if err != nil {
		return nil, err
	}
	provider, err := e.registry.GetProvider(rc.Channel.PluginCode)
	if err != nil {
		return nil, err
	}

	txn := &models.PaymentTransaction{
		OrderID:  order.ID,
		Kind:     models.TransactionKindRefund,
		Amount:   amount,
		Currency: order.Currency,
		Status:   models.TransactionStatusPending,
	}
	if err := e.orders.CreateTransaction(nil, txn); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	res, err := provider.Refund(callCtx, order, amount, reason, rc)
	now := time.Now()
	if err != nil {
		msg := err.Error()
		txn.Status = models.TransactionStatusFailed
		txn.ErrorMessage = &msg
		txn.ProcessedAt = &now
		if saveErr := e.db.Save(txn).Error; saveErr != nil {
			log.Printf("[payments] failed to record refund failure for %s: %v", order.OrderNo, saveErr)
		}
		return nil, err
	}

	outcome := &RefundOutcome{
		OrderNo:       order.OrderNo,
		TransactionNo: txn.TransactionNo,
		Amount:        amount,
		Status:        res.Status,
		RefundNo:      res.RefundNo,
	}

	if res.Status != models.TransactionStatusSuccess {
		// Async refunds stay pending until the provider reports back.
		return outcome, nil
	}

	err = e.db.Transaction(func(tx *gorm.DB) error {
		txn.Status = models.TransactionStatusSuccess
		if res.RefundNo != "" {
			txn.GatewayTxnID = &res.RefundNo
		}
		txn.ProcessedAt = &now
		if err := tx.Save(txn).Error; err != nil {
			return err
		}
		return e.orders.TransitionOrder(tx, order, models.OrderStatusRefunded, nil)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[payments] order %s refunded (%s %s)", order.OrderNo, amount, order.Currency)
	return outcome, nil
}

// ListTransactions returns the append-only transaction ledger of an
// order.
func (e *Engine) ListTransactions(orderNo string) ([]models.PaymentTransaction, error) {
	order, err := e.orders.GetOrderByNo(orderNo)
	if err != nil {
		return nil, err
	}
	return e.orders.ListTransactions(order.ID)
}

// GetAvailableChannels is a read-through to the resolver, shared by
// order creation and the public channel listing.
func (e *Engine) GetAvailableChannels(filter ChannelFilter) ([]models.PaymentChannel, error) {
	return e.resolver.GetAvailableChannels(filter)
}

// applyProviderStatus reconciles a provider-reported canonical status
// onto the stored order. Equal statuses are a no-op, which is what
// makes callback redelivery idempotent: no duplicate transaction row,
// no paid_at change.
func (e *Engine) applyProviderStatus(order *models.PaymentOrder, status, tradeNo string, paidAt *time.Time, rawResponse string) (bool, error) {
	if status == "" || status == order.Status {
		return false, nil
	}
	if status == models.OrderStatusPending {
		return false, nil
	}
	if !CanTransition(order.Status, status) {
		return false, ErrInvalidStateTransition
	}

	err := e.db.Transaction(func(tx *gorm.DB) error {
		switch status {
		case models.OrderStatusSuccess:
			when := time.Now()
			if paidAt != nil {
				when = *paidAt
			}
			if err := e.orders.TransitionOrder(tx, order, status, func(o *models.PaymentOrder) {
				o.PaidAt = &when
				if tradeNo != "" {
					o.GatewayTradeNo = &tradeNo
				}
				o.SettledAmount = o.Amount.Sub(o.FeeAmount)
			}); err != nil {
				return err
			}
			txn := &models.PaymentTransaction{
				OrderID:     order.ID,
				Kind:        models.TransactionKindPayment,
				Amount:      order.Amount,
				Currency:    order.Currency,
				Status:      models.TransactionStatusSuccess,
				RawResponse: rawResponse,
				ProcessedAt: &when,
			}
			if tradeNo != "" {
				txn.GatewayTxnID = &tradeNo
			}
			return e.orders.CreateTransaction(tx, txn)

		case models.OrderStatusFailed:
			now := time.Now()
			if err := e.orders.TransitionOrder(tx, order, status, func(o *models.PaymentOrder) {
				if tradeNo != "" {
					o.GatewayTradeNo = &tradeNo
				}
			}); err != nil {
				return err
			}
			txn := &models.PaymentTransaction{
				OrderID:     order.ID,
				Kind:        models.TransactionKindPayment,
				Amount:      order.Amount,
				Currency:    order.Currency,
				Status:      models.TransactionStatusFailed,
				RawResponse: rawResponse,
				ProcessedAt: &now,
			}
			return e.orders.CreateTransaction(tx, txn)

		default:
			return e.orders.TransitionOrder(tx, order, status, nil)
		}
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (e *Engine) finishCallback(cb *models.PaymentCallback, result string) {
	if err := e.orders.MarkCallbackProcessed(cb, result); err != nil {
		log.Printf("[payments] failed to finalize callback %s: %v", cb.ID, err)
	}
}

func mapToJSON(m map[string]string) string {
	if len(m) == 0 {
		return ""
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(raw)
}
