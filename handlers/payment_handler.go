package handlers

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/altairlabs/payhub/models"
	"github.com/altairlabs/payhub/payments"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

var (
	paymentEngine   *payments.Engine
	paymentResolver *payments.Resolver
	paymentRegistry *payments.Registry
)

// InitPayments wires the payment subsystem into the HTTP handlers.
// Called once from main after the engine is assembled.
func InitPayments(engine *payments.Engine, resolver *payments.Resolver, registry *payments.Registry) {
	paymentEngine = engine
	paymentResolver = resolver
	paymentRegistry = registry
}

type CreatePaymentRequest struct {
	MerchantOrderNo string            `json:"merchant_order_no" validate:"required,max=64"`
	Amount          string            `json:"amount" validate:"required"`
	Currency        string            `json:"currency" validate:"required,len=3"`
	Subject         string            `json:"subject" validate:"required,max=255"`
	Channel         string            `json:"channel,omitempty"`
	Method          string            `json:"method,omitempty"`
	NotifyURL       string            `json:"notify_url,omitempty"`
	ReturnURL       string            `json:"return_url,omitempty"`
	Extra           map[string]string `json:"extra,omitempty"`
}

func CreatePaymentHandler(c *fiber.Ctx) error {
	var req CreatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid amount"})
	}

	input := payments.CreatePaymentInput{
		MerchantOrderNo: req.MerchantOrderNo,
		Amount:          amount,
		Currency:        strings.ToUpper(req.Currency),
		Subject:         req.Subject,
		ChannelCode:     req.Channel,
		Method:          req.Method,
		NotifyURL:       req.NotifyURL,
		ReturnURL:       req.ReturnURL,
		ExtraParams:     req.Extra,
	}
	if id := currentUserID(c); id != nil {
		input.UserID = id
	}

	result, err := paymentEngine.CreatePayment(c.Context(), input)
	if err != nil {
		return paymentError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// PaymentCallbackHandler receives asynchronous provider notifications.
// The response body is the short plain-text token the provider
// expects; a failure answer asks the provider to redeliver.
func PaymentCallbackHandler(c *fiber.Ctx) error {
	outcome := paymentEngine.HandleCallback(
		c.Context(),
		c.Params("channelCode"),
		collectCallbackData(c),
		callbackMeta(c, models.CallbackKindNotify),
	)
	if !outcome.Success {
		return c.Status(fiber.StatusBadRequest).SendString(outcome.Response)
	}
	return c.SendString(outcome.Response)
}

// PaymentReturnHandler is the synchronous browser-return variant of
// the callback.
func PaymentReturnHandler(c *fiber.Ctx) error {
	outcome := paymentEngine.HandleCallback(
		c.Context(),
		c.Params("channelCode"),
		collectCallbackData(c),
		callbackMeta(c, models.CallbackKindReturn),
	)
	if !outcome.Success {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "fail"})
	}
	return c.JSON(fiber.Map{"status": "success", "order_no": outcome.OrderNo})
}

func QueryPaymentHandler(c *fiber.Ctx) error {
	order, err := paymentEngine.QueryOrder(c.Context(), c.Params("orderNo"))
	if err != nil {
		return paymentError(c, err)
	}

	transactions, err := paymentEngine.ListTransactions(order.OrderNo)
	if err != nil {
		return paymentError(c, err)
	}
	return c.JSON(fiber.Map{"order": order, "transactions": transactions})
}

type RefundRequest struct {
	Amount string `json:"amount,omitempty"`
	Reason string `json:"reason" validate:"required,max=255"`
}

func RefundPaymentHandler(c *fiber.Ctx) error {
	var req RefundRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	amount := decimal.Zero
	if req.Amount != "" {
		parsed, err := decimal.NewFromString(req.Amount)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid amount"})
		}
		amount = parsed
	}

	outcome, err := paymentEngine.Refund(c.Context(), c.Params("orderNo"), amount, req.Reason)
	if err != nil {
		return paymentError(c, err)
	}
	return c.JSON(outcome)
}

func ListPaymentChannelsHandler(c *fiber.Ctx) error {
	filter := payments.ChannelFilter{
		Currency: strings.ToUpper(c.Query("currency")),
		Method:   c.Query("method"),
	}
	if raw := c.Query("amount"); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid amount"})
		}
		filter.Amount = amount
	}

	channels, err := paymentEngine.GetAvailableChannels(filter)
	if err != nil && !errors.Is(err, payments.ErrChannelUnavailable) {
		return paymentError(c, err)
	}
	if channels == nil {
		channels = []models.PaymentChannel{}
	}
	return c.JSON(channels)
}

// collectCallbackData flattens query string, form body and JSON body
// params into the callback data map the adapters verify against.
func collectCallbackData(c *fiber.Ctx) payments.CallbackData {
	data := payments.CallbackData{}
	for k, v := range c.Queries() {
		data[k] = v
	}
	c.Request().PostArgs().VisitAll(func(k, v []byte) {
		data[string(k)] = string(v)
	})

	body := c.Body()
	if len(body) > 0 && strings.HasPrefix(strings.TrimSpace(string(body)), "{") {
		var parsed map[string]interface{}
		if err := json.Unmarshal(body, &parsed); err == nil {
			for k, v := range parsed {
				data[k] = cast.ToString(v)
			}
		}
	}
	return data
}

func callbackMeta(c *fiber.Ctx, kind string) payments.RequestMeta {
	headers := make(map[string]string)
	for k, vals := range c.GetReqHeaders() {
		headers[k] = strings.Join(vals, ", ")
	}
	return payments.RequestMeta{
		Kind:      kind,
		Method:    c.Method(),
		Body:      string(c.Body()),
		Headers:   headers,
		ClientIP:  c.IP(),
		UserAgent: c.Get("User-Agent"),
	}
}

func currentUserID(c *fiber.Ctx) *uuid.UUID {
	claims := jwtClaims(c)
	if claims == nil {
		return nil
	}
	raw, _ := claims["user_id"].(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

// paymentError maps the engine error taxonomy onto HTTP statuses.
func paymentError(c *fiber.Ctx, err error) error {
	var vErr *payments.ValidationError
	var pErr *payments.ProviderError

	switch {
	case errors.As(err, &vErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": vErr.Error()})
	case errors.Is(err, payments.ErrChannelUnavailable):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No eligible payment channel"})
	case errors.Is(err, payments.ErrOrderNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment order not found"})
	case errors.Is(err, payments.ErrInvalidStateTransition):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Order state does not allow this operation"})
	case errors.Is(err, payments.ErrUnsupportedOperation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Operation not supported by the payment provider"})
	case errors.Is(err, payments.ErrPluginNotFound), errors.Is(err, payments.ErrPluginInactive):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Payment provider unavailable"})
	case errors.As(err, &pErr):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": pErr.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Payment operation failed"})
	}
}
