package payments

import (
	"context"
	"time"

	"github.com/altairlabs/payhub/models"
	"github.com/shopspring/decimal"
)

// ProviderInfo is the adapter's self-description, registered into the
// plugin catalog on the startup sync.
type ProviderInfo struct {
	Name       string
	Version    string
	Methods    []string
	Currencies []string
	ConfigKeys []string
}

// CallbackData is the flattened key/value view of an inbound provider
// notification (query string or form body).
type CallbackData map[string]string

type CreateOrderResult struct {
	GatewayOrderNo string
	PaymentURL     string
	QRCode         string
	Status         string
	Extra          map[string]string
}

type CallbackResult struct {
	OrderNo        string
	Status         string
	GatewayTradeNo string
	PaidAt         *time.Time
}

type QueryResult struct {
	Status         string
	GatewayTradeNo string
	PaidAt         *time.Time
}

type RefundResult struct {
	Status   string
	RefundNo string
}

// Provider is the capability set every payment adapter must implement.
// Adapters receive the resolved channel (carrying decrypted config) on
// every call and hold no storage access of their own; all persistence
// belongs to the order store.
type Provider interface {
	Info() ProviderInfo

	// CreateOrder submits the order to the provider and returns its
	// gateway identifiers and payment artifacts.
	CreateOrder(ctx context.Context, order *models.PaymentOrder, ch *ResolvedChannel) (*CreateOrderResult, error)

	// VerifyCallback checks the signature on callback data. It must be
	// side-effect free.
	VerifyCallback(data CallbackData, ch *ResolvedChannel) bool

	// HandleCallback maps the provider's status vocabulary onto the
	// canonical order status set.
	HandleCallback(ctx context.Context, data CallbackData, ch *ResolvedChannel) (*CallbackResult, error)

	// QueryOrder is the synchronous pull equivalent of the callback
	// mapping.
	QueryOrder(ctx context.Context, order *models.PaymentOrder, ch *ResolvedChannel) (*QueryResult, error)

	// Refund requests a refund. Adapters without refund capability
	// return ErrUnsupportedOperation.
	Refund(ctx context.Context, order *models.PaymentOrder, amount decimal.Decimal, reason string, ch *ResolvedChannel) (*RefundResult, error)
}

// Initializer is an optional lifecycle hook run when an adapter
// instance is loaded into the registry cache.
type Initializer interface {
	Initialize() error
}

// Destroyer is an optional lifecycle hook run on reload or unregister.
type Destroyer interface {
	Destroy() error
}

// Factory builds a fresh adapter instance. Instances are cached
// process-wide and must be safe for concurrent use.
type Factory func() Provider
