package payments

import (
	"testing"

	"github.com/altairlabs/payhub/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChannel(code, pluginCode string, priority int, currencies string, min, max string) models.PaymentChannel {
	return models.PaymentChannel{
		Code:                code,
		Name:                code,
		PluginCode:          pluginCode,
		Status:              models.ChannelStatusActive,
		Priority:            priority,
		SupportedCurrencies: currencies,
		MinAmount:           decimal.RequireFromString(min),
		MaxAmount:           decimal.RequireFromString(max),
	}
}

func activePlugins(codes ...string) map[string]*models.PaymentPlugin {
	out := make(map[string]*models.PaymentPlugin, len(codes))
	for _, code := range codes {
		out[code] = &models.PaymentPlugin{Code: code, Status: models.PluginStatusActive}
	}
	return out
}

func TestFilterEligibleChannels_AmountInterval(t *testing.T) {
	channels := []models.PaymentChannel{
		testChannel("low", "p1", 0, "USD", "0.01", "50.00"),
		testChannel("high", "p1", 0, "USD", "50.00", "500.00"),
	}
	plugins := activePlugins("p1")

	got := FilterEligibleChannels(channels, plugins, ChannelFilter{
		Currency: "USD",
		Amount:   decimal.RequireFromString("100.50"),
	})
	require.Len(t, got, 1)
	assert.Equal(t, "high", got[0].Code)

	// Bounds are a closed interval.
	got = FilterEligibleChannels(channels, plugins, ChannelFilter{
		Currency: "USD",
		Amount:   decimal.RequireFromString("50.00"),
	})
	assert.Len(t, got, 2)
}

func TestFilterEligibleChannels_Currency(t *testing.T) {
	channels := []models.PaymentChannel{
		testChannel("usd-only", "p1", 0, "USD", "0", "0"),
		testChannel("any", "p1", 0, "", "0", "0"),
	}
	got := FilterEligibleChannels(channels, activePlugins("p1"), ChannelFilter{Currency: "EUR"})
	require.Len(t, got, 1)
	assert.Equal(t, "any", got[0].Code)
}

func TestFilterEligibleChannels_InactivePluginExcluded(t *testing.T) {
	channels := []models.PaymentChannel{
		testChannel("alive", "p1", 0, "USD", "0", "0"),
		testChannel("orphan", "p2", 10, "USD", "0", "0"),
	}
	got := FilterEligibleChannels(channels, activePlugins("p1"), ChannelFilter{Currency: "USD"})
	require.Len(t, got, 1)
	assert.Equal(t, "alive", got[0].Code)
}

func TestFilterEligibleChannels_MethodSupport(t *testing.T) {
	plugins := map[string]*models.PaymentPlugin{
		"qr-only": {Code: "qr-only", Status: models.PluginStatusActive, SupportedMethods: "qr"},
		"open":    {Code: "open", Status: models.PluginStatusActive},
	}
	channels := []models.PaymentChannel{
		testChannel("a", "qr-only", 0, "", "0", "0"),
		testChannel("b", "open", 0, "", "0", "0"),
	}

	got := FilterEligibleChannels(channels, plugins, ChannelFilter{Method: "redirect"})
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Code)

	got = FilterEligibleChannels(channels, plugins, ChannelFilter{Method: "qr"})
	assert.Len(t, got, 2)
}

func TestFilterEligibleChannels_PreservesOrdering(t *testing.T) {
	// Input arrives priority-sorted from the query; the filter must
	// not reorder it.
	channels := []models.PaymentChannel{
		testChannel("first", "p1", 20, "", "0", "0"),
		testChannel("second", "p1", 10, "", "0", "0"),
		testChannel("third", "p1", 10, "", "0", "0"),
	}
	got := FilterEligibleChannels(channels, activePlugins("p1"), ChannelFilter{})
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].Code)
	assert.Equal(t, "second", got[1].Code)
	assert.Equal(t, "third", got[2].Code)
}

func TestValidateChannelBounds(t *testing.T) {
	ch := testChannel("c", "p", 0, "", "100.00", "10.00")
	err := validateChannelBounds(&ch)
	require.Error(t, err)
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)

	ch = testChannel("c", "p", 0, "", "1.00", "10.00")
	assert.NoError(t, validateChannelBounds(&ch))

	ch.FeeRate = decimal.RequireFromString("1.5")
	assert.Error(t, validateChannelBounds(&ch))
}

func TestResolvedChannelGetters(t *testing.T) {
	rc := NewResolvedChannel(models.PaymentChannel{Code: "c"}, map[string]string{
		"gateway_url": "https://pay.example.com",
		"retries":     "3",
		"sandbox":     "true",
	})

	assert.Equal(t, "https://pay.example.com", rc.GetString("gateway_url", ""))
	assert.Equal(t, "fallback", rc.GetString("missing", "fallback"))
	assert.Equal(t, 3, rc.GetInt("retries", 0))
	assert.Equal(t, 7, rc.GetInt("missing", 7))
	assert.True(t, rc.GetBool("sandbox", false))
	assert.False(t, rc.GetBool("missing", false))
}
