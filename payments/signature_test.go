package payments

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleParams() map[string]string {
	return map[string]string{
		"order_no": "PAY20240101120000ABC123",
		"amount":   "100.50",
		"currency": "USD",
		"status":   "success",
	}
}

func TestSignParams_Deterministic(t *testing.T) {
	params := sampleParams()
	first := SignParams(params, "secret", DigestMD5)
	second := SignParams(params, "secret", DigestMD5)
	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestVerifySignature_Symmetric(t *testing.T) {
	for _, digest := range []string{DigestMD5, DigestSHA256} {
		params := sampleParams()
		params[SignFieldName] = SignParams(params, "secret", digest)
		assert.True(t, VerifySignature(params, "secret", digest), "digest %s", digest)
	}
}

func TestVerifySignature_CaseInsensitive(t *testing.T) {
	params := sampleParams()
	params[SignFieldName] = strings.ToUpper(SignParams(params, "secret", DigestMD5))
	assert.True(t, VerifySignature(params, "secret", DigestMD5))
}

func TestVerifySignature_MutatedParamFails(t *testing.T) {
	params := sampleParams()
	params[SignFieldName] = SignParams(params, "secret", DigestMD5)

	for key := range sampleParams() {
		mutated := make(map[string]string, len(params))
		for k, v := range params {
			mutated[k] = v
		}
		mutated[key] = mutated[key] + "x"
		assert.False(t, VerifySignature(mutated, "secret", DigestMD5), "mutating %s must break the signature", key)
	}
}

func TestVerifySignature_WrongSecretFails(t *testing.T) {
	params := sampleParams()
	params[SignFieldName] = SignParams(params, "secret", DigestMD5)
	assert.False(t, VerifySignature(params, "other-secret", DigestMD5))
}

func TestVerifySignature_MissingSignFails(t *testing.T) {
	assert.False(t, VerifySignature(sampleParams(), "secret", DigestMD5))
}

func TestSignParams_IgnoresEmptyValuesAndSignField(t *testing.T) {
	params := sampleParams()
	base := SignParams(params, "secret", DigestMD5)

	params["memo"] = ""
	params[SignFieldName] = "anything"
	require.Equal(t, base, SignParams(params, "secret", DigestMD5))
}

func TestSignParams_DigestsDiffer(t *testing.T) {
	params := sampleParams()
	assert.NotEqual(t,
		SignParams(params, "secret", DigestMD5),
		SignParams(params, "secret", DigestSHA256))
}
