package payments

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

const (
	SignFieldName = "sign"

	DigestMD5    = "md5"
	DigestSHA256 = "sha256"
)

// SignParams computes the callback signature: non-empty params (the
// sign field excluded), keys sorted, concatenated as key=value pairs
// joined by "&", with "&key=<secret>" appended, then hashed with the
// requested digest. The result is lowercase hex.
func SignParams(params map[string]string, secret, digest string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if k == SignFieldName || v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(params[k])
	}
	sb.WriteString("&key=")
	sb.WriteString(secret)

	switch digest {
	case DigestSHA256:
		sum := sha256.Sum256([]byte(sb.String()))
		return hex.EncodeToString(sum[:])
	default:
		sum := md5.Sum([]byte(sb.String()))
		return hex.EncodeToString(sum[:])
	}
}

// VerifySignature recomputes the expected signature over params and
// compares it case-insensitively against the supplied sign field.
func VerifySignature(params map[string]string, secret, digest string) bool {
	supplied := params[SignFieldName]
	if supplied == "" {
		return false
	}
	expected := SignParams(params, secret, digest)
	return strings.EqualFold(expected, supplied)
}
