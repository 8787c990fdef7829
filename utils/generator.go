package utils

import (
	"math/rand"
	"time"
)

const (
	orderNoPrefix       = "PAY"
	transactionNoPrefix = "TXN"
	refundNoPrefix      = "RFD"

	randomSuffixLength = 6
	alnumBytes         = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateOrderNo builds a payment order number from a timestamp
// component plus a random alphanumeric suffix. Uniqueness is
// guaranteed by the storage constraint, not here; callers must retry
// with a fresh number on a duplicate-key failure.
func GenerateOrderNo() string {
	return numberWithPrefix(orderNoPrefix)
}

func GenerateTransactionNo() string {
	return numberWithPrefix(transactionNoPrefix)
}

func GenerateRefundNo() string {
	return numberWithPrefix(refundNoPrefix)
}

func numberWithPrefix(prefix string) string {
	return prefix + time.Now().Format("20060102150405") + randAlnum(randomSuffixLength)
}

func randAlnum(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alnumBytes[rand.Intn(len(alnumBytes))]
	}
	return string(b)
}
