package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var orderNoPattern = regexp.MustCompile(`^PAY\d{14}[A-Z0-9]{6}$`)

func TestGenerateOrderNoFormat(t *testing.T) {
	no := GenerateOrderNo()
	assert.Regexp(t, orderNoPattern, no)
}

func TestGenerateTransactionNoFormat(t *testing.T) {
	assert.Regexp(t, `^TXN\d{14}[A-Z0-9]{6}$`, GenerateTransactionNo())
	assert.Regexp(t, `^RFD\d{14}[A-Z0-9]{6}$`, GenerateRefundNo())
}

func TestGeneratedNumbersVary(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		seen[GenerateOrderNo()] = true
	}
	// The random suffix makes same-second collisions vanishingly
	// unlikely; the storage constraint catches the rest.
	assert.Greater(t, len(seen), 990)
}
