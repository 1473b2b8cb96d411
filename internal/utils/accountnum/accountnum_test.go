package accountnum_test

import (
	"testing"

	"github.com/bizlink/walletd/internal/utils/accountnum"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"plus prefix", "+251912345678", "251912345678"},
		{"international dialing prefix", "00251912345678", "251912345678"},
		{"spaces and dashes", "+251 91-234-5678", "251912345678"},
		{"parentheses", "(0)912345678", "0912345678"},
		{"already normalized", "251912345678", "251912345678"},
		{"empty", "", ""},
		{"only symbols", "+-() ", ""},
		{"bare double zero kept", "00", "00"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, accountnum.Normalize(tc.input))
		})
	}
}

func TestIsNormalized(t *testing.T) {
	assert.True(t, accountnum.IsNormalized("251912345678"))
	assert.False(t, accountnum.IsNormalized("+251912345678"))
	assert.False(t, accountnum.IsNormalized(""))
	// Idempotence: normalizing twice changes nothing.
	assert.True(t, accountnum.IsNormalized(accountnum.Normalize("+251 91 234 5678")))
}
