package card

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name   string
		number string
		want   Network
	}{
		{"amex 15 digit", "378282246310005", Amex},
		{"amex second digit 7", "371449635398431", Amex},
		{"amex with spaces", "3782 822463 10005", Amex},
		{"visa 16 digit", "4111111111111111", Visa},
		{"visa 16 digit alt", "4012888888881881", Visa},
		{"visa 13 digit", "4222222222222", Visa},
		{"visa with hyphens", "4012-8888-8888-1881", Visa},
		{"mastercard 51", "5105105105105100", Mastercard},
		{"mastercard 55", "5555555555554444", Mastercard},
		{"leading zero stripped", "0378282246310005", Amex},
		{"checksum failure", "4111111111111112", Invalid},
		{"checksum failure amex length", "378282246310006", Invalid},
		{"discover passes checksum but no issuer", "6011111111111117", Invalid},
		{"valid checksum unknown 15 digit prefix", "350000000000006", Invalid},
		{"mastercard second digit out of range", "5600000000000003", Invalid},
		{"too short", "41111111111", Invalid},
		{"fourteen digits", "41111111111115", Invalid},
		{"letters", "4111-1111-1111-111a", Invalid},
		{"empty", "", Invalid},
		{"only separators", " - - ", Invalid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.number))
		})
	}
}
