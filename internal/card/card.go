// Package card classifies credit card numbers by issuer network using the
// ISO/IEC 7812 digit-parity checksum. It is pure and does no I/O.
package card

type Network string

const (
	Amex       Network = "AMEX"
	Visa       Network = "VISA"
	Mastercard Network = "MASTERCARD"
	Invalid    Network = "INVALID"
)

// Classify validates the checksum of a card number and, if it passes,
// matches it against the AMEX, VISA and MASTERCARD issuer patterns. Spaces
// and hyphens are tolerated; any other non-digit rune classifies Invalid.
// Leading zeros carry no value, so "034..." is treated as a 14-digit number.
func Classify(number string) Network {
	digits := make([]int, 0, len(number))
	for _, r := range number {
		switch {
		case r >= '0' && r <= '9':
			digits = append(digits, int(r-'0'))
		case r == ' ' || r == '-':
		default:
			return Invalid
		}
	}
	for len(digits) > 0 && digits[0] == 0 {
		digits = digits[1:]
	}
	n := len(digits)
	if n != 13 && n != 15 && n != 16 {
		return Invalid
	}

	// Luhn: from the least-significant digit, double every second digit and
	// subtract 9 when the double exceeds 9.
	sum := 0
	alternate := false
	for i := n - 1; i >= 0; i-- {
		d := digits[i]
		if alternate {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		alternate = !alternate
	}
	if sum%10 != 0 {
		return Invalid
	}

	first, second := digits[0], digits[1]
	switch {
	case n == 15 && first == 3 && (second == 4 || second == 7):
		return Amex
	case (n == 13 || n == 16) && first == 4:
		return Visa
	case n == 16 && first == 5 && second >= 1 && second <= 5:
		return Mastercard
	}
	return Invalid
}
