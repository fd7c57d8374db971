package lexer

import (
	"math/big"
	"strings"
)

func digitValue(ch byte) int {
	switch {
	case ch >= '0' && ch <= '9':
		return int(ch - '0')
	case ch >= 'a' && ch <= 'f':
		return int(ch-'a') + 10
	case ch >= 'A' && ch <= 'F':
		return int(ch-'A') + 10
	}
	return 99
}

func radixBase(radix byte) int {
	switch radix {
	case 'b':
		return 2
	case 'o':
		return 8
	case 'd':
		return 10
	case 'x', 'h':
		return 16
	}
	return 0
}

// ParseInt converts the text of a TokInt into an integer. It accepts an
// optional sign followed by decimal digits or a 0x, 0h, 0o or 0b prefix.
func ParseInt(text string) (*big.Int, bool) {
	neg, body := splitSign(text)
	base := 10
	if len(body) > 2 && body[0] == '0' && isRadix(body[1]) {
		base = radixBase(body[1])
		body = body[2:]
	}
	return parseDigits(neg, body, base)
}

// ParseQuotedInt converts the body of a quoted literal such as "h2A",
// "b-101" or "-o17". The radix letter is required.
func ParseQuotedInt(text string) (*big.Int, bool) {
	neg, body := splitSign(text)
	if body == "" {
		return nil, false
	}
	base := radixBase(body[0])
	if base == 0 {
		return nil, false
	}
	body = body[1:]
	if !neg {
		neg, body = splitSign(body)
	}
	return parseDigits(neg, body, base)
}

func splitSign(text string) (bool, string) {
	switch {
	case strings.HasPrefix(text, "-"):
		return true, text[1:]
	case strings.HasPrefix(text, "+"):
		return false, text[1:]
	}
	return false, text
}

func parseDigits(neg bool, body string, base int) (*big.Int, bool) {
	if body == "" {
		return nil, false
	}
	for i := 0; i < len(body); i++ {
		if digitValue(body[i]) >= base {
			return nil, false
		}
	}
	v, ok := new(big.Int).SetString(body, base)
	if !ok {
		return nil, false
	}
	if neg {
		v.Neg(v)
	}
	return v, true
}
