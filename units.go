package chicks

import (
	"fmt"
	"math/big"
	"strings"
)

// ParseUnits converts a decimal string like "1.5" into integer token units
// at the given number of decimals ("1.5" at 6 decimals → 1500000). The
// string must be a plain non-negative decimal: digits, at most one point,
// and no more fractional digits than the token carries. Trailing
// fractional zeros are accepted but not preserved: "1.50" parses to the
// same value as "1.5", and FormatUnits renders it back as "1.5".
func ParseUnits(amount string, decimals int) (*big.Int, error) {
	if decimals < 0 {
		return nil, NewError(ErrCodeInvalidInput, fmt.Sprintf("negative decimals: %d", decimals), nil)
	}

	s := strings.TrimSpace(amount)
	if s == "" {
		return nil, NewError(ErrCodeInvalidInput, "amount is empty", nil)
	}

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart = s[:i]
		fracPart = s[i+1:]
		if strings.IndexByte(fracPart, '.') >= 0 {
			return nil, NewError(ErrCodeInvalidInput, fmt.Sprintf("invalid amount %q", amount), nil)
		}
	}
	if intPart == "" && fracPart == "" {
		return nil, NewError(ErrCodeInvalidInput, fmt.Sprintf("invalid amount %q", amount), nil)
	}
	if intPart == "" {
		intPart = "0"
	}
	if !isDigits(intPart) || (fracPart != "" && !isDigits(fracPart)) {
		return nil, NewError(ErrCodeInvalidInput, fmt.Sprintf("invalid amount %q", amount), nil)
	}
	if len(fracPart) > decimals {
		return nil, NewError(ErrCodeInvalidInput,
			fmt.Sprintf("amount %q has more than %d decimal places", amount, decimals), nil)
	}

	// Pad the fraction out to the full precision and concatenate.
	fracPart += strings.Repeat("0", decimals-len(fracPart))
	v, ok := new(big.Int).SetString(intPart+fracPart, 10)
	if !ok {
		return nil, NewError(ErrCodeInvalidInput, fmt.Sprintf("invalid amount %q", amount), nil)
	}
	return v, nil
}

// FormatUnits renders integer token units as a canonical decimal string:
// no trailing fractional zeros and no point when the fraction is zero.
// FormatUnits(ParseUnits(x, d), d) == x for every canonical x.
func FormatUnits(v *big.Int, decimals int) string {
	if v == nil {
		return "0"
	}
	sign := ""
	abs := new(big.Int).Abs(v)
	if v.Sign() < 0 {
		sign = "-"
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	quo, rem := new(big.Int).QuoRem(abs, scale, new(big.Int))
	if rem.Sign() == 0 {
		return sign + quo.String()
	}

	remStr := rem.String()
	frac := strings.TrimRight(strings.Repeat("0", decimals-len(remStr))+remStr, "0")
	return sign + quo.String() + "." + frac
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
