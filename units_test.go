package chicks

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUnits(t *testing.T) {
	tests := []struct {
		in       string
		decimals int
		want     int64
	}{
		{"1.0", 6, 1_000_000},
		{"1", 6, 1_000_000},
		{"0.13", 6, 130_000},
		{"0.000001", 6, 1},
		{"123.456789", 6, 123_456_789},
		{".5", 6, 500_000},
		{"7.", 6, 7_000_000},
		{"0", 6, 0},
		{"42", 0, 42},
	}
	for _, tt := range tests {
		got, err := ParseUnits(tt.in, tt.decimals)
		require.NoError(t, err, "ParseUnits(%q, %d)", tt.in, tt.decimals)
		assert.Equal(t, big.NewInt(tt.want), got, "ParseUnits(%q, %d)", tt.in, tt.decimals)
	}
}

func TestParseUnitsRejectsMalformedInput(t *testing.T) {
	for _, in := range []string{"", ".", "1.2.3", "abc", "1,5", "-1", "1e6", "0.1234567"} {
		_, err := ParseUnits(in, 6)
		require.Error(t, err, "ParseUnits(%q)", in)
		assert.True(t, IsCode(err, ErrCodeInvalidInput), "ParseUnits(%q)", in)
	}
}

func TestFormatUnits(t *testing.T) {
	tests := []struct {
		in       int64
		decimals int
		want     string
	}{
		{1_000_000, 6, "1"},
		{130_000, 6, "0.13"},
		{1, 6, "0.000001"},
		{123_456_789, 6, "123.456789"},
		{0, 6, "0"},
		{-1_500_000, 6, "-1.5"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatUnits(big.NewInt(tt.in), tt.decimals), "FormatUnits(%d, %d)", tt.in, tt.decimals)
	}
}

func TestUnitsRoundTrip(t *testing.T) {
	// Canonical decimal strings survive a parse/format round trip.
	for _, s := range []string{"1", "0.13", "0.000001", "123.456789", "0", "999999.999999"} {
		v, err := ParseUnits(s, 6)
		require.NoError(t, err)
		assert.Equal(t, s, FormatUnits(v, 6), "round trip %q", s)
	}

	// Non-canonical input normalizes: trailing zeros are not preserved.
	v, err := ParseUnits("1.50", 6)
	require.NoError(t, err)
	assert.Equal(t, "1.5", FormatUnits(v, 6))
}
