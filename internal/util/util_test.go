package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandomKeyIsUniqueAndFixedLength(t *testing.T) {
	a := RandomKey()
	b := RandomKey()
	require.Len(t, a, 25)
	require.Len(t, b, 25)
	require.NotEqual(t, a, b)
	for _, r := range a {
		require.Contains(t, alphaNumeric, string(r))
	}
}

func TestIsInteger(t *testing.T) {
	require.True(t, IsInteger("0"))
	require.True(t, IsInteger("-42"))
	require.True(t, IsInteger("9223372036854775807"))
	require.False(t, IsInteger(""))
	require.False(t, IsInteger("3.14"))
	require.False(t, IsInteger("abc"))
	require.False(t, IsInteger("123456789012345678901"))
}

func TestIsNumeric(t *testing.T) {
	require.True(t, IsNumeric("3.14"))
	require.True(t, IsNumeric("-0.5"))
	require.True(t, IsNumeric("42"))
	require.False(t, IsNumeric(""))
	require.False(t, IsNumeric("abc"))
}

func TestLiteralPrefixStopsAtFirstMetacharacter(t *testing.T) {
	require.Equal(t, "user:", LiteralPrefix("user:*"))
	require.Equal(t, "a", LiteralPrefix("a?b"))
	require.Equal(t, "abc", LiteralPrefix("abc"))
	require.Equal(t, "", LiteralPrefix("*"))
}

func TestMatchGlob(t *testing.T) {
	ok, err := MatchGlob("user:*", "user:123")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = MatchGlob("user:*", "order:123")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestParseUnit(t *testing.T) {
	u, ok := ParseUnit("km")
	require.True(t, ok)
	require.Equal(t, UnitKilometers, u)

	_, ok = ParseUnit("furlongs")
	require.False(t, ok)
}

func TestUnitConversionRoundTrips(t *testing.T) {
	for _, u := range []Unit{UnitMeters, UnitKilometers, UnitMiles} {
		meters := ToMeters(10, u)
		back := FromMeters(meters, u)
		require.InDelta(t, 10, back, 1e-9)
	}
}
