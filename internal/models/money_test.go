package models

import (
	"math"
	"testing"
)

func TestValidCurrency(t *testing.T) {
	for _, c := range []Currency{CurrencyCAD, CurrencyUSD, CurrencyEUR} {
		if !ValidCurrency(c) {
			t.Errorf("ValidCurrency(%q) = false, want true", c)
		}
	}
	for _, c := range []Currency{"", "GBP", "cad"} {
		if ValidCurrency(c) {
			t.Errorf("ValidCurrency(%q) = true, want false", c)
		}
	}
}

func TestNormalizeCurrency(t *testing.T) {
	if got := NormalizeCurrency(""); got != CurrencyCAD {
		t.Errorf("NormalizeCurrency(\"\") = %q, want CAD", got)
	}
	if got := NormalizeCurrency(CurrencyUSD); got != CurrencyUSD {
		t.Errorf("NormalizeCurrency(USD) = %q, want USD", got)
	}
}

func TestRound2(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{101.333, 101.33},
		{101.336, 101.34},
		{-2.678, -2.68},
		{0, 0},
	}
	for _, c := range cases {
		if got := Round2(c.in); got != c.want {
			t.Errorf("Round2(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestIsFinite(t *testing.T) {
	if !IsFinite(42.5) {
		t.Error("IsFinite(42.5) = false")
	}
	if IsFinite(math.NaN()) || IsFinite(math.Inf(1)) || IsFinite(math.Inf(-1)) {
		t.Error("IsFinite accepted NaN/Inf")
	}
}
