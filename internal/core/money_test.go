package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{" 2.50 ", "2.5", true},
		{"1234.567", "1234.567", true},
		{"-1", "", false},
		{"+1", "", false},
		{"0", "", false},
		{"0.00", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyArithmeticIsExact(t *testing.T) {
	// 0.1 + 0.2 must be exactly 0.3, not a float approximation.
	a := MoneyFromString(t, "0.1")
	b := MoneyFromString(t, "0.2")
	if got := a.Add(b).String(); got != "0.3" {
		t.Fatalf("0.1 + 0.2 = %s, want 0.3", got)
	}

	sum := Money{}
	tenth := MoneyFromString(t, "0.1")
	for i := 0; i < 10; i++ {
		sum = sum.Add(tenth)
	}
	if got := sum.String(); got != "1" {
		t.Fatalf("ten times 0.1 = %s, want 1", got)
	}
}

func TestMoneyPercentOf(t *testing.T) {
	cases := []struct {
		part  string
		total string
		want  float64
	}{
		{"820", "1000", 82},
		{"50", "200", 25},
		{"180", "1000", 18},
		{"-100", "1000", -10},
		{"5", "0", 0},
	}
	for _, tc := range cases {
		part := MoneyFromString(t, tc.part)
		total := MoneyFromString(t, tc.total)
		if got := part.PercentOf(total); got != tc.want {
			t.Fatalf("%s of %s = %v, want %v", tc.part, tc.total, got, tc.want)
		}
	}
}

func TestMoneyDivIntZero(t *testing.T) {
	m := MoneyFromString(t, "100")
	if got := m.DivInt(0); !got.IsZero() {
		t.Fatalf("division by zero months returned %s, want 0", got)
	}
	if got := m.DivInt(4).String(); got != "25" {
		t.Fatalf("100 / 4 = %s, want 25", got)
	}
}

func TestMoneyDisplay(t *testing.T) {
	cases := []struct {
		amount   string
		currency string
		want     string
	}{
		{"1234.5", "USD", "$1234.50"},
		{"12", "EUR", "€12.00"},
		{"-45.6", "USD", "-$45.60"},
		{"7.5", "CHF", "CHF 7.50"},
	}
	for _, tc := range cases {
		m := MoneyFromString(t, tc.amount)
		if got := m.Display(tc.currency); got != tc.want {
			t.Fatalf("Display(%s, %s) = %q, want %q", tc.amount, tc.currency, got, tc.want)
		}
	}
}

// MoneyFromString builds a Money for tests, accepting values ParseMoney
// would reject, like zero and negatives.
func MoneyFromString(t *testing.T, s string) Money {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad test amount %q: %v", s, err)
	}
	return NewMoney(d)
}
