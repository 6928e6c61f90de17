package identity

import (
	"crypto/sha256"
	"fmt"
	"testing"
)

func ptr(f float64) *float64 { return &f }

func TestPaymentID(t *testing.T) {
	want := fmt.Sprintf("%x", sha256.Sum256([]byte("F-001ACME C.A.")))

	tests := []struct {
		name     string
		invoice  string
		supplier string
	}{
		{"plain", "F-001", "ACME C.A."},
		{"surrounding whitespace", "  F-001 ", "\tACME C.A.  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PaymentID(tt.invoice, tt.supplier); got != want {
				t.Errorf("PaymentID() = %s, want %s", got, want)
			}
		})
	}
}

func TestPaymentIDIsOrderSensitive(t *testing.T) {
	if PaymentID("A", "B") == PaymentID("B", "A") {
		t.Error("expected different digests for swapped fields")
	}
	if PaymentID("A", "B") != PaymentID("A", "B") {
		t.Error("expected identical digests for identical input")
	}
	if len(PaymentID("A", "B")) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(PaymentID("A", "B")))
	}
}

func TestVarianceID(t *testing.T) {
	want := fmt.Sprintf("%x", sha256.Sum256([]byte("0|1500.5|200.0")))
	if got := VarianceID(nil, ptr(1500.5), ptr(200)); got != want {
		t.Errorf("VarianceID() = %s, want %s", got, want)
	}

	if VarianceID(ptr(1), ptr(2), ptr(3)) == VarianceID(ptr(3), ptr(2), ptr(1)) {
		t.Error("expected order-sensitive digests")
	}
	nilWant := fmt.Sprintf("%x", sha256.Sum256([]byte("0|0|0")))
	if got := VarianceID(nil, nil, nil); got != nilWant {
		t.Errorf("VarianceID(nil, nil, nil) = %s, want %s", got, nilWant)
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{200, "200.0"},
		{-0.5, "-0.5"},
		{1500.25, "1500.25"},
		{0.0001, "0.0001"},
		{0.00001, "1e-05"},
		{-0.000025, "-2.5e-05"},
		{9999999999999998, "9999999999999998.0"},
		{1e16, "1e+16"},
		{1.5e17, "1.5e+17"},
		{0, "0.0"},
	}

	for _, tt := range tests {
		if got := formatAmount(ptr(tt.in)); got != tt.want {
			t.Errorf("formatAmount(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}

	want := fmt.Sprintf("%x", sha256.Sum256([]byte("1e-05|1e+16|0.0")))
	if got := VarianceID(ptr(0.00001), ptr(1e16), ptr(0)); got != want {
		t.Errorf("VarianceID() = %s, want %s", got, want)
	}
}
