package geodesy_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/samirrijal/drillmap/internal/core/geodesy"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"decimal comma", "1234,56", 1234.56},
		{"decimal point", "1234.56", 1234.56},
		{"surrounding spaces", "  42,5 \t", 42.5},
		{"negative", "-317,5", -317.5},
		{"float passthrough", 12.25, 12.25},
		{"int passthrough", 7, 7},
		{"int64 passthrough", int64(-3), -3},
		{"json number", json.Number("5,5"), 5.5},
		{"exponent", "1e3", 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := geodesy.ParseNumber(tt.in)
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestParseNumber_Missing(t *testing.T) {
	for _, in := range []any{"", "   ", nil, "abc", "1,2,3", "12m", struct{}{}, []byte("1")} {
		if got := geodesy.ParseNumber(in); !math.IsNaN(got) {
			t.Errorf("ParseNumber(%#v): expected NaN, got %v", in, got)
		}
	}
}

func TestParseOptional(t *testing.T) {
	if v, ok := geodesy.ParseOptional("10,5"); !ok || v != 10.5 {
		t.Errorf("expected (10.5, true), got (%v, %v)", v, ok)
	}
	if _, ok := geodesy.ParseOptional(""); ok {
		t.Error("expected empty string to be missing")
	}
	if _, ok := geodesy.ParseOptional(math.NaN()); ok {
		t.Error("expected NaN to be missing")
	}
	if _, ok := geodesy.ParseOptional("Inf"); ok {
		t.Error("expected infinity to be missing")
	}
	if v, ok := geodesy.ParseOptional(0); !ok || v != 0 {
		t.Errorf("expected zero to be present, got (%v, %v)", v, ok)
	}
}
