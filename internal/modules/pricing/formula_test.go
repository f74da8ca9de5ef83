package pricing

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"khadamat/internal/types"
)

func TestFormulaModifier(t *testing.T) {
	base := decimal.NewFromInt(150)
	tests := []struct {
		f       Formula
		want    string
		display string
	}{
		{FormulaStandard, "0", "Base"},
		{FormulaRecurring, "-15", "-10%"},
		{FormulaPremium, "45", "+30%"},
		{FormulaUrgent, "50", "+50 MAD"},
		{FormulaNight, "30", "+30 MAD"},
	}
	for _, tt := range tests {
		t.Run(string(tt.f), func(t *testing.T) {
			if got := tt.f.Modifier(base); !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Modifier(150) = %s, want %s", got, tt.want)
			}
			if got := tt.f.Display("MAD"); got != tt.display {
				t.Errorf("Display() = %q, want %q", got, tt.display)
			}
		})
	}
}

func TestParseFormula(t *testing.T) {
	f, err := ParseFormula(" Premium ")
	if err != nil || f != FormulaPremium {
		t.Fatalf("ParseFormula(Premium) = %q, %v", f, err)
	}

	_, err = ParseFormula("vip")
	if !errors.Is(err, types.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, name := range AllFormulas {
		if !strings.Contains(err.Error(), string(name)) {
			t.Errorf("error %q does not list %s", err, name)
		}
	}
}
