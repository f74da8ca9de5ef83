// README: Closed set of pricing plans. Each plan carries its own modifier rule.
package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"khadamat/internal/types"
)

type Formula string

const (
	FormulaStandard  Formula = "standard"
	FormulaRecurring Formula = "recurring"
	FormulaPremium   Formula = "premium"
	FormulaUrgent    Formula = "urgent"
	FormulaNight     Formula = "night"
)

// AllFormulas lists every plan in display order.
var AllFormulas = []Formula{FormulaStandard, FormulaRecurring, FormulaPremium, FormulaUrgent, FormulaNight}

type modifierKind int

const (
	percentOfBase modifierKind = iota
	flatAmount
)

type modifierRule struct {
	kind  modifierKind
	value decimal.Decimal
}

func (f Formula) rule() (modifierRule, bool) {
	switch f {
	case FormulaStandard:
		return modifierRule{kind: percentOfBase, value: decimal.Zero}, true
	case FormulaRecurring:
		return modifierRule{kind: percentOfBase, value: decimal.NewFromInt(-10)}, true
	case FormulaPremium:
		return modifierRule{kind: percentOfBase, value: decimal.NewFromInt(30)}, true
	case FormulaUrgent:
		return modifierRule{kind: flatAmount, value: decimal.NewFromInt(50)}, true
	case FormulaNight:
		return modifierRule{kind: flatAmount, value: decimal.NewFromInt(30)}, true
	}
	return modifierRule{}, false
}

func ParseFormula(s string) (Formula, error) {
	f := Formula(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := f.rule(); !ok {
		return "", types.Invalid("formula_type", "unknown formula %q, allowed: %s", s, formulaList(AllFormulas))
	}
	return f, nil
}

func (f Formula) Valid() bool {
	_, ok := f.rule()
	return ok
}

// Modifier returns the unrounded amount the plan adds to base (negative for discounts).
func (f Formula) Modifier(base decimal.Decimal) decimal.Decimal {
	r, _ := f.rule()
	if r.kind == flatAmount {
		return r.value
	}
	return base.Mul(r.value).Div(decimal.NewFromInt(100))
}

// Display renders the modifier the way the booking screens show it.
func (f Formula) Display(currency string) string {
	r, ok := f.rule()
	if !ok {
		return ""
	}
	if r.kind == flatAmount {
		return fmt.Sprintf("+%s %s", r.value.String(), currency)
	}
	switch {
	case r.value.IsZero():
		return "Base"
	case r.value.IsPositive():
		return "+" + r.value.String() + "%"
	default:
		return r.value.String() + "%"
	}
}

func formulaList(fs []Formula) string {
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
