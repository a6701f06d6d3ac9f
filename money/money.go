/*
Package money rounds and formats engine values for display.

PURPOSE:
  The engine works in raw float64 and never rounds. Presentation layers
  (the HTTP API, the CLI) round at the edge. Rounding goes through
  decimal.Decimal so half-cent and half-dollar cases round the same way
  everywhere instead of depending on float formatting.

UNITS:
  UnitDollars:        whole dollars, "$6,200"
  UnitDollarsPerAcre: cents, "$6.20/ac"
  UnitAcres:          whole acres, "1,000 ac"

USAGE:
  money.Dollars(4719.6).String()   // "$4,720"
  money.PerAcre(4.7196).Rounded()  // 4.72
*/
package money

import (
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitDollars        Unit = "dollars"
	UnitDollarsPerAcre Unit = "dollars_per_acre"
	UnitAcres          Unit = "acres"
)

func NewAmount(value float64, unit Unit) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Unit: unit}
}

func Dollars(v float64) Amount { return NewAmount(v, UnitDollars) }
func PerAcre(v float64) Amount { return NewAmount(v, UnitDollarsPerAcre) }
func Acres(v float64) Amount { return NewAmount(v, UnitAcres) }

// Places is the display precision for the amount's unit.
func (a Amount) Places() int32 {
	if a.Unit == UnitDollarsPerAcre {
		return 2
	}
	return 0
}

// Round returns the value rounded half away from zero to the unit's precision.
func (a Amount) Round() decimal.Decimal {
	return a.Value.Round(a.Places())
}

// Rounded is Round as a float64.
func (a Amount) Rounded() float64 {
	return a.Round().InexactFloat64()
}

// String formats the rounded amount with thousands separators.
func (a Amount) String() string {
	r := a.Round()
	switch a.Unit {
	case UnitDollarsPerAcre:
		return "$" + withCommas(r) + "/ac"
	case UnitAcres:
		return humanize.Comma(r.IntPart()) + " ac"
	default:
		if r.IsNegative() {
			return "-$" + humanize.Comma(r.Neg().IntPart())
		}
		return "$" + humanize.Comma(r.IntPart())
	}
}

func (a Amount) IsZero() bool { return a.Round().IsZero() }
func (a Amount) Add(b Amount) Amount { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) GreaterThan(b Amount) bool { return a.Value.GreaterThan(b.Value) }
func (a Amount) Mul(s decimal.Decimal) Amount { return Amount{Value: a.Value.Mul(s), Unit: a.Unit} }

// withCommas formats a two-place value as "1,234.50".
func withCommas(d decimal.Decimal) string {
	whole := d.Truncate(0)
	frac := d.Sub(whole).Abs().StringFixed(2)[1:] // ".50"
	sign := ""
	if d.IsNegative() {
		sign = "-"
		whole = whole.Neg()
	}
	return sign + humanize.Comma(whole.IntPart()) + frac
}
