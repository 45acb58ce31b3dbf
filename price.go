package market

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Price is a numeric amount tagged with the asset or currency it is
// denominated in. Prices in different units are categorically incomparable;
// callers must check SameUnit before any numeric comparison.
type Price struct {
	Amount decimal.Decimal
	Unit   string
}

func NewPrice(amount int64, unit string) Price {
	return Price{Amount: decimal.NewFromInt(amount), Unit: unit}
}

func NewPriceFromDecimal(amount decimal.Decimal, unit string) Price {
	return Price{Amount: amount, Unit: unit}
}

func (p Price) SameUnit(other Price) bool {
	return p.Unit == other.Unit
}

// Equal reports whether both unit and amount match.
func (p Price) Equal(other Price) bool {
	return p.Unit == other.Unit && p.Amount.Equal(other.Amount)
}

// LessThan compares amounts. Both prices must share a unit.
func (p Price) LessThan(other Price) bool {
	return p.Amount.LessThan(other.Amount)
}

// GreaterThan compares amounts. Both prices must share a unit.
func (p Price) GreaterThan(other Price) bool {
	return p.Amount.GreaterThan(other.Amount)
}

func (p Price) String() string {
	return p.Amount.String() + " " + p.Unit
}

// comparePrices orders prices by unit first, then amount, giving a
// deterministic total order even when one book side holds ticks denominated
// in several units. Levels of a foreign unit are skipped during matching.
func comparePrices(a, b Price) int {
	if c := strings.Compare(a.Unit, b.Unit); c != 0 {
		return c
	}
	return a.Amount.Cmp(b.Amount)
}
