package market

import "github.com/shopspring/decimal"

// Quantity is a numeric amount tagged with an asset unit. Quantities in
// different units are categorically incomparable, the same rule as Price.
type Quantity struct {
	Amount decimal.Decimal
	Unit   string
}

func NewQuantity(amount int64, unit string) Quantity {
	return Quantity{Amount: decimal.NewFromInt(amount), Unit: unit}
}

func NewQuantityFromDecimal(amount decimal.Decimal, unit string) Quantity {
	return Quantity{Amount: amount, Unit: unit}
}

func (q Quantity) SameUnit(other Quantity) bool {
	return q.Unit == other.Unit
}

func (q Quantity) Equal(other Quantity) bool {
	return q.Unit == other.Unit && q.Amount.Equal(other.Amount)
}

func (q Quantity) LessThan(other Quantity) bool {
	return q.Amount.LessThan(other.Amount)
}

func (q Quantity) IsZero() bool {
	return q.Amount.LessThanOrEqual(decimal.Zero)
}

// Add returns the sum of two quantities sharing a unit.
func (q Quantity) Add(other Quantity) Quantity {
	return Quantity{Amount: q.Amount.Add(other.Amount), Unit: q.Unit}
}

// Sub returns the difference of two quantities sharing a unit, floored at
// zero so over-subtraction can never produce a negative quantity.
func (q Quantity) Sub(other Quantity) Quantity {
	diff := q.Amount.Sub(other.Amount)
	if diff.IsNegative() {
		diff = decimal.Zero
	}
	return Quantity{Amount: diff, Unit: q.Unit}
}

func (q Quantity) String() string {
	return q.Amount.String() + " " + q.Unit
}

// minQuantity returns the smaller of two quantities sharing a unit.
func minQuantity(a, b Quantity) Quantity {
	if b.Amount.LessThan(a.Amount) {
		return b
	}
	return a
}
