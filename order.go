package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a trader's full buy or sell intent. Besides its limit price and
// total quantity it owns a reservation ledger: quantity provisionally
// committed against specific counterparty orders while the corresponding
// proposed trades await acceptance. The ledger keeps the sum of reservations
// at or below the total quantity at all times.
type Order struct {
	ID            OrderID
	Price         Price
	TotalQuantity Quantity
	IsAsk         bool
	Timeout       time.Duration
	CreatedAt     time.Time

	reservations map[OrderID]Quantity
}

func NewOrder(id OrderID, price Price, quantity Quantity, timeout time.Duration, createdAt time.Time, isAsk bool) *Order {
	return &Order{
		ID:            id,
		Price:         price,
		TotalQuantity: quantity,
		IsAsk:         isAsk,
		Timeout:       timeout,
		CreatedAt:     createdAt,
		reservations:  make(map[OrderID]Quantity),
	}
}

// ReservedQuantity returns the sum of all outstanding reservations.
func (o *Order) ReservedQuantity() Quantity {
	total := NewQuantityFromDecimal(decimal.Zero, o.TotalQuantity.Unit)
	for _, q := range o.reservations {
		total = total.Add(q)
	}
	return total
}

// AvailableQuantity returns the quantity still open for new matches: the
// total minus everything reserved against counterparties.
func (o *Order) AvailableQuantity() Quantity {
	return o.TotalQuantity.Sub(o.ReservedQuantity())
}

// HasReservedQuantity reports whether a reservation is outstanding against
// the given counterparty order.
func (o *Order) HasReservedQuantity(counterparty OrderID) bool {
	_, ok := o.reservations[counterparty]
	return ok
}

// ReserveQuantityForTick commits quantity against a counterparty order.
// Reserving more than the available quantity, or reserving twice against the
// same counterparty, indicates a logic bug and returns ErrInvariantViolation.
func (o *Order) ReserveQuantityForTick(counterparty OrderID, quantity Quantity) error {
	if quantity.IsZero() || !quantity.SameUnit(o.TotalQuantity) {
		return ErrInvalidParam
	}
	if o.HasReservedQuantity(counterparty) {
		return ErrInvariantViolation
	}
	if o.AvailableQuantity().LessThan(quantity) {
		return ErrInvariantViolation
	}

	o.reservations[counterparty] = quantity
	return nil
}

// ReleaseQuantityForTick drops the reservation against a counterparty order,
// making its quantity available again. Called when a proposed trade is
// rejected or times out.
func (o *Order) ReleaseQuantityForTick(counterparty OrderID) error {
	if _, ok := o.reservations[counterparty]; !ok {
		return ErrNotFound
	}

	delete(o.reservations, counterparty)
	return nil
}

// CommitReservation settles the reservation against a counterparty order:
// the reserved quantity leaves the order for good. Called when a proposed
// trade is accepted.
func (o *Order) CommitReservation(counterparty OrderID) error {
	reserved, ok := o.reservations[counterparty]
	if !ok {
		return ErrNotFound
	}

	o.TotalQuantity = o.TotalQuantity.Sub(reserved)
	delete(o.reservations, counterparty)
	return nil
}

// IsComplete reports whether the order has no quantity left to match or
// settle.
func (o *Order) IsComplete() bool {
	return o.TotalQuantity.IsZero()
}

// IsValid reports whether the order is still eligible to match at the given
// instant.
func (o *Order) IsValid(now time.Time) bool {
	return now.Before(o.CreatedAt.Add(o.Timeout))
}
