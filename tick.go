package market

import "time"

// Tick is a resting commitment in the order book, derived from an Order it
// references but does not own. Its Quantity is the amount still available
// for new matches and is lowered directly as the matching strategy consumes
// it; a tick with zero quantity is dead and never matched again.
type Tick struct {
	MessageID MessageID
	OrderID   OrderID
	Side      Side
	Price     Price
	Quantity  Quantity
	Timeout   time.Duration
	CreatedAt time.Time

	prev, next *Tick
}

// NewAsk creates a sell-side tick.
func NewAsk(messageID MessageID, orderID OrderID, price Price, quantity Quantity, timeout time.Duration, createdAt time.Time) *Tick {
	return &Tick{
		MessageID: messageID,
		OrderID:   orderID,
		Side:      SideAsk,
		Price:     price,
		Quantity:  quantity,
		Timeout:   timeout,
		CreatedAt: createdAt,
	}
}

// NewBid creates a buy-side tick.
func NewBid(messageID MessageID, orderID OrderID, price Price, quantity Quantity, timeout time.Duration, createdAt time.Time) *Tick {
	return &Tick{
		MessageID: messageID,
		OrderID:   orderID,
		Side:      SideBid,
		Price:     price,
		Quantity:  quantity,
		Timeout:   timeout,
		CreatedAt: createdAt,
	}
}

// ExpiresAt returns the instant after which the tick can no longer match.
func (t *Tick) ExpiresAt() time.Time {
	return t.CreatedAt.Add(t.Timeout)
}

// IsValid reports whether the tick is still eligible to match at the given
// instant.
func (t *Tick) IsValid(now time.Time) bool {
	return now.Before(t.ExpiresAt())
}

// Next returns the tick after this one within the same price level, in
// time priority order.
func (t *Tick) Next() *Tick {
	return t.next
}
