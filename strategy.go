package market

import "time"

// Strategy finds proposed trades for an incoming order against the current
// book. Injected into MatchingEngine so alternative matching policies can be
// substituted per deployment or per test.
type Strategy interface {
	MatchOrder(order *Order) []*ProposedTrade
}

// PriceTimeStrategy matches an incoming order in price-time priority: best
// price level first, earliest tick first within a level. Matching is
// reservation-based: every proposed trade reserves its quantity on the
// incoming order, and counterparties the order already holds a reservation
// against are skipped until that proposal is resolved. A whole match run
// executes under the book's single-writer lock.
type PriceTimeStrategy struct {
	book *OrderBook
}

func NewPriceTimeStrategy(book *OrderBook) *PriceTimeStrategy {
	return &PriceTimeStrategy{book: book}
}

// MatchOrder walks the opposite side of the book and returns the proposed
// trades that satisfy as much of the order's available quantity as the book
// allows. An empty result means no match, not an error.
func (s *PriceTimeStrategy) MatchOrder(order *Order) []*ProposedTrade {
	if order == nil {
		return nil
	}

	s.book.mu.Lock()
	defer s.book.mu.Unlock()

	quantityToTrade := order.AvailableQuantity()
	if quantityToTrade.IsZero() {
		return nil
	}

	opposite := s.book.bids
	if !order.IsAsk {
		opposite = s.book.asks
	}

	best := opposite.bestLevel()
	if best == nil {
		return nil
	}

	_, trades := s.searchForQuantityInOrderBook(best.price, quantityToTrade, nil, order)
	return trades
}

// searchForQuantityInOrderBook consumes the level at the given price when it
// is eligible, then continues outward through worse levels until the
// quantity is satisfied or no eligible level remains.
func (s *PriceTimeStrategy) searchForQuantityInOrderBook(price Price, quantityToTrade Quantity, trades []*ProposedTrade, order *Order) (Quantity, []*ProposedTrade) {
	opposite := s.book.bids
	if !order.IsAsk {
		opposite = s.book.asks
	}

	if level := opposite.levelAt(price); level != nil && s.isEligiblePrice(order, price) {
		var found []*ProposedTrade
		quantityToTrade, found = s.searchForQuantityInPriceLevel(level.head, quantityToTrade, order)
		trades = append(trades, found...)
	}

	if quantityToTrade.IsZero() {
		return quantityToTrade, trades
	}

	if order.IsAsk {
		return s.searchForQuantityInOrderBookPartialAsk(price, quantityToTrade, trades, order)
	}
	return s.searchForQuantityInOrderBookPartialBid(price, quantityToTrade, trades, order)
}

// searchForQuantityInOrderBookPartialAsk continues an ask's search below the
// given bid price level. Bid levels are sorted descending, so the first
// same-unit level under the ask's limit ends the walk.
func (s *PriceTimeStrategy) searchForQuantityInOrderBookPartialAsk(price Price, quantityToTrade Quantity, trades []*ProposedTrade, order *Order) (Quantity, []*ProposedTrade) {
	next := s.book.bids.nextLevel(price)
	if next == nil {
		return quantityToTrade, trades
	}

	if next.price.SameUnit(order.Price) && next.price.LessThan(order.Price) {
		return quantityToTrade, trades
	}

	return s.searchForQuantityInOrderBook(next.price, quantityToTrade, trades, order)
}

// searchForQuantityInOrderBookPartialBid continues a bid's search above the
// given ask price level. Ask levels are sorted ascending, so the first
// same-unit level over the bid's limit ends the walk.
func (s *PriceTimeStrategy) searchForQuantityInOrderBookPartialBid(price Price, quantityToTrade Quantity, trades []*ProposedTrade, order *Order) (Quantity, []*ProposedTrade) {
	next := s.book.asks.nextLevel(price)
	if next == nil {
		return quantityToTrade, trades
	}

	if next.price.SameUnit(order.Price) && next.price.GreaterThan(order.Price) {
		return quantityToTrade, trades
	}

	return s.searchForQuantityInOrderBook(next.price, quantityToTrade, trades, order)
}

// searchForQuantityInPriceLevel scans ticks in time priority starting from
// the given entry, proposing trades at each tick's own resting price until
// the needed quantity is satisfied or the level is exhausted. Ticks are
// skipped when they belong to the incoming order itself, when the order
// already holds a reservation against them, when they are dead or expired,
// or when their units do not match the order's.
func (s *PriceTimeStrategy) searchForQuantityInPriceLevel(tickEntry *Tick, quantityToTrade Quantity, order *Order) (Quantity, []*ProposedTrade) {
	var trades []*ProposedTrade
	now := time.Now()

	for tick := tickEntry; tick != nil && !quantityToTrade.IsZero(); tick = tick.next {
		if tick.OrderID == order.ID {
			continue
		}
		if order.HasReservedQuantity(tick.OrderID) {
			continue
		}
		if tick.Quantity.IsZero() || !tick.IsValid(now) {
			continue
		}
		if !tick.Price.SameUnit(order.Price) || !tick.Quantity.SameUnit(order.TotalQuantity) {
			continue
		}

		taken := minQuantity(quantityToTrade, tick.Quantity)
		if err := order.ReserveQuantityForTick(tick.OrderID, taken); err != nil {
			logger.Error("reservation failed",
				"order_id", order.ID.String(),
				"counterparty_id", tick.OrderID.String(),
				"err", err)
			break
		}

		askOrderID, bidOrderID := order.ID, tick.OrderID
		if !order.IsAsk {
			askOrderID, bidOrderID = tick.OrderID, order.ID
		}

		trades = append(trades, NewProposedTrade(
			s.book.repo.NextIdentity(),
			askOrderID,
			bidOrderID,
			tick.Price,
			taken,
			now,
		))

		tick.Quantity = tick.Quantity.Sub(taken)
		quantityToTrade = quantityToTrade.Sub(taken)

		s.book.publish.Publish(&BookEvent{
			Type:      EventTypeReserved,
			Side:      tick.Side,
			OrderID:   tick.OrderID,
			MessageID: tick.MessageID,
			Price:     tick.Price,
			Quantity:  taken,
			CreatedAt: now,
		})
	}

	return quantityToTrade, trades
}

// isEligiblePrice reports whether a resting price level can satisfy the
// order's limit. A unit mismatch is a categorical filter, never a numeric
// comparison.
func (s *PriceTimeStrategy) isEligiblePrice(order *Order, price Price) bool {
	if !price.SameUnit(order.Price) {
		return false
	}
	if order.IsAsk {
		// Selling at the limit or better
		return !price.LessThan(order.Price)
	}
	// Buying at the limit or better
	return !price.GreaterThan(order.Price)
}
