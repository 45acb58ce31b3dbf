package market

import (
	"github.com/igrmk/treemap/v2"
	"github.com/shopspring/decimal"
)

// DepthItem is one aggregated price level of a depth view.
type DepthItem struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// AggregatedBook maintains a simplified view of one market's order book,
// tracking only price levels and their aggregated quantities. It is rebuilt
// from the BookEvent stream by downstream consumers that need depth without
// holding the live book. The view is scoped to a single unit pair; events
// denominated in other units are ignored.
type AggregatedBook struct {
	priceUnit    string
	quantityUnit string
	ask          *treemap.TreeMap[decimal.Decimal, decimal.Decimal]
	bid          *treemap.TreeMap[decimal.Decimal, decimal.Decimal]
}

func NewAggregatedBook(priceUnit, quantityUnit string) *AggregatedBook {
	return &AggregatedBook{
		priceUnit:    priceUnit,
		quantityUnit: quantityUnit,
		ask: treemap.NewWithKeyCompare[decimal.Decimal, decimal.Decimal](func(a, b decimal.Decimal) bool {
			return a.LessThan(b)
		}),
		bid: treemap.NewWithKeyCompare[decimal.Decimal, decimal.Decimal](func(a, b decimal.Decimal) bool {
			return a.LessThan(b)
		}),
	}
}

// Apply updates the aggregated state with one book event. Emptied price
// levels are dropped so depth never reports a zero level.
func (ab *AggregatedBook) Apply(ev *BookEvent) {
	if ev == nil || ev.Price.Unit != ab.priceUnit || ev.Quantity.Unit != ab.quantityUnit {
		return
	}

	side := ab.ask
	if ev.Side == SideBid {
		side = ab.bid
	}

	current, _ := side.Get(ev.Price.Amount)

	switch ev.Type {
	case EventTypeInsert:
		side.Set(ev.Price.Amount, current.Add(ev.Quantity.Amount))
	case EventTypeCancel, EventTypeExpired, EventTypeReserved:
		remaining := current.Sub(ev.Quantity.Amount)
		if remaining.LessThanOrEqual(decimal.Zero) {
			side.Del(ev.Price.Amount)
		} else {
			side.Set(ev.Price.Amount, remaining)
		}
	}
}

// BestAsk returns the lowest aggregated ask price.
func (ab *AggregatedBook) BestAsk() (decimal.Decimal, bool) {
	it := ab.ask.Iterator()
	if !it.Valid() {
		return decimal.Zero, false
	}
	return it.Key(), true
}

// BestBid returns the highest aggregated bid price.
func (ab *AggregatedBook) BestBid() (decimal.Decimal, bool) {
	it := ab.bid.Reverse()
	if !it.Valid() {
		return decimal.Zero, false
	}
	return it.Key(), true
}

// Depth returns up to limit aggregated levels of one side, best level first.
func (ab *AggregatedBook) Depth(side Side, limit int) []DepthItem {
	result := make([]DepthItem, 0, limit)

	if side == SideAsk {
		for it := ab.ask.Iterator(); it.Valid() && len(result) < limit; it.Next() {
			result = append(result, DepthItem{Price: it.Key(), Quantity: it.Value()})
		}
		return result
	}

	for it := ab.bid.Reverse(); it.Valid() && len(result) < limit; it.Next() {
		result = append(result, DepthItem{Price: it.Key(), Quantity: it.Value()})
	}
	return result
}
