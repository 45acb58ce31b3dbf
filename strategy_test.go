package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type strategyFixture struct {
	ask, ask2, ask3, ask4, ask5, ask6 *Tick
	bid, bid2, bid3, bid4             *Tick

	askOrder, askOrder2 *Order
	bidOrder, bidOrder2 *Order

	book     *OrderBook
	strategy *PriceTimeStrategy
}

func testTick(side Side, trader string, number int, priceAmount int64, priceUnit string, qtyAmount int64, qtyUnit string, createdAt time.Time) *Tick {
	messageID := NewMessageID(TraderID(trader), "1")
	orderID := NewOrderID(TraderID(trader), OrderNumber(number))
	price := NewPrice(priceAmount, priceUnit)
	quantity := NewQuantity(qtyAmount, qtyUnit)

	if side == SideAsk {
		return NewAsk(messageID, orderID, price, quantity, time.Hour, createdAt)
	}
	return NewBid(messageID, orderID, price, quantity, time.Hour, createdAt)
}

func newStrategyFixture(t *testing.T) *strategyFixture {
	base := time.Now()
	at := func(i int) time.Time { return base.Add(time.Duration(i) * time.Millisecond) }

	f := &strategyFixture{
		ask:  testTick(SideAsk, "0", 1, 100, "BTC", 30, "MC", at(0)),
		ask2: testTick(SideAsk, "1", 2, 100, "BTC", 30, "MC", at(1)),
		ask3: testTick(SideAsk, "0", 3, 200, "BTC", 200, "MC", at(2)),
		ask4: testTick(SideAsk, "1", 4, 50, "BTC", 200, "MC", at(3)),
		ask5: testTick(SideAsk, "2", 5, 100, "A", 30, "MC", at(4)),
		ask6: testTick(SideAsk, "2", 6, 100, "BTC", 30, "A", at(5)),

		bid:  testTick(SideBid, "5", 5, 100, "BTC", 30, "MC", at(6)),
		bid2: testTick(SideBid, "6", 6, 200, "BTC", 30, "MC", at(7)),
		bid3: testTick(SideBid, "7", 7, 50, "BTC", 200, "MC", at(8)),
		bid4: testTick(SideBid, "8", 8, 100, "BTC", 200, "MC", at(9)),
	}

	f.askOrder = NewOrder(NewOrderID("9", 11), NewPrice(100, "BTC"), NewQuantity(30, "MC"), time.Hour, base, true)
	f.askOrder2 = NewOrder(NewOrderID("9", 12), NewPrice(10, "BTC"), NewQuantity(60, "MC"), time.Hour, base, true)
	f.bidOrder = NewOrder(NewOrderID("9", 13), NewPrice(100, "BTC"), NewQuantity(30, "MC"), time.Hour, base, false)
	f.bidOrder2 = NewOrder(NewOrderID("9", 14), NewPrice(100, "BTC"), NewQuantity(60, "MC"), time.Hour, base, false)

	f.book = NewOrderBook(NewMemoryMessageRepository("0"), NewMemoryPublishEvent())
	f.strategy = NewPriceTimeStrategy(f.book)
	t.Cleanup(f.book.CancelAllPendingTasks)

	return f
}

func TestMatchOrderEmptyBook(t *testing.T) {
	f := newStrategyFixture(t)

	assert.Empty(t, f.strategy.MatchOrder(f.bidOrder))
	assert.Empty(t, f.strategy.MatchOrder(f.askOrder))
}

func TestMatchOrderUnitMismatch(t *testing.T) {
	t.Run("different price unit", func(t *testing.T) {
		f := newStrategyFixture(t)

		require.NoError(t, f.book.InsertAsk(f.ask5))
		assert.Empty(t, f.strategy.MatchOrder(f.bidOrder))
	})

	t.Run("different quantity unit", func(t *testing.T) {
		f := newStrategyFixture(t)

		require.NoError(t, f.book.InsertAsk(f.ask6))
		assert.Empty(t, f.strategy.MatchOrder(f.bidOrder))
	})
}

func TestMatchOrderAsk(t *testing.T) {
	f := newStrategyFixture(t)

	require.NoError(t, f.book.InsertBid(f.bid))

	trades := f.strategy.MatchOrder(f.askOrder)
	require.Len(t, trades, 1)
	assert.True(t, trades[0].Price.Equal(NewPrice(100, "BTC")))
	assert.True(t, trades[0].Quantity.Equal(NewQuantity(30, "MC")))
	assert.Equal(t, f.askOrder.ID, trades[0].AskOrderID)
	assert.Equal(t, f.bid.OrderID, trades[0].BidOrderID)
}

func TestMatchOrderBid(t *testing.T) {
	f := newStrategyFixture(t)

	require.NoError(t, f.book.InsertAsk(f.ask))

	trades := f.strategy.MatchOrder(f.bidOrder)
	require.Len(t, trades, 1)
	assert.True(t, trades[0].Price.Equal(NewPrice(100, "BTC")))
	assert.True(t, trades[0].Quantity.Equal(NewQuantity(30, "MC")))
	assert.Equal(t, f.ask.OrderID, trades[0].AskOrderID)
	assert.Equal(t, f.bidOrder.ID, trades[0].BidOrderID)
}

func TestMatchOrderDivided(t *testing.T) {
	// One resting tick cannot satisfy the order, so matching splits across
	// the next tick in time priority.
	f := newStrategyFixture(t)

	require.NoError(t, f.book.InsertAsk(f.ask))
	require.NoError(t, f.book.InsertAsk(f.ask2))

	trades := f.strategy.MatchOrder(f.bidOrder2)
	require.Len(t, trades, 2)
	assert.Equal(t, f.ask.OrderID, trades[0].AskOrderID)
	assert.True(t, trades[0].Quantity.Equal(NewQuantity(30, "MC")))
	assert.Equal(t, f.ask2.OrderID, trades[1].AskOrderID)
	assert.True(t, trades[1].Quantity.Equal(NewQuantity(30, "MC")))
}

func TestMatchOrderPartialFill(t *testing.T) {
	t.Run("bid order partially filled", func(t *testing.T) {
		f := newStrategyFixture(t)

		f.ask.Quantity = NewQuantity(20, "MC")
		require.NoError(t, f.book.InsertAsk(f.ask))

		trades := f.strategy.MatchOrder(f.bidOrder2)
		require.Len(t, trades, 1)
		assert.True(t, trades[0].Quantity.Equal(NewQuantity(20, "MC")))
		assert.True(t, f.bidOrder2.AvailableQuantity().Equal(NewQuantity(40, "MC")))
	})

	t.Run("ask order partially filled", func(t *testing.T) {
		f := newStrategyFixture(t)

		f.bid.Quantity = NewQuantity(20, "MC")
		require.NoError(t, f.book.InsertBid(f.bid))

		trades := f.strategy.MatchOrder(f.askOrder2)
		require.Len(t, trades, 1)
		assert.True(t, trades[0].Quantity.Equal(NewQuantity(20, "MC")))
	})
}

func TestMatchOrderPriceImprovement(t *testing.T) {
	// An ask with a lower limit than the best resting bid trades at the
	// resting bid's price, not its own limit.
	f := newStrategyFixture(t)

	require.NoError(t, f.book.InsertBid(f.bid2))

	trades := f.strategy.MatchOrder(f.askOrder)
	require.Len(t, trades, 1)
	assert.True(t, trades[0].Price.Equal(NewPrice(200, "BTC")))
	assert.True(t, trades[0].Quantity.Equal(NewQuantity(30, "MC")))
}

func TestMatchOrderSelfTradePrevention(t *testing.T) {
	t.Run("only own tick resting", func(t *testing.T) {
		f := newStrategyFixture(t)

		require.NoError(t, f.book.InsertAsk(f.ask))

		order := NewOrder(f.ask.OrderID, NewPrice(100, "BTC"), NewQuantity(30, "MC"), time.Hour, time.Now(), false)
		assert.Empty(t, f.strategy.MatchOrder(order))
	})

	t.Run("own tick skipped in favor of next", func(t *testing.T) {
		f := newStrategyFixture(t)

		require.NoError(t, f.book.InsertAsk(f.ask))
		require.NoError(t, f.book.InsertAsk(f.ask2))

		order := NewOrder(f.ask.OrderID, NewPrice(100, "BTC"), NewQuantity(30, "MC"), time.Hour, time.Now(), false)
		trades := f.strategy.MatchOrder(order)
		require.Len(t, trades, 1)
		assert.Equal(t, f.ask2.OrderID, trades[0].AskOrderID)
	})
}

func TestMatchOrderSkipsReservedCounterparty(t *testing.T) {
	f := newStrategyFixture(t)

	require.NoError(t, f.book.InsertAsk(f.ask))

	trades := f.strategy.MatchOrder(f.bidOrder2)
	require.Len(t, trades, 1)
	assert.True(t, f.bidOrder2.HasReservedQuantity(f.ask.OrderID))
	assert.True(t, f.bidOrder2.AvailableQuantity().Equal(NewQuantity(30, "MC")))

	// The proposal to this counterparty is still pending, so a second match
	// run must not reserve against it again.
	assert.Empty(t, f.strategy.MatchOrder(f.bidOrder2))
}

func TestMatchOrderNothingAvailable(t *testing.T) {
	f := newStrategyFixture(t)

	require.NoError(t, f.book.InsertAsk(f.ask))
	require.NoError(t, f.bidOrder.ReserveQuantityForTick(NewOrderID("99", 1), NewQuantity(30, "MC")))

	assert.Empty(t, f.strategy.MatchOrder(f.bidOrder))
}

func TestSearchForQuantityInOrderBookPartialAsk(t *testing.T) {
	setup := func(t *testing.T) *strategyFixture {
		f := newStrategyFixture(t)
		require.NoError(t, f.book.InsertBid(f.bid))
		require.NoError(t, f.book.InsertBid(f.bid2))
		require.NoError(t, f.book.InsertBid(f.bid3))
		require.NoError(t, f.book.InsertBid(f.bid4))
		return f
	}

	t.Run("continues into lower eligible level", func(t *testing.T) {
		f := setup(t)

		leftover, trades := f.strategy.searchForQuantityInOrderBookPartialAsk(
			NewPrice(100, "BTC"), NewQuantity(30, "MC"), nil, f.askOrder2)
		require.Len(t, trades, 1)
		assert.True(t, leftover.IsZero())
	})

	t.Run("stops when next level is below the limit", func(t *testing.T) {
		f := setup(t)

		leftover, trades := f.strategy.searchForQuantityInOrderBookPartialAsk(
			NewPrice(100, "BTC"), NewQuantity(30, "MC"), nil, f.askOrder)
		assert.Empty(t, trades)
		assert.True(t, leftover.Equal(NewQuantity(30, "MC")))
	})
}

func TestSearchForQuantityInOrderBookPartialBid(t *testing.T) {
	setup := func(t *testing.T) *strategyFixture {
		f := newStrategyFixture(t)
		require.NoError(t, f.book.InsertAsk(f.ask))
		require.NoError(t, f.book.InsertAsk(f.ask2))
		require.NoError(t, f.book.InsertAsk(f.ask3))
		require.NoError(t, f.book.InsertAsk(f.ask4))
		return f
	}

	t.Run("stops when next level is above the limit", func(t *testing.T) {
		f := setup(t)

		leftover, trades := f.strategy.searchForQuantityInOrderBookPartialBid(
			NewPrice(100, "BTC"), NewQuantity(30, "MC"), nil, f.bidOrder)
		assert.Empty(t, trades)
		assert.True(t, leftover.Equal(NewQuantity(30, "MC")))
	})

	t.Run("continues into higher eligible level", func(t *testing.T) {
		f := setup(t)

		leftover, trades := f.strategy.searchForQuantityInOrderBookPartialBid(
			NewPrice(50, "BTC"), NewQuantity(30, "MC"), nil, f.bidOrder)
		require.Len(t, trades, 1)
		assert.True(t, leftover.IsZero())
	})
}

func TestSearchForQuantityInPriceLevel(t *testing.T) {
	t.Run("nil entry yields no trades", func(t *testing.T) {
		f := newStrategyFixture(t)

		leftover, trades := f.strategy.searchForQuantityInPriceLevel(nil, NewQuantity(10, "MC"), f.bidOrder)
		assert.Empty(t, trades)
		assert.True(t, leftover.Equal(NewQuantity(10, "MC")))
	})

	t.Run("own tick never matched", func(t *testing.T) {
		f := newStrategyFixture(t)
		require.NoError(t, f.book.InsertAsk(f.ask))

		order := NewOrder(f.ask.OrderID, NewPrice(100, "BTC"), NewQuantity(30, "MC"), time.Hour, time.Now(), false)
		leftover, trades := f.strategy.searchForQuantityInPriceLevel(
			f.book.GetTick(f.ask.OrderID), NewQuantity(10, "MC"), order)
		assert.Empty(t, trades)
		assert.True(t, leftover.Equal(NewQuantity(10, "MC")))
	})

	t.Run("reserved counterparty never matched again", func(t *testing.T) {
		f := newStrategyFixture(t)
		require.NoError(t, f.book.InsertAsk(f.ask2))

		require.NoError(t, f.bidOrder2.ReserveQuantityForTick(f.ask2.OrderID, NewQuantity(60, "MC")))
		leftover, trades := f.strategy.searchForQuantityInPriceLevel(
			f.book.GetTick(f.ask2.OrderID), NewQuantity(10, "MC"), f.bidOrder2)
		assert.Empty(t, trades)
		assert.True(t, leftover.Equal(NewQuantity(10, "MC")))
	})

	t.Run("dead tick skipped", func(t *testing.T) {
		f := newStrategyFixture(t)
		require.NoError(t, f.book.InsertAsk(f.ask))
		f.ask.Quantity = NewQuantity(0, "MC")

		leftover, trades := f.strategy.searchForQuantityInPriceLevel(
			f.book.GetTick(f.ask.OrderID), NewQuantity(10, "MC"), f.bidOrder)
		assert.Empty(t, trades)
		assert.True(t, leftover.Equal(NewQuantity(10, "MC")))
	})
}

func TestMatchOrderWalksPriceLevels(t *testing.T) {
	// Asks at 50 (200 MC) and 100 (30 + 30 MC); a bid for 250 MC at limit
	// 100 sweeps the cheap level first, then the next one in time priority.
	f := newStrategyFixture(t)

	require.NoError(t, f.book.InsertAsk(f.ask))
	require.NoError(t, f.book.InsertAsk(f.ask2))
	require.NoError(t, f.book.InsertAsk(f.ask4))

	order := NewOrder(NewOrderID("9", 15), NewPrice(100, "BTC"), NewQuantity(250, "MC"), time.Hour, time.Now(), false)
	trades := f.strategy.MatchOrder(order)
	require.Len(t, trades, 3)

	assert.Equal(t, f.ask4.OrderID, trades[0].AskOrderID)
	assert.True(t, trades[0].Price.Equal(NewPrice(50, "BTC")))
	assert.True(t, trades[0].Quantity.Equal(NewQuantity(200, "MC")))

	assert.Equal(t, f.ask.OrderID, trades[1].AskOrderID)
	assert.True(t, trades[1].Quantity.Equal(NewQuantity(30, "MC")))

	assert.Equal(t, f.ask2.OrderID, trades[2].AskOrderID)
	assert.True(t, trades[2].Quantity.Equal(NewQuantity(20, "MC")))

	assert.True(t, order.AvailableQuantity().IsZero())
	assert.True(t, f.ask2.Quantity.Equal(NewQuantity(10, "MC")))
}
