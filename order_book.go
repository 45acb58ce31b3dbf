package market

import (
	"sync"
	"time"

	"github.com/huandu/skiplist"
)

// priceLevel holds every tick resting at one exact price as a doubly-linked
// list in time priority order: earliest timestamp first, insertion order on
// equal timestamps.
type priceLevel struct {
	price  Price
	head   *Tick
	tail   *Tick
	length int
}

// insert places the tick at its time-priority position. Ticks arrive mostly
// in timestamp order, so the scan starts from the tail.
func (l *priceLevel) insert(tick *Tick) {
	at := l.tail
	for at != nil && at.CreatedAt.After(tick.CreatedAt) {
		at = at.prev
	}

	if at == nil {
		// New head
		tick.next = l.head
		tick.prev = nil
		if l.head != nil {
			l.head.prev = tick
		}
		l.head = tick
		if l.tail == nil {
			l.tail = tick
		}
	} else {
		tick.prev = at
		tick.next = at.next
		if at.next != nil {
			at.next.prev = tick
		} else {
			l.tail = tick
		}
		at.next = tick
	}

	l.length++
}

func (l *priceLevel) remove(tick *Tick) {
	if tick.prev != nil {
		tick.prev.next = tick.next
	} else {
		l.head = tick.next
	}
	if tick.next != nil {
		tick.next.prev = tick.prev
	} else {
		l.tail = tick.prev
	}

	tick.prev = nil
	tick.next = nil
	l.length--
}

func (l *priceLevel) ticks() []*Tick {
	result := make([]*Tick, 0, l.length)
	for t := l.head; t != nil; t = t.next {
		result = append(result, t)
	}
	return result
}

// bookSide indexes one side of the book: a skiplist of price levels ordered
// best-first plus an OrderID map for O(1) lookup and removal.
type bookSide struct {
	side   Side
	levels *skiplist.SkipList
	ticks  map[OrderID]*Tick
}

// newAskSide creates the sell side, price levels sorted ascending (lowest
// ask first).
func newAskSide() *bookSide {
	return &bookSide{
		side: SideAsk,
		levels: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			p1, _ := lhs.(Price)
			p2, _ := rhs.(Price)
			return comparePrices(p1, p2)
		})),
		ticks: make(map[OrderID]*Tick),
	}
}

// newBidSide creates the buy side, price levels sorted descending (highest
// bid first).
func newBidSide() *bookSide {
	return &bookSide{
		side: SideBid,
		levels: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			p1, _ := lhs.(Price)
			p2, _ := rhs.(Price)
			return -comparePrices(p1, p2)
		})),
		ticks: make(map[OrderID]*Tick),
	}
}

func (s *bookSide) contains(id OrderID) bool {
	_, ok := s.ticks[id]
	return ok
}

func (s *bookSide) tick(id OrderID) *Tick {
	return s.ticks[id]
}

func (s *bookSide) insert(tick *Tick) {
	var level *priceLevel

	el := s.levels.Get(tick.Price)
	if el != nil {
		level, _ = el.Value.(*priceLevel)
	} else {
		level = &priceLevel{price: tick.Price}
		s.levels.Set(tick.Price, level)
	}

	level.insert(tick)
	s.ticks[tick.OrderID] = tick
}

// remove takes a tick out of the side, dropping its price level once it is
// empty so the best-level accessors never see an empty level.
func (s *bookSide) remove(id OrderID) *Tick {
	tick, ok := s.ticks[id]
	if !ok {
		return nil
	}

	el := s.levels.Get(tick.Price)
	if el != nil {
		level, _ := el.Value.(*priceLevel)
		level.remove(tick)
		if level.length == 0 {
			s.levels.RemoveElement(el)
		}
	}

	delete(s.ticks, id)
	return tick
}

func (s *bookSide) levelAt(price Price) *priceLevel {
	el := s.levels.Get(price)
	if el == nil {
		return nil
	}

	level, _ := el.Value.(*priceLevel)
	return level
}

// bestLevel returns the first non-empty price level in priority order, or
// nil if the side is empty.
func (s *bookSide) bestLevel() *priceLevel {
	el := s.levels.Front()
	if el == nil {
		return nil
	}

	level, _ := el.Value.(*priceLevel)
	return level
}

// nextLevel returns the level directly after the given price in priority
// order, whether or not a level still exists at that price.
func (s *bookSide) nextLevel(price Price) *priceLevel {
	el := s.levels.Find(price)
	if el == nil {
		return nil
	}

	level, _ := el.Value.(*priceLevel)
	if level.price.Equal(price) {
		el = el.Next()
		if el == nil {
			return nil
		}
		level, _ = el.Value.(*priceLevel)
	}
	return level
}

func (s *bookSide) tickCount() int {
	return len(s.ticks)
}

// OrderBook holds the resting ask and bid ticks of the live book. A single
// mutex serializes every mutating turn: public operations, whole matching
// runs (which perform read-then-mutate sequences on tick quantities), and
// timeout sweeps all take it. Expiry sweeps are scheduled per tick on
// insertion and stopped on removal; CancelAllPendingTasks stops every
// pending sweep so none can fire against a torn-down book.
type OrderBook struct {
	mu      sync.Mutex
	asks    *bookSide
	bids    *bookSide
	repo    MessageRepository
	publish PublishEvent
	sweeps  map[OrderID]*time.Timer
	closed  bool
}

func NewOrderBook(repo MessageRepository, publish PublishEvent) *OrderBook {
	if publish == nil {
		publish = NewDiscardPublishEvent()
	}
	return &OrderBook{
		asks:    newAskSide(),
		bids:    newBidSide(),
		repo:    repo,
		publish: publish,
		sweeps:  make(map[OrderID]*time.Timer),
	}
}

// InsertAsk adds a live sell tick to the book.
// Returns ErrDuplicateOrder if a tick with the same order id is already
// present on either side.
func (book *OrderBook) InsertAsk(tick *Tick) error {
	return book.insertTick(tick, SideAsk)
}

// InsertBid adds a live buy tick to the book.
// Returns ErrDuplicateOrder if a tick with the same order id is already
// present on either side.
func (book *OrderBook) InsertBid(tick *Tick) error {
	return book.insertTick(tick, SideBid)
}

func (book *OrderBook) insertTick(tick *Tick, side Side) error {
	if tick == nil || tick.Side != side {
		return ErrInvalidParam
	}

	now := time.Now()
	if !tick.IsValid(now) {
		return ErrInvalidParam
	}

	book.mu.Lock()
	defer book.mu.Unlock()

	if book.closed {
		return ErrBookClosed
	}

	if book.asks.contains(tick.OrderID) || book.bids.contains(tick.OrderID) {
		return ErrDuplicateOrder
	}

	book.sideOf(side).insert(tick)
	book.scheduleSweep(tick)

	logger.Debug("tick inserted",
		"side", side.String(),
		"order_id", tick.OrderID.String(),
		"price", tick.Price.String(),
		"quantity", tick.Quantity.String())

	book.publish.Publish(&BookEvent{
		Type:      EventTypeInsert,
		Side:      side,
		OrderID:   tick.OrderID,
		MessageID: tick.MessageID,
		Price:     tick.Price,
		Quantity:  tick.Quantity,
		CreatedAt: now,
	})

	return nil
}

// RemoveTick removes and returns the tick with the given order id.
// Returns ErrNotFound if no tick with that id rests on either side.
func (book *OrderBook) RemoveTick(id OrderID) (*Tick, error) {
	book.mu.Lock()
	defer book.mu.Unlock()

	tick := book.removeTick(id)
	if tick == nil {
		return nil, ErrNotFound
	}

	book.publish.Publish(&BookEvent{
		Type:      EventTypeCancel,
		Side:      tick.Side,
		OrderID:   tick.OrderID,
		MessageID: tick.MessageID,
		Price:     tick.Price,
		Quantity:  tick.Quantity,
		CreatedAt: time.Now(),
	})

	return tick, nil
}

// removeTick must be called with the book lock held.
func (book *OrderBook) removeTick(id OrderID) *Tick {
	if timer, ok := book.sweeps[id]; ok {
		timer.Stop()
		delete(book.sweeps, id)
	}

	if tick := book.asks.remove(id); tick != nil {
		return tick
	}
	return book.bids.remove(id)
}

// GetTick returns the resting tick with the given order id, or nil if it is
// not present on either side.
func (book *OrderBook) GetTick(id OrderID) *Tick {
	book.mu.Lock()
	defer book.mu.Unlock()

	if tick := book.asks.tick(id); tick != nil {
		return tick
	}
	return book.bids.tick(id)
}

// BestAskPrice returns the lowest ask price level currently in the book.
func (book *OrderBook) BestAskPrice() (Price, bool) {
	book.mu.Lock()
	defer book.mu.Unlock()

	level := book.asks.bestLevel()
	if level == nil {
		return Price{}, false
	}
	return level.price, true
}

// BestBidPrice returns the highest bid price level currently in the book.
func (book *OrderBook) BestBidPrice() (Price, bool) {
	book.mu.Lock()
	defer book.mu.Unlock()

	level := book.bids.bestLevel()
	if level == nil {
		return Price{}, false
	}
	return level.price, true
}

// TicksAtPrice returns the ticks resting at the exact price on the given
// side, in time priority order.
func (book *OrderBook) TicksAtPrice(side Side, price Price) []*Tick {
	book.mu.Lock()
	defer book.mu.Unlock()

	level := book.sideOf(side).levelAt(price)
	if level == nil {
		return nil
	}
	return level.ticks()
}

// NextPriceLevel returns the next-best price after the given one on a side:
// ascending for asks, descending for bids.
func (book *OrderBook) NextPriceLevel(side Side, price Price) (Price, bool) {
	book.mu.Lock()
	defer book.mu.Unlock()

	level := book.sideOf(side).nextLevel(price)
	if level == nil {
		return Price{}, false
	}
	return level.price, true
}

// AskCount returns the number of resting ask ticks.
func (book *OrderBook) AskCount() int {
	book.mu.Lock()
	defer book.mu.Unlock()
	return book.asks.tickCount()
}

// BidCount returns the number of resting bid ticks.
func (book *OrderBook) BidCount() int {
	book.mu.Lock()
	defer book.mu.Unlock()
	return book.bids.tickCount()
}

// CancelAllPendingTasks stops every scheduled expiry sweep. Required on
// teardown so no sweep fires against a destroyed book.
func (book *OrderBook) CancelAllPendingTasks() {
	book.mu.Lock()
	defer book.mu.Unlock()

	for id, timer := range book.sweeps {
		timer.Stop()
		delete(book.sweeps, id)
	}
}

// Close cancels all pending sweeps and rejects further insertions.
func (book *OrderBook) Close() {
	book.mu.Lock()
	defer book.mu.Unlock()

	book.closed = true
	for id, timer := range book.sweeps {
		timer.Stop()
		delete(book.sweeps, id)
	}
}

func (book *OrderBook) sideOf(side Side) *bookSide {
	if side == SideAsk {
		return book.asks
	}
	return book.bids
}

// scheduleSweep must be called with the book lock held.
func (book *OrderBook) scheduleSweep(tick *Tick) {
	id := tick.OrderID
	book.sweeps[id] = time.AfterFunc(time.Until(tick.ExpiresAt()), func() {
		book.expireTick(id)
	})
}

func (book *OrderBook) expireTick(id OrderID) {
	book.mu.Lock()
	defer book.mu.Unlock()

	if book.closed {
		return
	}
	delete(book.sweeps, id)

	tick := book.asks.remove(id)
	if tick == nil {
		tick = book.bids.remove(id)
	}
	if tick == nil {
		return
	}

	logger.Debug("tick expired", "order_id", id.String(), "price", tick.Price.String())

	book.publish.Publish(&BookEvent{
		Type:      EventTypeExpired,
		Side:      tick.Side,
		OrderID:   tick.OrderID,
		MessageID: tick.MessageID,
		Price:     tick.Price,
		Quantity:  tick.Quantity,
		CreatedAt: time.Now(),
	})
}
