package market

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/xid"
)

type Side int8

const (
	SideAsk Side = 1
	SideBid Side = 2
)

func (s Side) String() string {
	switch s {
	case SideAsk:
		return "ask"
	case SideBid:
		return "bid"
	}
	return "unknown"
}

// TraderID identifies a network peer.
type TraderID string

// NewTraderID generates a globally unique trader identity.
func NewTraderID() TraderID {
	return TraderID(xid.New().String())
}

// OrderNumber is assigned monotonically per trader.
type OrderNumber int

// OrderID is the globally unique key of an order: the trader that created it
// plus the trader-local order number.
type OrderID struct {
	Trader TraderID
	Number OrderNumber
}

func NewOrderID(trader TraderID, number OrderNumber) OrderID {
	return OrderID{Trader: trader, Number: number}
}

func (id OrderID) String() string {
	return string(id.Trader) + "." + strconv.Itoa(int(id.Number))
}

// MessageNumber identifies a message within one trader's stream. An order can
// produce multiple messages over its life, so message identities are distinct
// from order identities.
type MessageNumber string

// NewMessageNumber generates a unique message number.
func NewMessageNumber() MessageNumber {
	return MessageNumber(xid.New().String())
}

// MessageID identifies the message that carried a tick or trade.
type MessageID struct {
	Trader TraderID
	Number MessageNumber
}

func NewMessageID(trader TraderID, number MessageNumber) MessageID {
	return MessageID{Trader: trader, Number: number}
}

func (id MessageID) String() string {
	return fmt.Sprintf("%s.%s", id.Trader, id.Number)
}

// MessageRepository mints message identities for outgoing messages such as
// proposed trades.
type MessageRepository interface {
	NextIdentity() MessageID
}

// MemoryMessageRepository numbers messages sequentially for a single trader.
type MemoryMessageRepository struct {
	mu     sync.Mutex
	trader TraderID
	next   int
}

func NewMemoryMessageRepository(trader TraderID) *MemoryMessageRepository {
	return &MemoryMessageRepository{trader: trader}
}

func (r *MemoryMessageRepository) NextIdentity() MessageID {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	return MessageID{
		Trader: r.trader,
		Number: MessageNumber(strconv.Itoa(r.next)),
	}
}
