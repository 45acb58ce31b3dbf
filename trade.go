package market

import "time"

// ProposedTrade is a tentative match produced by the matching strategy. It is
// a proposal to the counterparty, not a settled execution: the quantity it
// names stays reserved on the originating order until the counterparty
// accepts, rejects, or times out. Never mutated after creation.
type ProposedTrade struct {
	MessageID  MessageID
	AskOrderID OrderID
	BidOrderID OrderID
	Price      Price
	Quantity   Quantity
	CreatedAt  time.Time
}

func NewProposedTrade(messageID MessageID, askOrderID, bidOrderID OrderID, price Price, quantity Quantity, createdAt time.Time) *ProposedTrade {
	return &ProposedTrade{
		MessageID:  messageID,
		AskOrderID: askOrderID,
		BidOrderID: bidOrderID,
		Price:      price,
		Quantity:   quantity,
		CreatedAt:  createdAt,
	}
}

// CounterpartyID returns the resting order's ID from the taker's point of
// view: the bid when the taker was an ask, the ask otherwise.
func (t *ProposedTrade) CounterpartyID(takerIsAsk bool) OrderID {
	if takerIsAsk {
		return t.BidOrderID
	}
	return t.AskOrderID
}
