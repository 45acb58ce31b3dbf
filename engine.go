package market

// MatchingEngine is a thin facade over a configured matching strategy. It
// exists so the order-submission layer depends on one entry point while the
// matching policy stays swappable.
type MatchingEngine struct {
	strategy Strategy
}

func NewMatchingEngine(strategy Strategy) *MatchingEngine {
	return &MatchingEngine{strategy: strategy}
}

// MatchOrder delegates to the configured strategy and returns its result
// unchanged.
func (engine *MatchingEngine) MatchOrder(order *Order) []*ProposedTrade {
	return engine.strategy.MatchOrder(order)
}
