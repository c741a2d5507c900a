package book

import (
	"time"

	"matchengine/domain"
)

// Depth recomputes a top-N aggregated view of both sides of the book
// (§3 Depth View, §4.4). It is always derived fresh from the RB trees —
// never cached — so it can never drift from the book; the coherence
// invariant (§8) therefore holds by construction rather than by upkeep.
func Depth(b *OrderBook, n int) *domain.DepthPayload {
	payload := &domain.DepthPayload{
		Bids:      collectLevels(b, domain.Bid, n),
		Asks:      collectLevels(b, domain.Ask, n),
		Timestamp: time.Now().UTC(),
	}
	return payload
}

func collectLevels(b *OrderBook, side domain.Side, n int) []domain.DepthLevel {
	if n <= 0 {
		return nil
	}
	out := make([]domain.DepthLevel, 0, n)
	b.Walk(side, func(level *PriceLevel) bool {
		out = append(out, domain.DepthLevel{
			Price:      level.Price,
			Volume:     level.TotalVolume,
			OrderCount: level.OrderCount,
		})
		return len(out) < n
	})
	return out
}
