package match

import (
	"fmt"

	"github.com/igrmk/treemap/v2"

	"github.com/openclob/openclob/safe"
)

// AggregatedBook maintains a simplified view of the order book, tracking
// only price levels and their aggregated remaining quantity. It is
// designed for downstream consumers that rebuild book state from
// ReceiptLog events received off the publish feed. Not safe for
// concurrent use.
type AggregatedBook struct {
	lastOrdinal uint64
	ask         *treemap.TreeMap[uint64, uint64]
	bid         *treemap.TreeMap[uint64, uint64]
}

// NewAggregatedBook creates a new AggregatedBook instance with empty ask
// and bid sides.
func NewAggregatedBook() *AggregatedBook {
	ab := &AggregatedBook{}
	ab.Reset()
	return ab
}

// Reset clears both sides and the ordinal cursor, so a fresh replay can
// start from the beginning of the feed.
func (ab *AggregatedBook) Reset() {
	ab.lastOrdinal = 0
	ab.ask = treemap.NewWithKeyCompare[uint64, uint64](func(a, b uint64) bool {
		return a < b
	})
	ab.bid = treemap.NewWithKeyCompare[uint64, uint64](func(a, b uint64) bool {
		return a > b
	})
}

// LastOrdinal returns the ordinal of the last replayed receipt.
// Used for synchronization and gap detection during rebuild.
func (ab *AggregatedBook) LastOrdinal() uint64 {
	return ab.lastOrdinal
}

// Replay applies one receipt log to the aggregated book state. Logs must
// arrive in ordinal order: a log at or below the cursor is ignored as a
// duplicate, a log further ahead than the next ordinal is an ErrOrdinalGap.
// A fill that exceeds the tracked depth reports ErrBookOutOfSync; the
// caller should Reset and rebuild from the start of the feed.
func (ab *AggregatedBook) Replay(log *ReceiptLog) error {
	ordinal := log.Receipt.Ordinal
	if ordinal <= ab.lastOrdinal {
		return nil
	}
	if ordinal != ab.lastOrdinal+1 {
		return fmt.Errorf("%w: got %d, want %d", ErrOrdinalGap, ordinal, ab.lastOrdinal+1)
	}

	makerSide := ab.ask
	if log.Side == Sell {
		makerSide = ab.bid
	}

	var matched uint64
	for i := range log.Receipt.Matches {
		fill := &log.Receipt.Matches[i]
		matched += fill.Amount
		if err := ab.reduce(makerSide, fill.Price, fill.Amount); err != nil {
			return err
		}
	}

	if matched < log.Amount {
		takerSide := ab.bid
		if log.Side == Sell {
			takerSide = ab.ask
		}
		ab.add(takerSide, log.Price, log.Amount-matched)
	}

	ab.lastOrdinal = ordinal
	return nil
}

// AmountAtPriceLevel returns the aggregated remaining quantity at a
// specific price level for the given side. Returns 0 if the price level
// does not exist.
func (ab *AggregatedBook) AmountAtPriceLevel(price uint64, side Side) uint64 {
	tree := ab.ask
	if side == Buy {
		tree = ab.bid
	}

	amount, _ := tree.Get(price)
	return amount
}

// Levels returns up to limit price levels for the given side, best price
// first.
func (ab *AggregatedBook) Levels(side Side, limit int) []*DepthItem {
	tree := ab.ask
	if side == Buy {
		tree = ab.bid
	}

	result := make([]*DepthItem, 0, limit)

	var i uint32
	for it := tree.Iterator(); it.Valid() && len(result) < limit; it.Next() {
		result = append(result, &DepthItem{
			ID:     i,
			Price:  it.Key(),
			Amount: it.Value(),
		})
		i++
	}

	return result
}

func (ab *AggregatedBook) add(side *treemap.TreeMap[uint64, uint64], price uint64, amount uint64) {
	current, _ := side.Get(price)
	side.Set(price, safe.SafeAdd(current, amount))
}

func (ab *AggregatedBook) reduce(side *treemap.TreeMap[uint64, uint64], price uint64, amount uint64) error {
	current, ok := side.Get(price)
	if !ok || current < amount {
		return fmt.Errorf("%w: fill of %d at price %d exceeds tracked depth", ErrBookOutOfSync, amount, price)
	}

	if current == amount {
		side.Del(price)
		return nil
	}

	side.Set(price, current-amount)
	return nil
}
