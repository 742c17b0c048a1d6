package match

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessScenarios(t *testing.T) {
	t.Run("PartialFillRestsLeftover", func(t *testing.T) {
		engine := NewEngine()

		receipt := engine.Process(Order{Price: 10, Amount: 1, Side: Sell, Signer: "alice"})
		assert.Equal(t, uint64(1), receipt.Ordinal)
		assert.Empty(t, receipt.Matches)

		receipt = engine.Process(Order{Price: 10, Amount: 2, Side: Buy, Signer: "bob"})
		assert.Equal(t, uint64(2), receipt.Ordinal)
		require.Len(t, receipt.Matches, 1)

		fill := receipt.Matches[0]
		assert.Equal(t, "alice", fill.Signer)
		assert.Equal(t, uint64(1), fill.Amount)
		assert.Equal(t, uint64(0), fill.Remaining)
		assert.Equal(t, uint64(1), fill.Ordinal)

		assert.Equal(t, uint64(1), engine.AmountAtPriceLevel(10, Buy))
		assert.Equal(t, uint64(0), engine.AmountAtPriceLevel(10, Sell))
	})

	t.Run("ExactFillEmptiesBothSides", func(t *testing.T) {
		engine := NewEngine()

		engine.Process(Order{Price: 10, Amount: 2, Side: Sell, Signer: "alice"})
		receipt := engine.Process(Order{Price: 10, Amount: 2, Side: Buy, Signer: "bob"})

		require.Len(t, receipt.Matches, 1)
		assert.Equal(t, uint64(2), receipt.Matches[0].Amount)
		assert.Equal(t, uint64(0), receipt.Matches[0].Remaining)

		assert.Equal(t, uint64(0), engine.AmountAtPriceLevel(10, Buy))
		assert.Equal(t, uint64(0), engine.AmountAtPriceLevel(10, Sell))
		assert.Equal(t, int64(0), engine.bids.depthCount())
		assert.Equal(t, int64(0), engine.asks.depthCount())
	})

	t.Run("TimePriorityWithinLevel", func(t *testing.T) {
		engine := NewEngine()

		engine.Process(Order{Price: 10, Amount: 1, Side: Sell, Signer: "alice"})
		engine.Process(Order{Price: 10, Amount: 1, Side: Sell, Signer: "charlie"})
		receipt := engine.Process(Order{Price: 10, Amount: 2, Side: Buy, Signer: "bob"})

		require.Len(t, receipt.Matches, 2)
		assert.Equal(t, "alice", receipt.Matches[0].Signer)
		assert.Equal(t, uint64(1), receipt.Matches[0].Ordinal)
		assert.Equal(t, "charlie", receipt.Matches[1].Signer)
		assert.Equal(t, uint64(2), receipt.Matches[1].Ordinal)
		assert.Equal(t, uint64(0), receipt.Matches[0].Remaining)
		assert.Equal(t, uint64(0), receipt.Matches[1].Remaining)

		assert.Equal(t, uint64(0), engine.AmountAtPriceLevel(10, Buy))
		assert.Equal(t, uint64(0), engine.AmountAtPriceLevel(10, Sell))
	})

	t.Run("SelfTradeSkipped", func(t *testing.T) {
		engine := NewEngine()

		engine.Process(Order{Price: 10, Amount: 1, Side: Sell, Signer: "alice"})
		engine.Process(Order{Price: 10, Amount: 1, Side: Sell, Signer: "charlie"})
		receipt := engine.Process(Order{Price: 10, Amount: 2, Side: Buy, Signer: "alice"})

		require.Len(t, receipt.Matches, 1)
		assert.Equal(t, "charlie", receipt.Matches[0].Signer)
		assert.Equal(t, uint64(1), receipt.Matches[0].Amount)

		// Alice's resting sell survives with its original priority; her
		// unmatched buy unit rests on the other side.
		assert.Equal(t, uint64(1), engine.AmountAtPriceLevel(10, Sell))
		assert.Equal(t, uint64(1), engine.AmountAtPriceLevel(10, Buy))

		asks := engine.asks.restingOrders()
		require.Len(t, asks, 1)
		assert.Equal(t, "alice", asks[0].Signer)
		assert.Equal(t, uint64(1), asks[0].Ordinal)
	})

	t.Run("NoCrossLeavesBothLevels", func(t *testing.T) {
		engine := NewEngine()

		receipt := engine.Process(Order{Price: 10, Amount: 2, Side: Sell, Signer: "alice"})
		assert.Empty(t, receipt.Matches)
		receipt = engine.Process(Order{Price: 11, Amount: 2, Side: Sell, Signer: "bob"})
		assert.Empty(t, receipt.Matches)

		assert.Equal(t, uint64(2), engine.AmountAtPriceLevel(10, Sell))
		assert.Equal(t, uint64(2), engine.AmountAtPriceLevel(11, Sell))
	})

	t.Run("OrdinalSequence", func(t *testing.T) {
		engine := NewEngine()

		signers := []string{"alice", "bob", "charlie"}
		for i, signer := range signers {
			receipt := engine.Process(Order{Price: 10, Amount: 1, Side: Buy, Signer: signer})
			assert.Equal(t, uint64(i+1), receipt.Ordinal)
		}

		assert.Equal(t, uint64(3), engine.Ordinal())
	})
}

func TestProcessPricePriority(t *testing.T) {
	t.Run("BuyLiftsLowestAskFirst", func(t *testing.T) {
		engine := NewEngine()

		engine.Process(Order{Price: 12, Amount: 1, Side: Sell, Signer: "alice"})
		engine.Process(Order{Price: 10, Amount: 1, Side: Sell, Signer: "bob"})
		engine.Process(Order{Price: 11, Amount: 1, Side: Sell, Signer: "charlie"})

		receipt := engine.Process(Order{Price: 11, Amount: 3, Side: Buy, Signer: "dave"})

		// Only the 10 and 11 asks are eligible, lowest price first.
		require.Len(t, receipt.Matches, 2)
		assert.Equal(t, uint64(10), receipt.Matches[0].Price)
		assert.Equal(t, uint64(11), receipt.Matches[1].Price)

		// The ask above the limit is untouched; dave's leftover rests.
		assert.Equal(t, uint64(1), engine.AmountAtPriceLevel(12, Sell))
		assert.Equal(t, uint64(1), engine.AmountAtPriceLevel(11, Buy))
	})

	t.Run("SellHitsHighestBidFirst", func(t *testing.T) {
		engine := NewEngine()

		engine.Process(Order{Price: 8, Amount: 1, Side: Buy, Signer: "alice"})
		engine.Process(Order{Price: 10, Amount: 1, Side: Buy, Signer: "bob"})
		engine.Process(Order{Price: 9, Amount: 1, Side: Buy, Signer: "charlie"})

		receipt := engine.Process(Order{Price: 9, Amount: 3, Side: Sell, Signer: "dave"})

		require.Len(t, receipt.Matches, 2)
		assert.Equal(t, uint64(10), receipt.Matches[0].Price)
		assert.Equal(t, uint64(9), receipt.Matches[1].Price)

		assert.Equal(t, uint64(1), engine.AmountAtPriceLevel(8, Buy))
		assert.Equal(t, uint64(1), engine.AmountAtPriceLevel(9, Sell))
	})
}

func TestProcessPartialFillKeepsSurvivorPriority(t *testing.T) {
	engine := NewEngine()

	engine.Process(Order{Price: 10, Amount: 5, Side: Sell, Signer: "alice"})
	engine.Process(Order{Price: 10, Amount: 5, Side: Sell, Signer: "bob"})

	receipt := engine.Process(Order{Price: 10, Amount: 3, Side: Buy, Signer: "charlie"})
	require.Len(t, receipt.Matches, 1)
	assert.Equal(t, "alice", receipt.Matches[0].Signer)
	assert.Equal(t, uint64(3), receipt.Matches[0].Amount)
	assert.Equal(t, uint64(2), receipt.Matches[0].Remaining)

	// Alice keeps the head of the level with her shrunken remainder.
	receipt = engine.Process(Order{Price: 10, Amount: 3, Side: Buy, Signer: "charlie"})
	require.Len(t, receipt.Matches, 2)
	assert.Equal(t, "alice", receipt.Matches[0].Signer)
	assert.Equal(t, uint64(2), receipt.Matches[0].Amount)
	assert.Equal(t, uint64(0), receipt.Matches[0].Remaining)
	assert.Equal(t, "bob", receipt.Matches[1].Signer)
	assert.Equal(t, uint64(1), receipt.Matches[1].Amount)
	assert.Equal(t, uint64(4), receipt.Matches[1].Remaining)

	assert.Equal(t, uint64(4), engine.AmountAtPriceLevel(10, Sell))
}

func TestProcessSelfTradeBehindPartialFill(t *testing.T) {
	engine := NewEngine()

	engine.Process(Order{Price: 10, Amount: 2, Side: Sell, Signer: "alice"})
	engine.Process(Order{Price: 10, Amount: 5, Side: Sell, Signer: "bob"})

	// Alice is skipped, bob fills partially, and alice must still be
	// ahead of bob in the level afterwards.
	receipt := engine.Process(Order{Price: 10, Amount: 3, Side: Buy, Signer: "alice"})
	require.Len(t, receipt.Matches, 1)
	assert.Equal(t, "bob", receipt.Matches[0].Signer)
	assert.Equal(t, uint64(3), receipt.Matches[0].Amount)
	assert.Equal(t, uint64(2), receipt.Matches[0].Remaining)

	asks := engine.asks.restingOrders()
	require.Len(t, asks, 2)
	assert.Equal(t, "alice", asks[0].Signer)
	assert.Equal(t, uint64(1), asks[0].Ordinal)
	assert.Equal(t, "bob", asks[1].Signer)

	receipt = engine.Process(Order{Price: 10, Amount: 1, Side: Buy, Signer: "charlie"})
	require.Len(t, receipt.Matches, 1)
	assert.Equal(t, "alice", receipt.Matches[0].Signer)
}

func TestProcessZeroAmountIsNoOp(t *testing.T) {
	engine := NewEngine()

	engine.Process(Order{Price: 10, Amount: 2, Side: Sell, Signer: "alice"})

	receipt := engine.Process(Order{Price: 10, Amount: 0, Side: Buy, Signer: "bob"})
	assert.Equal(t, uint64(2), receipt.Ordinal)
	assert.Empty(t, receipt.Matches)

	// The ordinal is consumed, the book untouched.
	assert.Equal(t, uint64(2), engine.AmountAtPriceLevel(10, Sell))
	assert.Equal(t, uint64(0), engine.AmountAtPriceLevel(10, Buy))
	assert.Equal(t, uint64(3), engine.Process(Order{Price: 10, Amount: 1, Side: Buy, Signer: "bob"}).Ordinal)
}

func TestReceiptsLog(t *testing.T) {
	engine := NewEngine()

	engine.Process(Order{Price: 10, Amount: 1, Side: Sell, Signer: "alice"})
	engine.Process(Order{Price: 10, Amount: 1, Side: Buy, Signer: "bob"})

	receipts := engine.Receipts()
	require.Len(t, receipts, 2)
	assert.Equal(t, uint64(1), receipts[0].Ordinal)
	assert.Empty(t, receipts[0].Matches)
	assert.Equal(t, uint64(2), receipts[1].Ordinal)
	assert.Len(t, receipts[1].Matches, 1)

	// The returned slice is a copy.
	receipts[0].Ordinal = 99
	assert.Equal(t, uint64(1), engine.Receipts()[0].Ordinal)
}

// randomOrders builds a deterministic pseudo-random order flow shared by
// the property and determinism tests.
func randomOrders(seed int64, n int) []Order {
	rnd := rand.New(rand.NewSource(seed))
	signers := []string{"alice", "bob", "charlie", "dave"}

	orders := make([]Order, 0, n)
	for i := 0; i < n; i++ {
		side := Buy
		if rnd.Intn(2) == 1 {
			side = Sell
		}
		orders = append(orders, Order{
			Price:  uint64(90 + rnd.Intn(21)),
			Amount: uint64(1 + rnd.Intn(10)),
			Side:   side,
			Signer: signers[rnd.Intn(len(signers))],
		})
	}
	return orders
}

func TestProcessProperties(t *testing.T) {
	engine := NewEngine()

	for _, order := range randomOrders(42, 500) {
		receipt := engine.Process(order)

		var matched uint64
		for i := range receipt.Matches {
			fill := &receipt.Matches[i]
			matched += fill.Amount

			// An order never trades with itself, nor outside its limit.
			assert.NotEqual(t, order.Signer, fill.Signer)
			if order.Side == Buy {
				assert.LessOrEqual(t, fill.Price, order.Price)
			} else {
				assert.GreaterOrEqual(t, fill.Price, order.Price)
			}
		}
		require.LessOrEqual(t, matched, order.Amount)

		// Any shortfall rests on the incoming side at the limit price,
		// so the level total covers it.
		if matched < order.Amount {
			assert.GreaterOrEqual(t, engine.AmountAtPriceLevel(order.Price, order.Side), order.Amount-matched)
		}

		// The cached level totals agree with a full walk of both sides.
		for _, side := range []Side{Buy, Sell} {
			q := engine.bids
			if side == Sell {
				q = engine.asks
			}
			totals := make(map[uint64]uint64)
			for _, resting := range q.restingOrders() {
				assert.LessOrEqual(t, resting.Remaining, resting.Amount)
				assert.Positive(t, resting.Remaining)
				totals[resting.Price] += resting.Remaining
			}
			for price, total := range totals {
				assert.Equal(t, total, engine.AmountAtPriceLevel(price, side))
			}
		}
	}
}

func TestProcessDeterministicReplay(t *testing.T) {
	orders := randomOrders(7, 300)

	run := func() ([]Receipt, []RestingOrder, []RestingOrder) {
		engine := NewEngine()
		for _, order := range orders {
			engine.Process(order)
		}
		return engine.Receipts(), engine.bids.restingOrders(), engine.asks.restingOrders()
	}

	receipts1, bids1, asks1 := run()
	receipts2, bids2, asks2 := run()

	assert.Equal(t, receipts1, receipts2)
	assert.Equal(t, bids1, bids2)
	assert.Equal(t, asks1, asks2)
}
