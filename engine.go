package match

// Engine is the matching core for a single instrument: two price-time
// priority sides, a monotonic ordinal counter, and an append-only receipt
// log. It is synchronous and not safe for concurrent use; hosts that take
// orders from multiple goroutines wrap it in an OrderBook.
type Engine struct {
	ordinal  uint64
	bids     *queue
	asks     *queue
	receipts []Receipt
}

// NewEngine creates an empty matching engine.
func NewEngine() *Engine {
	return &Engine{
		bids: NewBuyerQueue(),
		asks: NewSellerQueue(),
	}
}

// Ordinal returns the sequence number assigned to the most recently
// processed order, or 0 before the first call.
func (e *Engine) Ordinal() uint64 {
	return e.ordinal
}

// Process matches an incoming order against the opposite side and returns
// a receipt describing every fill. Eligible price levels are visited best
// price first; within a level the lowest ordinal matches first. A resting
// order with the same signer is never matched: it is set aside and
// returned to its level with its priority intact. Whatever quantity
// remains unmatched rests on the order's own side at the limit price.
//
// Process always succeeds. An order with Amount 0 consumes an ordinal and
// produces an empty receipt without touching the book.
func (e *Engine) Process(order Order) Receipt {
	e.ordinal++
	ordinal := e.ordinal

	var myQueue, targetQueue *queue
	if order.Side == Buy {
		myQueue = e.bids
		targetQueue = e.asks
	} else {
		myQueue = e.asks
		targetQueue = e.bids
	}

	remaining := order.Amount
	var matches []RestingOrder

	el := targetQueue.bestLevel()
	for el != nil && remaining > 0 {
		unit, _ := el.Value.(*priceLevel)
		price := unit.price

		// Limit price bound: a buy never lifts an ask above its limit, a
		// sell never hits a bid below it. Levels arrive best price first,
		// so the first ineligible level ends the scan.
		if order.Side == Buy && price > order.Price ||
			order.Side == Sell && price < order.Price {
			break
		}

		next := el.Next()

		var skipped []*RestingOrder
		for remaining > 0 {
			resting := targetQueue.popHead(price)
			if resting == nil {
				break
			}

			if resting.Signer == order.Signer {
				skipped = append(skipped, resting)
				continue
			}

			matched := min(remaining, resting.Remaining)
			remaining -= matched
			resting.Remaining -= matched

			matches = append(matches, RestingOrder{
				Price:     resting.Price,
				Amount:    matched,
				Remaining: resting.Remaining,
				Side:      resting.Side,
				Signer:    resting.Signer,
				Ordinal:   resting.Ordinal,
			})

			if resting.Remaining > 0 {
				// The incoming order is exhausted; the survivor keeps its
				// place at the head of the level.
				targetQueue.insertOrder(resting, true)
				break
			}
		}

		// Self-trade orders that were set aside go back to the front of
		// the same level in reverse pop order, restoring their original
		// ordinal positions.
		for i := len(skipped) - 1; i >= 0; i-- {
			targetQueue.insertOrder(skipped[i], true)
		}

		el = next
	}

	if remaining > 0 {
		myQueue.insertOrder(&RestingOrder{
			Price:     order.Price,
			Amount:    order.Amount,
			Remaining: remaining,
			Side:      order.Side,
			Signer:    order.Signer,
			Ordinal:   ordinal,
		}, false)
	}

	receipt := Receipt{Ordinal: ordinal, Matches: matches}
	e.receipts = append(e.receipts, receipt)

	return receipt
}

// AmountAtPriceLevel returns the total remaining quantity resting at the
// exact price on the given side, or 0 when nothing rests there. Read-only.
func (e *Engine) AmountAtPriceLevel(price uint64, side Side) uint64 {
	if side == Buy {
		return e.bids.amountAt(price)
	}
	return e.asks.amountAt(price)
}

// Receipts returns a copy of the match log: one receipt per processed
// order, in ordinal order.
func (e *Engine) Receipts() []Receipt {
	out := make([]Receipt, len(e.receipts))
	copy(out, e.receipts)
	return out
}
