package match

import "github.com/shopspring/decimal"

// DepthChange represents a change in the order book depth.
// SizeDiff is signed: negative means liquidity was consumed.
type DepthChange struct {
	Side     Side
	Price    uint64
	SizeDiff decimal.Decimal
}

// CalculateDepthChanges derives the depth updates implied by one receipt
// log. Each fill removes matched quantity from the maker side at the fill
// price; any unmatched leftover of the incoming order appears on its own
// side at the limit price.
func CalculateDepthChanges(log *ReceiptLog) []DepthChange {
	changes := make([]DepthChange, 0, len(log.Receipt.Matches)+1)

	// Fills consume liquidity from the maker side, the opposite of the
	// incoming order's side.
	makerSide := Buy
	if log.Side == Buy {
		makerSide = Sell
	}

	var matched uint64
	for i := range log.Receipt.Matches {
		fill := &log.Receipt.Matches[i]
		matched += fill.Amount
		changes = append(changes, DepthChange{
			Side:     makerSide,
			Price:    fill.Price,
			SizeDiff: decimalFromUint(fill.Amount).Neg(),
		})
	}

	if matched < log.Amount {
		changes = append(changes, DepthChange{
			Side:     log.Side,
			Price:    log.Price,
			SizeDiff: decimalFromUint(log.Amount - matched),
		})
	}

	return changes
}
