package match

import (
	"math/big"

	"github.com/shopspring/decimal"
)

type Side int8

const (
	Buy  Side = 1
	Sell Side = 2
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// Order is the input to the engine. It is never stored as-is; any
// unmatched quantity is converted into a RestingOrder.
type Order struct {
	Price  uint64 `json:"price"`
	Amount uint64 `json:"amount"`
	Side   Side   `json:"side"`
	Signer string `json:"signer"`
}

// RestingOrder is the unit stored in the book, and also the shape of a
// fill inside a Receipt. While resting, Amount holds the quantity at first
// insertion and Remaining the quantity still unmatched. In a Receipt fill,
// Amount is the quantity matched by that fill and Remaining the
// counterparty's post-fill resting quantity.
type RestingOrder struct {
	Price     uint64 `json:"price"`
	Amount    uint64 `json:"amount"`
	Remaining uint64 `json:"remaining"`
	Side      Side   `json:"side"`
	Signer    string `json:"signer"`
	Ordinal   uint64 `json:"ordinal"`

	// Intrusive linked list pointers (ignored by JSON)
	next *RestingOrder
	prev *RestingOrder
}

// Receipt describes everything matched by a single Process call. Matches
// are ordered by execution: best price first, then lowest ordinal within a
// price level.
type Receipt struct {
	Ordinal uint64         `json:"ordinal"`
	Matches []RestingOrder `json:"matches"`
}

// MatchedAmount returns the total quantity filled by this receipt. It
// never exceeds the incoming order's amount.
func (r *Receipt) MatchedAmount() uint64 {
	var total uint64
	for i := range r.Matches {
		total += r.Matches[i].Amount
	}
	return total
}

// Notional returns the total traded value, the sum of price times matched
// quantity per fill. Decimal arithmetic, since the product of two uint64
// values can exceed uint64.
func (r *Receipt) Notional() decimal.Decimal {
	total := decimal.Zero
	for i := range r.Matches {
		m := &r.Matches[i]
		total = total.Add(decimalFromUint(m.Price).Mul(decimalFromUint(m.Amount)))
	}
	return total
}

// AvgPrice returns the volume-weighted average fill price, or zero when
// nothing matched.
func (r *Receipt) AvgPrice() decimal.Decimal {
	matched := r.MatchedAmount()
	if matched == 0 {
		return decimal.Zero
	}
	return r.Notional().Div(decimalFromUint(matched))
}

func decimalFromUint(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}
