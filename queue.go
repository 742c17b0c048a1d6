package match

import (
	"github.com/huandu/skiplist"

	"github.com/openclob/openclob/safe"
)

// priceLevel holds the resting orders sharing one price, as an intrusive
// doubly linked list in ascending ordinal order. remaining caches the sum
// of Remaining across the linked orders.
type priceLevel struct {
	price     uint64
	remaining uint64
	head      *RestingOrder
	tail      *RestingOrder
	count     int64
}

type DepthItem struct {
	ID     uint32 `json:"id"`
	Price  uint64 `json:"price"`
	Amount uint64 `json:"amount"`
}

type queue struct {
	side        Side
	totalOrders int64
	depths      int64
	depthList   *skiplist.SkipList
	priceList   map[uint64]*skiplist.Element
}

// NewBuyerQueue creates a new queue for buy orders (bids).
// The levels are sorted by price in descending order (highest price first).
func NewBuyerQueue() *queue {
	return &queue{
		side: Buy,
		depthList: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			p1, _ := lhs.(uint64)
			p2, _ := rhs.(uint64)

			if p1 < p2 {
				return 1
			} else if p1 > p2 {
				return -1
			}

			return 0
		})),
		priceList: make(map[uint64]*skiplist.Element),
	}
}

// NewSellerQueue creates a new queue for sell orders (asks).
// The levels are sorted by price in ascending order (lowest price first).
func NewSellerQueue() *queue {
	return &queue{
		side: Sell,
		depthList: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			p1, _ := lhs.(uint64)
			p2, _ := rhs.(uint64)

			if p1 > p2 {
				return 1
			} else if p1 < p2 {
				return -1
			}

			return 0
		})),
		priceList: make(map[uint64]*skiplist.Element),
	}
}

// insertOrder inserts an order into its price level, creating the level if
// needed. isFront pushes the order to the head of the level, which keeps
// its priority when a partially filled or self-trade skipped order returns
// to the book; otherwise the order joins the tail.
func (q *queue) insertOrder(order *RestingOrder, isFront bool) {
	el, ok := q.priceList[order.Price]
	if ok {
		unit, _ := el.Value.(*priceLevel)
		if isFront {
			// Push Front
			order.next = unit.head
			order.prev = nil
			if unit.head != nil {
				unit.head.prev = order
			}
			unit.head = order
			if unit.tail == nil {
				unit.tail = order
			}
		} else {
			// Push Back
			order.prev = unit.tail
			order.next = nil
			if unit.tail != nil {
				unit.tail.next = order
			}
			unit.tail = order
			if unit.head == nil {
				unit.head = order
			}
		}

		unit.remaining = safe.SafeAdd(unit.remaining, order.Remaining)
		unit.count++
		q.totalOrders++
	} else {
		unit := &priceLevel{
			price:     order.Price,
			remaining: order.Remaining,
			head:      order,
			tail:      order,
			count:     1,
		}
		order.next = nil
		order.prev = nil

		el := q.depthList.Set(order.Price, unit)
		q.priceList[order.Price] = el

		q.totalOrders++
		q.depths++
	}
}

// popHead removes and returns the lowest-ordinal order at the given price
// level, or nil when the level does not exist. A level emptied by the pop
// is removed immediately.
func (q *queue) popHead(price uint64) *RestingOrder {
	skipElement, ok := q.priceList[price]
	if !ok {
		return nil
	}
	unit, _ := skipElement.Value.(*priceLevel)

	order := unit.head
	if order == nil {
		return nil
	}

	// Unlink from the level list
	unit.head = order.next
	if order.next != nil {
		order.next.prev = nil
	} else {
		unit.tail = nil
	}

	order.next = nil
	order.prev = nil

	unit.remaining = safe.SafeSub(unit.remaining, order.Remaining)
	unit.count--
	q.totalOrders--

	if unit.count == 0 {
		q.depthList.RemoveElement(skipElement)
		delete(q.priceList, price)
		q.depths--
	}

	return order
}

// bestLevel returns the skiplist element holding the best price level:
// highest bid or lowest ask. Nil when the side is empty.
func (q *queue) bestLevel() *skiplist.Element {
	return q.depthList.Front()
}

// amountAt returns the sum of remaining quantity at the exact price level,
// or 0 when no orders rest there.
func (q *queue) amountAt(price uint64) uint64 {
	el, ok := q.priceList[price]
	if !ok {
		return 0
	}

	unit, _ := el.Value.(*priceLevel)
	return unit.remaining
}

// orderCount returns the total number of orders in the queue.
func (q *queue) orderCount() int64 {
	return q.totalOrders
}

// depthCount returns the number of price levels in the queue.
func (q *queue) depthCount() int64 {
	return q.depths
}

// restingOrders serializes the queue into a slice of RestingOrder values.
// It iterates the skip list (price levels) and then the linked list
// (orders) to preserve priority order.
func (q *queue) restingOrders() []RestingOrder {
	snapshots := make([]RestingOrder, 0, q.totalOrders)

	elem := q.depthList.Front()
	for elem != nil {
		unit := elem.Value.(*priceLevel)

		order := unit.head
		for order != nil {
			snapshots = append(snapshots, RestingOrder{
				Price:     order.Price,
				Amount:    order.Amount,
				Remaining: order.Remaining,
				Side:      order.Side,
				Signer:    order.Signer,
				Ordinal:   order.Ordinal,
			})
			order = order.next
		}

		elem = elem.Next()
	}

	return snapshots
}

// depth returns the order book depth up to the specified limit, best
// prices first.
func (q *queue) depth(limit uint32) []*DepthItem {
	result := make([]*DepthItem, 0, limit)

	el := q.depthList.Front()

	var i uint32 = 0
	for i < limit && el != nil {
		unit, _ := el.Value.(*priceLevel)
		d := DepthItem{
			ID:     i,
			Price:  unit.price,
			Amount: unit.remaining,
		}

		result = append(result, &d)

		el = el.Next()
		i++
	}

	return result
}
