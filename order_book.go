package match

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/rs/xid"
)

// CommandType represents the type of command sent to the order book.
type CommandType int

const (
	CmdSubmitOrder CommandType = iota
	CmdAmount
	CmdDepth
	CmdGetStats
	CmdReceipts
)

// Command represents a unified command sent to the order book.
// A single channel keeps command ordering deterministic.
type Command struct {
	Type    CommandType
	Payload any
	Resp    chan any // Optional: for synchronous responses
}

type amountRequest struct {
	price uint64
	side  Side
}

// Depth is a point-in-time view of both sides of the book, best prices
// first. LastOrdinal is the ordinal of the last processed order.
type Depth struct {
	LastOrdinal uint64       `json:"last_ordinal"`
	Asks        []*DepthItem `json:"asks"`
	Bids        []*DepthItem `json:"bids"`
}

// BookStats contains statistics about the order book sides.
type BookStats struct {
	AskDepthCount int64
	AskOrderCount int64
	BidDepthCount int64
	BidOrderCount int64
	LastOrdinal   uint64
}

// OrderBook hosts an Engine behind a single-writer loop. All book
// mutation happens on the Start goroutine; queries round-trip through the
// same channel so they observe a fully settled book between orders.
type OrderBook struct {
	instrument       string
	isShutdown       atomic.Bool
	engine           *Engine
	cmdChan          chan Command
	done             chan struct{}
	shutdownComplete chan struct{}
	publishLog       PublishLog
}

// OrderBookOption configures an OrderBook.
type OrderBookOption func(*OrderBook)

// WithCommandBuffer sets the command channel capacity.
func WithCommandBuffer(n int) OrderBookOption {
	return func(book *OrderBook) {
		if n > 0 {
			book.cmdChan = make(chan Command, n)
		}
	}
}

// NewOrderBook creates a new order book instance for a single instrument.
// Every processed order is published to publishLog as a ReceiptLog.
func NewOrderBook(instrument string, publishLog PublishLog, opts ...OrderBookOption) *OrderBook {
	book := &OrderBook{
		instrument:       instrument,
		engine:           NewEngine(),
		cmdChan:          make(chan Command, 32768),
		done:             make(chan struct{}),
		shutdownComplete: make(chan struct{}),
		publishLog:       publishLog,
	}

	for _, opt := range opts {
		opt(book)
	}

	return book
}

// Instrument returns the instrument this book trades.
func (book *OrderBook) Instrument() string {
	return book.instrument
}

// SubmitOrder submits an order to the order book asynchronously. The
// receipt is delivered through the publish log.
// Returns ErrShutdown if the order book is shutting down.
func (book *OrderBook) SubmitOrder(ctx context.Context, order Order) error {
	if book.isShutdown.Load() {
		return ErrShutdown
	}

	if err := validateOrder(order); err != nil {
		return err
	}

	select {
	case book.cmdChan <- Command{Type: CmdSubmitOrder, Payload: order}:
		return nil
	case <-ctx.Done():
		return ErrTimeout
	}
}

// SubmitOrderWait submits an order and blocks until its receipt is
// available. Orders submitted concurrently are still processed in arrival
// order.
func (book *OrderBook) SubmitOrderWait(ctx context.Context, order Order) (*Receipt, error) {
	if book.isShutdown.Load() {
		return nil, ErrShutdown
	}

	if err := validateOrder(order); err != nil {
		return nil, err
	}

	respChan := make(chan any, 1)

	select {
	case book.cmdChan <- Command{Type: CmdSubmitOrder, Payload: order, Resp: respChan}:
	case <-ctx.Done():
		return nil, ErrTimeout
	}

	select {
	case res := <-respChan:
		if receipt, ok := res.(*Receipt); ok {
			return receipt, nil
		}
		return nil, nil
	case <-ctx.Done():
		return nil, ErrTimeout
	}
}

func validateOrder(order Order) error {
	if order.Amount == 0 || len(order.Signer) == 0 {
		return ErrInvalidParam
	}
	if order.Side != Buy && order.Side != Sell {
		return ErrInvalidParam
	}
	return nil
}

// AmountAtPriceLevel returns the total resting quantity at the exact
// price on the given side. The query runs on the book loop, so it never
// observes a half-applied order.
func (book *OrderBook) AmountAtPriceLevel(price uint64, side Side) (uint64, error) {
	if side != Buy && side != Sell {
		return 0, ErrInvalidParam
	}

	respChan := make(chan any, 1)

	select {
	case book.cmdChan <- Command{Type: CmdAmount, Payload: amountRequest{price: price, side: side}, Resp: respChan}:
		// Request sent, now wait for response
	case <-time.After(time.Second):
		return 0, ErrTimeout
	}

	select {
	case res := <-respChan:
		if amount, ok := res.(uint64); ok {
			return amount, nil
		}
		return 0, nil
	case <-time.After(time.Second):
		return 0, ErrTimeout
	}
}

// Depth returns the current depth of the order book up to the specified
// limit per side.
func (book *OrderBook) Depth(limit uint32) (*Depth, error) {
	if limit == 0 {
		return nil, ErrInvalidParam
	}

	respChan := make(chan any, 1)

	select {
	case book.cmdChan <- Command{Type: CmdDepth, Payload: limit, Resp: respChan}:
		// Request sent, now wait for response
	case <-time.After(time.Second):
		return nil, ErrTimeout
	}

	select {
	case res := <-respChan:
		if result, ok := res.(*Depth); ok {
			return result, nil
		}
		return nil, nil
	case <-time.After(time.Second):
		return nil, ErrTimeout
	}
}

// GetStats returns usage statistics for the order book.
func (book *OrderBook) GetStats() (*BookStats, error) {
	respChan := make(chan any, 1)

	select {
	case book.cmdChan <- Command{Type: CmdGetStats, Resp: respChan}:
		// Request sent, now wait for response
	case <-time.After(time.Second):
		return nil, ErrTimeout
	}

	select {
	case res := <-respChan:
		if result, ok := res.(*BookStats); ok {
			return result, nil
		}
		return nil, nil
	case <-time.After(time.Second):
		return nil, ErrTimeout
	}
}

// Receipts returns a copy of the engine's match log in ordinal order.
func (book *OrderBook) Receipts() ([]Receipt, error) {
	respChan := make(chan any, 1)

	select {
	case book.cmdChan <- Command{Type: CmdReceipts, Resp: respChan}:
		// Request sent, now wait for response
	case <-time.After(time.Second):
		return nil, ErrTimeout
	}

	select {
	case res := <-respChan:
		if result, ok := res.([]Receipt); ok {
			return result, nil
		}
		return nil, nil
	case <-time.After(time.Second):
		return nil, ErrTimeout
	}
}

// Start runs the order book loop to process orders and queries.
// Returns nil when Shutdown() is called and all pending commands are
// drained.
func (book *OrderBook) Start() error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	logger.Info("order book started", "instrument", book.instrument)

	for {
		select {
		case <-book.done:
			return book.drain()
		case cmd := <-book.cmdChan: // Process commands from the unified channel
			switch cmd.Type {
			case CmdSubmitOrder:
				if order, ok := cmd.Payload.(Order); ok {
					receipt := book.processOrder(order)
					if cmd.Resp != nil {
						select {
						case cmd.Resp <- receipt:
						default:
							// Non-blocking send, if no one is listening, just drop it
						}
					}
				}
			case CmdAmount:
				if req, ok := cmd.Payload.(amountRequest); ok {
					amount := book.engine.AmountAtPriceLevel(req.price, req.side)
					if cmd.Resp != nil {
						select {
						case cmd.Resp <- amount:
						default:
						}
					}
				}
			case CmdDepth:
				if limit, ok := cmd.Payload.(uint32); ok {
					result := book.depth(limit)
					if cmd.Resp != nil {
						select {
						case cmd.Resp <- result:
						default:
						}
					}
				}
			case CmdGetStats:
				stats := book.stats()
				if cmd.Resp != nil {
					select {
					case cmd.Resp <- stats:
					default:
					}
				}
			case CmdReceipts:
				receipts := book.engine.Receipts()
				if cmd.Resp != nil {
					select {
					case cmd.Resp <- receipts:
					default:
					}
				}
			}
		}
	}
}

// Shutdown signals the order book to stop accepting new orders and waits
// for all pending commands to be processed. The method blocks until the
// drain completes or the context is cancelled.
// Returns nil if shutdown completed successfully, or ctx.Err() otherwise.
func (book *OrderBook) Shutdown(ctx context.Context) error {
	if book.isShutdown.CompareAndSwap(false, true) {
		close(book.done)
	}

	select {
	case <-book.shutdownComplete:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// drain processes all remaining commands in the channel before returning.
func (book *OrderBook) drain() error {
	defer close(book.shutdownComplete)

	for {
		select {
		case cmd := <-book.cmdChan:
			switch cmd.Type {
			case CmdSubmitOrder:
				if order, ok := cmd.Payload.(Order); ok {
					receipt := book.processOrder(order)
					if cmd.Resp != nil {
						select {
						case cmd.Resp <- receipt:
						default:
						}
					}
				}
			case CmdAmount, CmdDepth, CmdGetStats, CmdReceipts:
				// Read-only commands, no-op during drain; waiters time out
			}
		default:
			// Channel empty, shutdown complete
			logger.Info("order book stopped", "instrument", book.instrument, "last_ordinal", book.engine.Ordinal())
			return nil
		}
	}
}

// processOrder runs one order through the engine and publishes the
// receipt log.
func (book *OrderBook) processOrder(order Order) *Receipt {
	receipt := book.engine.Process(order)

	log := &ReceiptLog{
		EventID:    xid.New().String(),
		Instrument: book.instrument,
		Side:       order.Side,
		Price:      order.Price,
		Amount:     order.Amount,
		Signer:     order.Signer,
		Receipt:    receipt,
		CreatedAt:  time.Now().UTC(),
	}
	book.publishLog.Publish(log)

	return &receipt
}

// depth returns the snapshot of the order book depth.
func (book *OrderBook) depth(limit uint32) *Depth {
	return &Depth{
		LastOrdinal: book.engine.Ordinal(),
		Asks:        book.engine.asks.depth(limit),
		Bids:        book.engine.bids.depth(limit),
	}
}

func (book *OrderBook) stats() *BookStats {
	return &BookStats{
		AskDepthCount: book.engine.asks.depthCount(),
		AskOrderCount: book.engine.asks.orderCount(),
		BidDepthCount: book.engine.bids.depthCount(),
		BidOrderCount: book.engine.bids.orderCount(),
		LastOrdinal:   book.engine.Ordinal(),
	}
}
