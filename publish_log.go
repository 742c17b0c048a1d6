package match

import (
	"sync"
	"time"
)

// ReceiptLog is the published record of one processed order: the submitted
// order fields, the receipt it produced, and host metadata for downstream
// consumers.
type ReceiptLog struct {
	EventID    string    `json:"event_id"`
	Instrument string    `json:"instrument"`
	Side       Side      `json:"side"`
	Price      uint64    `json:"price"`
	Amount     uint64    `json:"amount"`
	Signer     string    `json:"signer"`
	Receipt    Receipt   `json:"receipt"`
	CreatedAt  time.Time `json:"created_at"`
}

// PublishLog is an interface for publishing receipt logs.
//
// IMPORTANT: Implementations must either:
//  1. Process logs synchronously before returning, OR
//  2. Clone the ReceiptLog data before returning
//
// The caller may reuse the ReceiptLog after Publish returns, so any
// asynchronous processing must work with cloned data.
type PublishLog interface {
	Publish(...*ReceiptLog)
}

// MemoryPublishLog stores logs in memory, useful for testing.
type MemoryPublishLog struct {
	mu       sync.RWMutex
	receipts []*ReceiptLog
}

// NewMemoryPublishLog creates a new MemoryPublishLog.
func NewMemoryPublishLog() *MemoryPublishLog {
	return &MemoryPublishLog{
		receipts: make([]*ReceiptLog, 0),
	}
}

// Publish appends deep copies of the logs to the in-memory slice.
func (m *MemoryPublishLog) Publish(logs ...*ReceiptLog) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, log := range logs {
		cpy := new(ReceiptLog)
		*cpy = *log
		cpy.Receipt.Matches = append([]RestingOrder(nil), log.Receipt.Matches...)
		m.receipts = append(m.receipts, cpy)
	}
}

// Count returns the number of logs stored.
func (m *MemoryPublishLog) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.receipts)
}

// Get returns the log at the specified index.
func (m *MemoryPublishLog) Get(index int) *ReceiptLog {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.receipts[index]
}

// Logs returns a copy of all logs stored.
func (m *MemoryPublishLog) Logs() []*ReceiptLog {
	m.mu.RLock()
	defer m.mu.RUnlock()

	logs := make([]*ReceiptLog, len(m.receipts))
	copy(logs, m.receipts)
	return logs
}

// DiscardPublishLog discards all logs, useful for benchmarking.
type DiscardPublishLog struct {
}

// NewDiscardPublishLog creates a new DiscardPublishLog.
func NewDiscardPublishLog() *DiscardPublishLog {
	return &DiscardPublishLog{}
}

// Publish does nothing.
func (p *DiscardPublishLog) Publish(logs ...*ReceiptLog) {

}
