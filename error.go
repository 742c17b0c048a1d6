package match

import "errors"

var (
	ErrInvalidParam  = errors.New("the param is invalid")
	ErrTimeout       = errors.New("timeout")
	ErrShutdown      = errors.New("order book is shutting down")
	ErrOrdinalGap    = errors.New("receipt ordinal gap detected")
	ErrBookOutOfSync = errors.New("aggregated book is out of sync")
)
