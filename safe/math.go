package safe

import (
	"math"
)

// SafeAdd performs uint64 addition and panics on overflow.
func SafeAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		panic("BOOK_SAFE_ADD_OVERFLOW")
	}
	return a + b
}

// SafeSub performs uint64 subtraction and panics on underflow.
func SafeSub(a, b uint64) uint64 {
	if a < b {
		panic("BOOK_SAFE_SUB_UNDERFLOW")
	}
	return a - b
}

// SafeMul performs uint64 multiplication and panics on overflow.
func SafeMul(a, b uint64) uint64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a > math.MaxUint64/b {
		panic("BOOK_SAFE_MUL_OVERFLOW")
	}
	return a * b
}
