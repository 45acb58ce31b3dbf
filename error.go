package market

import "errors"

var (
	ErrDuplicateOrder     = errors.New("a tick with this order id is already in the book")
	ErrNotFound           = errors.New("not found")
	ErrInvalidParam       = errors.New("the param is invalid")
	ErrInvariantViolation = errors.New("reserved quantity exceeds the order's total quantity")
	ErrBookClosed         = errors.New("order book is closed")
)
