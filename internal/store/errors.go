package store

import "errors"

var (
	ErrNotFound          = errors.New("resource not found")
	ErrDuplicate         = errors.New("duplicate resource")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrConflict          = errors.New("resource was modified concurrently")
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrStockOverflow     = errors.New("stock change out of range")
)
