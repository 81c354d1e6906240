package app

import "errors"

var (
	// ErrUnknownPlatform indicates a platform outside the supported set.
	ErrUnknownPlatform = errors.New("unknown platform")
	ErrUnknownCategory = errors.New("unknown category")
	ErrContentRequired = errors.New("content required")
	ErrDaysOutOfRange  = errors.New("days must be between 1 and 90")
	ErrCountOutOfRange = errors.New("count must be between 1 and 20")
)
