package app

import "errors"

var (
	// ErrPromptRequired indicates a generation request without a prompt.
	ErrPromptRequired  = errors.New("prompt required")
	ErrUnknownPlatform = errors.New("unknown platform")
	ErrImageNotFound   = errors.New("image not found")
	ErrImageNotReady   = errors.New("image not ready")
)
