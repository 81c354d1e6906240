package app

import "errors"

var (
	// ErrFieldRequired is wrapped with the missing field name.
	ErrFieldRequired      = errors.New("missing required field")
	ErrUnknownPlatform    = errors.New("unknown platform")
	ErrUnknownStatus      = errors.New("unknown post status")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountUnavailable = errors.New("account not found or inactive")
	ErrPostNotFound       = errors.New("post not found")
	ErrPostNotDraft       = errors.New("post is not in draft status")
	ErrScheduleNotFound   = errors.New("schedule not found")
	ErrInvalidOAuthState  = errors.New("invalid or expired oauth state")
	// ErrPublishFailed wraps platform rejections after the post has been
	// marked failed, so queue consumers can retry.
	ErrPublishFailed = errors.New("failed to publish to platform")
)
