package core

import "errors"

// Invalid-parameter errors. Callers log or ignore them; none is fatal.
var (
	ErrInvalidChannel = errors.New("invalid servo channel")
	ErrInvalidAngle   = errors.New("angle out of range")
	ErrBadDescriptor  = errors.New("bad file descriptor")
)

// Resource errors. Retry later; there is no backoff policy.
var (
	ErrBufferFull  = errors.New("ring buffer full")
	ErrBufferEmpty = errors.New("ring buffer empty")
)
